package bedrock

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"office_cheer_bot/internal/domain/greeting"
	"office_cheer_bot/internal/domain/occasion"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ImageStore persists a generated PNG and returns a URL for embedding in the
// greeting email.
type ImageStore interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
}

// ImageGenerator produces greeting-card images through an Amazon Bedrock
// image model (Nova Canvas payload) and stores them via an ImageStore.
type ImageGenerator struct {
	client  *bedrockruntime.Client
	store   ImageStore
	modelID string
	log     *logrus.Entry
}

func NewImageGenerator(client *bedrockruntime.Client, store ImageStore, modelID string, log *logrus.Entry) *ImageGenerator {
	return &ImageGenerator{client: client, store: store, modelID: modelID, log: log}
}

type canvasRequest struct {
	TaskType          string `json:"taskType"`
	TextToImageParams struct {
		Text string `json:"text"`
	} `json:"textToImageParams"`
	ImageGenerationConfig struct {
		NumberOfImages int `json:"numberOfImages"`
		Width          int `json:"width"`
		Height         int `json:"height"`
	} `json:"imageGenerationConfig"`
}

type canvasResponse struct {
	Images []string `json:"images"`
}

func (g *ImageGenerator) Generate(ctx context.Context, req greeting.Request) (*greeting.ImageHandle, error) {
	var body canvasRequest
	body.TaskType = "TEXT_IMAGE"
	body.TextToImageParams.Text = imagePrompt(req)
	body.ImageGenerationConfig.NumberOfImages = 1
	body.ImageGenerationConfig.Width = 1024
	body.ImageGenerationConfig.Height = 1024

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &greeting.GenerationError{Provider: "bedrock-image", Err: err}
	}

	out, err := g.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(g.modelID),
		ContentType: aws.String("application/json"),
		Body:        payload,
	})
	if err != nil {
		return nil, &greeting.GenerationError{Provider: "bedrock-image", Err: err}
	}

	var resp canvasResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, &greeting.GenerationError{Provider: "bedrock-image", Err: fmt.Errorf("decoding model response: %w", err)}
	}
	if len(resp.Images) == 0 {
		return nil, &greeting.GenerationError{Provider: "bedrock-image", Err: fmt.Errorf("model returned no images")}
	}

	png, err := base64.StdEncoding.DecodeString(resp.Images[0])
	if err != nil {
		return nil, &greeting.GenerationError{Provider: "bedrock-image", Err: fmt.Errorf("decoding image data: %w", err)}
	}

	key := fmt.Sprintf("cards/%s/%s.png", strings.ToLower(string(req.Kind)), uuid.NewString())
	url, err := g.store.Put(ctx, key, png)
	if err != nil {
		return nil, &greeting.GenerationError{Provider: "bedrock-image", Err: fmt.Errorf("storing image: %w", err)}
	}

	g.log.WithFields(logrus.Fields{"model": g.modelID, "key": key}).Debug("Greeting card image generated")
	return &greeting.ImageHandle{URL: url}, nil
}

func imagePrompt(req greeting.Request) string {
	var b strings.Builder
	if req.Kind == occasion.KindAnniversary {
		fmt.Fprintf(&b, "A festive work-anniversary greeting card celebrating %d years, elegant and professional", req.ElapsedYears)
	} else {
		b.WriteString("A colorful, joyful birthday greeting card with balloons and confetti")
	}
	if len(req.Interests) > 0 {
		fmt.Fprintf(&b, ", themed around %s", req.Interests[0])
	}
	b.WriteString(", no text, illustration style")
	return b.String()
}
