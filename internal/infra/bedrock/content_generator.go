package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"office_cheer_bot/internal/domain/greeting"
	"office_cheer_bot/internal/domain/occasion"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/sirupsen/logrus"
)

// ContentGenerator produces greeting text through an Amazon Bedrock text
// model (anthropic messages API payload).
type ContentGenerator struct {
	client  *bedrockruntime.Client
	modelID string
	log     *logrus.Entry
}

func NewContentGenerator(client *bedrockruntime.Client, modelID string, log *logrus.Entry) *ContentGenerator {
	return &ContentGenerator{client: client, modelID: modelID, log: log}
}

type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	MaxTokens        int                `json:"max_tokens"`
	Messages         []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func (g *ContentGenerator) Generate(ctx context.Context, req greeting.Request) (*greeting.GeneratedText, error) {
	payload, err := json.Marshal(anthropicRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        400,
		Messages: []anthropicMessage{
			{Role: "user", Content: contentPrompt(req)},
		},
	})
	if err != nil {
		return nil, &greeting.GenerationError{Provider: "bedrock-text", Err: err}
	}

	out, err := g.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(g.modelID),
		ContentType: aws.String("application/json"),
		Body:        payload,
	})
	if err != nil {
		return nil, &greeting.GenerationError{Provider: "bedrock-text", Err: err}
	}

	var resp anthropicResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, &greeting.GenerationError{Provider: "bedrock-text", Err: fmt.Errorf("decoding model response: %w", err)}
	}
	if len(resp.Content) == 0 || strings.TrimSpace(resp.Content[0].Text) == "" {
		return nil, &greeting.GenerationError{Provider: "bedrock-text", Err: fmt.Errorf("model returned empty content")}
	}

	g.log.WithField("model", g.modelID).Debug("Greeting text generated")
	return &greeting.GeneratedText{Body: strings.TrimSpace(resp.Content[0].Text)}, nil
}

func contentPrompt(req greeting.Request) string {
	var b strings.Builder
	if req.Kind == occasion.KindAnniversary {
		fmt.Fprintf(&b, "Write a warm, professional work-anniversary greeting for %s, celebrating %d years at the company.",
			req.DisplayName, req.ElapsedYears)
	} else {
		fmt.Fprintf(&b, "Write a warm, cheerful birthday greeting for %s.", req.DisplayName)
	}
	if req.Milestone {
		b.WriteString(" This is a milestone occasion, so make it extra celebratory.")
	}
	if len(req.Interests) > 0 {
		fmt.Fprintf(&b, " Weave in their interests: %s.", strings.Join(req.Interests, ", "))
	}
	b.WriteString(" Keep it to three or four sentences. Reply with the greeting text only.")
	return b.String()
}
