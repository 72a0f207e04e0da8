package greeting

import (
	"context"
	"fmt"

	"office_cheer_bot/internal/domain/occasion"
)

// TemplateGenerator produces deterministic greeting text without calling any
// provider. It is the fallback content source for development mode and for
// occasions where the LLM is unavailable.
type TemplateGenerator struct{}

func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

func (g *TemplateGenerator) Generate(_ context.Context, req Request) (*GeneratedText, error) {
	if req.Kind == occasion.KindAnniversary {
		return &GeneratedText{Body: anniversaryText(req.DisplayName, req.ElapsedYears)}, nil
	}
	return &GeneratedText{Body: birthdayText(req.DisplayName)}, nil
}

func birthdayText(name string) string {
	return fmt.Sprintf(
		"Happy Birthday, %s! Wishing you a wonderful celebration and a fantastic year ahead. "+
			"The entire team is sending their best wishes on your special day.", name)
}

func anniversaryText(name string, years int) string {
	if years == 1 {
		return fmt.Sprintf(
			"Congratulations on your first work anniversary, %s! Thank you for your contributions "+
				"during your first year with us. We look forward to many more years together!", name)
	}
	return fmt.Sprintf(
		"Congratulations on your %d-year work anniversary, %s! Your dedication and contributions "+
			"over the past %d years have been invaluable to our team. Thank you for your continued excellence!",
		years, name, years)
}
