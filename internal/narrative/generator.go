// Package narrative produces a short plain-language summary of a
// recommendation for the dashboard header.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/clima-risk/climadash/internal/models"
)

// Generator writes recommendation blurbs using OpenAI's API.
type Generator struct {
	client openai.Client
	model  openai.ChatModel
}

// NewGenerator creates a narrative generator.
// It reads the OPENAI_API_KEY environment variable for authentication.
func NewGenerator() (*Generator, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &Generator{
		client: client,
		model:  openai.ChatModelGPT4oMini,
	}, nil
}

// Describe writes one or two sentences about a recommendation. The text is
// advisory flavor only; callers fall back to template text on any failure.
func (g *Generator) Describe(ctx context.Context, location string, rec models.Recommendation) (string, error) {
	prompt := fmt.Sprintf(
		"Write one or two friendly sentences for a climate risk dashboard. "+
			"The best day for outdoor plans near %s is %s, with a thunderstorm "+
			"outflow danger index of %.1f (%d%% better than the reference day). "+
			"Do not mention the index name or numbers.",
		location, rec.Date.Format("Monday, January 2"), rec.TODI, rec.Improvement)

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("narrative generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no completion returned")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("empty completion returned")
	}
	log.Printf("Generated narrative for %s (%d chars)", location, len(text))
	return text, nil
}

// Fallback is the template blurb used when no generator is configured or a
// generation attempt fails.
func Fallback(location string, rec models.Recommendation) string {
	return fmt.Sprintf("Conditions near %s look best on %s.",
		location, rec.Date.Format("Monday, January 2"))
}
