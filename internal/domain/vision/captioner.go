package vision

import (
	"context"
	"strings"

	"github.com/sashabaranov/go-openai"

	"lens-server-go/internal/domain/image"
	"lens-server-go/internal/platform/config"
	"lens-server-go/internal/platform/errors"
	"lens-server-go/internal/platform/logging"
)

const captionPrompt = "Describe this image in one short sentence."

// Captioner produces a short natural-language caption for an image. The
// token budget is enforced server-side via max_tokens, so captions stay
// terse no matter what the model would prefer.
type Captioner struct {
	provider  *Provider
	maxTokens int
	logger    *logging.Logger
}

// NewCaptioner builds a captioner from its model configuration.
func NewCaptioner(cfg config.CaptionerConfig, logger *logging.Logger) (*Captioner, error) {
	provider, err := NewProvider(cfg.ModelConfig, logger)
	if err != nil {
		return nil, err
	}

	maxTokens := cfg.MaxCaptionTokens
	if maxTokens <= 0 {
		maxTokens = 20
	}

	return &Captioner{
		provider:  provider,
		maxTokens: maxTokens,
		logger:    provider.logger,
	}, nil
}

// Describe captions the given image payload.
func (c *Captioner) Describe(ctx context.Context, payload *image.Payload) (string, error) {
	if payload == nil || payload.Data == "" {
		return "", errors.New(errors.KindVision, "captioner.describe", "missing image payload")
	}

	resp, err := c.provider.Client().CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.provider.ModelName(),
		MaxTokens: c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: captionPrompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: payload.DataURL(),
						},
					},
				},
			},
		},
	})
	if err != nil {
		return "", wrapCompletionError("captioner.describe", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New(errors.KindVision, "captioner.describe", "empty caption response")
	}

	caption := strings.TrimSpace(resp.Choices[0].Message.Content)
	c.logger.DebugTag("VISION", "caption generated: length=%d", len(caption))
	return caption, nil
}
