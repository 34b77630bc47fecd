package vision

import (
	stderrors "errors"
	"strings"

	"github.com/sashabaranov/go-openai"

	"lens-server-go/internal/platform/config"
	"lens-server-go/internal/platform/errors"
	"lens-server-go/internal/platform/logging"
)

// Provider wraps one OpenAI-compatible vision endpoint. Captioner and
// Detector share this so both can point at the same or different backends.
type Provider struct {
	cfg    config.ModelConfig
	client *openai.Client
	logger *logging.Logger
}

// NewProvider validates the model configuration and builds the API client.
// Failures here carry the model-load kind so callers can distinguish a broken
// deployment from a bad request.
func NewProvider(cfg config.ModelConfig, logger *logging.Logger) (*Provider, error) {
	if strings.ToLower(cfg.Type) != "openai" {
		return nil, errors.New(errors.KindModelLoad, "vision.provider",
			"unsupported model type: "+cfg.Type)
	}
	if cfg.ModelName == "" {
		return nil, errors.New(errors.KindModelLoad, "vision.provider", "model name is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New(errors.KindModelLoad, "vision.provider", "API key is required")
	}
	if logger == nil {
		logger = logging.DefaultLogger
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Provider{
		cfg:    cfg,
		client: openai.NewClientWithConfig(clientConfig),
		logger: logger,
	}, nil
}

// Client exposes the underlying API client.
func (p *Provider) Client() *openai.Client {
	return p.client
}

// ModelName reports the configured model.
func (p *Provider) ModelName() string {
	return p.cfg.ModelName
}

// wrapCompletionError classifies a completion failure. A 4xx means the
// backend is up but rejected this request, so the error stays a vision
// error. Anything else (connection refused, DNS failure, 5xx) means the
// model backend is not serving and carries the model-load kind.
func wrapCompletionError(op string, err error) error {
	var apiErr *openai.APIError
	if stderrors.As(err, &apiErr) && apiErr.HTTPStatusCode >= 400 && apiErr.HTTPStatusCode < 500 {
		return errors.Wrap(errors.KindVision, op, "model rejected the request", err)
	}
	var reqErr *openai.RequestError
	if stderrors.As(err, &reqErr) && reqErr.HTTPStatusCode >= 400 && reqErr.HTTPStatusCode < 500 {
		return errors.Wrap(errors.KindVision, op, "model rejected the request", err)
	}
	return errors.Wrap(errors.KindModelLoad, op, "model backend unavailable", err)
}
