package agent

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/sashabaranov/go-openai"

	"lens-server-go/internal/platform/config"
	"lens-server-go/internal/platform/errors"
)

// ChatModel adapts an OpenAI-compatible chat endpoint to the agent
// framework's tool-calling model interface.
type ChatModel struct {
	client *openai.Client
	cfg    config.ModelConfig
	tools  []openai.Tool
}

// NewChatModel validates the configuration and builds the client.
func NewChatModel(cfg config.ModelConfig) (*ChatModel, error) {
	if strings.ToLower(cfg.Type) != "openai" {
		return nil, errors.New(errors.KindModelLoad, "agent.model", "unsupported model type: "+cfg.Type)
	}
	if cfg.ModelName == "" {
		return nil, errors.New(errors.KindModelLoad, "agent.model", "model name is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New(errors.KindModelLoad, "agent.model", "API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &ChatModel{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
	}, nil
}

// WithTools returns a copy of the model bound to the given tool set.
func (m *ChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	converted, err := convertTools(tools)
	if err != nil {
		return nil, err
	}

	clone := &ChatModel{
		client: m.client,
		cfg:    m.cfg,
		tools:  converted,
	}
	return clone, nil
}

// Generate performs one chat completion round.
func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	req := openai.ChatCompletionRequest{
		Model:       m.cfg.ModelName,
		Messages:    toOpenAIMessages(input),
		Temperature: float32(m.cfg.Temperature),
		Tools:       m.tools,
	}
	if m.cfg.TopP > 0 {
		req.TopP = float32(m.cfg.TopP)
	}
	if m.cfg.MaxTokens > 0 {
		req.MaxTokens = m.cfg.MaxTokens
	}

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, errors.Wrap(errors.KindAgent, "agent.generate", "chat completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New(errors.KindAgent, "agent.generate", "empty completion response")
	}

	return fromOpenAIMessage(resp.Choices[0].Message), nil
}

// Stream satisfies the model interface by generating once and emitting the
// result as a single-chunk stream.
func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func convertTools(tools []*schema.ToolInfo) ([]openai.Tool, error) {
	converted := make([]openai.Tool, 0, len(tools))
	for _, info := range tools {
		def := &openai.FunctionDefinition{
			Name:        info.Name,
			Description: info.Desc,
		}
		if info.ParamsOneOf != nil {
			params, err := info.ParamsOneOf.ToOpenAPIV3()
			if err != nil {
				return nil, errors.Wrap(errors.KindAgent, "agent.tools", "failed to convert tool parameters", err)
			}
			def.Parameters = params
		}
		converted = append(converted, openai.Tool{
			Type:     openai.ToolTypeFunction,
			Function: def,
		})
	}
	return converted, nil
}

func toOpenAIMessages(input []*schema.Message) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(input))
	for _, msg := range input {
		out := openai.ChatCompletionMessage{
			Role:       string(msg.Role),
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}
		for _, call := range msg.ToolCalls {
			out.ToolCalls = append(out.ToolCalls, openai.ToolCall{
				ID:   call.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      call.Function.Name,
					Arguments: call.Function.Arguments,
				},
			})
		}
		messages = append(messages, out)
	}
	return messages
}

func fromOpenAIMessage(msg openai.ChatCompletionMessage) *schema.Message {
	out := &schema.Message{
		Role:    schema.Assistant,
		Content: msg.Content,
	}
	for _, call := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, schema.ToolCall{
			ID:   call.ID,
			Type: string(call.Type),
			Function: schema.FunctionCall{
				Name:      call.Function.Name,
				Arguments: call.Function.Arguments,
			},
		})
	}
	return out
}
