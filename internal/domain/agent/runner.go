package agent

import (
	"context"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/flow/agent/react"
	"github.com/cloudwego/eino/schema"

	"lens-server-go/internal/domain/eventbus"
	"lens-server-go/internal/domain/session"
	"lens-server-go/internal/domain/tool"
	"lens-server-go/internal/platform/config"
	"lens-server-go/internal/platform/errors"
	"lens-server-go/internal/platform/logging"
)

// Runner drives the tool-calling agent loop. Each question runs through the
// agent with the session's recent turns as context; the loop is bounded by
// the configured step limit, after which the model's last answer stands.
type Runner struct {
	agent  *react.Agent
	store  session.Store
	prompt string
	logger *logging.Logger
}

// NewRunner assembles the agent from its model, tools and session store.
func NewRunner(ctx context.Context, cfg config.AgentConfig, registry *tool.Registry, store session.Store, logger *logging.Logger) (*Runner, error) {
	chatModel, err := NewChatModel(cfg.Model)
	if err != nil {
		return nil, err
	}

	maxStep := cfg.MaxSteps
	if maxStep <= 0 {
		maxStep = 5
	}

	reactAgent, err := react.NewAgent(ctx, &react.AgentConfig{
		ToolCallingModel: chatModel,
		ToolsConfig: compose.ToolsNodeConfig{
			Tools: tool.EinoTools(registry),
		},
		MaxStep: maxStep,
	})
	if err != nil {
		return nil, errors.Wrap(errors.KindAgent, "agent.new", "failed to build agent", err)
	}

	if logger == nil {
		logger = logging.DefaultLogger
	}

	return &Runner{
		agent:  reactAgent,
		store:  store,
		prompt: cfg.Prompt,
		logger: logger,
	}, nil
}

// Ask answers one question within a session. The exchange is appended to the
// session window afterwards.
func (r *Runner) Ask(ctx context.Context, sessionID, question string) (string, error) {
	if question == "" {
		return "", errors.New(errors.KindAgent, "agent.ask", "question is required")
	}

	start := time.Now()
	ctx = tool.WithSession(ctx, sessionID)

	input, err := r.buildInput(ctx, sessionID, question)
	if err != nil {
		return "", err
	}

	out, err := r.agent.Generate(ctx, input)
	if err != nil {
		eventbus.PublishAsync(eventbus.EventAgentError, eventbus.AgentEventData{
			SessionID: sessionID,
			Question:  question,
			Error:     err.Error(),
		})
		return "", errors.Wrap(errors.KindAgent, "agent.ask", "agent run failed", err)
	}

	answer := out.Content
	r.remember(ctx, sessionID, question, answer)

	eventbus.PublishAsync(eventbus.EventAgentCompleted, eventbus.AgentEventData{
		SessionID: sessionID,
		Question:  question,
		Answer:    answer,
		Duration:  time.Since(start),
	})
	r.logger.InfoTag("AGENT", "run completed: session=%s duration=%s", sessionID, time.Since(start))

	return answer, nil
}

// Stream answers one question as a stream of message chunks. The full answer
// is reassembled by the caller; session bookkeeping is the caller's job via
// Remember.
func (r *Runner) Stream(ctx context.Context, sessionID, question string) (*schema.StreamReader[*schema.Message], error) {
	if question == "" {
		return nil, errors.New(errors.KindAgent, "agent.stream", "question is required")
	}

	ctx = tool.WithSession(ctx, sessionID)
	input, err := r.buildInput(ctx, sessionID, question)
	if err != nil {
		return nil, err
	}

	stream, err := r.agent.Stream(ctx, input)
	if err != nil {
		return nil, errors.Wrap(errors.KindAgent, "agent.stream", "agent stream failed", err)
	}
	return stream, nil
}

// Remember appends a completed exchange to the session window.
func (r *Runner) Remember(ctx context.Context, sessionID, question, answer string) {
	r.remember(ctx, sessionID, question, answer)
}

func (r *Runner) remember(ctx context.Context, sessionID, question, answer string) {
	if err := r.store.Append(ctx, sessionID, session.Message{Role: "user", Content: question}); err != nil {
		r.logger.WarnTag("AGENT", "failed to record user turn: %v", err)
	}
	if err := r.store.Append(ctx, sessionID, session.Message{Role: "assistant", Content: answer}); err != nil {
		r.logger.WarnTag("AGENT", "failed to record assistant turn: %v", err)
	}
}

// buildInput assembles system prompt, retained history and the new question.
func (r *Runner) buildInput(ctx context.Context, sessionID, question string) ([]*schema.Message, error) {
	window, err := r.store.Window(ctx, sessionID)
	if err != nil {
		return nil, errors.Wrap(errors.KindAgent, "agent.history", "failed to load session history", err)
	}

	input := make([]*schema.Message, 0, len(window)+2)
	if r.prompt != "" {
		input = append(input, schema.SystemMessage(r.prompt))
	}
	for _, turn := range window {
		switch turn.Role {
		case "assistant":
			input = append(input, schema.AssistantMessage(turn.Content, nil))
		default:
			input = append(input, schema.UserMessage(turn.Content))
		}
	}
	input = append(input, schema.UserMessage(question))
	return input, nil
}
