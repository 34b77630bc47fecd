package tool

import (
	"context"
	"sort"
	"sync"
	"time"

	"lens-server-go/internal/domain/eventbus"
	"lens-server-go/internal/platform/errors"
)

// Tool is the uniform adapter every capability is exposed through: a name,
// a description for the model, and a text-in text-out entry point.
type Tool interface {
	Name() string
	Description() string
	Run(ctx context.Context, input string) (string, error)
}

type sessionKey struct{}

// WithSession tags the context with the calling session so invocation events
// can be attributed.
func WithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

// SessionFrom extracts the session tag, empty if absent.
func SessionFrom(ctx context.Context) string {
	if id, ok := ctx.Value(sessionKey{}).(string); ok {
		return id
	}
	return ""
}

// Registry holds the registered tools by name.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool; registering the same name twice is an error.
func (r *Registry) Register(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[t.Name()]; exists {
		return errors.New(errors.KindConfig, "tool.register", "duplicate tool name: "+t.Name())
	}
	r.tools[t.Name()] = t
	return nil
}

// Get looks a tool up by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// All returns the registered tools sorted by name.
func (r *Registry) All() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	tools := make([]Tool, 0, len(names))
	for _, name := range names {
		tools = append(tools, r.tools[name])
	}
	return tools
}

// Invoke runs a tool and publishes the invocation event regardless of
// outcome.
func Invoke(ctx context.Context, t Tool, input string) (string, error) {
	start := time.Now()
	output, err := t.Run(ctx, input)

	data := eventbus.ToolInvokedData{
		SessionID: SessionFrom(ctx),
		Tool:      t.Name(),
		Input:     input,
		Output:    output,
		Duration:  time.Since(start),
		Succeeded: err == nil,
	}
	if err != nil {
		data.Error = err.Error()
	}
	eventbus.PublishAsync(eventbus.EventToolInvoked, data)

	return output, err
}
