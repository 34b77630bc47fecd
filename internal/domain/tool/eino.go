package tool

import (
	"context"
	"strings"

	einotool "github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/bytedance/sonic"

	"lens-server-go/internal/platform/errors"
)

// einoAdapter bridges a Tool into the agent framework's tool interfaces.
// Only synchronous invocation is supported; the streaming entry point always
// fails with the not-supported kind.
type einoAdapter struct {
	inner Tool
}

// Eino wraps a tool for use in an agent tools node.
func Eino(t Tool) einotool.InvokableTool {
	return &einoAdapter{inner: t}
}

// EinoTools wraps every registered tool, sorted by name.
func EinoTools(registry *Registry) []einotool.BaseTool {
	tools := registry.All()
	wrapped := make([]einotool.BaseTool, 0, len(tools))
	for _, t := range tools {
		wrapped = append(wrapped, Eino(t))
	}
	return wrapped
}

func (a *einoAdapter) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: a.inner.Name(),
		Desc: a.inner.Description(),
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"input": {
				Type:     schema.String,
				Desc:     "The tool input text",
				Required: true,
			},
		}),
	}, nil
}

// InvokableRun executes the wrapped tool. Arguments arrive as the model's
// JSON; a bare string is accepted for models that skip the object wrapper.
func (a *einoAdapter) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...einotool.Option) (string, error) {
	input, err := decodeInput(argumentsInJSON)
	if err != nil {
		return "", err
	}
	return Invoke(ctx, a.inner, input)
}

// StreamableRun is not supported for any tool.
func (a *einoAdapter) StreamableRun(_ context.Context, _ string, _ ...einotool.Option) (*schema.StreamReader[string], error) {
	return nil, errors.New(errors.KindNotSupported, "tool.stream",
		a.inner.Name()+" does not support streaming invocation")
}

func decodeInput(argumentsInJSON string) (string, error) {
	trimmed := strings.TrimSpace(argumentsInJSON)
	if trimmed == "" {
		return "", nil
	}

	if strings.HasPrefix(trimmed, "{") {
		var args struct {
			Input string `json:"input"`
		}
		if err := sonic.UnmarshalString(trimmed, &args); err != nil {
			return "", errors.Wrap(errors.KindAgent, "tool.arguments", "failed to parse tool arguments", err)
		}
		return args.Input, nil
	}

	// Some models emit the argument as a bare JSON string.
	var direct string
	if err := sonic.UnmarshalString(trimmed, &direct); err == nil {
		return direct, nil
	}
	return trimmed, nil
}
