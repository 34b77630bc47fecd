package mcptransport

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"lens-server-go/internal/domain/tool"
	"lens-server-go/internal/platform/logging"
)

// Server exposes the registered tools over the Model Context Protocol on
// stdio, so external agent hosts can call them directly.
type Server struct {
	mcpServer *server.MCPServer
	logger    *logging.Logger
}

// NewServer builds an MCP server carrying every tool in the registry.
func NewServer(name, version string, registry *tool.Registry, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.DefaultLogger
	}

	mcpServer := server.NewMCPServer(name, version,
		server.WithToolCapabilities(false),
	)

	for _, t := range registry.All() {
		registerTool(mcpServer, t, logger)
	}

	return &Server{
		mcpServer: mcpServer,
		logger:    logger,
	}
}

func registerTool(mcpServer *server.MCPServer, t tool.Tool, logger *logging.Logger) {
	declaration := mcp.NewTool(t.Name(),
		mcp.WithDescription(t.Description()),
		mcp.WithString("input",
			mcp.Required(),
			mcp.Description("The tool input text"),
		),
	)

	mcpServer.AddTool(declaration, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		input, _ := request.GetArguments()["input"].(string)

		output, err := tool.Invoke(ctx, t, input)
		if err != nil {
			logger.WarnTag("MCP", "tool failed: tool=%s error=%v", t.Name(), err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(output), nil
	})

	logger.InfoTag("MCP", "tool registered: %s", t.Name())
}

// ServeStdio blocks serving MCP over stdin/stdout.
func (s *Server) ServeStdio() error {
	s.logger.InfoTag("MCP", "serving on stdio")
	return server.ServeStdio(s.mcpServer)
}

// Handle exposes the underlying server for tests.
func (s *Server) Handle() *server.MCPServer {
	return s.mcpServer
}
