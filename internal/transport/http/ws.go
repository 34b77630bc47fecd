package httptransport

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"lens-server-go/internal/domain/agent"
	"lens-server-go/internal/platform/logging"
)

// StreamService answers questions over a websocket, forwarding agent output
// chunk by chunk.
type StreamService struct {
	runner   *agent.Runner
	logger   *logging.Logger
	upgrader websocket.Upgrader
}

// NewStreamService wires the websocket chat handler.
func NewStreamService(runner *agent.Runner, logger *logging.Logger) *StreamService {
	if logger == nil {
		logger = logging.DefaultLogger
	}
	return &StreamService{
		runner: runner,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Register mounts the streaming route.
func (s *StreamService) Register(router *gin.RouterGroup) {
	router.GET("/chat/stream", s.handleStream)
	s.logger.InfoTag("HTTP", "chat stream route registered")
}

type streamRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type streamChunk struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *StreamService) handleStream(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.WarnTag("WS", "upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	for {
		var req streamRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.DebugTag("WS", "read ended: %v", err)
			}
			return
		}
		if req.Message == "" {
			conn.WriteJSON(streamChunk{Type: "error", Error: "message is required"})
			continue
		}
		if req.SessionID == "" {
			req.SessionID = uuid.NewString()
		}

		s.streamAnswer(c, conn, req)
	}
}

func (s *StreamService) streamAnswer(c *gin.Context, conn *websocket.Conn, req streamRequest) {
	ctx := c.Request.Context()

	stream, err := s.runner.Stream(ctx, req.SessionID, req.Message)
	if err != nil {
		conn.WriteJSON(streamChunk{Type: "error", Error: err.Error()})
		return
	}
	defer stream.Close()

	conn.WriteJSON(streamChunk{Type: "start", Content: req.SessionID})

	var full strings.Builder
	for {
		msg, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			conn.WriteJSON(streamChunk{Type: "error", Error: err.Error()})
			return
		}
		if msg.Content == "" {
			continue
		}
		full.WriteString(msg.Content)
		if err := conn.WriteJSON(streamChunk{Type: "delta", Content: msg.Content}); err != nil {
			return
		}
	}

	answer := full.String()
	s.runner.Remember(ctx, req.SessionID, req.Message, answer)

	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	conn.WriteJSON(streamChunk{Type: "done", Content: answer})
}
