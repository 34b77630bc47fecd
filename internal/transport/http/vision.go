package httptransport

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"lens-server-go/internal/domain/eventbus"
	domainimage "lens-server-go/internal/domain/image"
	"lens-server-go/internal/domain/vision"
	"lens-server-go/internal/platform/errors"
	"lens-server-go/internal/platform/logging"
)

// VisionService exposes captioning and detection over HTTP. Images arrive
// either as a multipart upload (field "image") or as a JSON body naming a
// server-local path.
type VisionService struct {
	logger    *logging.Logger
	pipeline  *domainimage.Pipeline
	captioner *vision.Captioner
	detector  *vision.Detector
}

// NewVisionService wires the vision handlers.
func NewVisionService(
	pipeline *domainimage.Pipeline,
	captioner *vision.Captioner,
	detector *vision.Detector,
	logger *logging.Logger,
) (*VisionService, error) {
	if pipeline == nil {
		return nil, errors.New(errors.KindConfig, "vision.new", "image pipeline is required")
	}
	if captioner == nil || detector == nil {
		return nil, errors.New(errors.KindConfig, "vision.new", "captioner and detector are required")
	}
	if logger == nil {
		logger = logging.DefaultLogger
	}

	return &VisionService{
		logger:    logger,
		pipeline:  pipeline,
		captioner: captioner,
		detector:  detector,
	}, nil
}

// Register mounts the vision routes.
func (s *VisionService) Register(router *gin.RouterGroup) {
	router.GET("/vision", s.handleStatus)
	router.POST("/vision/caption", s.handleCaption)
	router.POST("/vision/detect", s.handleDetect)

	s.logger.InfoTag("HTTP", "vision routes registered")
}

func (s *VisionService) handleStatus(c *gin.Context) {
	RespondSuccess(c, http.StatusOK, gin.H{
		"status":    "ready",
		"threshold": s.detector.Threshold(),
	}, "vision service is running")
}

type pathRequest struct {
	Path string `json:"path"`
}

// loadPayload resolves the request image from either a multipart upload or a
// JSON path body.
func (s *VisionService) loadPayload(c *gin.Context) (*domainimage.Payload, string, error) {
	contentType := c.GetHeader("Content-Type")

	if strings.HasPrefix(contentType, "multipart/") {
		fileHeader, err := c.FormFile("image")
		if err != nil {
			return nil, "", errors.Wrap(errors.KindTransport, "vision.upload", "missing image upload", err)
		}
		file, err := fileHeader.Open()
		if err != nil {
			return nil, "", errors.Wrap(errors.KindTransport, "vision.upload", "failed to open upload", err)
		}
		defer file.Close()

		format := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileHeader.Filename)), ".")
		payload, err := s.pipeline.Process(c.Request.Context(), domainimage.Input{
			Reader:         file,
			DeclaredFormat: format,
			Source:         fileHeader.Filename,
		})
		return payload, fileHeader.Filename, err
	}

	var req pathRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Path == "" {
		return nil, "", errors.New(errors.KindTransport, "vision.request", "request must carry an image upload or a path")
	}
	payload, err := s.pipeline.LoadFile(c.Request.Context(), req.Path)
	return payload, req.Path, err
}

func (s *VisionService) handleCaption(c *gin.Context) {
	payload, source, err := s.loadPayload(c)
	if err != nil {
		s.respondVisionError(c, source, err)
		return
	}

	caption, err := s.captioner.Describe(c.Request.Context(), payload)
	if err != nil {
		s.respondVisionError(c, source, err)
		return
	}

	eventbus.PublishAsync(eventbus.EventVisionCaption, eventbus.VisionEventData{
		Source: source,
		Result: caption,
	})
	RespondSuccess(c, http.StatusOK, gin.H{"caption": caption}, "")
}

func (s *VisionService) handleDetect(c *gin.Context) {
	payload, source, err := s.loadPayload(c)
	if err != nil {
		s.respondVisionError(c, source, err)
		return
	}

	detections, err := s.detector.Detect(c.Request.Context(), payload)
	if err != nil {
		s.respondVisionError(c, source, err)
		return
	}

	report := vision.RenderLines(detections)
	eventbus.PublishAsync(eventbus.EventVisionDetect, eventbus.VisionEventData{
		Source: source,
		Result: report,
	})
	RespondSuccess(c, http.StatusOK, gin.H{
		"detections": detections,
		"report":     report,
	}, "")
}

func (s *VisionService) respondVisionError(c *gin.Context, source string, err error) {
	eventbus.PublishAsync(eventbus.EventVisionError, eventbus.VisionEventData{
		Source: source,
		Error:  err.Error(),
	})
	s.logger.WarnTag("VISION", "request failed: source=%s error=%v", source, err)

	status := http.StatusInternalServerError
	switch {
	case errors.IsKind(err, errors.KindImageDecode), errors.IsKind(err, errors.KindTransport):
		status = http.StatusBadRequest
	case errors.IsKind(err, errors.KindModelLoad):
		status = http.StatusServiceUnavailable
	}
	RespondError(c, status, err.Error(), nil)
}
