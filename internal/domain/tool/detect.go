package tool

import (
	"context"
	"strings"

	"lens-server-go/internal/domain/image"
	"lens-server-go/internal/domain/vision"
	"lens-server-go/internal/platform/errors"
)

// DetectTool exposes the detector as a text-in text-out tool. The input is a
// path to an image file; the output lists one detection per line as
// "[x1, y1, x2, y2] label score". No confident detections yields
// noDetections.
type DetectTool struct {
	pipeline *image.Pipeline
	detector *vision.Detector
}

const noDetections = "no objects detected"

// NewDetectTool wires the image pipeline and detector together.
func NewDetectTool(pipeline *image.Pipeline, detector *vision.Detector) *DetectTool {
	return &DetectTool{
		pipeline: pipeline,
		detector: detector,
	}
}

func (t *DetectTool) Name() string {
	return "detect_objects"
}

func (t *DetectTool) Description() string {
	return "Detect objects in the image at the given file path. Returns one line per object: [x1, y1, x2, y2] label score. Input: the image path."
}

func (t *DetectTool) Run(ctx context.Context, input string) (string, error) {
	path := strings.TrimSpace(input)
	if path == "" {
		return "", errors.New(errors.KindVision, "tool.detect_objects", "image path is required")
	}

	payload, err := t.pipeline.LoadFile(ctx, path)
	if err != nil {
		return "", err
	}

	detections, err := t.detector.Detect(ctx, payload)
	if err != nil {
		return "", err
	}
	if len(detections) == 0 {
		return noDetections, nil
	}
	return vision.RenderLines(detections), nil
}
