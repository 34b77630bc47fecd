package tool

import (
	"context"
	"strings"

	"lens-server-go/internal/domain/image"
	"lens-server-go/internal/domain/vision"
	"lens-server-go/internal/platform/errors"
)

// CaptionTool exposes the captioner as a text-in text-out tool. The input is
// a path to an image file; the output is a short caption.
type CaptionTool struct {
	pipeline  *image.Pipeline
	captioner *vision.Captioner
}

// NewCaptionTool wires the image pipeline and captioner together.
func NewCaptionTool(pipeline *image.Pipeline, captioner *vision.Captioner) *CaptionTool {
	return &CaptionTool{
		pipeline:  pipeline,
		captioner: captioner,
	}
}

func (t *CaptionTool) Name() string {
	return "describe_image"
}

func (t *CaptionTool) Description() string {
	return "Describe the image at the given file path in one short sentence. Input: the image path."
}

func (t *CaptionTool) Run(ctx context.Context, input string) (string, error) {
	path := strings.TrimSpace(input)
	if path == "" {
		return "", errors.New(errors.KindVision, "tool.describe_image", "image path is required")
	}

	payload, err := t.pipeline.LoadFile(ctx, path)
	if err != nil {
		return "", err
	}
	return t.captioner.Describe(ctx, payload)
}
