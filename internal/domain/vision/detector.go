package vision

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/sashabaranov/go-openai"

	"lens-server-go/internal/domain/image"
	"lens-server-go/internal/platform/config"
	"lens-server-go/internal/platform/errors"
	"lens-server-go/internal/platform/logging"
)

const detectPrompt = `Detect all objects in this image. Respond with only a JSON array, no prose.
Each element: {"box": [x1, y1, x2, y2], "label": "<name>", "score": <0..1>}.
Box coordinates are integer pixels, top-left origin. List objects in the order you detect them.`

// Detection is one detected object. Box is [x1, y1, x2, y2] in pixels.
type Detection struct {
	Box   [4]int  `json:"box"`
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Line renders the detection in the fixed report format.
func (d Detection) Line() string {
	return fmt.Sprintf("[%d, %d, %d, %d] %s %.2f",
		d.Box[0], d.Box[1], d.Box[2], d.Box[3], d.Label, d.Score)
}

// Detector locates objects in an image and keeps only high-confidence hits.
// Detections below the threshold are dropped; the surviving ones stay in the
// order the model reported them. A zero threshold keeps every detection.
type Detector struct {
	provider  *Provider
	threshold float64
	maxTokens int
	logger    *logging.Logger
}

// NewDetector builds a detector from its model configuration.
func NewDetector(cfg config.DetectorConfig, logger *logging.Logger) (*Detector, error) {
	provider, err := NewProvider(cfg.ModelConfig, logger)
	if err != nil {
		return nil, err
	}

	threshold := cfg.ConfidenceThreshold
	if threshold < 0 || threshold > 1 {
		return nil, errors.New(errors.KindConfig, "vision.detector",
			fmt.Sprintf("confidence threshold out of range: %.2f", threshold))
	}

	return &Detector{
		provider:  provider,
		threshold: threshold,
		maxTokens: cfg.MaxTokens,
		logger:    provider.logger,
	}, nil
}

// Threshold reports the active confidence cutoff.
func (d *Detector) Threshold() float64 {
	return d.threshold
}

// Detect finds objects in the payload and returns those at or above the
// confidence threshold.
func (d *Detector) Detect(ctx context.Context, payload *image.Payload) ([]Detection, error) {
	if payload == nil || payload.Data == "" {
		return nil, errors.New(errors.KindVision, "detector.detect", "missing image payload")
	}

	req := openai.ChatCompletionRequest{
		Model: d.provider.ModelName(),
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: detectPrompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: payload.DataURL(),
						},
					},
				},
			},
		},
	}
	if d.maxTokens > 0 {
		req.MaxTokens = d.maxTokens
	}

	resp, err := d.provider.Client().CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, wrapCompletionError("detector.detect", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New(errors.KindVision, "detector.detect", "empty detection response")
	}

	raw, err := ParseDetections(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	filtered := make([]Detection, 0, len(raw))
	for _, det := range raw {
		if det.Score >= d.threshold {
			filtered = append(filtered, det)
		}
	}

	d.logger.DebugTag("VISION", "detection done: raw=%d kept=%d threshold=%.2f",
		len(raw), len(filtered), d.threshold)
	return filtered, nil
}

// ParseDetections decodes the model's JSON array, tolerating markdown code
// fences around it.
func ParseDetections(content string) ([]Detection, error) {
	content = stripCodeFence(content)

	var detections []Detection
	if err := sonic.UnmarshalString(content, &detections); err != nil {
		return nil, errors.Wrap(errors.KindVision, "detector.parse", "failed to parse detection output", err)
	}
	return detections, nil
}

// RenderLines formats detections one per line in native order. No detections
// yields an empty string.
func RenderLines(detections []Detection) string {
	if len(detections) == 0 {
		return ""
	}
	lines := make([]string, 0, len(detections))
	for _, det := range detections {
		lines = append(lines, det.Line())
	}
	return strings.Join(lines, "\n")
}

func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}
