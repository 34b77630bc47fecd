package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"

	"lens-server-go/internal/platform/config"
	"lens-server-go/internal/platform/errors"
	"lens-server-go/internal/platform/logging"
)

// Pipeline turns an image file or stream into a validated, normalised,
// base64-encoded payload. Oversized images are downscaled to the configured
// bounds rather than rejected; only corrupt or disallowed payloads fail.
type Pipeline struct {
	validator *SecurityValidator
	logger    *logging.Logger
	security  *config.SecurityConfig
}

// Options configures the pipeline behaviour.
type Options struct {
	Security *config.SecurityConfig
	Logger   *logging.Logger
}

// Input describes a streaming image payload.
type Input struct {
	Reader         io.Reader
	DeclaredFormat string
	Source         string
}

// NewPipeline constructs an image pipeline.
func NewPipeline(opts Options) (*Pipeline, error) {
	if opts.Security == nil {
		return nil, errors.New(errors.KindVision, "image.pipeline", "security config is required")
	}
	if opts.Logger == nil {
		opts.Logger = logging.DefaultLogger
	}

	return &Pipeline{
		validator: NewSecurityValidator(opts.Security, opts.Logger),
		logger:    opts.Logger,
		security:  opts.Security,
	}, nil
}

// LoadFile reads the image at path through the full pipeline.
func (p *Pipeline) LoadFile(ctx context.Context, path string) (*Payload, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.KindImageDecode, "image.open", "failed to open image file", err)
	}
	defer file.Close()

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return p.Process(ctx, Input{
		Reader:         file,
		DeclaredFormat: format,
		Source:         path,
	})
}

// Process streams the input through validation, normalisation and base64
// encoding.
func (p *Pipeline) Process(ctx context.Context, input Input) (*Payload, error) {
	if input.Reader == nil {
		return nil, errors.New(errors.KindImageDecode, "image.process", "image reader is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.KindImageDecode, "image.process", "context cancelled", err)
	}

	maxSize := p.security.MaxFileSize
	if maxSize <= 0 {
		maxSize = 5 * 1024 * 1024
	}

	limited := &io.LimitedReader{R: input.Reader, N: maxSize + 1}
	raw, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.Wrap(errors.KindImageDecode, "image.read", "failed to read image bytes", err)
	}
	if limited.N <= 0 {
		return nil, errors.New(errors.KindImageDecode, "image.read", "image exceeds maximum size")
	}

	validation := p.validator.ValidateBytes(raw, input.DeclaredFormat)
	if !validation.IsValid {
		cause := validation.Error
		if cause == nil {
			return nil, errors.New(errors.KindImageDecode, "image.validate", "image validation failed")
		}
		return nil, errors.Wrap(errors.KindImageDecode, "image.validate", "image validation failed", cause)
	}

	decoded, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrap(errors.KindImageDecode, "image.decode", "failed to decode image", err)
	}

	rgba := normalise(decoded)
	rgba = p.downscale(rgba, input.Source)

	encoded, format, err := encode(rgba, validation.Format)
	if err != nil {
		return nil, errors.Wrap(errors.KindImageDecode, "image.encode", "failed to re-encode image", err)
	}

	bounds := rgba.Bounds()
	return &Payload{
		Data:   base64.StdEncoding.EncodeToString(encoded),
		Format: format,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}

// normalise converts any decoded image into RGBA so downstream handling never
// sees palette or YCbCr variants.
func normalise(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	xdraw.Draw(rgba, rgba.Bounds(), img, bounds.Min, xdraw.Src)
	return rgba
}

// downscale shrinks the image to fit the configured bounds while keeping the
// aspect ratio. Images already inside the bounds pass through untouched.
func (p *Pipeline) downscale(img *image.RGBA, source string) *image.RGBA {
	maxW, maxH := p.security.MaxWidth, p.security.MaxHeight
	if maxW <= 0 && maxH <= 0 {
		return img
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if (maxW <= 0 || w <= maxW) && (maxH <= 0 || h <= maxH) {
		return img
	}

	scale := 1.0
	if maxW > 0 && w > maxW {
		scale = float64(maxW) / float64(w)
	}
	if maxH > 0 && h > maxH {
		if s := float64(maxH) / float64(h); s < scale {
			scale = s
		}
	}

	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, xdraw.Over, nil)

	p.logger.InfoTag("VISION", "downscaled image: source=%s from=%dx%d to=%dx%d",
		source, w, h, newW, newH)
	return dst
}

// encode writes the normalised image back out. PNG and GIF stay PNG to keep
// transparency; everything else becomes JPEG.
func encode(img *image.RGBA, format string) ([]byte, string, error) {
	var buf bytes.Buffer
	switch strings.ToLower(format) {
	case "png", "gif":
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "png", nil
	default:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "jpeg", nil
	}
}
