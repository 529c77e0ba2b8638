// Package generator defines the text-to-image backend contract and its
// diffusers, OpenAI, and Imagen implementations.
package generator

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
)

// Backend produces one image per prompt. Load is idempotent and Generate
// loads on first use.
type Backend interface {
	Load(ctx context.Context) error
	Generate(ctx context.Context, prompts []string, steps int, opts Options) ([]Image, error)
}

// Options carries per-call generation parameters. Zero values defer to the backend's defaults.
type Options struct {
	GuidanceScale  float64
	NegativePrompt string
	Width          int
	Height         int
	Seed           *int64
	Extra          map[string]any
}

// Image is an encoded image returned by a backend.
type Image struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// Ext returns the file extension matching ContentType, including the leading dot.
func (i Image) Ext() string {
	switch i.ContentType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

// NewImage inspects encoded bytes for their content type and dimensions.
func NewImage(data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, fmt.Errorf("empty image payload")
	}

	img := Image{
		Data:        data,
		ContentType: http.DetectContentType(data),
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if img.ContentType == "image/webp" {
			return img, nil
		}
		return Image{}, fmt.Errorf("decode image header: %w", err)
	}
	img.Width, img.Height = cfg.Width, cfg.Height
	return img, nil
}

// renderFunc generates a single image for one prompt with a loaded client.
type renderFunc[T any] func(ctx context.Context, client T, prompt string) (Image, error)

// generate is the loop shared by every backend: load on first use, then
// exactly one image per prompt in input order. Any failure discards the
// images produced so far.
func generate[T any](ctx context.Context, lazy *Lazy[T], prompts []string, render renderFunc[T]) ([]Image, error) {
	if len(prompts) == 0 {
		return []Image{}, nil
	}

	client, err := lazy.Get(ctx)
	if err != nil {
		return nil, err
	}

	images := make([]Image, 0, len(prompts))
	for i, prompt := range prompts {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: prompt %d: %w", ErrGeneration, i, err)
		}

		img, err := render(ctx, client, prompt)
		if err != nil {
			return nil, fmt.Errorf("%w: prompt %d: %w", ErrGeneration, i, err)
		}
		if len(img.Data) == 0 {
			return nil, fmt.Errorf("%w: prompt %d produced no image", ErrGeneration, i)
		}
		images = append(images, img)
	}
	return images, nil
}
