package generator

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// openAIBackend generates images with the OpenAI images API. The API has no
// notion of inference steps, so steps only appear in logs.
type openAIBackend struct {
	cfg    *Config
	logger *slog.Logger
	lazy   *Lazy[*openai.Client]
}

func newOpenAI(cfg *Config, logger *slog.Logger) *openAIBackend {
	b := &openAIBackend{cfg: cfg, logger: logger}
	b.lazy = NewLazy(b.connect)
	return b
}

func (b *openAIBackend) Load(ctx context.Context) error {
	_, err := b.lazy.Get(ctx)
	return err
}

func (b *openAIBackend) Generate(ctx context.Context, prompts []string, steps int, opts Options) ([]Image, error) {
	b.logger.InfoContext(ctx, "generating images", "count", len(prompts), "steps", steps)

	size := fmt.Sprintf("%dx%d", opts.Width, opts.Height)
	if opts.Width == 0 || opts.Height == 0 {
		size = openai.CreateImageSize1024x1024
	}

	return generate(ctx, b.lazy, prompts, func(ctx context.Context, client *openai.Client, prompt string) (Image, error) {
		resp, err := client.CreateImage(ctx, openai.ImageRequest{
			Prompt:         prompt,
			Model:          b.cfg.ID,
			N:              1,
			Size:           size,
			ResponseFormat: openai.CreateImageResponseFormatB64JSON,
		})
		if err != nil {
			return Image{}, err
		}
		if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
			return Image{}, nil
		}

		data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
		if err != nil {
			return Image{}, fmt.Errorf("decode image: %w", err)
		}
		return NewImage(data)
	})
}

func (b *openAIBackend) connect(ctx context.Context) (*openai.Client, error) {
	oc := openai.DefaultConfig(b.cfg.Token)
	if b.cfg.BaseURL != "" {
		oc.BaseURL = b.cfg.BaseURL
	}
	oc.HTTPClient = &http.Client{Timeout: b.cfg.TimeoutDuration()}

	client := openai.NewClientWithConfig(oc)
	if _, err := client.GetModel(ctx, b.cfg.ID); err != nil {
		return nil, fmt.Errorf("look up model %s: %w", b.cfg.ID, err)
	}

	b.logger.InfoContext(ctx, "model available")
	return client, nil
}
