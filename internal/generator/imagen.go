package generator

import (
	"context"
	"log/slog"
	"math"

	"google.golang.org/genai"
)

type imagesClient interface {
	GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

type imagenBackend struct {
	cfg    *Config
	logger *slog.Logger
	lazy   *Lazy[imagesClient]
}

func newImagen(cfg *Config, logger *slog.Logger, connect func(context.Context, *Config) (imagesClient, error)) *imagenBackend {
	return &imagenBackend{
		cfg:    cfg,
		logger: logger,
		lazy: NewLazy(func(ctx context.Context) (imagesClient, error) {
			return connect(ctx, cfg)
		}),
	}
}

func connectImagen(ctx context.Context, cfg *Config) (imagesClient, error) {
	cc := &genai.ClientConfig{
		APIKey:  cfg.Token,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return client.Models, nil
}

func (b *imagenBackend) Load(ctx context.Context) error {
	_, err := b.lazy.Get(ctx)
	return err
}

func (b *imagenBackend) Generate(ctx context.Context, prompts []string, steps int, opts Options) ([]Image, error) {
	b.logger.InfoContext(ctx, "generating images", "count", len(prompts), "steps", steps)

	config := &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		NegativePrompt: opts.NegativePrompt,
		OutputMIMEType: "image/png",
	}
	if opts.GuidanceScale > 0 {
		g := float32(opts.GuidanceScale)
		config.GuidanceScale = &g
	}
	if opts.Seed != nil {
		s := imagenSeed(*opts.Seed)
		config.Seed = &s
	}

	return generate(ctx, b.lazy, prompts, func(ctx context.Context, client imagesClient, prompt string) (Image, error) {
		resp, err := client.GenerateImages(ctx, b.cfg.ID, prompt, config)
		if err != nil {
			return Image{}, err
		}
		if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
			return Image{}, nil
		}
		return NewImage(resp.GeneratedImages[0].Image.ImageBytes)
	})
}

// imagenSeed reduces seed into [0, math.MaxInt32), the range the Imagen API accepts.
func imagenSeed(seed int64) int32 {
	r := seed % math.MaxInt32
	if r < 0 {
		r += math.MaxInt32
	}
	return int32(r)
}
