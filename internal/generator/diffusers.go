package generator

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

type loadRequest struct {
	ModelID          string `json:"model_id"`
	Device           string `json:"device"`
	DType            string `json:"dtype"`
	AttentionSlicing bool   `json:"attention_slicing"`
}

type generateRequest struct {
	Prompt            string         `json:"prompt"`
	NumInferenceSteps int            `json:"num_inference_steps"`
	GuidanceScale     float64        `json:"guidance_scale,omitempty"`
	NegativePrompt    string         `json:"negative_prompt,omitempty"`
	Width             int            `json:"width,omitempty"`
	Height            int            `json:"height,omitempty"`
	Seed              *int64         `json:"seed,omitempty"`
	Extra             map[string]any `json:"extra,omitempty"`
}

type generateResponse struct {
	Images []string `json:"images"`
}

// diffusers drives a Stable Diffusion pipeline hosted by an HTTP sidecar.
type diffusers struct {
	cfg     *Config
	device  string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
	lazy    *Lazy[struct{}]
}

func newDiffusers(cfg *Config, logger *slog.Logger) *diffusers {
	d := &diffusers{
		cfg:     cfg,
		device:  SelectDevice(cfg.Device, cfg.Devices, DevicePreference),
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.TimeoutDuration()},
		logger:  logger,
	}
	d.lazy = NewLazy(d.load)

	logger.Info("diffusers backend initialized", "device", d.device)
	return d
}

func (d *diffusers) Load(ctx context.Context) error {
	_, err := d.lazy.Get(ctx)
	return err
}

func (d *diffusers) Generate(ctx context.Context, prompts []string, steps int, opts Options) ([]Image, error) {
	d.logger.InfoContext(ctx, "generating images", "count", len(prompts), "steps", steps)

	return generate(ctx, d.lazy, prompts, func(ctx context.Context, _ struct{}, prompt string) (Image, error) {
		req := generateRequest{
			Prompt:            prompt,
			NumInferenceSteps: steps,
			GuidanceScale:     opts.GuidanceScale,
			NegativePrompt:    opts.NegativePrompt,
			Width:             opts.Width,
			Height:            opts.Height,
			Seed:              opts.Seed,
			Extra:             opts.Extra,
		}

		var resp generateResponse
		if err := d.post(ctx, "/generate", req, &resp); err != nil {
			return Image{}, err
		}
		if len(resp.Images) == 0 {
			return Image{}, nil
		}

		data, err := base64.StdEncoding.DecodeString(resp.Images[0])
		if err != nil {
			return Image{}, fmt.Errorf("decode image: %w", err)
		}
		return NewImage(data)
	})
}

func (d *diffusers) load(ctx context.Context) (struct{}, error) {
	req := loadRequest{
		ModelID:          d.cfg.ID,
		Device:           d.device,
		DType:            dtypeFor(d.device),
		AttentionSlicing: attentionSlicing(d.device),
	}

	d.logger.InfoContext(ctx, "loading model weights", "device", req.Device, "dtype", req.DType)

	if err := d.post(ctx, "/load", req, nil); err != nil {
		d.logger.ErrorContext(ctx, "model load failed", "error", err)
		return struct{}{}, err
	}

	d.logger.InfoContext(ctx, "model loaded")
	return struct{}{}, nil
}

func (d *diffusers) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if d.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+d.cfg.Token)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s returned %d: %s", path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
