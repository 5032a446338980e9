package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"github.com/herval/cliobot/internal/resilience"
)

// GeminiConfig configures the Gemini backend.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Instruction string
	Temperature float32
	Timeout     time.Duration
}

type geminiBackend struct {
	client  *genai.Client
	cfg     GeminiConfig
	breaker *resilience.CircuitBreaker
	logger  *slog.Logger
}

// NewGemini builds a Backend on top of the Gemini API. It handles text
// and image-grounded prompts; image generation and transcription report
// ErrUnsupported.
func NewGemini(ctx context.Context, cfg GeminiConfig, logger *slog.Logger) (Backend, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}

	return &geminiBackend{
		client: client,
		cfg:    cfg,
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:    "gemini",
			Timeout: cfg.Timeout,
		}),
		logger: logger.With("backend", "gemini"),
	}, nil
}

func (b *geminiBackend) Generate(ctx context.Context, req Request) (*Result, error) {
	if req.Kind != KindText {
		return nil, fmt.Errorf("%w: kind %q", ErrUnsupported, req.Kind)
	}

	start := time.Now()
	var res *Result
	err := b.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		res, err = b.chat(ctx, req)
		return err
	})
	if err != nil {
		b.logger.Error("generation failed",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	b.logger.Debug("generation completed",
		"duration_ms", time.Since(start).Milliseconds())

	return res, nil
}

func (b *geminiBackend) chat(ctx context.Context, req Request) (*Result, error) {
	parts := []*genai.Part{{Text: req.Prompt}}
	if len(req.Image) > 0 {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: "image/jpeg", Data: req.Image},
		})
	}

	temp := b.cfg.Temperature
	genCfg := &genai.GenerateContentConfig{Temperature: &temp}
	if b.cfg.Instruction != "" {
		genCfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: b.cfg.Instruction}},
		}
	}

	resp, err := b.client.Models.GenerateContent(ctx, b.cfg.Model,
		[]*genai.Content{{Role: genai.RoleUser, Parts: parts}},
		genCfg,
	)
	if err != nil {
		return nil, fmt.Errorf("content generation failed: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("empty response from model")
	}

	return &Result{Texts: []string{resp.Text()}}, nil
}
