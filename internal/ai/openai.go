package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/herval/cliobot/internal/resilience"
)

// OpenAIConfig configures the OpenAI backend. BaseURL may point at any
// API-compatible service.
type OpenAIConfig struct {
	Token              string
	BaseURL            string
	Model              string
	ImageModel         string
	TranscriptionModel string
	Instruction        string
	Temperature        float32
	Timeout            time.Duration
}

type openAIBackend struct {
	client  *openai.Client
	cfg     OpenAIConfig
	breaker *resilience.CircuitBreaker
	logger  *slog.Logger
}

// NewOpenAI builds a Backend on top of the OpenAI API. Calls go through
// a circuit breaker so a misbehaving upstream fails fast instead of
// tying up workers.
func NewOpenAI(cfg OpenAIConfig, logger *slog.Logger) Backend {
	clientCfg := openai.DefaultConfig(cfg.Token)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}

	return &openAIBackend{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:    "openai",
			Timeout: cfg.Timeout,
		}),
		logger: logger.With("backend", "openai"),
	}
}

func (b *openAIBackend) Generate(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	var res *Result
	err := b.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		switch req.Kind {
		case KindText:
			res, err = b.chat(ctx, req)
		case KindImage:
			res, err = b.image(ctx, req)
		case KindTranscribe:
			res, err = b.transcribe(ctx, req)
		default:
			err = fmt.Errorf("%w: kind %q", ErrUnsupported, req.Kind)
		}
		return err
	})
	if err != nil {
		b.logger.Error("generation failed",
			"kind", req.Kind,
			"error", err,
			"duration_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	b.logger.Debug("generation completed",
		"kind", req.Kind,
		"duration_ms", time.Since(start).Milliseconds())

	return res, nil
}

func (b *openAIBackend) chat(ctx context.Context, req Request) (*Result, error) {
	msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if len(req.Image) > 0 {
		dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(req.Image)
		msg.MultiContent = []openai.ChatMessagePart{
			{Type: openai.ChatMessagePartTypeText, Text: req.Prompt},
			{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL}},
		}
	} else {
		msg.Content = req.Prompt
	}

	var messages []openai.ChatCompletionMessage
	if b.cfg.Instruction != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: b.cfg.Instruction,
		})
	}
	messages = append(messages, msg)

	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       b.cfg.Model,
		Messages:    messages,
		Temperature: b.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no response choices returned")
	}

	return &Result{Texts: []string{resp.Choices[0].Message.Content}}, nil
}

func (b *openAIBackend) image(ctx context.Context, req Request) (*Result, error) {
	n := 1
	if raw, ok := req.Params["num"]; ok {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			n = parsed
		}
	}

	size := req.Params["size"]
	if size == "" {
		size = openai.CreateImageSize1024x1024
	}

	resp, err := b.client.CreateImage(ctx, openai.ImageRequest{
		Model:  b.cfg.ImageModel,
		Prompt: req.Prompt,
		Size:   size,
		N:      n,
	})
	if err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}

	result := &Result{}
	for _, img := range resp.Data {
		result.Images = append(result.Images, GeneratedImage{
			URL:    img.URL,
			Prompt: req.Prompt,
		})
	}

	return result, nil
}

func (b *openAIBackend) transcribe(ctx context.Context, req Request) (*Result, error) {
	if len(req.Audio) == 0 {
		return nil, errors.New("no audio to transcribe")
	}

	filename := req.AudioFilename
	if filename == "" {
		filename = "audio.ogg"
	}

	resp, err := b.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    b.cfg.TranscriptionModel,
		Reader:   bytes.NewReader(req.Audio),
		FilePath: filename,
	})
	if err != nil {
		return nil, fmt.Errorf("transcription failed: %w", err)
	}

	return &Result{Texts: []string{resp.Text}}, nil
}
