// Package ai abstracts the model backends used by the chat commands. A
// Backend turns a prompt plus optional media into generated text, images
// or transcriptions, so the command layer never talks to a vendor SDK
// directly.
package ai

import (
	"context"
	"errors"
)

// Kind selects which capability of a backend a request exercises.
type Kind string

const (
	KindText       Kind = "text"
	KindImage      Kind = "image"
	KindTranscribe Kind = "transcribe"
)

// ErrUnsupported is returned when a backend does not implement the
// requested capability.
var ErrUnsupported = errors.New("operation not supported by this backend")

// Request carries everything a backend needs to produce a result.
// Image and Audio hold raw file bytes when the request references media.
type Request struct {
	Kind   Kind
	Prompt string
	Params map[string]string
	Image  []byte
	Audio  []byte
	// AudioFilename hints the container format for transcription APIs.
	AudioFilename string
}

// GeneratedImage is a single image produced by an image request.
type GeneratedImage struct {
	URL    string
	Prompt string
}

// Result holds the outputs of a generation. Text requests fill Texts,
// image requests fill Images.
type Result struct {
	Texts  []string
	Images []GeneratedImage
}

// Backend is implemented by each model provider.
type Backend interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}
