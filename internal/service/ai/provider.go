package ai

import (
	"context"
	"errors"
)

// Provider roles used in conversation history.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// FinishReason explains why the provider stopped generating.
type FinishReason int

const (
	FinishCompleted FinishReason = iota
	FinishLengthTruncated
	FinishSafetyBlocked
	FinishOther
)

func (r FinishReason) String() string {
	switch r {
	case FinishCompleted:
		return "completed"
	case FinishLengthTruncated:
		return "length_truncated"
	case FinishSafetyBlocked:
		return "safety_blocked"
	default:
		return "other"
	}
}

// Content is one history entry in provider format.
type Content struct {
	Role  string
	Parts []string
}

// GenerationConfig carries the sampling parameters sent with every call.
type GenerationConfig struct {
	MaxOutputTokens int32
	Temperature     float32
}

// DefaultGenerationConfig is applied to every chat request.
var DefaultGenerationConfig = GenerationConfig{
	MaxOutputTokens: 2048,
	Temperature:     0.8,
}

// Request is a single chat-completion call.
type Request struct {
	History []Content
	Message string
	Config  GenerationConfig
}

// Response is the provider outcome. HasContent is false when the provider
// produced no content parts; FinishReason then says why.
type Response struct {
	Text         string
	HasContent   bool
	FinishReason FinishReason
}

// Provider is the generative-language backend.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (Response, error)
}

var (
	ErrMessageRequired = errors.New("message is required")
	ErrInvalidPersona  = errors.New("invalid persona")
	ErrProviderTimeout = errors.New("provider request timed out")
)

// ProviderError wraps any failure of the provider call.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsInvalidRequest reports whether err was caused by bad caller input.
func IsInvalidRequest(err error) bool {
	return errors.Is(err, ErrMessageRequired) || errors.Is(err, ErrInvalidPersona)
}
