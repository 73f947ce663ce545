package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiProvider implements Provider using Google's Gemini API.
type GeminiProvider struct {
	client  *genai.Client
	modelID string
}

// NewGeminiProvider creates a Gemini-backed provider. Extra client options are
// appended after the API key.
func NewGeminiProvider(ctx context.Context, apiKey, modelID string, opts ...option.ClientOption) (*GeminiProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ai: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = DefaultGeminiModel
	}

	clientOpts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	client, err := genai.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("ai: failed to create gemini client: %w", err)
	}

	return &GeminiProvider{client: client, modelID: modelID}, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

// Complete starts a chat seeded with the request history and sends the message.
func (p *GeminiProvider) Complete(ctx context.Context, req Request) (Response, error) {
	model := p.client.GenerativeModel(p.modelID)
	model.SetMaxOutputTokens(req.Config.MaxOutputTokens)
	model.SetTemperature(req.Config.Temperature)

	cs := model.StartChat()
	cs.History = toGeminiHistory(req.History)

	resp, err := cs.SendMessage(ctx, genai.Text(req.Message))
	if err != nil {
		var blocked *genai.BlockedError
		if errors.As(err, &blocked) {
			return fromGeminiBlocked(blocked), nil
		}
		return Response{}, fmt.Errorf("ai: gemini completion failed: %w", err)
	}

	return fromGeminiResponse(resp), nil
}

// Close releases resources held by the Gemini client.
func (p *GeminiProvider) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

func toGeminiHistory(history []Content) []*genai.Content {
	out := make([]*genai.Content, 0, len(history))
	for _, entry := range history {
		parts := make([]genai.Part, 0, len(entry.Parts))
		for _, text := range entry.Parts {
			parts = append(parts, genai.Text(text))
		}
		out = append(out, &genai.Content{Role: entry.Role, Parts: parts})
	}
	return out
}

func fromGeminiResponse(resp *genai.GenerateContentResponse) Response {
	if resp == nil || len(resp.Candidates) == 0 {
		return Response{FinishReason: FinishOther}
	}

	candidate := resp.Candidates[0]
	if candidate.Content != nil && len(candidate.Content.Parts) > 0 {
		var text strings.Builder
		for _, part := range candidate.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				text.WriteString(string(t))
			}
		}
		return Response{
			Text:         text.String(),
			HasContent:   true,
			FinishReason: geminiFinishReason(candidate.FinishReason),
		}
	}

	return Response{FinishReason: geminiFinishReason(candidate.FinishReason)}
}

// fromGeminiBlocked maps a blocked reply. The SDK reports both safety and
// recitation stops as BlockedError, so a blocked candidate keeps its own finish
// reason; only a blocked prompt counts as a safety block outright.
func fromGeminiBlocked(blocked *genai.BlockedError) Response {
	if blocked.Candidate != nil {
		return Response{FinishReason: geminiFinishReason(blocked.Candidate.FinishReason)}
	}
	return Response{FinishReason: FinishSafetyBlocked}
}

func geminiFinishReason(reason genai.FinishReason) FinishReason {
	switch reason {
	case genai.FinishReasonStop:
		return FinishCompleted
	case genai.FinishReasonMaxTokens:
		return FinishLengthTruncated
	case genai.FinishReasonSafety:
		return FinishSafetyBlocked
	default:
		return FinishOther
	}
}
