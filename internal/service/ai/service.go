package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zhouzirui/persona-chat/backend/internal/model/chat"
	"github.com/zhouzirui/persona-chat/backend/internal/model/persona"
	"github.com/zhouzirui/persona-chat/backend/internal/observability/metrics"
	chatservice "github.com/zhouzirui/persona-chat/backend/internal/service/chat"
	"github.com/zhouzirui/persona-chat/backend/pkg/logging"
)

// DefaultTimeout bounds a single provider call.
const DefaultTimeout = 30 * time.Second

// ChatRequest is one user message addressed to a persona within a session.
type ChatRequest struct {
	Message   string
	PersonaID string
	SessionID string
}

// ChatResult is the assistant reply.
type ChatResult struct {
	Message   string `json:"message"`
	PersonaID string `json:"persona"`
}

// Options tune a Service. Zero values fall back to defaults.
type Options struct {
	Timeout time.Duration
	Logger  *logging.Logger
	Metrics *metrics.ChatMetrics
	Tracer  trace.Tracer
}

// Service runs chat exchanges: it records turns, shapes the persona context
// and calls the provider.
type Service struct {
	provider Provider
	sessions *chatservice.Service
	personas persona.Store
	timeout  time.Duration
	logger   *logging.Logger
	metrics  *metrics.ChatMetrics
	tracer   trace.Tracer
}

// NewService creates a new chat exchange service.
func NewService(provider Provider, sessions *chatservice.Service, personas persona.Store, opts Options) (*Service, error) {
	if provider == nil {
		return nil, errors.New("ai: provider is required")
	}
	if sessions == nil || personas == nil {
		return nil, errors.New("ai: session and persona stores are required")
	}

	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer("persona-chat.internal.service.ai")
	}

	return &Service{
		provider: provider,
		sessions: sessions,
		personas: personas,
		timeout:  opts.Timeout,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		tracer:   opts.Tracer,
	}, nil
}

// Chat validates the request, appends the user turn, asks the provider for a
// reply and appends it. The session is held exclusively for the whole
// exchange. A failed provider call leaves the user turn in place.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (ChatResult, error) {
	if req.PersonaID == "" {
		req.PersonaID = persona.DefaultID
	}
	if req.SessionID == "" {
		req.SessionID = chat.DefaultSessionID
	}

	if req.Message == "" {
		s.metrics.ObserveRequest(req.PersonaID, metrics.OutcomeInvalid)
		return ChatResult{}, ErrMessageRequired
	}

	p, ok := s.personas.FindByID(req.PersonaID)
	if !ok {
		s.metrics.ObserveRequest(req.PersonaID, metrics.OutcomeInvalid)
		return ChatResult{}, fmt.Errorf("%w: %s", ErrInvalidPersona, req.PersonaID)
	}

	release, err := s.sessions.Acquire(ctx, req.SessionID)
	if err != nil {
		return ChatResult{}, fmt.Errorf("ai: acquire session %s: %w", req.SessionID, err)
	}
	defer release()

	length, err := s.sessions.Append(ctx, req.SessionID, chat.Turn{Role: chat.RoleUser, Content: req.Message})
	if err != nil {
		return ChatResult{}, fmt.Errorf("ai: save user turn: %w", err)
	}
	s.metrics.SetSessions(s.sessions.SessionCount())

	turns, err := s.sessions.Snapshot(ctx, req.SessionID)
	if err != nil {
		return ChatResult{}, fmt.Errorf("ai: load transcript: %w", err)
	}

	providerReq := Request{
		History: BuildHistory(turns[:len(turns)-1]),
		Message: BuildOutgoingMessage(p, req.Message, length == 1),
		Config:  DefaultGenerationConfig,
	}

	resp, err := s.complete(ctx, req, providerReq)
	if err != nil {
		s.metrics.ObserveRequest(p.ID, metrics.OutcomeProviderError)
		s.logger.Error("provider call failed",
			"session", req.SessionID,
			"persona", p.ID,
			"provider", s.provider.Name(),
			"error", err,
		)
		return ChatResult{}, err
	}

	reply := ReplyText(resp)
	if _, err := s.sessions.Append(ctx, req.SessionID, chat.Turn{Role: chat.RoleAssistant, Content: reply}); err != nil {
		return ChatResult{}, fmt.Errorf("ai: save assistant turn: %w", err)
	}

	outcome := resp.FinishReason.String()
	if resp.HasContent {
		outcome = metrics.OutcomeCompleted
	}
	s.metrics.ObserveRequest(p.ID, outcome)
	s.logger.Info("chat reply generated",
		"session", req.SessionID,
		"persona", p.ID,
		"finish_reason", resp.FinishReason.String(),
		"has_content", resp.HasContent,
		"length", len(reply),
	)

	return ChatResult{Message: reply, PersonaID: p.ID}, nil
}

// Clear empties the transcript of a session. Unknown sessions are a no-op.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		sessionID = chat.DefaultSessionID
	}
	if err := s.sessions.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("ai: clear session %s: %w", sessionID, err)
	}
	s.logger.Info("session cleared", "session", sessionID)
	return nil
}

func (s *Service) complete(ctx context.Context, req ChatRequest, providerReq Request) (Response, error) {
	ctx, span := s.tracer.Start(ctx, "ai.complete", trace.WithAttributes(
		attribute.String("provider", s.provider.Name()),
		attribute.String("persona", req.PersonaID),
		attribute.String("session", req.SessionID),
		attribute.Int("history_length", len(providerReq.History)),
	))
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type result struct {
		resp Response
		err  error
	}
	done := make(chan result, 1)

	start := time.Now()
	go func() {
		resp, err := s.provider.Complete(callCtx, providerReq)
		done <- result{resp: resp, err: err}
	}()

	var (
		resp Response
		err  error
	)
	select {
	case r := <-done:
		resp, err = r.resp, r.err
	case <-callCtx.Done():
		err = callCtx.Err()
	}
	s.metrics.ObserveProviderLatency(s.provider.Name(), time.Since(start).Seconds())

	if err != nil {
		if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			err = ErrProviderTimeout
		}
		span.RecordError(err)
		return Response{}, &ProviderError{Provider: s.provider.Name(), Err: err}
	}

	span.SetAttributes(attribute.String("finish_reason", resp.FinishReason.String()))
	return resp, nil
}
