package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zhouzirui/persona-chat/backend/internal/model/chat"
)

var ErrSessionRequired = errors.New("session id is required")

// sessionState holds one transcript. lock is a one-slot semaphore granting
// exclusive use of the session for a whole exchange; turns is guarded by Service.mu.
type sessionState struct {
	lock  chan struct{}
	turns []chat.Turn
}

func newSessionState() *sessionState {
	return &sessionState{
		lock:  make(chan struct{}, 1),
		turns: make([]chat.Turn, 0, 16),
	}
}

// Service is the in-memory session store. Sessions live for the process lifetime;
// nothing is evicted.
type Service struct {
	mu       sync.RWMutex
	sessions map[string]*sessionState
}

// NewService bootstraps an empty store.
func NewService() *Service {
	return &Service{
		sessions: make(map[string]*sessionState),
	}
}

func (s *Service) getOrCreate(sessionID string) *sessionState {
	s.mu.RLock()
	state, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok {
		return state
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok = s.sessions[sessionID]; !ok {
		state = newSessionState()
		s.sessions[sessionID] = state
	}
	return state
}

func (s *Service) lookup(sessionID string) (*sessionState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.sessions[sessionID]
	return state, ok
}

// Acquire creates the session if needed and blocks until the caller holds it
// exclusively. The returned release func must be called exactly once.
// The holder must not call Clear on the same session before releasing it:
// Clear waits for the session and would deadlock.
func (s *Service) Acquire(ctx context.Context, sessionID string) (func(), error) {
	if sessionID == "" {
		return nil, ErrSessionRequired
	}

	state := s.getOrCreate(sessionID)
	select {
	case state.lock <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-state.lock })
	}, nil
}

// Append adds a turn to the end of the transcript and returns the new length.
func (s *Service) Append(_ context.Context, sessionID string, turn chat.Turn) (int, error) {
	if sessionID == "" {
		return 0, ErrSessionRequired
	}

	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}

	state := s.getOrCreate(sessionID)

	s.mu.Lock()
	defer s.mu.Unlock()
	state.turns = append(state.turns, turn)
	return len(state.turns), nil
}

// Snapshot returns a copy of the transcript in insertion order.
// Unknown sessions yield an empty transcript.
func (s *Service) Snapshot(_ context.Context, sessionID string) ([]chat.Turn, error) {
	state, ok := s.lookup(sessionID)
	if !ok {
		return []chat.Turn{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	copied := make([]chat.Turn, len(state.turns))
	copy(copied, state.turns)
	return copied, nil
}

// Clear empties the transcript, keeping the session id. It waits for any
// in-flight exchange on the session to finish. Unknown sessions are a no-op.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	state, ok := s.lookup(sessionID)
	if !ok {
		return nil
	}

	select {
	case state.lock <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-state.lock }()

	s.mu.Lock()
	state.turns = make([]chat.Turn, 0, 16)
	s.mu.Unlock()
	return nil
}

// SessionCount reports how many sessions are held in memory.
func (s *Service) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
