package chat_test

import (
	"context"
	"sync"
	"testing"
	"time"

	model "github.com/zhouzirui/persona-chat/backend/internal/model/chat"
	chat "github.com/zhouzirui/persona-chat/backend/internal/service/chat"
)

func TestServiceAppendAndSnapshot(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	n, err := svc.Append(ctx, "s1", model.Turn{Role: model.RoleUser, Content: "Hello"})
	if err != nil {
		t.Fatalf("Append err: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected length 1, got %d", n)
	}
	if n, _ = svc.Append(ctx, "s1", model.Turn{Role: model.RoleAssistant, Content: "Ahoy"}); n != 2 {
		t.Fatalf("expected length 2, got %d", n)
	}

	turns, err := svc.Snapshot(ctx, "s1")
	if err != nil {
		t.Fatalf("Snapshot err: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Content != "Hello" || turns[1].Content != "Ahoy" {
		t.Fatalf("unexpected order: %+v", turns)
	}
	if turns[0].ID == "" || turns[0].CreatedAt.IsZero() {
		t.Fatal("expected id and timestamp to be assigned")
	}

	turns[0].Content = "mutated"
	again, _ := svc.Snapshot(ctx, "s1")
	if again[0].Content != "Hello" {
		t.Fatal("Snapshot must return a copy")
	}
}

func TestServiceSnapshotUnknownSession(t *testing.T) {
	svc := chat.NewService()
	turns, err := svc.Snapshot(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Snapshot err: %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("expected empty transcript, got %d", len(turns))
	}
	if svc.SessionCount() != 0 {
		t.Fatal("Snapshot must not create sessions")
	}
}

func TestServiceAppendRequiresSessionID(t *testing.T) {
	svc := chat.NewService()
	if _, err := svc.Append(context.Background(), "", model.Turn{Role: model.RoleUser}); err == nil {
		t.Fatal("expected error for empty session id")
	}
}

func TestServiceClear(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	svc.Append(ctx, "s1", model.Turn{Role: model.RoleUser, Content: "one"})
	svc.Append(ctx, "s2", model.Turn{Role: model.RoleUser, Content: "two"})

	if err := svc.Clear(ctx, "s1"); err != nil {
		t.Fatalf("Clear err: %v", err)
	}

	if turns, _ := svc.Snapshot(ctx, "s1"); len(turns) != 0 {
		t.Fatalf("expected s1 empty, got %d", len(turns))
	}
	if turns, _ := svc.Snapshot(ctx, "s2"); len(turns) != 1 {
		t.Fatalf("expected s2 untouched, got %d", len(turns))
	}
	if svc.SessionCount() != 2 {
		t.Fatalf("expected cleared session to be retained, got %d sessions", svc.SessionCount())
	}
}

func TestServiceClearUnknownSession(t *testing.T) {
	svc := chat.NewService()
	if err := svc.Clear(context.Background(), "missing"); err != nil {
		t.Fatalf("Clear err: %v", err)
	}
	if svc.SessionCount() != 0 {
		t.Fatal("Clear must not create sessions")
	}
}

func TestServiceAcquireIsExclusive(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	release, err := svc.Acquire(ctx, "s1")
	if err != nil {
		t.Fatalf("Acquire err: %v", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if _, err := svc.Acquire(waitCtx, "s1"); err == nil {
		t.Fatal("expected second Acquire to block until context expiry")
	}

	other, err := svc.Acquire(ctx, "s2")
	if err != nil {
		t.Fatalf("other session should not block: %v", err)
	}
	other()

	release()
	release()

	again, err := svc.Acquire(ctx, "s1")
	if err != nil {
		t.Fatalf("Acquire after release err: %v", err)
	}
	again()
}

func TestServiceClearWaitsForExchange(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	release, err := svc.Acquire(ctx, "s1")
	if err != nil {
		t.Fatalf("Acquire err: %v", err)
	}
	svc.Append(ctx, "s1", model.Turn{Role: model.RoleUser, Content: "q"})

	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.Clear(ctx, "s1")
	}()

	select {
	case <-done:
		t.Fatal("Clear returned while exchange was in flight")
	case <-time.After(20 * time.Millisecond):
	}

	svc.Append(ctx, "s1", model.Turn{Role: model.RoleAssistant, Content: "a"})
	release()
	<-done

	if turns, _ := svc.Snapshot(ctx, "s1"); len(turns) != 0 {
		t.Fatalf("expected cleared transcript, got %d", len(turns))
	}
}

func TestServiceConcurrentExchangesSerialize(t *testing.T) {
	svc := chat.NewService()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := svc.Acquire(ctx, "shared")
			if err != nil {
				t.Errorf("Acquire err: %v", err)
				return
			}
			defer release()
			svc.Append(ctx, "shared", model.Turn{Role: model.RoleUser, Content: "q"})
			svc.Append(ctx, "shared", model.Turn{Role: model.RoleAssistant, Content: "a"})
		}()
	}
	wg.Wait()

	turns, _ := svc.Snapshot(ctx, "shared")
	if len(turns) != 40 {
		t.Fatalf("expected 40 turns, got %d", len(turns))
	}
	for i, turn := range turns {
		want := model.RoleUser
		if i%2 == 1 {
			want = model.RoleAssistant
		}
		if turn.Role != want {
			t.Fatalf("turn %d: expected %s, got %s", i, want, turn.Role)
		}
	}
}
