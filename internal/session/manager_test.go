package session

import (
	"context"
	"testing"
	"time"
)

func TestManagerCreateGetEnd(t *testing.T) {
	m := NewManager(time.Minute)
	s := m.Create("client-1", "10.0.0.5:52110")
	if s.ID == "" {
		t.Fatalf("session ID should not be empty")
	}

	got, err := m.Get(s.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ClientID != "client-1" || got.RemoteAddr != "10.0.0.5:52110" || got.Status != StatusActive {
		t.Fatalf("unexpected session state: %+v", got)
	}

	ended, err := m.End(s.ID)
	if err != nil {
		t.Fatalf("End() error = %v", err)
	}
	if ended.Status != StatusEnded {
		t.Fatalf("ended status = %q, want %q", ended.Status, StatusEnded)
	}
}

func TestManagerTurnLifecycle(t *testing.T) {
	m := NewManager(time.Minute)
	s := m.Create("client-1", "")

	if err := m.StartTurn(s.ID, "turn-1"); err != nil {
		t.Fatalf("StartTurn() error = %v", err)
	}
	got, _ := m.Get(s.ID)
	if got.ActiveTurnID != "turn-1" || got.TurnCount != 1 {
		t.Fatalf("after StartTurn: ActiveTurnID = %q, TurnCount = %d", got.ActiveTurnID, got.TurnCount)
	}

	if err := m.EndTurn(s.ID); err != nil {
		t.Fatalf("EndTurn() error = %v", err)
	}
	got, _ = m.Get(s.ID)
	if got.ActiveTurnID != "" {
		t.Fatalf("after EndTurn: ActiveTurnID = %q, want empty", got.ActiveTurnID)
	}
	if got.TurnCount != 1 {
		t.Fatalf("after EndTurn: TurnCount = %d, want 1", got.TurnCount)
	}
}

func TestManagerInterruptClearsTurn(t *testing.T) {
	m := NewManager(time.Minute)
	s := m.Create("client-1", "")
	if err := m.StartTurn(s.ID, "turn-1"); err != nil {
		t.Fatalf("StartTurn() error = %v", err)
	}
	if err := m.Interrupt(s.ID); err != nil {
		t.Fatalf("Interrupt() error = %v", err)
	}

	got, err := m.Get(s.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ActiveTurnID != "" {
		t.Fatalf("ActiveTurnID = %q, want empty", got.ActiveTurnID)
	}
	if got.InterruptionCount != 1 {
		t.Fatalf("InterruptionCount = %d, want 1", got.InterruptionCount)
	}
}

func TestManagerListOrdersByStart(t *testing.T) {
	m := NewManager(time.Minute)
	first := m.Create("client-1", "")
	second := m.Create("client-2", "")

	list := m.List()
	if len(list) != 2 {
		t.Fatalf("List() returned %d sessions, want 2", len(list))
	}
	if list[0].ID != first.ID || list[1].ID != second.ID {
		t.Fatalf("List() order = [%s, %s], want oldest first", list[0].ClientID, list[1].ClientID)
	}
}

func TestManagerJanitorExpiresInactive(t *testing.T) {
	m := NewManager(30 * time.Millisecond)
	s := m.Create("client-1", "")

	expired := make(chan string, 1)
	m.SetExpireHook(func(s *Session) { expired <- s.ID })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.StartJanitor(ctx, 10*time.Millisecond)

	select {
	case id := <-expired:
		if id != s.ID {
			t.Fatalf("expired session = %q, want %q", id, s.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("janitor did not expire the idle session")
	}

	got, err := m.Get(s.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != StatusEnded {
		t.Fatalf("Status = %q, want %q", got.Status, StatusEnded)
	}
}
