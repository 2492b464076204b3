package archive

import (
	"context"
	"testing"
	"time"
)

func TestInMemorySaveFillsDefaults(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	if err := store.SaveUtterance(ctx, Record{SessionID: "s1", Speaker: "user", Text: "hello"}); err != nil {
		t.Fatalf("SaveUtterance() error = %v", err)
	}

	recs, err := store.RecentBySession(ctx, "s1", 10)
	if err != nil {
		t.Fatalf("RecentBySession() error = %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("RecentBySession() returned %d records, want 1", len(recs))
	}
	if recs[0].ID == "" {
		t.Error("SaveUtterance() did not assign an ID")
	}
	if recs[0].CreatedAt.IsZero() {
		t.Error("SaveUtterance() did not assign a timestamp")
	}
}

func TestInMemoryRecentChronologicalAndLimited(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	texts := []string{"one", "two", "three", "four"}
	for i, text := range texts {
		rec := Record{SessionID: "s1", Speaker: "user", Text: text, CreatedAt: base.Add(time.Duration(i) * time.Second)}
		if err := store.SaveUtterance(ctx, rec); err != nil {
			t.Fatalf("SaveUtterance(%q) error = %v", text, err)
		}
	}

	recs, err := store.RecentBySession(ctx, "s1", 2)
	if err != nil {
		t.Fatalf("RecentBySession() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("RecentBySession(limit=2) returned %d records, want 2", len(recs))
	}
	if recs[0].Text != "three" || recs[1].Text != "four" {
		t.Errorf("RecentBySession() = [%q, %q], want [three, four]", recs[0].Text, recs[1].Text)
	}
}

func TestInMemorySessionsIsolated(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	if err := store.SaveUtterance(ctx, Record{SessionID: "a", Speaker: "user", Text: "for a"}); err != nil {
		t.Fatalf("SaveUtterance() error = %v", err)
	}
	if err := store.SaveUtterance(ctx, Record{SessionID: "b", Speaker: "user", Text: "for b"}); err != nil {
		t.Fatalf("SaveUtterance() error = %v", err)
	}

	recs, err := store.RecentBySession(ctx, "a", 10)
	if err != nil {
		t.Fatalf("RecentBySession() error = %v", err)
	}
	if len(recs) != 1 || recs[0].Text != "for a" {
		t.Errorf("RecentBySession(a) = %+v, want only the record for session a", recs)
	}
}

func TestInMemoryUnknownSessionEmpty(t *testing.T) {
	store := NewInMemoryStore()

	recs, err := store.RecentBySession(context.Background(), "nope", 10)
	if err != nil {
		t.Fatalf("RecentBySession() error = %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("RecentBySession(unknown) returned %d records, want 0", len(recs))
	}
}
