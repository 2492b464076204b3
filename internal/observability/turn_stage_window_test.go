package observability

import "testing"

func TestTurnLatencyWindowSnapshot(t *testing.T) {
	w := NewTurnLatencyWindow(8)
	w.Observe(StageCommitToFirstText, 500)
	w.Observe(StageCommitToFirstText, 700)
	w.Observe(StageCommitToFirstText, 900)
	w.ObserveIndicator("turn_committed")
	w.ObserveIndicator("turn_committed")

	snap := w.Snapshot()
	if snap.WindowSize != 8 {
		t.Fatalf("WindowSize = %d, want 8", snap.WindowSize)
	}
	if len(snap.Stages) != 1 {
		t.Fatalf("len(Stages) = %d, want 1", len(snap.Stages))
	}
	s := snap.Stages[0]
	if s.Stage != StageCommitToFirstText {
		t.Fatalf("Stage = %q, want %q", s.Stage, StageCommitToFirstText)
	}
	if s.Samples != 3 {
		t.Fatalf("Samples = %d, want 3", s.Samples)
	}
	if s.LastMS != 900 {
		t.Fatalf("LastMS = %.2f, want 900", s.LastMS)
	}
	if s.P50MS != 700 {
		t.Fatalf("P50MS = %.2f, want 700", s.P50MS)
	}
	if s.P95MS <= 700 || s.P95MS > 900 {
		t.Fatalf("P95MS = %.2f, want (700,900]", s.P95MS)
	}
	if s.TargetP95MS != 900 {
		t.Fatalf("TargetP95MS = %.2f, want 900", s.TargetP95MS)
	}
	if len(snap.Indicators) != 1 {
		t.Fatalf("len(Indicators) = %d, want 1", len(snap.Indicators))
	}
	if snap.Indicators[0].Name != "turn_committed" {
		t.Fatalf("Indicators[0].Name = %q, want %q", snap.Indicators[0].Name, "turn_committed")
	}
	if snap.Indicators[0].Count != 2 {
		t.Fatalf("Indicators[0].Count = %d, want %d", snap.Indicators[0].Count, 2)
	}
}

func TestTurnLatencyWindowWraps(t *testing.T) {
	w := NewTurnLatencyWindow(4)
	for i := 0; i < 6; i++ {
		w.Observe(StageSmartTurnE2E, float64(100*(i+1)))
	}

	snap := w.Snapshot()
	if len(snap.Stages) != 1 {
		t.Fatalf("len(Stages) = %d, want 1", len(snap.Stages))
	}
	s := snap.Stages[0]
	if s.Samples != 4 {
		t.Fatalf("Samples = %d, want 4 after wrap", s.Samples)
	}
	if s.LastMS != 600 {
		t.Fatalf("LastMS = %.2f, want 600", s.LastMS)
	}
}

func TestTurnLatencyWindowIgnoresBadInput(t *testing.T) {
	w := NewTurnLatencyWindow(4)
	w.Observe("", 100)
	w.Observe(StageSpeechEndToCommit, -5)
	w.ObserveIndicator("  ")

	snap := w.Snapshot()
	if len(snap.Stages) != 0 {
		t.Fatalf("len(Stages) = %d, want 0", len(snap.Stages))
	}
	if len(snap.Indicators) != 0 {
		t.Fatalf("len(Indicators) = %d, want 0", len(snap.Indicators))
	}
}

func TestTurnLatencyWindowReset(t *testing.T) {
	w := NewTurnLatencyWindow(4)
	w.Observe(StageCommitToResponseEnd, 1500)
	w.Reset()

	snap := w.Snapshot()
	if len(snap.Stages) != 0 {
		t.Fatalf("len(Stages) = %d after Reset, want 0", len(snap.Stages))
	}
}
