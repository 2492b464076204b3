package observability

import (
	"math"
	"sort"
	"strings"
	"sync"
	"time"
)

// Stage names tracked by the turn latency window.
const (
	StageSpeechEndToCommit   = "speech_end_to_commit"
	StageCommitToFirstText   = "commit_to_first_text"
	StageCommitToResponseEnd = "commit_to_response_end"
	StageSmartTurnE2E        = "smart_turn_e2e"
)

type TurnStageStats struct {
	Stage       string  `json:"stage"`
	Samples     int     `json:"samples"`
	LastMS      float64 `json:"last_ms"`
	AvgMS       float64 `json:"avg_ms"`
	P50MS       float64 `json:"p50_ms"`
	P95MS       float64 `json:"p95_ms"`
	P99MS       float64 `json:"p99_ms"`
	TargetP95MS float64 `json:"target_p95_ms,omitempty"`
}

type TurnIndicator struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type TurnStageSnapshot struct {
	GeneratedAt time.Time        `json:"generated_at"`
	WindowSize  int              `json:"window_size"`
	Stages      []TurnStageStats `json:"stages"`
	Indicators  []TurnIndicator  `json:"indicators,omitempty"`
}

// TurnLatencyWindow keeps a rolling window of per-stage turn latencies
// and serves quantile snapshots for the latency endpoint.
type TurnLatencyWindow struct {
	mu         sync.RWMutex
	capacity   int
	rings      map[string]*stageRing
	indicators map[string]int
}

// stageRing overwrites oldest-first once seen exceeds the capacity.
type stageRing struct {
	samples []float64
	seen    int
	latest  float64
}

func (r *stageRing) add(ms float64, capacity int) {
	if len(r.samples) < capacity {
		r.samples = append(r.samples, ms)
	} else {
		r.samples[r.seen%capacity] = ms
	}
	r.seen++
	r.latest = ms
}

func NewTurnLatencyWindow(maxSamples int) *TurnLatencyWindow {
	if maxSamples <= 0 {
		maxSamples = 256
	}
	return &TurnLatencyWindow{
		capacity:   maxSamples,
		rings:      make(map[string]*stageRing),
		indicators: make(map[string]int),
	}
}

func (w *TurnLatencyWindow) Observe(stage string, ms float64) {
	if stage == "" || ms < 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	ring := w.rings[stage]
	if ring == nil {
		ring = &stageRing{samples: make([]float64, 0, w.capacity)}
		w.rings[stage] = ring
	}
	ring.add(ms, w.capacity)
}

func (w *TurnLatencyWindow) ObserveIndicator(name string) {
	if w == nil {
		return
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	w.mu.Lock()
	w.indicators[name]++
	w.mu.Unlock()
}

func (w *TurnLatencyWindow) Reset() {
	if w == nil {
		return
	}
	w.mu.Lock()
	w.rings = make(map[string]*stageRing)
	w.indicators = make(map[string]int)
	w.mu.Unlock()
}

func (w *TurnLatencyWindow) Snapshot() TurnStageSnapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	snap := TurnStageSnapshot{
		GeneratedAt: time.Now().UTC(),
		WindowSize:  w.capacity,
		Stages:      make([]TurnStageStats, 0, len(w.rings)),
		Indicators:  make([]TurnIndicator, 0, len(w.indicators)),
	}

	stageNames := make([]string, 0, len(w.rings))
	for stage := range w.rings {
		stageNames = append(stageNames, stage)
	}
	sort.Strings(stageNames)
	for _, stage := range stageNames {
		if stats, ok := stageStats(stage, w.rings[stage]); ok {
			snap.Stages = append(snap.Stages, stats)
		}
	}

	indicatorNames := make([]string, 0, len(w.indicators))
	for name := range w.indicators {
		indicatorNames = append(indicatorNames, name)
	}
	sort.Strings(indicatorNames)
	for _, name := range indicatorNames {
		if count := w.indicators[name]; count > 0 {
			snap.Indicators = append(snap.Indicators, TurnIndicator{Name: name, Count: count})
		}
	}
	return snap
}

func stageStats(stage string, ring *stageRing) (TurnStageStats, bool) {
	if ring == nil || len(ring.samples) == 0 {
		return TurnStageStats{}, false
	}
	sorted := make([]float64, len(ring.samples))
	copy(sorted, ring.samples)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	return TurnStageStats{
		Stage:       stage,
		Samples:     len(sorted),
		LastMS:      round2(ring.latest),
		AvgMS:       round2(sum / float64(len(sorted))),
		P50MS:       round2(quantile(sorted, 0.50)),
		P95MS:       round2(quantile(sorted, 0.95)),
		P99MS:       round2(quantile(sorted, 0.99)),
		TargetP95MS: stageTargetP95MS(stage),
	}, true
}

// quantile interpolates linearly between the two nearest order
// statistics so small windows still move smoothly.
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[n-1]
	}
	pos := q * float64(n-1)
	lo := int(pos)
	frac := pos - float64(lo)
	if lo+1 >= n || frac == 0 {
		return sorted[lo]
	}
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func stageTargetP95MS(stage string) float64 {
	switch stage {
	case StageSpeechEndToCommit:
		return 1000
	case StageCommitToFirstText:
		return 900
	case StageCommitToResponseEnd:
		return 3200
	case StageSmartTurnE2E:
		return 400
	default:
		return 0
	}
}
