// Package usage records every completion a documentation run asks for and
// prices it. Cache hits are priced too, as savings.
package usage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jbctechsolutions/docsmith/internal/domain/pricing"
)

// Event is one completion request as seen by the model layer.
type Event struct {
	Time         time.Time     `json:"time"`
	File         string        `json:"file,omitempty"`
	Symbol       string        `json:"symbol,omitempty"`
	Model        string        `json:"model"`
	Fingerprint  string        `json:"fingerprint"`
	CacheHit     bool          `json:"cache_hit"`
	InputTokens  int           `json:"input_tokens"`
	OutputTokens int           `json:"output_tokens"`
	Cost         float64       `json:"cost_usd"`
	Duration     time.Duration `json:"duration_ns"`
}

// Summary aggregates the events of a run.
type Summary struct {
	Calls   int                  `json:"calls"`
	Hits    int                  `json:"cache_hits"`
	Misses  int                  `json:"cache_misses"`
	HitRate float64              `json:"hit_rate"`
	Cost    *pricing.CostSummary `json:"cost"`
}

// Tracker collects events. It is safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	calc   *pricing.CostCalculator
	events []Event
}

// NewTracker creates a tracker that prices events with calc. A nil calc
// uses the default pricing table.
func NewTracker(calc *pricing.CostCalculator) *Tracker {
	if calc == nil {
		calc = pricing.NewDefaultCostCalculator()
	}
	return &Tracker{calc: calc}
}

// Price returns the cost of the given usage under model.
func (t *Tracker) Price(model string, inputTokens, outputTokens int) *pricing.CostBreakdown {
	return t.calc.CalculateOrZero(model, inputTokens, outputTokens)
}

// Record prices e, stores it and returns the stored copy.
func (t *Tracker) Record(e Event) Event {
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	e.Cost = t.Price(e.Model, e.InputTokens, e.OutputTokens).TotalCost

	t.mu.Lock()
	t.events = append(t.events, e)
	t.mu.Unlock()
	return e
}

// Events returns a copy of every recorded event, in order.
func (t *Tracker) Events() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Event(nil), t.events...)
}

// Summary totals the recorded events. Paid completions go to spend; cache
// hits go to savings.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Summary{Cost: pricing.NewCostSummary()}
	for _, e := range t.events {
		s.Calls++
		b := t.calc.CalculateOrZero(e.Model, e.InputTokens, e.OutputTokens)
		if e.CacheHit {
			s.Hits++
			s.Cost.AddSaved(b)
			continue
		}
		s.Misses++
		s.Cost.Add(b)
	}
	if s.Calls > 0 {
		s.HitRate = float64(s.Hits) / float64(s.Calls) * 100
	}
	return s
}

// report is the on-disk layout written by WriteJSON.
type report struct {
	Summary Summary `json:"summary"`
	Events  []Event `json:"events"`
}

// WriteJSON writes the summary and every event to path, creating parent
// directories.
func (t *Tracker) WriteJSON(path string) error {
	data, err := json.MarshalIndent(report{Summary: t.Summary(), Events: t.Events()}, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode usage report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create usage report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write usage report: %w", err)
	}
	return nil
}
