package api

import (
	"time"

	"golang.org/x/time/rate"

	"morapack/internal/opt"
	"morapack/internal/store"
)

// ProgressFeed forwards solver progress of one run to a broker. Iterations
// are thinned to one per interval; new bests always go through.
type ProgressFeed struct {
	broker EventBroker
	runID  string
	lim    *rate.Limiter
}

func NewProgressFeed(b EventBroker, runID string, interval time.Duration) *ProgressFeed {
	return &ProgressFeed{broker: b, runID: runID, lim: rate.NewLimiter(rate.Every(interval), 1)}
}

// Observe matches opt.Solver.OnProgress and is safe for parallel runs.
func (f *ProgressFeed) Observe(p opt.Progress) {
	if p.Outcome != opt.OutcomeBest && !f.lim.Allow() {
		return
	}
	f.broker.Publish(f.runID, Event{Type: EventProgress, RunID: f.runID, Progress: &p})
}

func (f *ProgressFeed) Complete(rep *opt.Report) {
	sum := store.Summarize(rep)
	f.broker.Publish(f.runID, Event{Type: EventCompleted, RunID: f.runID, Summary: &sum})
}
