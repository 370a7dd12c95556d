package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"morapack/internal/opt"
)

const EventRunCompleted = "run.completed"

// Event is the envelope posted to the reporting collaborator.
type Event struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	TS   time.Time `json:"ts"`
	Data any       `json:"data"`
}

// RunSummary is the payload of EventRunCompleted. Full routes stay behind
// GET /v1/runs/{id}.
type RunSummary struct {
	RunID       string        `json:"runId"`
	Dataset     string        `json:"dataset"`
	Assigned    int           `json:"assigned"`
	Unassigned  int           `json:"unassigned"`
	Breakdown   opt.Breakdown `json:"breakdown"`
	Termination string        `json:"termination"`
	Iterations  int           `json:"iterations"`
	Restarts    int           `json:"restarts"`
	Duration    string        `json:"duration"`
}

type Publisher struct {
	Sender *Sender
}

func NewPublisher(s *Sender) *Publisher {
	return &Publisher{Sender: s}
}

// RunCompleted posts a summary of rep. A nil publisher or sender is a no-op.
func (p *Publisher) RunCompleted(ctx context.Context, rep *opt.Report) error {
	if p == nil || p.Sender == nil {
		return nil
	}
	ev := Event{
		ID:   "evt_" + rep.RunID,
		Type: EventRunCompleted,
		TS:   time.Now().UTC(),
		Data: RunSummary{
			RunID:       rep.RunID,
			Dataset:     rep.Dataset,
			Assigned:    rep.Assigned,
			Unassigned:  rep.Unassigned,
			Breakdown:   rep.Breakdown,
			Termination: rep.Metrics.Termination,
			Iterations:  rep.Metrics.Iterations,
			Restarts:    rep.Metrics.Restarts,
			Duration:    rep.Metrics.Duration.String(),
		},
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode %s: %w", ev.Type, err)
	}
	return p.Sender.Send(ctx, ev.Type, body)
}
