package store

import (
	"context"
	"errors"
	"time"

	"morapack/internal/integrations"
	"morapack/internal/opt"
)

var ErrNotFound = errors.New("not found")

// Store is a planning input source that also keeps run reports.
type Store interface {
	integrations.InputDataSource

	// Reference data
	ImportDataset(ctx context.Context, ds *integrations.Dataset) error

	// Reports
	SaveReport(ctx context.Context, rep *opt.Report) error
	GetReport(ctx context.Context, runID string) (*opt.Report, error)
	ListReports(ctx context.Context, dataset string, limit int) ([]ReportSummary, error)
}

// ReportSummary is the listing view of a stored report.
type ReportSummary struct {
	RunID      string    `json:"runId"`
	Dataset    string    `json:"dataset"`
	CreatedAt  time.Time `json:"createdAt"`
	Assigned   int       `json:"assigned"`
	Unassigned int       `json:"unassigned"`
	Weight     float64   `json:"weight"`
}

// Summarize projects rep onto its listing view.
func Summarize(rep *opt.Report) ReportSummary {
	return ReportSummary{
		RunID:      rep.RunID,
		Dataset:    rep.Dataset,
		CreatedAt:  rep.CreatedAt,
		Assigned:   rep.Assigned,
		Unassigned: rep.Unassigned,
		Weight:     rep.Breakdown.Weight,
	}
}

const defaultListLimit = 50

func listLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return defaultListLimit
	}
	return limit
}
