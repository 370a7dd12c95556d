//go:build postgres_integration

package store

import (
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"morapack/internal/integrations"
	"morapack/internal/opt"
)

func TestPostgresImportLoadAndReports(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}
	p, err := NewPostgres(t.Context(), dsn, zap.NewNop())
	if err != nil {
		t.Fatalf("NewPostgres: %v", err)
	}
	defer p.Close()
	if err := p.Migrate(t.Context()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	ds := sampleDataset()
	if err := p.ImportDataset(t.Context(), ds); err != nil {
		t.Fatalf("ImportDataset: %v", err)
	}

	got, err := integrations.Load(t.Context(), p, integrations.Window{From: ds.Orders[0].Created.Add(-time.Minute)})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Airports) < len(ds.Airports) || len(got.Flights) < len(ds.Flights) || len(got.Orders) == 0 {
		t.Fatalf("short load: %d airports, %d flights, %d orders", len(got.Airports), len(got.Flights), len(got.Orders))
	}

	rep := &opt.Report{RunID: "6f1c2d3e-0000-4000-8000-000000000001", Dataset: "it", CreatedAt: time.Now().UTC(), Assigned: 1}
	if err := p.SaveReport(t.Context(), rep); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	back, err := p.GetReport(t.Context(), rep.RunID)
	if err != nil || back.Assigned != 1 {
		t.Fatalf("GetReport: %v %+v", err, back)
	}
	if _, err := p.GetReport(t.Context(), "6f1c2d3e-0000-4000-8000-0000000000ff"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
