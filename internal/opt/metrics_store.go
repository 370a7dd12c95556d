package opt

import (
	"sort"
	"sync"
)

type runKey struct {
	Dataset string
	RunID   string
}

var (
	mu    sync.Mutex
	store = map[runKey]Metrics{}
)

// RecordMetrics keeps the metrics of a finished run for later lookup.
func RecordMetrics(dataset, runID string, m Metrics) {
	mu.Lock()
	store[runKey{Dataset: dataset, RunID: runID}] = m
	mu.Unlock()
}

// GetMetrics returns the recorded runs of a dataset keyed by run id.
func GetMetrics(dataset string) map[string]Metrics {
	mu.Lock()
	defer mu.Unlock()
	out := map[string]Metrics{}
	for k, v := range store {
		if k.Dataset == dataset {
			out[k.RunID] = v
		}
	}
	return out
}

// Datasets lists datasets with at least one recorded run.
func Datasets() []string {
	mu.Lock()
	defer mu.Unlock()
	seen := map[string]bool{}
	for k := range store {
		seen[k.Dataset] = true
	}
	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
