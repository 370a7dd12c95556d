package opt

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrNoSeeds = errors.New("no seeds given")

// SolveParallel runs one independent search per seed over the shared network
// and returns the best result. Ties go to the earlier seed. onProgress is
// called from every run goroutine and must be safe for concurrent use.
func SolveParallel(ctx context.Context, n *Network, seeds []int64, log *zap.Logger, onProgress func(Progress)) (*Result, error) {
	if len(seeds) == 0 {
		return nil, ErrNoSeeds
	}
	results := make([]*Result, len(seeds))
	g, gctx := errgroup.WithContext(ctx)
	for i, seed := range seeds {
		g.Go(func() error {
			s := NewSolver(n, seed, log)
			s.OnProgress = onProgress
			res, err := s.Solve(gctx)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	best := results[0]
	for _, r := range results[1:] {
		if r.Breakdown.Weight > best.Breakdown.Weight {
			best = r
		}
	}
	return best, nil
}
