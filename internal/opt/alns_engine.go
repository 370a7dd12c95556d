package opt

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"morapack/internal/metrics"
)

// Phase is the search state of a run.
type Phase string

const (
	PhaseInitializing Phase = "initializing"
	PhaseSearching    Phase = "searching"
	PhaseDiversifying Phase = "diversifying"
	PhaseIntensifying Phase = "intensifying"
	PhaseTerminated   Phase = "terminated"
)

// Termination reasons.
const (
	StopAllAssigned       = "all_assigned"
	StopMaxIterations     = "max_iterations"
	StopNoAccept          = "no_accept"
	StopRestartsExhausted = "restarts_exhausted"
	StopTimeBudget        = "time_budget"
	StopCancelled         = "cancelled"
)

// Acceptance outcomes of one iteration.
const (
	OutcomeBest      = "new_best"
	OutcomeImproved  = "improved"
	OutcomeAnnealing = "accepted_worse"
	OutcomeRejected  = "rejected"
)

type Metrics struct {
	Seed           int64              `json:"seed"`
	Iterations     int                `json:"iterations"`
	Improvements   int                `json:"improvements"`
	Accepted       int                `json:"accepted"`
	AcceptedWorse  int                `json:"acceptedWorse"`
	Rejected       int                `json:"rejected"`
	Restarts       int                `json:"restarts"`
	DestroySelects map[string]int     `json:"destroySelects"`
	RepairSelects  map[string]int     `json:"repairSelects"`
	InitialWeight  float64            `json:"initialWeight"`
	BestWeight     float64            `json:"bestWeight"`
	FinalDestroy   map[string]float64 `json:"finalDestroyWeights"`
	FinalRepair    map[string]float64 `json:"finalRepairWeights"`
	Snapshots      []WeightSnapshot   `json:"snapshots,omitempty"`
	Termination    string             `json:"termination"`
	Advisories     int                `json:"advisories"`
	Duration       time.Duration      `json:"duration"`
}

type WeightSnapshot struct {
	Iteration int                `json:"iteration"`
	Destroy   map[string]float64 `json:"destroy"`
	Repair    map[string]float64 `json:"repair"`
}

// Progress is published after every iteration.
type Progress struct {
	Seed        int64   `json:"seed"`
	Iteration   int     `json:"iteration"`
	Phase       Phase   `json:"phase"`
	Outcome     string  `json:"outcome"`
	Current     float64 `json:"currentWeight"`
	Best        float64 `json:"bestWeight"`
	Temperature float64 `json:"temperature"`
	Assigned    int     `json:"assigned"`
	Unassigned  int     `json:"unassigned"`
	Restarts    int     `json:"restarts"`
}

// Result is the best solution of a run.
type Result struct {
	Network   *Network
	Solution  *Solution
	Breakdown Breakdown
	Metrics   Metrics
}

// Solver runs adaptive large neighbourhood search over one Network.
type Solver struct {
	net        *Network
	cfg        Config
	seed       int64
	log        *zap.Logger
	destroyers []Destroyer
	repairers  []Repairer

	// OnProgress, if set, is called synchronously after every iteration.
	OnProgress func(Progress)

	afterIteration func(*State)
}

func NewSolver(n *Network, seed int64, log *zap.Logger) *Solver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Solver{
		net:        n,
		cfg:        n.Config,
		seed:       seed,
		log:        log,
		destroyers: defaultDestroyers(),
		repairers:  defaultRepairers(n.Config),
	}
}

// adaptive holds roulette weights and the scores collected over the current
// segment for one operator family.
type adaptive struct {
	weights []float64
	scores  []float64
	uses    []int
	selects []int
}

func newAdaptive(n int) *adaptive {
	a := &adaptive{weights: make([]float64, n), scores: make([]float64, n), uses: make([]int, n), selects: make([]int, n)}
	for i := range a.weights {
		a.weights[i] = 1
	}
	return a
}

func (a *adaptive) reward(i int, score float64) {
	a.scores[i] += score
	a.uses[i]++
}

// endSegment blends each weight towards its average segment score.
func (a *adaptive) endSegment(reaction, floor float64) {
	for i := range a.weights {
		if a.uses[i] > 0 {
			avg := a.scores[i] / float64(a.uses[i])
			a.weights[i] = (1-reaction)*a.weights[i] + reaction*avg
		}
		a.weights[i] = math.Max(floor, a.weights[i])
		a.scores[i], a.uses[i] = 0, 0
	}
}

func named[T interface{ Name() string }](ops []T, vals []float64) map[string]float64 {
	out := make(map[string]float64, len(ops))
	for i, op := range ops {
		out[op.Name()] = vals[i]
	}
	return out
}

func namedCounts[T interface{ Name() string }](ops []T, vals []int) map[string]int {
	out := make(map[string]int, len(ops))
	for i, op := range ops {
		out[op.Name()] = vals[i]
	}
	return out
}

// Solve builds an initial solution and improves it until a stop condition
// holds. It checks ctx once per iteration and returns the best solution found
// so far on cancellation.
func (s *Solver) Solve(ctx context.Context) (*Result, error) {
	started := time.Now()
	cfg := s.cfg
	sc := NewSearchContext(s.seed, s.net.maxShipmentID()+1)
	st := newState(s.net, sc, s.log)
	log := s.log.With(zap.Int64("seed", sc.Seed))

	phase := PhaseInitializing
	st.buildInitial(cfg.InitialStrategy)
	cur := st.Evaluate()
	best, bestB := st.sol.clone(), cur
	best.Weight = cur.Weight
	log.Info("initial solution",
		zap.String("strategy", cfg.InitialStrategy),
		zap.Int("assigned", cur.AssignedShipments),
		zap.Int("unassigned", cur.UnassignedShipment),
		zap.Float64("weight", cur.Weight))

	dW, rW := newAdaptive(len(s.destroyers)), newAdaptive(len(s.repairers))
	m := Metrics{Seed: sc.Seed, InitialWeight: cur.Weight, BestWeight: cur.Weight}
	temp := cfg.InitialTemperature
	var deadline time.Time
	if cfg.TimeBudget > 0 {
		deadline = started.Add(cfg.TimeBudget)
	}
	sinceBest, sinceSignificant, noAccept := 0, 0, 0
	significantRef := cur.Weight
	phase = PhaseSearching

	for {
		switch {
		case st.sol.UnassignedCount() == 0:
			m.Termination = StopAllAssigned
		case ctx.Err() != nil:
			m.Termination = StopCancelled
		case !deadline.IsZero() && time.Now().After(deadline):
			m.Termination = StopTimeBudget
		case m.Iterations >= cfg.MaxIterations:
			m.Termination = StopMaxIterations
		case noAccept >= cfg.NoAcceptLimit:
			m.Termination = StopNoAccept
		}
		if m.Termination != "" {
			break
		}
		m.Iterations++

		di := sc.selectOp(dW.weights)
		ri := sc.selectOp(rW.weights)
		dW.selects[di]++
		rW.selects[ri]++
		metrics.SolverOperatorSelects.WithLabelValues("destroy", s.destroyers[di].Name()).Inc()
		metrics.SolverOperatorSelects.WithLabelValues("repair", s.repairers[ri].Name()).Inc()

		snap := st.snapshot()
		ratio := cfg.DestructionRatio
		switch phase {
		case PhaseDiversifying:
			ratio = cfg.DiversifiedDestructionRatio
		case PhaseIntensifying:
			ratio = cfg.DestructionRatio / 2
		}
		removed := s.destroyers[di].Destroy(st, removalCount(cfg, st.sol.AssignedCount(), ratio))
		st.remove(removed)
		pending := append(removed, st.expandPool(removed)...)
		s.repairers[ri].Repair(st, pending)
		st.rebuild()
		next := st.Evaluate()

		var outcome string
		var score float64
		switch {
		case next.Weight > best.Weight:
			outcome, score = OutcomeBest, cfg.Scores.NewBest
		case next.Weight > cur.Weight:
			outcome, score = OutcomeImproved, s.improvementScore(cur.Weight, next.Weight)
		case sc.RNG.Float64() < math.Exp((next.Weight-cur.Weight)/math.Max(temp, 1e-9)):
			outcome, score = OutcomeAnnealing, cfg.Scores.AcceptedAnnealing
		default:
			outcome, score = OutcomeRejected, cfg.Scores.Rejected
		}
		dW.reward(di, score)
		rW.reward(ri, score)
		metrics.SolverIterations.WithLabelValues(outcome).Inc()

		if outcome == OutcomeRejected {
			st.restore(snap)
			m.Rejected++
			noAccept++
		} else {
			cur = next
			m.Accepted++
			noAccept = 0
			if outcome == OutcomeAnnealing {
				m.AcceptedWorse++
			}
		}

		sinceBest++
		sinceSignificant++
		if outcome == OutcomeBest {
			if next.Weight-significantRef >= cfg.SignificantImprovement*math.Max(math.Abs(significantRef), 1) {
				sinceSignificant = 0
				significantRef = next.Weight
			}
			best, bestB = st.sol.clone(), next
			best.Weight = next.Weight
			m.Improvements++
			m.BestWeight = next.Weight
			sinceBest = 0
			if phase == PhaseDiversifying {
				phase = PhaseIntensifying
				log.Debug("intensifying", zap.Int("iteration", m.Iterations), zap.Float64("best", next.Weight))
			}
		}
		if sinceBest >= cfg.StagnationThreshold && phase != PhaseDiversifying {
			phase = PhaseDiversifying
			log.Debug("diversifying", zap.Int("iteration", m.Iterations), zap.Int("sinceBest", sinceBest))
		}

		if m.Iterations%cfg.SegmentSize == 0 {
			dW.endSegment(cfg.ReactionFactor, cfg.MinOperatorWeight)
			rW.endSegment(cfg.ReactionFactor, cfg.MinOperatorWeight)
		}
		if m.Iterations%cfg.CoolingSegment == 0 {
			temp *= cfg.CoolingRate
		}
		if m.Iterations%cfg.SnapshotEvery == 0 {
			m.Snapshots = append(m.Snapshots, WeightSnapshot{
				Iteration: m.Iterations,
				Destroy:   named(s.destroyers, dW.weights),
				Repair:    named(s.repairers, rW.weights),
			})
		}

		if sinceSignificant >= cfg.RestartThreshold && st.sol.UnassignedCount() > 0 {
			if m.Restarts >= cfg.MaxRestarts {
				m.Termination = StopRestartsExhausted
			} else {
				strategy := st.restart(m.Restarts, best)
				m.Restarts++
				cur = st.Evaluate()
				temp = cfg.InitialTemperature
				sinceBest, sinceSignificant, noAccept = 0, 0, 0
				significantRef = best.Weight
				phase = PhaseSearching
				log.Info("extreme restart",
					zap.String("strategy", strategy),
					zap.Int("restart", m.Restarts),
					zap.Int("iteration", m.Iterations),
					zap.Float64("weight", cur.Weight),
					zap.Float64("best", best.Weight))
				if cur.Weight > best.Weight {
					best, bestB = st.sol.clone(), cur
					best.Weight = cur.Weight
					m.BestWeight = cur.Weight
				}
			}
		}

		if s.OnProgress != nil {
			s.OnProgress(Progress{
				Seed:        sc.Seed,
				Iteration:   m.Iterations,
				Phase:       phase,
				Outcome:     outcome,
				Current:     cur.Weight,
				Best:        best.Weight,
				Temperature: temp,
				Assigned:    st.sol.AssignedCount(),
				Unassigned:  st.sol.UnassignedCount(),
				Restarts:    m.Restarts,
			})
		}
		if s.afterIteration != nil {
			s.afterIteration(st)
		}
		if m.Termination != "" {
			break
		}
	}

	st.adopt(best)
	if improveRoutes(st) {
		if b := st.Evaluate(); b.Weight >= bestB.Weight {
			best, bestB = st.sol.clone(), b
			best.Weight = b.Weight
			m.BestWeight = b.Weight
		} else {
			st.adopt(best)
		}
	}
	if err := st.flights.Validate(); err != nil {
		return nil, fmt.Errorf("best solution: %w", err)
	}
	if err := st.stores.Validate(); err != nil {
		return nil, fmt.Errorf("best solution: %w", err)
	}

	phase = PhaseTerminated
	m.DestroySelects = namedCounts(s.destroyers, dW.selects)
	m.RepairSelects = namedCounts(s.repairers, rW.selects)
	m.FinalDestroy = named(s.destroyers, dW.weights)
	m.FinalRepair = named(s.repairers, rW.weights)
	m.Advisories = st.validator.Advisories()
	m.Duration = time.Since(started)

	metrics.SolverBestWeight.Set(bestB.Weight)
	metrics.SolverUnassigned.Set(float64(bestB.UnassignedShipment))
	metrics.SolverRunDuration.WithLabelValues(m.Termination).Observe(m.Duration.Seconds())
	log.Info("search finished",
		zap.String("phase", string(phase)),
		zap.String("termination", m.Termination),
		zap.Int("iterations", m.Iterations),
		zap.Int("restarts", m.Restarts),
		zap.Int("assigned", bestB.AssignedShipments),
		zap.Int("unassigned", bestB.UnassignedShipment),
		zap.Float64("weight", bestB.Weight),
		zap.Duration("took", m.Duration))

	return &Result{Network: s.net, Solution: best, Breakdown: bestB, Metrics: m}, nil
}

// improvementScore tiers a gain over the current weight.
func (s *Solver) improvementScore(cur, next float64) float64 {
	gain := (next - cur) / math.Max(math.Abs(cur), 1)
	switch {
	case gain >= s.cfg.Scores.LargeThreshold:
		return s.cfg.Scores.LargeImprovement
	case gain >= s.cfg.Scores.ModerateThreshold:
		return s.cfg.Scores.ModerateImprovement
	default:
		return s.cfg.Scores.SmallImprovement
	}
}

// expandPool draws extra unassigned shipments into a repair. The more of the
// problem is unassigned, the likelier and larger the draw. The draw takes the
// most urgent shipments first.
func (st *State) expandPool(exclude []int) []int {
	skip := make(map[int]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	avail := 0
	for _, sh := range st.pool.items {
		if !skip[sh.ID] {
			avail++
		}
	}
	total := len(st.sol.Shipments)
	if avail == 0 || total == 0 {
		return nil
	}
	frac := float64(avail) / float64(total)
	if st.ctx.RNG.Float64() >= math.Min(1, math.Max(0.2, 2*frac)) {
		return nil
	}
	lo, hi := st.cfg.PoolExpansionMin, st.cfg.PoolExpansionMax
	limit := lo
	switch {
	case frac > 0.5:
		limit = hi
	case frac > 0.1:
		limit = lo + int((frac-0.1)/0.4*float64(hi-lo))
	}
	head := st.pool.Head(limit, skip)
	ids := make([]int, len(head))
	for i, sh := range head {
		ids[i] = sh.ID
	}
	return ids
}
