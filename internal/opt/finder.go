package opt

import (
	"sort"

	"morapack/internal/model"
)

// RouteFinder enumerates candidate routes for a shipment against the
// remaining flight capacity observed at call time.
type RouteFinder struct {
	net   *Network
	cfg   Config
	v     *Validator
	ctx   *SearchContext
	reach [][]int // airport -> airports with at least one direct instance
}

func NewRouteFinder(n *Network, v *Validator, ctx *SearchContext) *RouteFinder {
	f := &RouteFinder{net: n, cfg: n.Config, v: v, ctx: ctx, reach: make([][]int, len(n.Airports))}
	for k := range n.byPair {
		f.reach[k.from] = append(f.reach[k.from], k.to)
	}
	for _, r := range f.reach {
		sort.Ints(r)
	}
	return f
}

// legs lists up to n instances from -> to departing at or after earliest,
// arriving by latest, with room for qty units.
func (f *RouteFinder) legs(from, to, earliest, latest, qty int, fl *FlightLedger, n int) []*model.FlightInstance {
	list := f.net.pair(from, to)
	i := sort.Search(len(list), func(i int) bool { return list[i].Departure >= earliest })
	var out []*model.FlightInstance
	for ; i < len(list) && len(out) < n; i++ {
		fi := list[i]
		if fi.Departure > latest {
			break
		}
		if fi.Arrival > latest || fl.Remaining(fi) < qty {
			continue
		}
		out = append(out, fi)
	}
	return out
}

// sample returns up to k airports from pool that are not excluded and can
// reach via, in random order.
func (f *RouteFinder) sample(pool []int, k int, via int, exclude ...int) []int {
	cands := make([]int, 0, len(pool))
next:
	for _, a := range pool {
		for _, x := range exclude {
			if a == x {
				continue next
			}
		}
		if via >= 0 && len(f.net.pair(a, via)) == 0 {
			continue
		}
		cands = append(cands, a)
	}
	f.ctx.RNG.Shuffle(len(cands), func(i, j int) { cands[i], cands[j] = cands[j], cands[i] })
	if len(cands) > k {
		cands = cands[:k]
	}
	return cands
}

// Candidates returns up to limit valid routes ordered by cost. Direct routes
// are tried first; one-stop and two-stop routes only when the cheaper tier
// yields fewer than limit.
func (f *RouteFinder) Candidates(sh *Shipment, fl *FlightLedger, limit int) []model.Route {
	o, d := sh.Origin.Index, sh.Dest.Index
	if o == d {
		return []model.Route{{}}
	}
	if limit <= 0 {
		limit = f.cfg.CandidateLimit
	}
	qty, due, lay := sh.Qty(), sh.Due, f.cfg.MinLayoverMinutes
	var out []model.Route
	add := func(r model.Route) {
		if f.v.IsValid(sh, r) {
			out = append(out, r)
		}
	}

	for _, a := range f.legs(o, d, sh.Ready, due, qty, fl, f.cfg.MaxLegOptions) {
		add(model.Route{a})
	}

	if len(out) < limit && f.cfg.MaxIntermediateAirports > 0 {
		for _, m := range f.sample(f.reach[o], f.cfg.MaxIntermediateAirports, d, o, d) {
			for _, a := range f.legs(o, m, sh.Ready, due, qty, fl, f.cfg.MaxLegOptions) {
				for _, b := range f.legs(m, d, a.Arrival+lay, due, qty, fl, 2) {
					add(model.Route{a, b})
				}
			}
		}
	}

	if len(out) < limit && f.cfg.MaxIntermediateAirports > 1 {
		width := max(1, f.cfg.MaxIntermediateAirports/2)
		opts := max(1, f.cfg.MaxLegOptions/3)
		for _, m1 := range f.sample(f.reach[o], width, -1, o, d) {
			for _, a := range f.legs(o, m1, sh.Ready, due, qty, fl, opts) {
				for _, m2 := range f.sample(f.reach[m1], width, d, o, d, m1) {
					for _, b := range f.legs(m1, m2, a.Arrival+lay, due, qty, fl, opts) {
						for _, c := range f.legs(m2, d, b.Arrival+lay, due, qty, fl, 1) {
							add(model.Route{a, b, c})
						}
					}
				}
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := f.cost(sh, out[i]), f.cost(sh, out[j])
		if ci != cj {
			return ci < cj
		}
		return out[i].Key() < out[j].Key()
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// cost is elapsed minutes to arrival plus a penalty per connection.
func (f *RouteFinder) cost(sh *Shipment, r model.Route) float64 {
	if len(r) == 0 {
		return 0
	}
	return float64(r.Arrival()-sh.Ready) + float64(f.cfg.HopPenaltyMinutes*(len(r)-1))
}

// margin is the slack in minutes between arrival and deadline.
func margin(sh *Shipment, r model.Route) int {
	if len(r) == 0 {
		return sh.Due - sh.Ready
	}
	return sh.Due - r.Arrival()
}

// FindRoute picks one candidate with probability proportional to its margin
// before the deadline.
func (f *RouteFinder) FindRoute(sh *Shipment, fl *FlightLedger) (model.Route, bool) {
	cands := f.Candidates(sh, fl, f.cfg.CandidateLimit)
	if len(cands) == 0 {
		return nil, false
	}
	return cands[f.pickByMargin(sh, cands)], true
}

func (f *RouteFinder) pickByMargin(sh *Shipment, cands []model.Route) int {
	w := make([]float64, len(cands))
	for i, r := range cands {
		w[i] = float64(margin(sh, r) + 1)
	}
	return f.ctx.selectOp(w)
}
