package opt

import (
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"morapack/internal/model"
)

// verdictKey memoises routes of up to three legs.
type verdictKey struct {
	shipment int
	legs     [3]int32
	hops     int8
}

// Validator decides whether a route is acceptable for a shipment. It never
// looks at capacity; that is the ledgers' job at commit time.
type Validator struct {
	net        *Network
	cfg        Config
	log        *zap.Logger
	advisory   *rate.Sometimes
	advisories int
	verdicts   map[verdictKey]bool
}

func NewValidator(n *Network, log *zap.Logger) *Validator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Validator{
		net:      n,
		cfg:      n.Config,
		log:      log,
		advisory: &rate.Sometimes{First: 5, Interval: 10 * time.Second},
		verdicts: map[verdictKey]bool{},
	}
}

// IsValid checks endpoints and continuity, the ready time, minimum layovers,
// the deadline and the delivery promise.
func (v *Validator) IsValid(sh *Shipment, r model.Route) bool {
	if len(r) > len(verdictKey{}.legs) {
		return v.check(sh, r)
	}
	k := verdictKey{shipment: sh.ID, hops: int8(len(r))}
	for i, fi := range r {
		k.legs[i] = int32(fi.Index)
	}
	if ok, hit := v.verdicts[k]; hit {
		return ok
	}
	ok := v.check(sh, r)
	v.verdicts[k] = ok
	return ok
}

func (v *Validator) check(sh *Shipment, r model.Route) bool {
	if len(r) == 0 {
		return sh.Origin.Index == sh.Dest.Index
	}
	if r[0].Origin().Index != sh.Origin.Index || r.Destination().Index != sh.Dest.Index {
		return false
	}
	if r[0].Departure < sh.Ready {
		return false
	}
	for i := 1; i < len(r); i++ {
		prev, next := r[i-1], r[i]
		if prev.Destination().Index != next.Origin().Index {
			return false
		}
		if next.Departure-prev.Arrival < v.cfg.MinLayoverMinutes {
			return false
		}
	}
	arr := r.Arrival()
	if arr > sh.Due || arr-sh.Ready > sh.Promise {
		return false
	}
	if r.FlightMinutes()+(len(r)-1)*v.cfg.ConnectionMinutes > sh.Promise {
		return false
	}
	if !v.net.IsHub(sh.Origin) {
		v.advise(sh)
	}
	return true
}

// advise records a shipment leaving from outside the headquarters set. Such
// routes are allowed; the warning is throttled.
func (v *Validator) advise(sh *Shipment) {
	v.advisories++
	v.advisory.Do(func() {
		v.log.Warn("shipment origin is not a headquarters airport",
			zap.Int("shipment", sh.ID),
			zap.Int("order", sh.OrderID),
			zap.String("origin", sh.Origin.IATA),
			zap.Int("advisories", v.advisories))
	})
}

// Advisories counts non-headquarters origins seen so far.
func (v *Validator) Advisories() int { return v.advisories }

// ClearCache drops memoised verdicts.
func (v *Validator) ClearCache() {
	clear(v.verdicts)
}
