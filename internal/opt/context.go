package opt

import (
	"math/rand"
	"time"
)

// SearchContext owns the mutable bookkeeping of one run: its random source
// and id counters. Nothing in the search reads global state, so two runs
// with the same seed and input produce the same result.
type SearchContext struct {
	Seed           int64
	RNG            *rand.Rand
	nextShipmentID int
}

func NewSearchContext(seed int64, firstShipmentID int) *SearchContext {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SearchContext{
		Seed:           seed,
		RNG:            rand.New(rand.NewSource(seed)),
		nextShipmentID: firstShipmentID,
	}
}

// NextShipmentID hands out ids for shipments created by order splits.
func (c *SearchContext) NextShipmentID() int {
	id := c.nextShipmentID
	c.nextShipmentID++
	return id
}

// selectOp samples an index with probability proportional to its weight.
func (c *SearchContext) selectOp(weights []float64) int {
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if sum <= 0 {
		return 0
	}
	r := c.RNG.Float64() * sum
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r <= acc {
			return i
		}
	}
	return len(weights) - 1
}
