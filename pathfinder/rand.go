package pathfinder

import (
	"hash/fnv"
	"math"
	"math/rand"
)

// probScale replaces the source's RAND_MAX-dependent integerization with a
// fixed scale, so probability resolution and reproducibility no longer
// depend on the host platform's rand() implementation (spec's REDESIGN
// FLAG on RAND_MAX-dependent integerization).
const probScale = 1e9

// chooser draws from logit distributions with a fixed seed derived from
// the request's path id, giving bit-identical draws across platforms for
// identical input, matching the source's chooseState/choosePath mechanism.
type chooser struct {
	rng   *rand.Rand
	theta float64
}

// newChooser seeds a chooser from pathID so repeated calls with the same
// path id reproduce the same sequence of draws.
func newChooser(pathID string) *chooser {
	h := fnv.New64a()
	_, _ = h.Write([]byte(pathID))
	return &chooser{rng: rand.New(rand.NewSource(int64(h.Sum64())))} //nolint:gosec
}

// choose builds the integerized cumulative probability distribution over
// costs under dispersion theta, drops entries integerizing to zero, and
// draws an index proportional to the remaining mass. ok is false if no
// candidate survives or the total mass integerizes to zero.
func (c *chooser) choose(costs []float64) (index int, ok bool) {
	if len(costs) == 0 {
		return 0, false
	}
	theta := c.theta
	var denom float64
	for _, cost := range costs {
		denom += math.Exp(-theta * cost)
	}
	if denom == 0 {
		return 0, false
	}

	type candidate struct {
		origIndex int
		cum       int64
	}
	candidates := make([]candidate, 0, len(costs))
	var cumTotal int64
	for i, cost := range costs {
		p := math.Exp(-theta*cost) / denom
		probI := int64(math.Floor(probScale * p))
		if probI < 1 {
			continue
		}
		cumTotal += probI
		candidates = append(candidates, candidate{origIndex: i, cum: cumTotal})
	}
	if cumTotal == 0 || len(candidates) == 0 {
		return 0, false
	}

	r := c.rng.Int63n(cumTotal)
	for _, cand := range candidates {
		if cand.cum >= r {
			return cand.origIndex, true
		}
	}
	return candidates[len(candidates)-1].origIndex, true
}

// theta must be set by the caller (labeling/hyperpath code) before choose
// is used; kept as a field rather than a parameter so chooser can be
// reused across the many draws one hyperpath attempt makes.
func (c *chooser) withTheta(theta float64) *chooser {
	c.theta = theta
	return c
}
