package pathfinder

import (
	"fmt"
	"math"

	"github.com/samber/lo"
)

// filterCandidates applies the per-step acceptance rules from §4.5 to the
// candidate states at the stop the search is about to step into.
func filterCandidates(outbound bool, prev StopState, candidates []StopState) []StopState {
	out := make([]StopState, 0, len(candidates))
	for _, c := range candidates {
		if outbound && c.DeparrMode == Access {
			continue
		}
		if !outbound && c.DeparrMode == Egress {
			continue
		}
		if outbound {
			if (prev.DeparrMode == Access || prev.DeparrMode == Transfer) &&
				(c.DeparrMode == Transfer || c.DeparrMode == Egress) {
				continue
			}
		} else {
			if (prev.DeparrMode == Egress || prev.DeparrMode == Transfer) &&
				(c.DeparrMode == Transfer || c.DeparrMode == Access) {
				continue
			}
		}
		if c.DeparrMode == Transit && c.TripID == prev.TripID {
			continue
		}
		if outbound && c.DeparrTime < prev.ArrdepTime {
			continue
		}
		if !outbound && c.DeparrTime > prev.ArrdepTime {
			continue
		}
		out = append(out, c)
	}
	return out
}

// pathSignature is the dedup key §4.5 step 3 describes as "equality over
// the full sequence": the chain of (stop, mode, trip) triples.
func pathSignature(p Path) string {
	sig := ""
	for i, stop := range p.Stops {
		sig += fmt.Sprintf("%d:%d:%d;", stop, p.States[i].DeparrMode, p.States[i].TripID)
	}
	return sig
}

// hyperpathAttempt is one pass of generateHyperpath's draw loop (§4.5 step 2): draw
// a starting state from the opposite TAZ's candidates, then descend
// link-by-link until a terminal link is chosen or no candidate survives
// filtering.
func (s *search) hyperpathAttempt(ch *chooser) (Path, bool) {
	opposite := s.spec.oppositeTAZ()
	candidates := s.store.States(opposite)
	if len(candidates) == 0 {
		return Path{}, false
	}

	idx, ok := ch.choose(costsOf(candidates))
	if !ok {
		return Path{}, false
	}

	current := candidates[idx]
	stops := []int{opposite}
	states := []StopState{current}
	terminal := s.spec.seedLinkMode()

	const maxSteps = 10000
	for step := 0; current.DeparrMode != terminal; step++ {
		if step > maxSteps {
			return Path{}, false
		}
		nextStop := current.StopSuccpred
		filtered := filterCandidates(s.spec.Outbound, current, s.store.States(nextStop))
		if len(filtered) == 0 {
			return Path{}, false
		}
		idx, ok := ch.choose(costsOf(filtered))
		if !ok {
			return Path{}, false
		}
		current = filtered[idx]
		stops = append(stops, nextStop)
		states = append(states, current)
	}

	return Path{Stops: stops, States: states}, true
}

func costsOf(states []StopState) []float64 {
	costs := make([]float64, len(states))
	for i, s := range states {
		costs[i] = s.Cost
	}
	return costs
}

// generateHyperpath is C6 end to end: attempt StochPathsetSize draws,
// deduplicate, recompute costs under the resolved schedule, and draw one
// final path with a logit choice over the deduplicated set.
func (s *search) generateHyperpath() (Path, PathInfo) {
	ch := newChooser(s.spec.PathID).withTheta(s.cfg.StochDispersion)

	var attempts []Path
	for i := 0; i < s.cfg.StochPathsetSize; i++ {
		p, ok := s.hyperpathAttempt(ch)
		if ok {
			attempts = append(attempts, p)
		}
	}
	if len(attempts) == 0 {
		return Path{}, PathInfo{}
	}

	groups := lo.GroupBy(attempts, pathSignature)
	type scored struct {
		path  Path
		count int
		cost  float64
	}
	deduped := make([]scored, 0, len(groups))
	for _, group := range groups {
		p := group[0]
		rewritePathTimes(s.net, s.spec, &p)
		cost := calculatePathCost(s.net, s.spec, &p)
		deduped = append(deduped, scored{path: p, count: len(group), cost: cost})
	}

	costs := make([]float64, len(deduped))
	for i, d := range deduped {
		costs[i] = d.cost
	}
	theta := s.cfg.StochDispersion
	var denom float64
	for _, c := range costs {
		denom += math.Exp(-theta * c)
	}

	finalIdx, ok := ch.choose(costs)
	if !ok {
		return Path{}, PathInfo{}
	}

	probability := 0.0
	if denom > 0 {
		probability = math.Exp(-theta*costs[finalIdx]) / denom
	}

	return deduped[finalIdx].path, PathInfo{
		Count:       deduped[finalIdx].count,
		Cost:        deduped[finalIdx].cost,
		Probability: probability,
	}
}
