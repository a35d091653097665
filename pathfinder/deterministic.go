package pathfinder

import "github.com/samber/lo"

// reconstructDeterministic is C7: walk the single chain of successors
// from the opposite TAZ's state until the terminal link mode is reached,
// then rewrite times and recompute cost.
func (s *search) reconstructDeterministic() (Path, PathInfo) {
	opposite := s.spec.oppositeTAZ()
	state, ok := s.store.Front(opposite)
	if !ok {
		return Path{}, PathInfo{}
	}

	terminal := s.spec.seedLinkMode()
	stops := []int{opposite}
	states := []StopState{state}

	const maxSteps = 100000
	for step := 0; state.DeparrMode != terminal; step++ {
		if step > maxSteps {
			log.Error("reconstructDeterministic: exceeded max chain length, aborting")
			return Path{}, PathInfo{}
		}
		nextStop := state.StopSuccpred
		nextState, ok := s.store.Front(nextStop)
		if !ok {
			log.WithFields(map[string]interface{}{"stop": s.net.StopName(nextStop)}).
				Error("reconstructDeterministic: successor stop has no state")
			return Path{}, PathInfo{}
		}
		state = nextState
		stops = append(stops, nextStop)
		states = append(states, state)
	}

	path := Path{Stops: stops, States: states}
	rewritePathTimes(s.net, s.spec, &path)
	cost := calculatePathCost(s.net, s.spec, &path)
	return path, PathInfo{Count: 1, Cost: cost, Probability: 1, ProbI: 0}
}

// Reversed returns a copy of the path with stops and states in reverse
// order, used to present an inbound path in the opposite walk order (e.g.
// for trace/debug output or comparing S2/S6 symmetry in tests).
func (p Path) Reversed() Path {
	return Path{Stops: lo.Reverse(append([]int{}, p.Stops...)), States: lo.Reverse(append([]StopState{}, p.States...))}
}
