package pathfinder

import "math"

// logSumThreshold is the minimum change in hyperpath cost worth a re-push,
// matching the source's 1e-4 tolerance.
const logSumThreshold = 1e-4

// stopStateStore is C4, the per-request collection of candidate link
// records per stop. In deterministic mode it holds at most one StopState
// per stop; in hyperpath mode it holds a window-bounded set plus a
// HyperpathState summary.
type stopStateStore struct {
	outbound  bool
	hyperpath bool
	cfg       Config

	states map[int][]StopState
	hyper  map[int]*HyperpathState
}

func newStopStateStore(outbound, hyperpath bool, cfg Config) *stopStateStore {
	return &stopStateStore{
		outbound:  outbound,
		hyperpath: hyperpath,
		cfg:       cfg,
		states:    make(map[int][]StopState),
		hyper:     make(map[int]*HyperpathState),
	}
}

// States returns the stop's current StopState list (nil if absent).
func (s *stopStateStore) States(stop int) []StopState { return s.states[stop] }

// HasState reports whether a stop has any recorded state.
func (s *stopStateStore) HasState(stop int) bool { return len(s.states[stop]) > 0 }

// Front returns the stop's sole (deterministic) or first-inserted
// (hyperpath) StopState.
func (s *stopStateStore) Front(stop int) (StopState, bool) {
	ss := s.states[stop]
	if len(ss) == 0 {
		return StopState{}, false
	}
	return ss[0], true
}

// Hyper returns a stop's HyperpathState summary.
func (s *stopStateStore) Hyper(stop int) (*HyperpathState, bool) {
	h, ok := s.hyper[stop]
	return h, ok
}

// nonwalkLabel is C4.3.5: the log-sum aggregate over only the TRANSIT
// states at a stop, used to cap transfer relaxation so the search cannot
// walk-then-walk. Returns MaxCost if no TRANSIT state exists.
func (s *stopStateStore) nonwalkLabel(stop int) float64 {
	theta := s.cfg.StochDispersion
	var sum float64
	for _, ss := range s.states[stop] {
		if ss.DeparrMode == Transit {
			sum += math.Exp(-theta * ss.Cost)
		}
	}
	if sum == 0 {
		return MaxCost
	}
	return -(1 / theta) * math.Log(sum)
}

func logSum(theta float64, states []StopState) float64 {
	var sum float64
	for _, ss := range states {
		sum += math.Exp(-theta * ss.Cost)
	}
	if sum == 0 {
		return MaxCost
	}
	return -(1 / theta) * math.Log(sum)
}

// addStopState is C4.3.2, the update rule driving both the labeling engine
// and finalization. It reports whether the state was accepted in any form
// (inserted, substituted, or caused a re-push).
func (s *stopStateStore) addStopState(stop int, ns StopState, q *LabelStopQueue) bool {
	if !s.hyperpath {
		return s.addStopStateDeterministic(stop, ns, q)
	}
	return s.addStopStateHyperpath(stop, ns, q)
}

func (s *stopStateStore) addStopStateDeterministic(stop int, ns StopState, q *LabelStopQueue) bool {
	existing := s.states[stop]
	if len(existing) == 0 {
		s.states[stop] = []StopState{ns}
		q.Push(ns.Cost, stop)
		return true
	}
	if ns.Cost < existing[0].Cost {
		s.states[stop] = []StopState{ns}
		q.Push(ns.Cost, stop)
		return true
	}
	return false
}

func (s *stopStateStore) addStopStateHyperpath(stop int, ns StopState, q *LabelStopQueue) bool {
	hs, ok := s.hyper[stop]
	if !ok {
		s.states[stop] = []StopState{ns}
		s.hyper[stop] = &HyperpathState{
			LatestDepEarliestArr: ns.DeparrTime,
			LderTripID:           ns.TripID,
			HyperpathCost:        ns.Cost,
			ProcessCount:         0,
		}
		q.Push(ns.Cost, stop)
		return true
	}

	w := hs.LatestDepEarliestArr
	if s.outbound && ns.DeparrTime < w-s.cfg.TimeWindow {
		return false
	}
	if !s.outbound && ns.DeparrTime > w+s.cfg.TimeWindow {
		return false
	}

	extendsAnchor := (s.outbound && ns.DeparrTime > w) || (!s.outbound && ns.DeparrTime < w)
	if extendsAnchor {
		hs.LatestDepEarliestArr = ns.DeparrTime
		hs.LderTripID = ns.TripID
		q.Push(hs.HyperpathCost, stop)
	}

	existing := s.states[stop]
	substituted := false
	for i, old := range existing {
		if old.DeparrMode == ns.DeparrMode && old.TripID == ns.TripID &&
			old.StopSuccpred == ns.StopSuccpred && old.SeqSuccpred == ns.SeqSuccpred {
			existing[i] = ns
			substituted = true
			break
		}
	}
	if !substituted {
		existing = append(existing, ns)
	}

	kept := existing[:0]
	for _, ss := range existing {
		if s.outbound && ss.DeparrTime < hs.LatestDepEarliestArr-s.cfg.TimeWindow {
			continue
		}
		if !s.outbound && ss.DeparrTime > hs.LatestDepEarliestArr+s.cfg.TimeWindow {
			continue
		}
		kept = append(kept, ss)
	}
	s.states[stop] = kept

	newCost := logSum(s.cfg.StochDispersion, kept)
	if math.Abs(newCost-hs.HyperpathCost) > logSumThreshold {
		hs.HyperpathCost = newCost
		q.Push(newCost, stop)
	}

	return true
}
