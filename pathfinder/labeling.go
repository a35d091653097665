package pathfinder

import (
	"errors"

	"git.fiblab.net/sim/transitpath/v2/network"
)

// errNoSeed is the seed-failure sentinel (spec's "no seed" outcome): the
// anchor TAZ has no access/egress links, or no weights are configured for
// the required (user_class, demand_mode_type, demand_mode). FindPath turns
// this into a length-0 path rather than propagating it as an error.
var errNoSeed = errors.New("no access/egress links or weights for anchor TAZ")

// search is the per-request state threading through C5: the labeling
// engine. It borrows Network read-only and owns everything else; nothing
// here outlives a single FindPath call.
type search struct {
	net   *network.Network
	cfg   Config
	spec  PathSpecification
	store *stopStateStore
	queue *LabelStopQueue
	trace *TraceWriter

	labelIteration  int
	maxProcessCount int
}

func newSearch(net *network.Network, cfg Config, spec PathSpecification, trace *TraceWriter) *search {
	return &search{
		net:   net,
		cfg:   cfg,
		spec:  spec,
		store: newStopStateStore(spec.Outbound, spec.Hyperpath, cfg),
		queue: NewLabelStopQueue(),
		trace: trace,
	}
}

// run executes C5 end to end: seed, label, finalize. errNoSeed signals an
// empty-path outcome rather than a hard failure.
func (s *search) run() error {
	if err := s.initializeStopStates(); err != nil {
		return err
	}

	lastPopped := -1
	for !s.queue.Empty() {
		_, stop, err := s.queue.PopTop()
		if err != nil {
			return err
		}
		if stop == lastPopped {
			continue
		}
		lastPopped = stop
		s.labelIteration++
		s.trace.VisitedStop(s.labelIteration, stop)

		if s.spec.Hyperpath {
			hs, ok := s.store.hyper[stop]
			if ok {
				if s.cfg.StochMaxStopProcessCount > 0 && hs.ProcessCount >= s.cfg.StochMaxStopProcessCount {
					continue
				}
				hs.ProcessCount++
				if hs.ProcessCount > s.maxProcessCount {
					s.maxProcessCount = hs.ProcessCount
				}
			}
		}

		s.relaxTransfers(stop)
		s.relaxTrips(stop)
	}

	return s.finalizeTazState()
}

// initializeStopStates is C4.3.1: seeding from the anchor TAZ's
// access/egress links.
func (s *search) initializeStopStates() error {
	anchor := s.spec.anchorTAZ()
	linksBySupply, ok := s.net.AccessEgressLinks(anchor)
	if !ok {
		return errNoSeed
	}
	ucm := network.UserClassMode{UserClass: s.spec.UserClass, DemandModeType: s.spec.seedModeType(), DemandMode: s.spec.seedMode()}
	weightsBySupply, hasWeights := s.net.Weights(ucm)
	if !hasWeights {
		return errNoSeed
	}

	dirFactor := s.spec.dirFactor()
	seeded := false
	for supplyMode, byStop := range linksBySupply {
		weights, hasSupplyWeights := weightsBySupply[supplyMode]
		for stop, attrs := range byStop {
			var cost float64
			if s.spec.Hyperpath {
				if !hasSupplyWeights {
					continue
				}
				local := attrs.Clone()
				local["preferred_delay_min"] = 0
				cost = tally(weights, local)
			} else {
				cost = attrs["time_min"]
			}

			deparrTime := s.spec.PreferredTime - attrs["time_min"]*dirFactor
			ss := StopState{
				DeparrTime:     deparrTime,
				DeparrMode:     s.spec.seedLinkMode(),
				TripID:         supplyMode,
				StopSuccpred:   anchor,
				LinkTime:       attrs["time_min"],
				LinkCost:       cost,
				Cost:           cost,
				LabelIteration: 0,
				ArrdepTime:     s.spec.PreferredTime,
			}
			if s.store.addStopState(stop, ss, s.queue) {
				seeded = true
			}
			s.trace.LabeledLink(0, s.net.StopName(stop), ss, true)
		}
	}
	if !seeded {
		return errNoSeed
	}
	return nil
}

// finalizeTazState is C4.3.4: mirror of seeding, from the opposite TAZ.
func (s *search) finalizeTazState() error {
	opposite := s.spec.oppositeTAZ()
	linksBySupply, ok := s.net.AccessEgressLinks(opposite)
	if !ok {
		return nil
	}
	ucm := network.UserClassMode{UserClass: s.spec.UserClass, DemandModeType: s.spec.finalModeType(), DemandMode: s.spec.finalMode()}
	weightsBySupply, _ := s.net.Weights(ucm)
	dirFactor := s.spec.dirFactor()

	for supplyMode, byStop := range linksBySupply {
		weights, hasWeights := weightsBySupply[supplyMode]
		for stop, attrs := range byStop {
			if !s.store.HasState(stop) {
				continue
			}
			front, _ := s.store.Front(stop)

			var cost float64
			if s.spec.Hyperpath {
				if !hasWeights {
					continue
				}
				cost = s.store.nonwalkLabel(stop) + tally(weights, attrs)
				if s.store.nonwalkLabel(stop) == MaxCost {
					continue
				}
			} else {
				if front.DeparrMode != Transit {
					continue
				}
				cost = front.Cost + attrs["time_min"]
			}

			// The TAZ link meets the stop at its earliest departure (outbound)
			// or latest arrival (inbound) over the stop's states.
			stopTime := front.DeparrTime
			for _, st := range s.store.States(stop) {
				if (s.spec.Outbound && st.DeparrTime < stopTime) || (!s.spec.Outbound && st.DeparrTime > stopTime) {
					stopTime = st.DeparrTime
				}
			}
			tazTime := stopTime - attrs["time_min"]*dirFactor

			if !s.spec.Hyperpath && s.spec.Outbound {
				ts := network.TripStop{TripID: front.TripID, Sequence: front.Seq, StopID: stop}
				if latest, ok := s.net.BumpWait().Lookup(ts); ok {
					if tazTime-s.cfg.TimeWindow > latest {
						continue
					}
					cost += (front.DeparrTime - latest) + s.cfg.BumpBuffer
					tazTime = latest - attrs["time_min"] - s.cfg.BumpBuffer
				}
			}

			ss := StopState{
				DeparrTime:     tazTime,
				DeparrMode:     s.spec.finalLinkMode(),
				TripID:         supplyMode,
				StopSuccpred:   stop,
				LinkTime:       attrs["time_min"],
				LinkCost:       cost - front.Cost,
				Cost:           cost,
				LabelIteration: s.labelIteration,
				ArrdepTime:     stopTime,
			}
			s.store.addStopState(opposite, ss, s.queue)
			s.trace.LabeledLink(s.labelIteration, s.net.StopName(opposite), ss, true)
		}
	}
	return nil
}

// relaxTransfers is the transfer half of C4.3.3 step 3.
func (s *search) relaxTransfers(stop int) {
	states := s.store.States(stop)
	if len(states) == 0 {
		return
	}

	if states[0].DeparrMode == Access || states[0].DeparrMode == Egress {
		return
	}

	if s.spec.Hyperpath {
		nwLabel := s.store.nonwalkLabel(stop)
		if nwLabel == MaxCost {
			return
		}
		hs := s.store.hyper[stop]
		s.relaxTransfersHyperpath(stop, nwLabel, hs.LatestDepEarliestArr)
		return
	}

	current := states[0]
	if current.DeparrMode == Transfer {
		return
	}
	s.relaxTransfersDeterministic(stop, current)
}

func (s *search) neighboringTransfers(stop int) (map[int]network.Attributes, bool) {
	if s.spec.Outbound {
		return s.net.TransferLinksReversed(stop)
	}
	return s.net.TransferLinks(stop)
}

func (s *search) relaxTransfersHyperpath(stop int, nwLabel, anchorTime float64) {
	neighbors, ok := s.neighboringTransfers(stop)
	if !ok {
		return
	}
	transferWeights, hasW := s.net.WeightsFor(
		network.UserClassMode{UserClass: s.spec.UserClass, DemandModeType: network.Transfer, DemandMode: s.spec.TransferMode},
		s.net.TransferModeID(),
	)
	if !hasW {
		return
	}
	dirFactor := s.spec.dirFactor()

	for neighbor, xfer := range neighbors {
		deparrTime := anchorTime - xfer["time_min"]*dirFactor
		local := xfer.Clone()
		local["transfer_penalty"] = 1
		linkCost := tally(transferWeights, local)
		cost := nwLabel + linkCost

		ss := StopState{
			DeparrTime:     deparrTime,
			DeparrMode:     Transfer,
			TripID:         -1,
			StopSuccpred:   stop,
			LinkTime:       xfer["time_min"],
			LinkCost:       linkCost,
			Cost:           cost,
			LabelIteration: s.labelIteration,
			ArrdepTime:     anchorTime,
		}
		s.store.addStopState(neighbor, ss, s.queue)
		s.trace.LabeledLink(s.labelIteration, s.net.StopName(neighbor), ss, true)
	}
}

func (s *search) relaxTransfersDeterministic(stop int, current StopState) {
	neighbors, ok := s.neighboringTransfers(stop)
	if !ok {
		return
	}
	dirFactor := s.spec.dirFactor()

	for neighbor, xfer := range neighbors {
		deparrTime := current.DeparrTime - xfer["time_min"]*dirFactor
		cost := current.Cost + xfer["time_min"]

		if s.spec.Outbound {
			ts := network.TripStop{TripID: current.TripID, Sequence: current.Seq, StopID: stop}
			if latest, ok := s.net.BumpWait().Lookup(ts); ok {
				if deparrTime-s.cfg.TimeWindow > latest {
					continue
				}
				cost += (current.DeparrTime - latest) + s.cfg.BumpBuffer
				deparrTime = latest - xfer["time_min"] - s.cfg.BumpBuffer
			}
		}

		ss := StopState{
			DeparrTime:     deparrTime,
			DeparrMode:     Transfer,
			TripID:         -1,
			StopSuccpred:   stop,
			LinkTime:       xfer["time_min"],
			LinkCost:       xfer["time_min"],
			Cost:           cost,
			LabelIteration: s.labelIteration,
			ArrdepTime:     current.DeparrTime,
		}
		if s.store.addStopState(neighbor, ss, s.queue) {
			s.trace.LabeledLink(s.labelIteration, s.net.StopName(neighbor), ss, true)
		}
	}
}

// relaxTrips is C4.3.3 step 4: schedule-time trip relaxation.
func (s *search) relaxTrips(stop int) {
	states := s.store.States(stop)
	if len(states) == 0 {
		return
	}
	// current_stop_state[0]: per spec.md §9's flagged ambiguity, the source
	// reads index 0 for the current mode/trip here with no HyperpathState
	// equivalent to substitute, so it's preserved literally rather than
	// guessed at.
	current := states[0]

	var anchorTime, baseCost float64
	lderTripID := -1
	if s.spec.Hyperpath {
		hs := s.store.hyper[stop]
		anchorTime = hs.LatestDepEarliestArr
		baseCost = hs.HyperpathCost
		lderTripID = hs.LderTripID
	} else {
		anchorTime = current.DeparrTime
		baseCost = current.Cost
	}

	dirFactor := s.spec.dirFactor()
	transitUCM := network.UserClassMode{UserClass: s.spec.UserClass, DemandModeType: network.Transit, DemandMode: s.spec.TransitMode}

	// trips_done mirrors the source's per-call dedup bookkeeping
	// (original_source line 986). getTripsWithinTime returns one entry per
	// (trip, sequence) visit, so when a trip serves this stop more than once
	// inside the window only the first visit listed is relaxed.
	tripsDone := make(map[int]bool)

	for _, tst := range getTripsWithinTime(s.net, stop, s.spec.Outbound, anchorTime, s.cfg.TimeWindow) {
		if tripsDone[tst.TripID] {
			continue
		}
		tripsDone[tst.TripID] = true

		if s.spec.Hyperpath && tst.TripID == lderTripID {
			continue
		}

		ti, ok := s.net.TripInfo(tst.TripID)
		if !ok {
			continue
		}
		transitWeights, hasW := s.net.WeightsFor(transitUCM, ti.SupplyModeID)
		if !hasW {
			continue
		}

		arrdepTime := tst.ArriveTime
		if !s.spec.Outbound {
			arrdepTime = tst.DepartTime
		}
		waitTime := (anchorTime - arrdepTime) * dirFactor
		if waitTime < 0 {
			log.WithFields(map[string]interface{}{"stop": s.net.StopName(stop), "trip": s.net.TripName(tst.TripID)}).
				Warn("relaxTrips: negative wait_time")
			s.trace.Line("negative wait_time at stop %s trip %s: %f", s.net.StopName(stop), s.net.TripName(tst.TripID), waitTime)
		}

		if !s.spec.Hyperpath {
			var bumpTS network.TripStop
			if s.spec.Outbound {
				bumpTS = network.TripStop{TripID: current.TripID, Sequence: current.Seq, StopID: stop}
			} else {
				bumpTS = network.TripStop{TripID: tst.TripID, Sequence: tst.Sequence, StopID: stop}
			}
			if latest, ok := s.net.BumpWait().Lookup(bumpTS); ok {
				if arrdepTime+0.01 >= latest && tst.TripID != current.TripID {
					continue
				}
			}
		}

		tripTimes, ok := s.net.TripStopTimesByTrip(tst.TripID)
		if !ok {
			continue
		}

		var loSeq, hiSeq int
		if s.spec.Outbound {
			loSeq, hiSeq = 1, tst.Sequence-1
		} else {
			loSeq, hiSeq = tst.Sequence+1, len(tripTimes)
		}

		for seq := loSeq; seq <= hiSeq; seq++ {
			if seq < 1 || seq > len(tripTimes) {
				continue
			}
			boardAlight := tripTimes[seq-1]
			targetStop := boardAlight.StopID

			if s.spec.Hyperpath && hasAccessOrEgress(s.store, targetStop) {
				continue
			}

			deparrTime := boardAlight.DepartTime
			if !s.spec.Outbound {
				deparrTime = boardAlight.ArriveTime
			}

			adjArrdep := arrdepTime
			if s.spec.Outbound && adjArrdep < deparrTime {
				adjArrdep += minutesPerDay
			} else if !s.spec.Outbound && deparrTime < adjArrdep {
				deparrTime += minutesPerDay
			}

			inVehicleTime := (adjArrdep - deparrTime) * dirFactor
			if inVehicleTime < 0 {
				log.WithFields(map[string]interface{}{"stop": s.net.StopName(stop), "trip": s.net.TripName(tst.TripID)}).
					Warn("relaxTrips: negative in_vehicle_time")
				s.trace.Line("negative in_vehicle_time at stop %s trip %s: %f", s.net.StopName(stop), s.net.TripName(tst.TripID), inVehicleTime)
			}

			// per spec.md §9: EGRESS specifically for outbound, ACCESS
			// specifically for inbound — not "either mode, either
			// direction".
			isSeedEnd := (s.spec.Outbound && current.DeparrMode == Egress) || (!s.spec.Outbound && current.DeparrMode == Access)

			var linkCost, cost float64
			if s.spec.Hyperpath {
				attrs := ti.Attributes.Clone()
				attrs["in_vehicle_time_min"] = inVehicleTime
				attrs["wait_time_min"] = waitTime
				transferPenalty := 1.0
				if isSeedEnd {
					attrs["wait_time_min"] = 0
					transferPenalty = 0
				}
				attrs["transfer_penalty"] = transferPenalty
				linkCost = tally(transitWeights, attrs)

				if isSeedEnd {
					seedUCM := network.UserClassMode{UserClass: s.spec.UserClass, DemandModeType: s.spec.seedModeType(), DemandMode: s.spec.seedMode()}
					if seedWeights, hasSeedW := s.net.WeightsFor(seedUCM, current.TripID); hasSeedW {
						linkCost += tally(seedWeights, network.Attributes{"preferred_delay_min": waitTime})
					}
				}

				if IsTrip(current.DeparrMode) {
					// original_source/src/pathfinder.cpp lines 1159-1201
					// assigns (not accumulates) this tally twice under the
					// identical condition — redundant in the source but
					// numerically inert there since both assignments
					// compute the same value. Tallied once here.
					if transferWeights, hasTW := s.net.WeightsFor(
						network.UserClassMode{UserClass: s.spec.UserClass, DemandModeType: network.Transfer, DemandMode: s.spec.TransferMode},
						s.net.TransferModeID(),
					); hasTW {
						linkCost += tally(transferWeights, network.Attributes{"transfer_penalty": transferPenalty})
					}
				}
				cost = baseCost + linkCost
			} else {
				linkCost = inVehicleTime + waitTime
				cost = current.Cost + linkCost
			}

			ss := StopState{
				DeparrTime:     deparrTime,
				DeparrMode:     Transit,
				TripID:         tst.TripID,
				StopSuccpred:   stop,
				Seq:            seq,
				SeqSuccpred:    tst.Sequence,
				LinkTime:       inVehicleTime + waitTime,
				LinkCost:       linkCost,
				Cost:           cost,
				LabelIteration: s.labelIteration,
				ArrdepTime:     arrdepTime,
			}
			if s.store.addStopState(targetStop, ss, s.queue) {
				s.trace.LabeledLink(s.labelIteration, s.net.StopName(targetStop), ss, true)
			}
		}
	}
}

func hasAccessOrEgress(store *stopStateStore, stop int) bool {
	for _, ss := range store.States(stop) {
		if ss.DeparrMode == Access || ss.DeparrMode == Egress {
			return true
		}
	}
	return false
}
