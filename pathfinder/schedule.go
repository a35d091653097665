package pathfinder

import "git.fiblab.net/sim/transitpath/v2/network"

// getTripsWithinTime returns every (trip, sequence) whose event at stop
// falls within the half-open window the labeling loop consults: outbound
// considers arrivals in (anchorTime-window, anchorTime]; inbound considers
// departures in [anchorTime, anchorTime+window).
func getTripsWithinTime(net *network.Network, stop int, outbound bool, anchorTime, window float64) []network.TripStopTime {
	var out []network.TripStopTime
	for _, tst := range net.TripStopTimesAtStop(stop) {
		if outbound {
			if tst.ArriveTime > anchorTime-window && tst.ArriveTime <= anchorTime {
				out = append(out, tst)
			}
		} else {
			if tst.DepartTime >= anchorTime && tst.DepartTime < anchorTime+window {
				out = append(out, tst)
			}
		}
	}
	return out
}

// getScheduledDeparture is the concrete lookup path-time rewriting needs
// for the ACCESS→TRIP rule: the scheduled departure of a trip at a given
// stop/sequence (original_source lines 2158-2177).
func getScheduledDeparture(net *network.Network, tripID, sequence int) (float64, bool) {
	tsts, ok := net.TripStopTimesByTrip(tripID)
	if !ok || sequence < 1 || sequence > len(tsts) {
		return 0, false
	}
	return tsts[sequence-1].DepartTime, true
}

// getScheduledArrival is the arrival-time counterpart of
// getScheduledDeparture. rewritePathTimes does not call it: its
// ACCESS/TRIP junction rule uses getScheduledDeparture in both directions.
func getScheduledArrival(net *network.Network, tripID, sequence int) (float64, bool) {
	tsts, ok := net.TripStopTimesByTrip(tripID)
	if !ok || sequence < 1 || sequence > len(tsts) {
		return 0, false
	}
	return tsts[sequence-1].ArriveTime, true
}
