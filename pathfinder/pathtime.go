package pathfinder

import "git.fiblab.net/sim/transitpath/v2/network"

// rewritePathTimes is §4.6: once a concrete chain of links has been
// chosen (by the deterministic reconstructor or a hyperpath draw), walk
// it in chronological order and snap each junction's times to the
// resolved schedule, removing the speculative slack the labeling engine
// carried during search.
func rewritePathTimes(net *network.Network, spec PathSpecification, path *Path) {
	n := len(path.States)
	if n == 0 {
		return
	}
	outbound := spec.Outbound
	terminal := spec.seedLinkMode()

	for i := 0; i < n-1; i++ {
		prev := &path.States[i]
		cur := &path.States[i+1]

		switch {
		case (prev.DeparrMode == Access && cur.DeparrMode == Transit) ||
			(prev.DeparrMode == Transit && cur.DeparrMode == Access):
			rewriteAccessTripJunction(net, outbound, prev, cur)

		case prev.DeparrMode == Transit && cur.DeparrMode == Transit:
			if outbound {
				cur.LinkTime = cur.ArrdepTime - prev.ArrdepTime
			} else {
				cur.LinkTime = prev.DeparrTime - cur.DeparrTime
			}

		case prev.DeparrMode == Transit && cur.DeparrMode == Transfer:
			cur.DeparrTime = prev.ArrdepTime
			cur.ArrdepTime = cur.DeparrTime + cur.LinkTime

		case prev.DeparrMode == Transfer && cur.DeparrMode == Transit && !outbound:
			if depTime, ok := getScheduledDeparture(net, cur.TripID, cur.Seq); ok {
				shift := prev.DeparrTime - depTime
				prev.DeparrTime = depTime - prev.LinkTime
				prev.ArrdepTime = depTime
				if i >= 1 {
					path.States[i-1].LinkTime += shift
				}
			}
		}

		if i+1 == n-1 && cur.DeparrMode == terminal {
			cur.DeparrTime = prev.ArrdepTime
			cur.ArrdepTime = cur.DeparrTime + cur.LinkTime*spec.dirFactor()
		}
	}
}

func rewriteAccessTripJunction(net *network.Network, outbound bool, prev, cur *StopState) {
	var tripID, seq int
	if cur.DeparrMode == Transit {
		tripID, seq = cur.TripID, cur.Seq
	} else {
		tripID, seq = prev.TripID, prev.Seq
	}
	schedTime, ok := getScheduledDeparture(net, tripID, seq)
	if !ok {
		return
	}
	if outbound {
		prev.ArrdepTime = schedTime
		prev.DeparrTime = schedTime - prev.LinkTime
		cur.DeparrTime = schedTime
	} else {
		cur.ArrdepTime = schedTime
		cur.DeparrTime = schedTime - cur.LinkTime
		prev.DeparrTime = schedTime
	}
}
