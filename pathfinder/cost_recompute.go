package pathfinder

import "git.fiblab.net/sim/transitpath/v2/network"

// calculatePathCost is §4.7: iterate the resolved path in chronological
// order and retally every link's cost against the weight tables, now that
// link times are schedule-consistent. Between two back-to-back TRIP links
// it adds the cost of a zero-walk TRANSFER, mirroring the source's
// same-trip-to-same-trip transfer-penalty bookkeeping; no link is inserted
// into the path.
func calculatePathCost(net *network.Network, spec PathSpecification, path *Path) float64 {
	var total float64
	firstTrip := true

	for i, ss := range path.States {
		var w network.NamedWeights
		var attrs network.Attributes
		var ok bool

		switch ss.DeparrMode {
		case Access:
			w, ok = net.WeightsFor(
				network.UserClassMode{UserClass: spec.UserClass, DemandModeType: network.Access, DemandMode: spec.AccessMode},
				ss.TripID,
			)
			attrs = network.Attributes{"time_min": ss.LinkTime}
			if spec.Outbound {
				attrs["preferred_delay_min"] = 0
			} else {
				attrs["preferred_delay_min"] = ss.DeparrTime - spec.PreferredTime
			}

		case Egress:
			w, ok = net.WeightsFor(
				network.UserClassMode{UserClass: spec.UserClass, DemandModeType: network.Egress, DemandMode: spec.EgressMode},
				ss.TripID,
			)
			attrs = network.Attributes{"time_min": ss.LinkTime}
			if spec.Outbound {
				attrs["preferred_delay_min"] = spec.PreferredTime - ss.ArrdepTime
			} else {
				attrs["preferred_delay_min"] = 0
			}

		case Transfer:
			w, ok = net.WeightsFor(
				network.UserClassMode{UserClass: spec.UserClass, DemandModeType: network.Transfer, DemandMode: spec.TransferMode},
				net.TransferModeID(),
			)
			walkTime := ss.LinkTime
			if ss.StopSuccpred == path.Stops[i] {
				walkTime = 0
			}
			attrs = network.Attributes{"walk_time_min": walkTime, "transfer_penalty": 1}

		case Transit:
			ti, hasTI := net.TripInfo(ss.TripID)
			if !hasTI {
				continue
			}
			w, ok = net.WeightsFor(
				network.UserClassMode{UserClass: spec.UserClass, DemandModeType: network.Transit, DemandMode: spec.TransitMode},
				ti.SupplyModeID,
			)
			attrs = ti.Attributes.Clone()
			// ss.LinkTime is the frozen in_vehicle_time+wait_time total set
			// during labeling; in_vehicle_time is recomputed fresh from the
			// (possibly rewritten) arr/dep times so wait_time absorbs any
			// schedule-time rewriting instead of the other way around.
			inVehicleTime := (ss.ArrdepTime - ss.DeparrTime) * spec.dirFactor()
			waitTime := ss.LinkTime - inVehicleTime
			attrs["in_vehicle_time_min"] = inVehicleTime
			attrs["wait_time_min"] = waitTime
			if firstTrip {
				attrs["transfer_penalty"] = 0
				firstTrip = false
			} else {
				attrs["transfer_penalty"] = 1
			}

			if i+1 < len(path.States) && path.States[i+1].DeparrMode == Transit {
				xferWeights, xok := net.WeightsFor(
					network.UserClassMode{UserClass: spec.UserClass, DemandModeType: network.Transfer, DemandMode: spec.TransferMode},
					net.TransferModeID(),
				)
				if xok {
					total += tally(xferWeights, network.Attributes{"walk_time_min": 0, "transfer_penalty": 1})
				}
			}
		}

		if !ok {
			continue
		}
		linkCost := tally(w, attrs)
		path.States[i].Cost = linkCost
		total += linkCost
	}
	return total
}
