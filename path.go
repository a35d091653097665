package main

import (
	"fmt"

	"git.fiblab.net/sim/transitpath/v2/network"
)

// loadNetwork builds the immutable Network from the configured table files
// and layers the schedule on top, the way the teacher's NewPath/NewRoutingServer
// resolved and loaded its map data before constructing a Router.
func loadNetwork(files NetworkFiles) (*network.Network, error) {
	net, err := network.Build(network.TableFiles{
		TripIDs:       files.TripIDs,
		StopIDs:       files.StopIDs,
		RouteIDs:      files.RouteIDs,
		SupplyModeIDs: files.SupplyModeIDs,
		AccessEgress:  files.AccessEgress,
		Transfers:     files.Transfers,
		TripInfo:      files.TripInfo,
		Weights:       files.Weights,
	})
	if err != nil {
		return nil, fmt.Errorf("build network tables: %w", err)
	}

	trips, sequences, stops, arrives, departs, err := network.ReadScheduleFile(files.StopTimes)
	if err != nil {
		return nil, fmt.Errorf("read stop times: %w", err)
	}
	if err := net.BuildSchedule(trips, sequences, stops, arrives, departs); err != nil {
		return nil, fmt.Errorf("build schedule: %w", err)
	}

	return net, nil
}
