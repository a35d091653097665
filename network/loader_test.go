package network

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTable(t *testing.T, dir, name, contents string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(contents), 0o644))
	return p
}

func TestBuildParsesAllTables(t *testing.T) {
	dir := t.TempDir()

	files := TableFiles{
		TripIDs: writeTable(t, dir, "trip_id.txt", "num name\n1 T1\n2 T2\n"),
		StopIDs: writeTable(t, dir, "stop_id.txt", "num name\n1 S1\n2 S2\n3 S3\n"),
		RouteIDs: writeTable(t, dir, "route_id.txt", "num name\n1 R1\n"),
		SupplyModeIDs: writeTable(t, dir, "supply_mode_id.txt",
			"num name\n1 local_bus\n2 walk\n3 transfer\n"),
		AccessEgress: writeTable(t, dir, "access_egress.txt",
			"taz mode stop attr value\n100 2 1 time_min 4.5\n"),
		Transfers: writeTable(t, dir, "transfers.txt",
			"from to attr value\n1 2 time_min 2.0\n"),
		TripInfo: writeTable(t, dir, "trip_info.txt",
			"trip attr value\n1 mode_num 1\n1 route_id_num 1\n1 headway_min 10.0\n"),
		Weights: writeTable(t, dir, "weights.txt",
			"user_class demand_mode_type demand_mode supply_mode attr value\n"+
				"all transit local_bus 1 invehicle_time_min 1.0\n"),
	}

	n, err := Build(files)
	require.NoError(t, err)

	require.Equal(t, "T1", n.TripName(1))
	require.Equal(t, "S2", n.StopName(2))
	require.Equal(t, "R1", n.RouteName(1))
	require.Equal(t, 3, n.TransferModeID())

	links, ok := n.AccessEgressLinks(100)
	require.True(t, ok)
	require.Equal(t, 4.5, links[2][1]["time_min"])

	xfer, ok := n.TransferLinks(1)
	require.True(t, ok)
	require.Equal(t, 2.0, xfer[2]["time_min"])

	xferBack, ok := n.TransferLinksReversed(2)
	require.True(t, ok)
	require.Equal(t, 2.0, xferBack[1]["time_min"])

	ti, ok := n.TripInfo(1)
	require.True(t, ok)
	require.Equal(t, 1, ti.SupplyModeID)
	require.Equal(t, 1, ti.RouteID)
	require.Equal(t, 10.0, ti.Attributes["headway_min"])

	w, ok := n.WeightsFor(UserClassMode{UserClass: "all", DemandModeType: Transit, DemandMode: "local_bus"}, 1)
	require.True(t, ok)
	require.Equal(t, 1.0, w["invehicle_time_min"])
}

func TestBuildRequiresTransferSupplyMode(t *testing.T) {
	dir := t.TempDir()
	files := TableFiles{
		SupplyModeIDs: writeTable(t, dir, "supply_mode_id.txt", "num name\n1 local_bus\n"),
	}
	_, err := Build(files)
	require.Error(t, err)
}

func TestBuildRejectsUnknownDemandModeType(t *testing.T) {
	dir := t.TempDir()
	files := TableFiles{
		SupplyModeIDs: writeTable(t, dir, "supply_mode_id.txt", "num name\n1 transfer\n"),
		Weights: writeTable(t, dir, "weights.txt",
			"user_class demand_mode_type demand_mode supply_mode attr value\n"+
				"all bogus local_bus 1 invehicle_time_min 1.0\n"),
	}
	_, err := Build(files)
	require.Error(t, err)
}

func TestBuildRequiresMandatoryTimeMinOnAccessEgress(t *testing.T) {
	dir := t.TempDir()
	files := TableFiles{
		SupplyModeIDs: writeTable(t, dir, "supply_mode_id.txt", "num name\n1 transfer\n"),
		AccessEgress: writeTable(t, dir, "access_egress.txt",
			"taz mode stop attr value\n100 2 1 walk_time_min 4.5\n"),
	}
	_, err := Build(files)
	require.Error(t, err)
}

func TestBuildScheduleEnforcesDenseSequence(t *testing.T) {
	n := &Network{
		tripStopTimesByTrip: make(map[int][]TripStopTime),
		tripStopTimesByStop: make(map[int][]TripStopTime),
	}
	err := n.BuildSchedule(
		[]int32{1, 1, 1},
		[]int32{1, 3, 4},
		[]int32{10, 30, 20},
		[]float64{0, 20, 10},
		[]float64{0, 20, 10},
	)
	require.Error(t, err)
	var seqErr *ErrDenseSequence
	require.ErrorAs(t, err, &seqErr)
	require.Equal(t, 1, seqErr.TripID)
}

func TestBuildScheduleAcceptsDenseSequence(t *testing.T) {
	n := &Network{
		tripStopTimesByTrip: make(map[int][]TripStopTime),
		tripStopTimesByStop: make(map[int][]TripStopTime),
	}
	err := n.BuildSchedule(
		[]int32{1, 1, 1},
		[]int32{2, 1, 3},
		[]int32{20, 10, 30},
		[]float64{10, 0, 20},
		[]float64{10, 0, 20},
	)
	require.NoError(t, err)

	tsts, ok := n.TripStopTimesByTrip(1)
	require.True(t, ok)
	require.Len(t, tsts, 3)
	require.Equal(t, 1, tsts[0].Sequence)
	require.Equal(t, 2, tsts[1].Sequence)
	require.Equal(t, 3, tsts[2].Sequence)

	require.Len(t, n.TripStopTimesAtStop(10), 1)
}
