package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"git.fiblab.net/sim/transitpath/v2/network"
	"git.fiblab.net/sim/transitpath/v2/pathfinder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLines(t *testing.T, path string, lines ...string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
}

// buildTinyNetwork lays down a minimal on-disk table set: a single bus trip
// from stop 1 to stop 2, with walk access from TAZ 100 at stop 1 and walk
// egress to TAZ 200 at stop 2, exercising loadNetwork end to end.
func buildTinyNetwork(t *testing.T) *network.Network {
	t.Helper()
	dir := t.TempDir()

	tripIDs := filepath.Join(dir, "trip_ids.txt")
	stopIDs := filepath.Join(dir, "stop_ids.txt")
	routeIDs := filepath.Join(dir, "route_ids.txt")
	supplyModeIDs := filepath.Join(dir, "supply_mode_ids.txt")
	accessEgress := filepath.Join(dir, "access_egress.txt")
	transfers := filepath.Join(dir, "transfers.txt")
	tripInfo := filepath.Join(dir, "trip_info.txt")
	weights := filepath.Join(dir, "weights.txt")
	stopTimes := filepath.Join(dir, "stop_times.txt")

	writeLines(t, tripIDs, "num name", "1 bus1")
	writeLines(t, stopIDs, "num name", "1 stopA", "2 stopB")
	writeLines(t, routeIDs, "num name", "1 route1")
	writeLines(t, supplyModeIDs, "num name", "1 walk", "2 local_bus", "3 transfer")

	writeLines(t, accessEgress, "taz mode stop attr val",
		"100 1 1 time_min 2.0",
		"200 1 2 time_min 2.0",
	)
	writeLines(t, transfers, "from to attr val")
	writeLines(t, tripInfo, "trip attr val",
		"1 mode_num 2",
		"1 route_id_num 1",
	)
	writeLines(t, weights, "user_class demand_mode_type demand_mode supply_mode name val",
		"all access walk 1 time_min 1.0",
		"all egress walk 1 time_min 1.0",
		"all transit local_bus 2 in_vehicle_time_min 1.0",
		"all transit local_bus 2 wait_time_min 1.0",
		"all transit local_bus 2 transfer_penalty 5.0",
		"all transfer walk 3 walk_time_min 1.0",
		"all transfer walk 3 transfer_penalty 5.0",
	)
	writeLines(t, stopTimes, "trip seq stop arrive depart",
		"1 1 1 480.0 480.0",
		"1 2 2 490.0 490.0",
	)

	net, err := loadNetwork(NetworkFiles{
		TripIDs:       tripIDs,
		StopIDs:       stopIDs,
		RouteIDs:      routeIDs,
		SupplyModeIDs: supplyModeIDs,
		AccessEgress:  accessEgress,
		Transfers:     transfers,
		TripInfo:      tripInfo,
		Weights:       weights,
		StopTimes:     stopTimes,
	})
	require.NoError(t, err)
	return net
}

func TestLoadNetworkBuildsSchedule(t *testing.T) {
	net := buildTinyNetwork(t)
	tsts, ok := net.TripStopTimesByTrip(1)
	require.True(t, ok)
	require.Len(t, tsts, 2)
	assert.Equal(t, 1, tsts[0].StopID)
	assert.Equal(t, 2, tsts[1].StopID)
}

func TestHandleRouteReturnsPathOverHTTP(t *testing.T) {
	net := buildTinyNetwork(t)
	server := NewRoutingServer(net, pathfinder.DefaultConfig())
	router := newRouter(server)

	body := strings.NewReader(`{
		"outbound": true,
		"user_class": "all",
		"access_mode": "walk",
		"transit_mode": "local_bus",
		"egress_mode": "walk",
		"transfer_mode": "walk",
		"origin_taz": 100,
		"destination_taz": 200,
		"preferred_time": 492
	}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/route", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp routeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Len(t, resp.Path.Stops, 3)
	assert.Equal(t, []int{100, 1, 2}, resp.Path.Stops)
	require.Len(t, resp.Path.States, 3)
	assert.Equal(t, pathfinder.Transit, resp.Path.States[1].DeparrMode)
	assert.Equal(t, 10.0, resp.Path.States[1].LinkTime)
	assert.InDelta(t, 14.0, resp.PathInfo.Cost, 1e-6)
	assert.Equal(t, 1, resp.PathInfo.Count)
}

func TestHandleRouteRejectsMissingFields(t *testing.T) {
	net := buildTinyNetwork(t)
	server := NewRoutingServer(net, pathfinder.DefaultConfig())
	router := newRouter(server)

	req := httptest.NewRequest(http.MethodPost, "/v1/route", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleHealthz(t *testing.T) {
	net := buildTinyNetwork(t)
	server := NewRoutingServer(net, pathfinder.DefaultConfig())
	router := newRouter(server)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReplaceBumpWaitSuspendsAndResumes(t *testing.T) {
	net := buildTinyNetwork(t)
	server := NewRoutingServer(net, pathfinder.DefaultConfig())
	server.ReplaceBumpWait(map[network.TripStop]float64{
		{TripID: 1, Sequence: 1, StopID: 1}: 479,
	})
	assert.True(t, server.ok)
	latest, ok := net.BumpWait().Lookup(network.TripStop{TripID: 1, Sequence: 1, StopID: 1})
	require.True(t, ok)
	assert.Equal(t, 479.0, latest)
}
