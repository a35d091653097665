// Package network holds the immutable, process-wide lookup tables that
// describe the schedule-based transit network: stops, trips, routes, supply
// modes, trip-stop-times, access/egress and transfer links, and the
// user-class weight rules. Everything here is read-only after Build
// returns; the bump-wait table is the sole exception (see BumpWaitTable).
package network

// DemandModeType closes the enumeration of demand-side link kinds used to
// key the weight table.
type DemandModeType int

const (
	Access DemandModeType = iota
	Egress
	Transit
	Transfer
)

func (t DemandModeType) String() string {
	switch t {
	case Access:
		return "access"
	case Egress:
		return "egress"
	case Transit:
		return "transit"
	case Transfer:
		return "transfer"
	default:
		return "unknown"
	}
}

// ParseDemandModeType maps the literal strings read from
// ft_intermediate_weights.txt to a DemandModeType. Any other value is a
// fatal configuration error at load time, per spec.
func ParseDemandModeType(s string) (DemandModeType, bool) {
	switch s {
	case "access":
		return Access, true
	case "egress":
		return Egress, true
	case "transit":
		return Transit, true
	case "transfer":
		return Transfer, true
	default:
		return 0, false
	}
}

// Attributes is a named numeric attribute vector attached to a link or trip.
type Attributes map[string]float64

// Clone returns a shallow copy so callers can inject ephemeral keys
// (preferred_delay_min, transfer_penalty, ...) without mutating shared
// network tables.
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a)+2)
	for k, v := range a {
		out[k] = v
	}
	return out
}

// NamedWeights is a named numeric weight vector, keyed the same way as
// Attributes so CostTally can walk one against the other.
type NamedWeights map[string]float64

// TripStopTime is one (trip, sequence, stop) schedule record. Sequence is
// 1-based and dense per trip.
type TripStopTime struct {
	TripID     int
	Sequence   int
	StopID     int
	ArriveTime float64
	DepartTime float64
}

// TripInfo is the per-trip static data: its supply mode, its route, and its
// named attribute vector (everything from ft_intermediate_trip_info.txt
// except mode_num/route_id_num, which are hoisted into dedicated fields).
type TripInfo struct {
	SupplyModeID int
	RouteID      int
	Attributes   Attributes
}

// UserClassMode keys the weight table: a user class crossed with a demand
// mode type and a demand mode name (e.g. user class "all", type transit,
// mode "local_bus").
type UserClassMode struct {
	UserClass      string
	DemandModeType DemandModeType
	DemandMode     string
}

// TripStop identifies a single boarding/alighting event, used as the
// bump-wait table key.
type TripStop struct {
	TripID   int
	Sequence int
	StopID   int
}
