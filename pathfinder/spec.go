package pathfinder

import "git.fiblab.net/sim/transitpath/v2/network"

// PathSpecification is a single findPath request.
type PathSpecification struct {
	Iteration      int     `json:"iteration"`
	PassengerID    string  `json:"passenger_id"`
	PathID         string  `json:"path_id"`
	Outbound       bool    `json:"outbound"`
	Hyperpath      bool    `json:"hyperpath"`
	UserClass      string  `json:"user_class" validate:"required"`
	AccessMode     string  `json:"access_mode" validate:"required"`
	TransitMode    string  `json:"transit_mode" validate:"required"`
	EgressMode     string  `json:"egress_mode" validate:"required"`
	TransferMode   string  `json:"transfer_mode" validate:"required"`
	OriginTAZ      int     `json:"origin_taz"`
	DestinationTAZ int     `json:"destination_taz"`
	PreferredTime  float64 `json:"preferred_time"`
	Trace          bool    `json:"trace"`
}

// anchorTAZ returns the TAZ the search is anchored at: the destination for
// outbound search (walking backward from arrival), the origin for inbound
// (walking forward from departure).
func (s PathSpecification) anchorTAZ() int {
	if s.Outbound {
		return s.DestinationTAZ
	}
	return s.OriginTAZ
}

// oppositeTAZ is the TAZ the search finalizes toward.
func (s PathSpecification) oppositeTAZ() int {
	if s.Outbound {
		return s.OriginTAZ
	}
	return s.DestinationTAZ
}

// dirFactor is +1 outbound, -1 inbound.
func (s PathSpecification) dirFactor() float64 {
	if s.Outbound {
		return 1
	}
	return -1
}

// seedModeType/seedMode describe the demand mode used when seeding at the
// anchor TAZ: egress for outbound (the search walks backward from the
// destination's egress link), access for inbound.
func (s PathSpecification) seedModeType() network.DemandModeType {
	if s.Outbound {
		return network.Egress
	}
	return network.Access
}

func (s PathSpecification) seedMode() string {
	if s.Outbound {
		return s.EgressMode
	}
	return s.AccessMode
}

// finalModeType/finalMode describe the demand mode used at the opposite
// TAZ during finalization: access for outbound, egress for inbound.
func (s PathSpecification) finalModeType() network.DemandModeType {
	if s.Outbound {
		return network.Access
	}
	return network.Egress
}

func (s PathSpecification) finalMode() string {
	if s.Outbound {
		return s.AccessMode
	}
	return s.EgressMode
}

func (s PathSpecification) seedLinkMode() LinkMode {
	if s.Outbound {
		return Egress
	}
	return Access
}

func (s PathSpecification) finalLinkMode() LinkMode {
	if s.Outbound {
		return Access
	}
	return Egress
}

// StopState is one candidate link record attached to a stop.
type StopState struct {
	// DeparrTime is the departure time for outbound search, the arrival
	// time for inbound search.
	DeparrTime float64  `json:"departure_time"`
	DeparrMode LinkMode `json:"mode"`
	// TripID is a real trip id for Transit links, a supply-mode id for
	// Access/Egress links, and a sentinel (-1) for Transfer links.
	TripID int `json:"trip_id"`
	// StopSuccpred is the successor stop for outbound, the predecessor
	// stop for inbound.
	StopSuccpred int     `json:"linked_stop"`
	Seq          int     `json:"sequence"`
	SeqSuccpred  int     `json:"linked_sequence"`
	LinkTime     float64 `json:"link_time"`
	LinkCost     float64 `json:"link_cost"`
	Cost         float64 `json:"cost"`
	// LabelIteration is the labeling step at which this state was
	// inserted, used only for trace output.
	LabelIteration int `json:"-"`
	// ArrdepTime is the complementary clock: arrival for outbound state,
	// departure for inbound state.
	ArrdepTime float64 `json:"arrival_time"`
}

// String renders a StopState for trace/log output, mirroring the source's
// printMode-style pretty printing.
func (s StopState) String() string {
	return s.DeparrMode.String()
}

// HyperpathState is the per-stop hyperpath bookkeeping: the windowing
// anchor, the trip that set it, the aggregate log-sum cost, and a process
// counter capped by StochMaxStopProcessCount.
type HyperpathState struct {
	LatestDepEarliestArr float64
	LderTripID           int
	HyperpathCost        float64
	ProcessCount         int
}

// Path is the ordered sequence of (stop, link) pairs making up an
// itinerary, in outbound chronological order.
type Path struct {
	Stops  []int       `json:"stops"`
	States []StopState `json:"states"`
}

// String renders a Path as a short mode sequence, for trace/log output.
func (p Path) String() string {
	out := ""
	for i, s := range p.States {
		if i > 0 {
			out += " -> "
		}
		out += s.DeparrMode.String()
	}
	return out
}

// PathInfo carries the per-path metadata a hyperpath draw or deterministic
// reconstruction attaches to a Path.
type PathInfo struct {
	Count           int     `json:"count"`
	Cost            float64 `json:"cost"`
	CapacityProblem bool    `json:"capacity_problem"`
	Probability     float64 `json:"probability"`
	ProbI           int64   `json:"-"`
}

// PerformanceInfo is returned alongside a Path, describing the work the
// labeling engine and sampler performed.
type PerformanceInfo struct {
	LabelIterations   int     `json:"label_iterations"`
	MaxProcessCount   int     `json:"max_process_count"`
	LabelingMillis    float64 `json:"labeling_ms"`
	EnumerationMillis float64 `json:"enumeration_ms"`
}
