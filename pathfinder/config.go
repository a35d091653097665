package pathfinder

// Config holds the five process-wide tunables that govern every findPath
// call. It is built once at process startup (see the root config loader)
// and shared read-only by every request.
type Config struct {
	// TimeWindow is the half-width, in minutes, of the hyperpath stop-state
	// acceptance window around a stop's anchor time.
	TimeWindow float64 `yaml:"time_window" validate:"gt=0"`
	// BumpBuffer pads the deterministic capacity-penalty shift, in minutes.
	BumpBuffer float64 `yaml:"bump_buffer" validate:"gte=0"`
	// StochPathsetSize is the number of concrete-path draw attempts in
	// hyperpath mode.
	StochPathsetSize int `yaml:"stoch_pathset_size" validate:"gte=1"`
	// StochDispersion is theta, the logit dispersion parameter.
	StochDispersion float64 `yaml:"stoch_dispersion" validate:"gt=0"`
	// StochMaxStopProcessCount caps how many times a single stop may be
	// popped and relaxed in hyperpath mode. Zero disables the cap.
	StochMaxStopProcessCount int `yaml:"stoch_max_stop_process_count" validate:"gte=0"`
}

// DefaultConfig mirrors the values the original implementation shipped as
// compiled-in defaults.
func DefaultConfig() Config {
	return Config{
		TimeWindow:               30,
		BumpBuffer:               5,
		StochPathsetSize:         10,
		StochDispersion:          1.0,
		StochMaxStopProcessCount: 0,
	}
}
