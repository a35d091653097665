package main

import (
	"fmt"
	"os"

	"git.fiblab.net/sim/transitpath/v2/pathfinder"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// NetworkFiles names the on-disk ft_intermediate_*.txt tables the process
// loads at startup.
type NetworkFiles struct {
	TripIDs       string `yaml:"trip_ids" validate:"required"`
	StopIDs       string `yaml:"stop_ids" validate:"required"`
	RouteIDs      string `yaml:"route_ids" validate:"required"`
	SupplyModeIDs string `yaml:"supply_mode_ids" validate:"required"`
	AccessEgress  string `yaml:"access_egress" validate:"required"`
	Transfers     string `yaml:"transfers" validate:"required"`
	TripInfo      string `yaml:"trip_info" validate:"required"`
	Weights       string `yaml:"weights" validate:"required"`
	StopTimes     string `yaml:"stop_times" validate:"required"`
}

// Config is the process-wide configuration: where its network tables live
// and the five C4/C5/C6 tunables from spec.md §6.
type Config struct {
	Listen     string              `yaml:"listen"`
	LogLevel   string              `yaml:"log_level"`
	PprofAddr  string              `yaml:"pprof_addr"`
	Network    NetworkFiles        `yaml:"network" validate:"required"`
	Pathfinder pathfinder.Config   `yaml:"pathfinder"`
}

// DefaultConfig mirrors pathfinder.DefaultConfig for the tunables and picks
// conventional listen/pprof addresses, matching the teacher's flag
// defaults.
func DefaultConfig() Config {
	return Config{
		Listen:     "localhost:52101",
		LogLevel:   "info",
		PprofAddr:  "localhost:52102",
		Pathfinder: pathfinder.DefaultConfig(),
	}
}

// LoadConfig reads a YAML config file over the defaults and validates the
// merged result with go-playground/validator, the same library
// jinterlante1206-AleutianLocal and theoremus-urban-solutions-gtfsrt-to-siri
// use for struct validation.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
