package pathfinder

import (
	"errors"
	"time"

	"git.fiblab.net/sim/transitpath/v2/network"
)

// FindPath is the package's single entry point: run the labeling engine
// over net for spec, then hand off to the deterministic reconstructor or
// the hyperpath sampler depending on spec.Hyperpath. A seed failure (no
// access/egress at the anchor TAZ, or no weights configured for the seed
// mode) is reported as a zero-length Path, not an error.
func FindPath(net *network.Network, cfg Config, spec PathSpecification, trace *TraceWriter) (Path, PathInfo, PerformanceInfo, error) {
	if trace == nil {
		trace = &TraceWriter{}
	}

	s := newSearch(net, cfg, spec, trace)

	labelStart := time.Now()
	err := s.run()
	labelingMillis := float64(time.Since(labelStart).Microseconds()) / 1000

	perf := PerformanceInfo{
		LabelIterations: s.labelIteration,
		MaxProcessCount: s.maxProcessCount,
		LabelingMillis:  labelingMillis,
	}

	if err != nil {
		if errors.Is(err, errNoSeed) {
			return Path{}, PathInfo{}, perf, nil
		}
		return Path{}, PathInfo{}, perf, err
	}

	enumStart := time.Now()
	var (
		path Path
		info PathInfo
	)
	if spec.Hyperpath {
		path, info = s.generateHyperpath()
	} else {
		path, info = s.reconstructDeterministic()
	}
	perf.EnumerationMillis = float64(time.Since(enumStart).Microseconds()) / 1000

	return path, info, perf, nil
}
