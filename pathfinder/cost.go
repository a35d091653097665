package pathfinder

import (
	"git.fiblab.net/sim/transitpath/v2/network"
)

// tally computes Σ weights[k] × attributes[k] over every key present in
// weights. A weight referencing an attribute that's missing is logged and
// skipped rather than treated as zero, matching the source's
// warn-and-continue behavior.
func tally(weights network.NamedWeights, attrs network.Attributes) float64 {
	var cost float64
	for name, w := range weights {
		v, ok := attrs[name]
		if !ok {
			log.WithFields(map[string]interface{}{
				"attribute": name,
			}).Warn("cost tally: attribute missing, skipping term")
			continue
		}
		cost += w * v
	}
	return cost
}
