package main

import (
	"context"
	"flag"
	"math/rand"
	"strconv"
	"sync/atomic"
	"time"

	"git.fiblab.net/sim/transitpath/v2/pathfinder"
	"github.com/montanaflynn/stats"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	benchmarkCount       = flag.Int("benchmark.count", 1000, "the random findPath count for benchmark")
	benchmarkTAZIDStart  = flag.Int("benchmark.taz_id_start", 1, "the start TAZ id for benchmark")
	benchmarkTAZIDEnd    = flag.Int("benchmark.taz_id_end", 1000, "the end TAZ id for benchmark")
	benchmarkSeed        = flag.Int64("benchmark.seed", 0, "the seed for benchmark")
	benchmarkConcurrency = flag.Int("benchmark.concurrency", 1, "the concurrent request count for benchmark")
	benchmarkHyperpath   = flag.Bool("benchmark.hyperpath", false, "draw hyperpath requests instead of deterministic ones")
)

// runBenchmark fires N synthetic PathSpecifications through the in-process
// engine with errgroup-bounded concurrency and reports montanaflynn/stats
// latency percentiles, generalizing the teacher's driving-route benchmark
// to transit path requests.
func runBenchmark(server *RoutingServer) {
	log.SetLevel(logrus.WarnLevel)

	e := rand.New(rand.NewSource(*benchmarkSeed))
	tazRange := int32(*benchmarkTAZIDEnd - *benchmarkTAZIDStart)
	specs := make([]pathfinder.PathSpecification, *benchmarkCount)
	for i := range specs {
		origin := e.Int31n(tazRange) + int32(*benchmarkTAZIDStart)
		destination := e.Int31n(tazRange) + int32(*benchmarkTAZIDStart)
		specs[i] = pathfinder.PathSpecification{
			PathID:         benchmarkPathID(i),
			PassengerID:    benchmarkPathID(i),
			Outbound:       true,
			Hyperpath:      *benchmarkHyperpath,
			UserClass:      "all",
			AccessMode:     "walk",
			TransitMode:    "local_bus",
			EgressMode:     "walk",
			TransferMode:   "walk",
			OriginTAZ:      int(origin),
			DestinationTAZ: int(destination),
			PreferredTime:  480,
		}
	}

	latenciesMs := make([]float64, len(specs))
	var found, failed atomic.Int64

	start := time.Now()
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(*benchmarkConcurrency)
	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			reqStart := time.Now()
			path, _, _, err := pathfinder.FindPath(server.net, server.cfg, spec, nil)
			latenciesMs[i] = float64(time.Since(reqStart).Microseconds()) / 1000
			if err != nil {
				failed.Add(1)
				log.WithError(err).Error("benchmark request failed")
				return nil
			}
			if len(path.Stops) > 0 {
				found.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()
	totalTime := time.Since(start)

	mean, _ := stats.Mean(latenciesMs)
	p50, _ := stats.Percentile(latenciesMs, 50)
	p95, _ := stats.Percentile(latenciesMs, 95)
	p99, _ := stats.Percentile(latenciesMs, 99)

	log.WithFields(logrus.Fields{
		"count":       len(specs),
		"total_time":  totalTime,
		"found":       found.Load(),
		"failed":      failed.Load(),
		"latency_avg": mean,
		"latency_p50": p50,
		"latency_p95": p95,
		"latency_p99": p99,
	}).Error("benchmark finished")
}

func benchmarkPathID(i int) string {
	return "bench-" + strconv.FormatInt(*benchmarkSeed, 10) + "-" + strconv.Itoa(i)
}
