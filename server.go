package main

import (
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"git.fiblab.net/sim/transitpath/v2/network"
	"git.fiblab.net/sim/transitpath/v2/pathfinder"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RoutingServer wires an immutable Network and a pathfinder.Config to the
// HTTP transport. It keeps the teacher's suspend/resume condition variable,
// repurposed to gate findPath requests while the bump-wait table (the one
// piece of Network that mutates between requests) is being replaced.
type RoutingServer struct {
	net     *network.Network
	cfg     pathfinder.Config
	metrics *routeMetrics
	valid   *validator.Validate

	ok   bool
	cond *sync.Cond
}

func NewRoutingServer(net *network.Network, cfg pathfinder.Config) *RoutingServer {
	return &RoutingServer{
		net:     net,
		cfg:     cfg,
		metrics: newRouteMetrics(),
		valid:   validator.New(),
		ok:      true,
		cond:    sync.NewCond(&sync.Mutex{}),
	}
}

// Suspend pauses new findPath requests, letting an in-flight bump-wait
// replacement finish without racing a request that reads the old table.
func (s *RoutingServer) Suspend() {
	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	s.ok = false
}

func (s *RoutingServer) Resume() {
	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	s.ok = true
	s.cond.Broadcast()
}

func (s *RoutingServer) Close() {
	s.Resume()
}

// ReplaceBumpWait installs a new bump-wait table between requests, exactly
// the scope spec.md §3 allows for that table's mutation.
func (s *RoutingServer) ReplaceBumpWait(data map[network.TripStop]float64) {
	s.Suspend()
	defer s.Resume()
	s.net.BumpWait().Replace(data)
}

func (s *RoutingServer) waitUntilActive() {
	s.cond.L.Lock()
	for !s.ok {
		s.cond.Wait()
	}
	s.cond.L.Unlock()
}

type routeResponse struct {
	Path        pathfinder.Path            `json:"path"`
	PathInfo    pathfinder.PathInfo        `json:"path_info"`
	Performance pathfinder.PerformanceInfo `json:"performance"`
}

func (s *RoutingServer) handleRoute(c *gin.Context) {
	var spec pathfinder.PathSpecification
	if err := c.ShouldBindJSON(&spec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.valid.Struct(spec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if spec.PathID == "" {
		spec.PathID = uuid.NewString()
	}
	if spec.PassengerID == "" {
		spec.PassengerID = uuid.NewString()
	}

	s.waitUntilActive()

	var trace *pathfinder.TraceWriter
	if spec.Trace {
		trace = s.openTrace(spec.PathID)
		defer trace.Flush()
	}

	path, info, perf, err := func() (p pathfinder.Path, i pathfinder.PathInfo, perf pathfinder.PerformanceInfo, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.WithField("recovered", r).Error("findPath panicked, recovering at HTTP boundary")
				err = &pathfinder.ErrQueueInvariant{Reason: "recovered panic, see log"}
			}
		}()
		return pathfinder.FindPath(s.net, s.cfg, spec, trace)
	}()

	if err != nil {
		log.WithField("path_id", spec.PathID).WithError(err).Error("findPath failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		s.metrics.observe("error", perf)
		return
	}

	outcome := "found"
	if len(path.Stops) == 0 {
		outcome = "no_path"
	}
	s.metrics.observe(outcome, perf)
	c.JSON(http.StatusOK, routeResponse{Path: path, PathInfo: info, Performance: perf})
}

// openTrace opens the per-request trace sinks under traces/<path_id>.*,
// logging and degrading to a disabled trace on any filesystem error rather
// than failing the request.
func (s *RoutingServer) openTrace(pathID string) *pathfinder.TraceWriter {
	dir := "traces"
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.WithError(err).Warn("trace: could not create trace dir, tracing disabled for this request")
		return nil
	}
	text, err1 := os.Create(filepath.Join(dir, pathID+".log"))
	links, err2 := os.Create(filepath.Join(dir, pathID+".links.csv"))
	stops, err3 := os.Create(filepath.Join(dir, pathID+".stops.csv"))
	if err1 != nil || err2 != nil || err3 != nil {
		log.WithError(err1).Warn("trace: could not create trace files, tracing disabled for this request")
		return nil
	}
	return pathfinder.NewTraceWriter(text, links, stops)
}

func (s *RoutingServer) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func newRouter(s *RoutingServer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.POST("/v1/route", s.handleRoute)
	r.GET("/healthz", s.handleHealthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}
