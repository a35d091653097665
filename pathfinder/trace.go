package pathfinder

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// TraceWriter records the per-link and per-iteration diagnostics the
// source writes to a trace file and a pair of CSVs when
// PathSpecification.Trace is set. encoding/csv is used directly here; no
// library in the retrieval pack offers anything more idiomatic than the
// standard one for flat tabular output.
type TraceWriter struct {
	text  io.Writer
	links *csv.Writer
	stops *csv.Writer
}

// NewTraceWriter wraps the three trace sinks. Any of them may be nil, in
// which case writes to that sink are silently skipped (a disabled trace
// still lets the caller capture only the pieces it wants).
func NewTraceWriter(text io.Writer, linksCSV, stopsCSV io.Writer) *TraceWriter {
	tw := &TraceWriter{text: text}
	if linksCSV != nil {
		tw.links = csv.NewWriter(linksCSV)
		_ = tw.links.Write([]string{"label_iteration", "link", "node", "time", "mode", "trip_id", "link_time", "link_cost", "cost", "AB"})
	}
	if stopsCSV != nil {
		tw.stops = csv.NewWriter(stopsCSV)
		_ = tw.stops.Write([]string{"label_iteration", "stop_id"})
	}
	return tw
}

// Line writes a free-form line to the human-readable trace log.
func (tw *TraceWriter) Line(format string, args ...any) {
	if tw == nil || tw.text == nil {
		return
	}
	fmt.Fprintf(tw.text, format+"\n", args...)
}

// LabeledLink records one link relaxation attempt, successful or not.
func (tw *TraceWriter) LabeledLink(iteration int, stopName string, ss StopState, accepted bool) {
	if tw == nil || tw.links == nil {
		return
	}
	ab := "B"
	if accepted {
		ab = "A"
	}
	_ = tw.links.Write([]string{
		strconv.Itoa(iteration),
		stopName,
		stopName,
		strconv.FormatFloat(ss.DeparrTime, 'f', 3, 64),
		ss.DeparrMode.String(),
		strconv.Itoa(ss.TripID),
		strconv.FormatFloat(ss.LinkTime, 'f', 3, 64),
		strconv.FormatFloat(ss.LinkCost, 'f', 3, 64),
		strconv.FormatFloat(ss.Cost, 'f', 3, 64),
		ab,
	})
}

// VisitedStop records that a stop was popped from the queue on a given
// labeling iteration.
func (tw *TraceWriter) VisitedStop(iteration, stopID int) {
	if tw == nil || tw.stops == nil {
		return
	}
	_ = tw.stops.Write([]string{strconv.Itoa(iteration), strconv.Itoa(stopID)})
}

// Flush flushes both CSV writers. Safe to call on a nil TraceWriter.
func (tw *TraceWriter) Flush() {
	if tw == nil {
		return
	}
	if tw.links != nil {
		tw.links.Flush()
	}
	if tw.stops != nil {
		tw.stops.Flush()
	}
}
