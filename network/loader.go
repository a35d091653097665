package network

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

var log = logrus.StandardLogger()

// SetLogger lets the host process swap in a configured logrus logger
// (level, formatter) before any table is loaded.
func SetLogger(l *logrus.Logger) { log = l }

// TableFiles names the whitespace-delimited ft_intermediate_*.txt tables
// the loader reads.
type TableFiles struct {
	TripIDs       string
	StopIDs       string
	RouteIDs      string
	SupplyModeIDs string
	AccessEgress  string
	Transfers     string
	TripInfo      string
	Weights       string
}

// Build reads the eight tables and assembles an immutable Network.
func Build(files TableFiles) (*Network, error) {
	n := &Network{
		tripStopTimesByTrip: make(map[int][]TripStopTime),
		tripStopTimesByStop: make(map[int][]TripStopTime),
		tripInfo:            make(map[int]TripInfo),
		accessEgress:        make(map[int]map[int]map[int]Attributes),
		transfersFromTo:     make(map[int]map[int]Attributes),
		transfersToFrom:     make(map[int]map[int]Attributes),
		weights:             make(map[UserClassMode]map[int]NamedWeights),
		bumpWait:            NewBumpWaitTable(),
	}

	var err error
	if n.tripNumToStr, _, err = readIDTable(files.TripIDs); err != nil {
		return nil, fmt.Errorf("trip ids: %w", err)
	}
	if n.stopNumToStr, _, err = readIDTable(files.StopIDs); err != nil {
		return nil, fmt.Errorf("stop ids: %w", err)
	}
	if n.routeNumToStr, _, err = readIDTable(files.RouteIDs); err != nil {
		return nil, fmt.Errorf("route ids: %w", err)
	}
	modeNumToStr, modeStrToNum, err := readIDTable(files.SupplyModeIDs)
	if err != nil {
		return nil, fmt.Errorf("supply mode ids: %w", err)
	}
	n.modeNumToStr = modeNumToStr
	n.modeStrToNum = modeStrToNum
	if id, ok := modeStrToNum["transfer"]; ok {
		n.transferModeID = id
	} else {
		return nil, fmt.Errorf("supply mode ids: no \"transfer\" supply mode defined")
	}

	if err := readAccessEgress(files.AccessEgress, n.accessEgress); err != nil {
		return nil, fmt.Errorf("access/egress: %w", err)
	}
	if err := readTransfers(files.Transfers, n.transfersFromTo, n.transfersToFrom); err != nil {
		return nil, fmt.Errorf("transfers: %w", err)
	}
	if err := readTripInfo(files.TripInfo, n.tripInfo); err != nil {
		return nil, fmt.Errorf("trip info: %w", err)
	}
	if err := readWeights(files.Weights, n.weights, n.modeStrToNum); err != nil {
		return nil, fmt.Errorf("weights: %w", err)
	}

	return n, nil
}

// BuildSchedule populates the trip-stop-time tables from parallel int32 and
// float64 matrices, the way the host environment supplies schedule data in
// memory rather than from a text file (spec.md §6, "Schedule supply").
// Sequences must be 1-based and dense per trip; a violation is returned as
// *ErrDenseSequence.
func (n *Network) BuildSchedule(trips, sequences, stops []int32, arrives, departs []float64) error {
	if len(trips) != len(sequences) || len(trips) != len(stops) || len(trips) != len(arrives) || len(trips) != len(departs) {
		return fmt.Errorf("schedule arrays have mismatched lengths")
	}
	byTrip := make(map[int][]TripStopTime)
	for i := range trips {
		tst := TripStopTime{
			TripID:     int(trips[i]),
			Sequence:   int(sequences[i]),
			StopID:     int(stops[i]),
			ArriveTime: arrives[i],
			DepartTime: departs[i],
		}
		byTrip[tst.TripID] = append(byTrip[tst.TripID], tst)
		n.tripStopTimesByStop[tst.StopID] = append(n.tripStopTimesByStop[tst.StopID], tst)
	}
	for tripID, tsts := range byTrip {
		sortBySequence(tsts)
		for i, tst := range tsts {
			if tst.Sequence != i+1 {
				return &ErrDenseSequence{TripID: tripID, Want: i + 1, Got: tst.Sequence}
			}
		}
		n.tripStopTimesByTrip[tripID] = tsts
	}
	return nil
}

// ReadScheduleFile parses a whitespace-delimited ft_intermediate_stop_times
// table (trip_id_num, sequence, stop_id_num, arrive_time_min,
// depart_time_min) into the parallel arrays BuildSchedule expects, the
// on-disk counterpart to the in-memory schedule-supply path.
func ReadScheduleFile(path string) (trips, sequences, stops []int32, arrives, departs []float64, err error) {
	lines, err := readLines(path)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	for i, fields := range lines {
		if i == 0 || len(fields) < 5 {
			continue
		}
		trip, err1 := strconv.Atoi(fields[0])
		seq, err2 := strconv.Atoi(fields[1])
		stop, err3 := strconv.Atoi(fields[2])
		arrive, err4 := strconv.ParseFloat(fields[3], 64)
		depart, err5 := strconv.ParseFloat(fields[4], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
			return nil, nil, nil, nil, nil, fmt.Errorf("%s:%d: malformed row %q", path, i+1, strings.Join(fields, " "))
		}
		trips = append(trips, int32(trip))
		sequences = append(sequences, int32(seq))
		stops = append(stops, int32(stop))
		arrives = append(arrives, arrive)
		departs = append(departs, depart)
	}
	return trips, sequences, stops, arrives, departs, nil
}

func sortBySequence(tsts []TripStopTime) {
	for i := 1; i < len(tsts); i++ {
		for j := i; j > 0 && tsts[j-1].Sequence > tsts[j].Sequence; j-- {
			tsts[j-1], tsts[j] = tsts[j], tsts[j-1]
		}
	}
}

// --- text table readers -----------------------------------------------

func readIDTable(path string) (numToStr map[int]string, strToNum map[string]int, err error) {
	numToStr = make(map[int]string)
	strToNum = make(map[string]int)
	if path == "" {
		return numToStr, strToNum, nil
	}
	lines, err := readLines(path)
	if err != nil {
		return nil, nil, err
	}
	for i, fields := range lines {
		if i == 0 {
			continue // header row
		}
		if len(fields) < 2 {
			continue
		}
		num, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, nil, fmt.Errorf("%s:%d: bad id %q: %w", path, i+1, fields[0], err)
		}
		numToStr[num] = fields[1]
		strToNum[fields[1]] = num
	}
	return numToStr, strToNum, nil
}

func readAccessEgress(path string, out map[int]map[int]map[int]Attributes) error {
	if path == "" {
		return nil
	}
	lines, err := readLines(path)
	if err != nil {
		return err
	}
	for i, fields := range lines {
		if i == 0 || len(fields) < 5 {
			continue
		}
		taz, err1 := strconv.Atoi(fields[0])
		mode, err2 := strconv.Atoi(fields[1])
		stop, err3 := strconv.Atoi(fields[2])
		val, err4 := strconv.ParseFloat(fields[4], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			return fmt.Errorf("%s:%d: malformed row %q", path, i+1, strings.Join(fields, " "))
		}
		attrName := fields[3]
		if out[taz] == nil {
			out[taz] = make(map[int]map[int]Attributes)
		}
		if out[taz][mode] == nil {
			out[taz][mode] = make(map[int]Attributes)
		}
		if out[taz][mode][stop] == nil {
			out[taz][mode][stop] = make(Attributes)
		}
		out[taz][mode][stop][attrName] = val
	}
	for taz, byMode := range out {
		for mode, byStop := range byMode {
			for stop, attrs := range byStop {
				if _, ok := attrs["time_min"]; !ok {
					return fmt.Errorf("%s: taz=%d mode=%d stop=%d missing mandatory time_min", path, taz, mode, stop)
				}
			}
		}
	}
	return nil
}

func readTransfers(path string, fromTo, toFrom map[int]map[int]Attributes) error {
	if path == "" {
		return nil
	}
	lines, err := readLines(path)
	if err != nil {
		return err
	}
	for i, fields := range lines {
		if i == 0 || len(fields) < 4 {
			continue
		}
		from, err1 := strconv.Atoi(fields[0])
		to, err2 := strconv.Atoi(fields[1])
		val, err3 := strconv.ParseFloat(fields[3], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return fmt.Errorf("%s:%d: malformed row %q", path, i+1, strings.Join(fields, " "))
		}
		attrName := fields[2]
		if fromTo[from] == nil {
			fromTo[from] = make(map[int]Attributes)
		}
		if fromTo[from][to] == nil {
			fromTo[from][to] = make(Attributes)
		}
		fromTo[from][to][attrName] = val

		if toFrom[to] == nil {
			toFrom[to] = make(map[int]Attributes)
		}
		if toFrom[to][from] == nil {
			toFrom[to][from] = make(Attributes)
		}
		toFrom[to][from][attrName] = val
	}
	for from, tos := range fromTo {
		for to, attrs := range tos {
			if _, ok := attrs["time_min"]; !ok {
				return fmt.Errorf("%s: from=%d to=%d missing mandatory time_min", path, from, to)
			}
		}
	}
	return nil
}

func readTripInfo(path string, out map[int]TripInfo) error {
	if path == "" {
		return nil
	}
	lines, err := readLines(path)
	if err != nil {
		return err
	}
	for i, fields := range lines {
		if i == 0 || len(fields) < 3 {
			continue
		}
		trip, err1 := strconv.Atoi(fields[0])
		val, err2 := strconv.ParseFloat(fields[2], 64)
		if err1 != nil || err2 != nil {
			return fmt.Errorf("%s:%d: malformed row %q", path, i+1, strings.Join(fields, " "))
		}
		attrName := fields[1]
		ti, ok := out[trip]
		if !ok {
			ti = TripInfo{Attributes: make(Attributes)}
		}
		switch attrName {
		case "mode_num":
			ti.SupplyModeID = int(val)
		case "route_id_num":
			ti.RouteID = int(val)
		default:
			ti.Attributes[attrName] = val
		}
		out[trip] = ti
	}
	return nil
}

func readWeights(path string, out map[UserClassMode]map[int]NamedWeights, modeStrToNum map[string]int) error {
	if path == "" {
		return nil
	}
	lines, err := readLines(path)
	if err != nil {
		return err
	}
	for i, fields := range lines {
		if i == 0 || len(fields) < 6 {
			continue
		}
		userClass := fields[0]
		demandModeTypeStr := fields[1]
		demandMode := fields[2]
		supplyMode, err1 := strconv.Atoi(fields[3])
		weightName := fields[4]
		weightVal, err2 := strconv.ParseFloat(fields[5], 64)
		if err1 != nil || err2 != nil {
			return fmt.Errorf("%s:%d: malformed row %q", path, i+1, strings.Join(fields, " "))
		}
		demandModeType, ok := ParseDemandModeType(demandModeTypeStr)
		if !ok {
			return fmt.Errorf("%s:%d: unknown demand_mode_type %q", path, i+1, demandModeTypeStr)
		}
		ucm := UserClassMode{UserClass: userClass, DemandModeType: demandModeType, DemandMode: demandMode}
		if out[ucm] == nil {
			out[ucm] = make(map[int]NamedWeights)
		}
		if out[ucm][supplyMode] == nil {
			out[ucm][supplyMode] = make(NamedWeights)
		}
		out[ucm][supplyMode][weightName] = weightVal
	}
	return nil
}

// readLines splits every non-blank line of a whitespace-delimited text
// table into its fields.
func readLines(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out [][]string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		out = append(out, strings.Fields(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
