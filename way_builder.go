package osm2vissim

// segmentPair is forward and backward segments of the same two-way way
type segmentPair struct {
	forward  *WaySegment
	backward *WaySegment
}

// buildRunSegments converts every piece of the run into directed segments.
// Ways which can't be converted are reported and skipped
func buildRunSegments(graph *Graph, run wayRun) ([]*WaySegment, []error) {
	segments := []*WaySegment{}
	pairs := []segmentPair{}
	failures := []error{}
	for _, part := range run {
		way, ok := graph.Way(part.wayID)
		if !ok {
			continue
		}
		nodes := dedupNodes(part.nodes)
		if len(nodes) < 2 {
			continue
		}
		lanes, err := getLaneCount(way.TagMap, way.Oneway)
		if err != nil {
			failures = append(failures, &WayError{WayID: way.ID, Err: err})
			continue
		}
		if way.Oneway {
			turnLanes, tagged := getTurnLanes(way.TagMap, "turn:lanes", lanes.Forward)
			segments = append(segments, &WaySegment{
				ID:              SegmentID(way.ID),
				WayID:           way.ID,
				OSMWayID:        way.OSMID,
				Nodes:           nodes,
				Direction:       DIRECTION_ONEWAY,
				LanesForward:    lanes.Forward,
				Lanes:           lanes.Forward,
				Offset:          0,
				TurnLanes:       turnLanes,
				TurnLanesTagged: tagged,
			})
			continue
		}
		forwardTurns, forwardTagged := getTurnLanes(way.TagMap, "turn:lanes:forward", lanes.Forward)
		backwardTurns, backwardTagged := getTurnLanes(way.TagMap, "turn:lanes:backward", lanes.Backward)
		pair := segmentPair{
			forward: &WaySegment{
				ID:              SegmentID(way.ID + "-F"),
				WayID:           way.ID,
				OSMWayID:        way.OSMID,
				Nodes:           nodes,
				Direction:       DIRECTION_FORWARD,
				LanesForward:    lanes.Forward,
				LanesBackward:   lanes.Backward,
				Lanes:           lanes.Forward,
				TurnLanes:       forwardTurns,
				TurnLanesTagged: forwardTagged,
			},
			backward: &WaySegment{
				ID:              SegmentID(way.ID + "-B"),
				WayID:           way.ID,
				OSMWayID:        way.OSMID,
				Nodes:           reverseNodes(nodes),
				Direction:       DIRECTION_BACKWARD,
				LanesForward:    lanes.Forward,
				LanesBackward:   lanes.Backward,
				Lanes:           lanes.Backward,
				TurnLanes:       backwardTurns,
				TurnLanesTagged: backwardTagged,
			},
		}
		pairs = append(pairs, pair)
		segments = append(segments, pair.forward, pair.backward)
	}
	alignLanes(pairs)
	return segments, failures
}

// alignLanes sets centerline offsets for two-way segments of a single run.
// First and last ways define alignment: equal lane totals are split symmetrically,
// otherwise the narrower end is aligned to the wider one and shifted by half of its left turn lanes
func alignLanes(pairs []segmentPair) {
	if len(pairs) == 0 {
		return
	}
	a, b := pairs[0], pairs[len(pairs)-1]
	aFwd, aBkd := float64(a.forward.Lanes), float64(a.backward.Lanes)
	bFwd, bBkd := float64(b.forward.Lanes), float64(b.backward.Lanes)
	aDiff := aFwd - aBkd
	bDiff := bFwd - bBkd

	switch {
	case aFwd+aBkd == bFwd+bBkd:
		a.forward.Offset = aFwd/2.0 - aDiff/2.0
		a.backward.Offset = aBkd/2.0 + aDiff/2.0
		b.forward.Offset = bFwd/2.0 - bDiff/2.0
		b.backward.Offset = bBkd/2.0 + bDiff/2.0
	case aFwd+aBkd > bFwd+bBkd:
		a.forward.Offset = aFwd/2.0 - aDiff/2.0
		a.backward.Offset = aBkd/2.0 + aDiff/2.0
		b.forward.Offset = a.forward.Offset
		lefts := float64(countLeftLanes(a.backward.TurnLanes))
		b.backward.Offset = bBkd/2.0 + bDiff/2.0 + lefts/2.0
	default:
		b.forward.Offset = bFwd/2.0 - bDiff/2.0
		b.backward.Offset = bBkd/2.0 + bDiff/2.0
		a.backward.Offset = b.backward.Offset
		lefts := float64(countLeftLanes(b.forward.TurnLanes))
		a.forward.Offset = aFwd/2.0 - aDiff/2.0 + lefts/2.0
	}

	for i := 1; i < len(pairs)-1; i++ {
		pairs[i].forward.Offset = a.forward.Offset
		pairs[i].backward.Offset = b.backward.Offset
	}
}

// countLeftLanes returns number of lanes marked with exactly `left`
func countLeftLanes(turnLanes [][]string) int {
	cnt := 0
	for _, marks := range turnLanes {
		if len(marks) == 1 && marks[0] == "left" {
			cnt++
		}
	}
	return cnt
}
