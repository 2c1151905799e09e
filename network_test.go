package osm2vissim

import (
	"math"
	"testing"

	"github.com/paulmach/osm"
	"github.com/pkg/errors"
)

func TestEndToEndStraightRoad(t *testing.T) {
	ways := []testWay{
		{id: 100, nodes: []int64{1, 2, 3}, tags: map[string]string{"highway": "residential"}},
	}
	network := compileTestNetwork(t, eastChain(1, 2, 3), ways)
	if len(network.Failures) != 0 {
		t.Fatalf("Unexpected failures: %v", network.Failures)
	}
	if len(network.Segments) != 2 {
		t.Fatalf("Number of segments must be %d, but got %d", 2, len(network.Segments))
	}
	forward, backward := network.Segments["100-0-F"], network.Segments["100-0-B"]
	if forward == nil || backward == nil {
		t.Fatalf("Segments '100-0-F' and '100-0-B' must exist, but got %v", network.Segments)
	}
	if forward.Lanes != 1 || backward.Lanes != 1 {
		t.Errorf("Lanes must be 1/1, but got %d/%d", forward.Lanes, backward.Lanes)
	}
	if len(network.Intersections) != 0 {
		t.Errorf("Number of intersections must be %d, but got %d", 0, len(network.Intersections))
	}

	// Road goes eastward along single latitude: forward link is shifted south, backward one is shifted north
	half := DefaultLaneWidth / 2
	for _, pt := range network.Geometries["100-0-F"].Line {
		if Round(pt.Y(), 0.000001) != Round(-half, 0.000001) {
			t.Errorf("Forward point must be shifted to %f, but got %f", -half, pt.Y())
		}
	}
	for _, pt := range network.Geometries["100-0-B"].Line {
		if Round(pt.Y(), 0.000001) != Round(half, 0.000001) {
			t.Errorf("Backward point must be shifted to %f, but got %f", half, pt.Y())
		}
	}

	model := newRecorderModel()
	report, err := network.Emit(model)
	if err != nil {
		t.Fatal(err)
	}
	if report.Links != 2 || len(model.links) != 2 {
		t.Errorf("Number of links must be %d, but got %d", 2, len(model.links))
	}
	if report.Connectors != 0 || len(model.connectors) != 0 {
		t.Errorf("Number of connectors must be %d, but got %d", 0, len(model.connectors))
	}
	if !model.hasRef {
		t.Errorf("Reference point must be set")
	}
	for _, link := range model.links {
		if len(link.laneWidths) != 1 || link.laneWidths[0] != DefaultLaneWidth {
			t.Errorf("Lane widths of link '%s' must be %v, but got %v", link.name, []float64{DefaultLaneWidth}, link.laneWidths)
		}
		if len(link.points) != 3 {
			t.Errorf("Link '%s' must have %d points, but got %d", link.name, 3, len(link.points))
		}
	}
}

func intersectionFixture() ([]testNode, []testWay) {
	nodes := eastChain(1, 2, 3, 4, 5)
	nodes = append(nodes, testNode{id: 6, lat: 55.751, lon: 37.602})
	ways := []testWay{
		{id: 100, nodes: []int64{1, 2, 3, 4, 5}, tags: map[string]string{"highway": "primary", "oneway": "yes"}},
		{id: 200, nodes: []int64{6, 3}, tags: map[string]string{"highway": "residential", "oneway": "yes"}},
	}
	return nodes, ways
}

func TestIntersectionTurns(t *testing.T) {
	nodes, ways := intersectionFixture()
	network := compileTestNetwork(t, nodes, ways)
	if len(network.Geometries) != 3 {
		t.Fatalf("Number of geometries must be %d, but got %d", 3, len(network.Geometries))
	}

	// Eastward chain goes through the intersection.
	// Leg of '100-1' is 90 degrees clockwise from the leg '200-0' comes from
	turns := network.Geometries["100-0"].Turns
	if len(turns[MOVEMENT_THRU]) != 1 || turns[MOVEMENT_THRU][0] != "100-1" {
		t.Errorf("Through turns of '100-0' must be %v, but got %v", []SegmentID{"100-1"}, turns[MOVEMENT_THRU])
	}
	if turns.Len() != 1 {
		t.Errorf("Number of turns of '100-0' must be %d, but got %d", 1, turns.Len())
	}
	turns = network.Geometries["200-0"].Turns
	if len(turns[MOVEMENT_RIGHT]) != 1 || turns[MOVEMENT_RIGHT][0] != "100-1" {
		t.Errorf("Right turns of '200-0' must be %v, but got %v", []SegmentID{"100-1"}, turns[MOVEMENT_RIGHT])
	}
	if network.Geometries["100-1"].Turns.Len() != 0 {
		t.Errorf("Segment '100-1' must have no turns, but got %v", network.Geometries["100-1"].Turns)
	}

	// Endpoints at the intersection are pulled back by half of crossing oneway lane
	clearance := DefaultLaneWidth / 2
	end := network.Geometries["100-0"].Line
	node3, _ := network.projection.ToPlanar(GeoPoint{Lat: 55.75, Lon: 37.602})
	gap := math.Hypot(node3.X()-end[len(end)-1].X(), node3.Y()-end[len(end)-1].Y())
	if Round(gap, 0.0001) != Round(clearance, 0.0001) {
		t.Errorf("Gap between segment end and intersection must be %f, but got %f", clearance, gap)
	}

	model := newRecorderModel()
	report, err := network.Emit(model)
	if err != nil {
		t.Fatal(err)
	}
	if report.Links != 3 || report.Connectors != 2 {
		t.Fatalf("Links/connectors must be %d/%d, but got %d/%d", 3, 2, report.Links, report.Connectors)
	}
	expected := []recordedConnector{
		{from: model.names["100-0"], fromLane: 1, to: model.names["100-1"], toLane: 1, lanes: 1},
		{from: model.names["200-0"], fromLane: 1, to: model.names["100-1"], toLane: 1, lanes: 1},
	}
	for i := range expected {
		if model.connectors[i] != expected[i] {
			t.Errorf("Connector #%d must be %+v, but got %+v", i, expected[i], model.connectors[i])
		}
	}
}

func TestMidBlockContinuation(t *testing.T) {
	ways := []testWay{
		{id: 100, nodes: []int64{1, 2, 3}, tags: map[string]string{"highway": "primary", "oneway": "yes"}},
		{id: 200, nodes: []int64{3, 4, 5}, tags: map[string]string{"highway": "primary", "oneway": "yes", "lanes": "2"}},
	}
	network := compileTestNetwork(t, eastChain(1, 2, 3, 4, 5), ways)
	if len(network.Geometries) != 2 {
		t.Fatalf("Number of geometries must be %d, but got %d", 2, len(network.Geometries))
	}
	turns := network.Geometries["100-0"].Turns
	if len(turns[MOVEMENT_THRU]) != 1 || turns[MOVEMENT_THRU][0] != "200-0" {
		t.Errorf("Through turns of '100-0' must be %v, but got %v", []SegmentID{"200-0"}, turns[MOVEMENT_THRU])
	}

	model := newRecorderModel()
	report, err := network.Emit(model)
	if err != nil {
		t.Fatal(err)
	}
	if report.Connectors != 1 {
		t.Fatalf("Number of connectors must be %d, but got %d", 1, report.Connectors)
	}
	if model.connectors[0].lanes != 1 {
		t.Errorf("Connector must join %d lane, but got %d", 1, model.connectors[0].lanes)
	}
}

func TestGeometryFailure(t *testing.T) {
	// Short stub can't accommodate wide crossing road
	nodes := eastChain(1, 2, 3)
	nodes = append(nodes, testNode{id: 4, lat: 55.75001, lon: 37.601})
	ways := []testWay{
		{id: 100, nodes: []int64{1, 2, 3}, tags: map[string]string{"highway": "primary", "oneway": "yes", "lanes": "8"}},
		{id: 200, nodes: []int64{4, 2}, tags: map[string]string{"highway": "service", "oneway": "yes"}},
	}
	network := compileTestNetwork(t, nodes, ways)
	if len(network.Failures) != 1 {
		t.Fatalf("Number of failures must be %d, but got %d", 1, len(network.Failures))
	}
	wayErr, ok := network.Failures[0].(*WayError)
	if !ok {
		t.Fatalf("Failure must be *WayError, but got %v", network.Failures[0])
	}
	if _, ok := wayErr.Err.(*GeometryError); !ok || wayErr.WayID != "200-0" {
		t.Errorf("Failure must be *GeometryError of way '200-0', but got %v", wayErr)
	}
	if _, ok := network.Geometries["200-0"]; ok {
		t.Errorf("Failed segment must not have geometry")
	}
	model := newRecorderModel()
	report, err := network.Emit(model)
	if err != nil {
		t.Fatal(err)
	}
	if report.Links != 2 || len(report.Failures) != 1 {
		t.Errorf("Links/failures must be %d/%d, but got %d/%d", 2, 1, report.Links, len(report.Failures))
	}
}

func TestLanesFailure(t *testing.T) {
	ways := []testWay{
		{id: 100, nodes: []int64{1, 2, 3}, tags: map[string]string{"highway": "residential", "lanes": "3"}},
	}
	network := compileTestNetwork(t, eastChain(1, 2, 3), ways)
	if len(network.Failures) != 1 {
		t.Fatalf("Number of failures must be %d, but got %d", 1, len(network.Failures))
	}
	if len(network.Segments) != 0 {
		t.Errorf("Number of segments must be %d, but got %d", 0, len(network.Segments))
	}
}

func TestTransitStops(t *testing.T) {
	nodes := eastChain(1, 2, 3)
	nodes = append(nodes,
		testNode{id: 10, lat: 55.7499, lon: 37.601, tags: map[string]string{"highway": "bus_stop", "name": "Stop A", "ref": "17"}},
		testNode{id: 11, lat: 55.7499, lon: 37.6015, tags: map[string]string{"highway": "bus_stop"}},
		testNode{id: 12, lat: 55.76, lon: 37.601, tags: map[string]string{"highway": "bus_stop", "name": "Far away"}},
	)
	ways := []testWay{
		{id: 100, nodes: []int64{1, 2, 3}, tags: map[string]string{"highway": "residential"}},
	}
	network := compileTestNetwork(t, nodes, ways, WithTransitStops(true))
	model := newRecorderModel()
	report, err := network.Emit(model)
	if err != nil {
		t.Fatal(err)
	}
	if report.TransitStops != 1 || report.SkippedTransitStops != 2 {
		t.Fatalf("Created/skipped stops must be %d/%d, but got %d/%d", 1, 2, report.TransitStops, report.SkippedTransitStops)
	}
	stop := model.stops[0]
	if stop.name != "17" {
		t.Errorf("Stop name must be '%s', but got '%s'", "17", stop.name)
	}
	// Stop is south of the road, so it belongs to the eastward link
	if stop.link != model.names["100-0-F"] || stop.lane != 1 {
		t.Errorf("Stop must be placed on lane 1 of link %d, but got lane %d of link %d", model.names["100-0-F"], stop.lane, stop.link)
	}
	middle, _ := network.projection.ToPlanar(GeoPoint{Lat: 55.75, Lon: 37.601})
	if math.Abs(stop.pos-middle.X()) > 0.01 || stop.length != DefaultTransitStopLength {
		t.Errorf("Stop must be at %f with length %f, but got %f with length %f", middle.X(), DefaultTransitStopLength, stop.pos, stop.length)
	}
}

func TestFitTransitStop(t *testing.T) {
	cases := []struct {
		pos, length, linkLength   float64
		expectedPos, expectedLen float64
	}{
		{10, 15, 100, 10, 15},
		{95, 15, 100, 85, 15},
		{5, 15, 10, 0, 10},
	}
	for _, c := range cases {
		pos, length := fitTransitStop(c.pos, c.length, c.linkLength)
		if pos != c.expectedPos || length != c.expectedLen {
			t.Errorf("Stop must be (%f, %f), but got (%f, %f)", c.expectedPos, c.expectedLen, pos, length)
		}
	}
}

func TestAuditReachability(t *testing.T) {
	nodes, ways := intersectionFixture()
	network := compileTestNetwork(t, nodes, ways)
	report, err := network.AuditReachability()
	if err != nil {
		t.Fatal(err)
	}
	if report.Entries != 2 || report.Exits != 1 {
		t.Errorf("Entries/exits must be %d/%d, but got %d/%d", 2, 1, report.Entries, report.Exits)
	}
	if len(report.Unreachable) != 0 {
		t.Errorf("Every entry must reach exit, but got %v", report.Unreachable)
	}
}

// fourWayFixture returns two-way ways meeting at node 1: north (100), east (200), south (300) and west (400) legs
func fourWayFixture(extraTags map[int64]map[string]string) ([]testNode, []testWay) {
	nodes := []testNode{
		{id: 1, lat: 55.75, lon: 37.6},
		{id: 2, lat: 55.751, lon: 37.6},
		{id: 3, lat: 55.75, lon: 37.6016},
		{id: 4, lat: 55.749, lon: 37.6},
		{id: 5, lat: 55.75, lon: 37.5984},
	}
	ways := []testWay{
		{id: 100, nodes: []int64{2, 1}},
		{id: 200, nodes: []int64{1, 3}},
		{id: 300, nodes: []int64{1, 4}},
		{id: 400, nodes: []int64{1, 5}},
	}
	for i := range ways {
		ways[i].tags = map[string]string{"highway": "residential"}
		for k, v := range extraTags[ways[i].id] {
			ways[i].tags[k] = v
		}
	}
	return nodes, ways
}

func TestFourWayTurnBuckets(t *testing.T) {
	nodes, ways := fourWayFixture(nil)
	network := compileTestNetwork(t, nodes, ways)
	if len(network.Failures) != 0 {
		t.Fatalf("Unexpected failures: %v", network.Failures)
	}
	inter, ok := network.Intersections[1]
	if !ok {
		t.Fatalf("Node '%d' must be an intersection", 1)
	}
	bearings := map[int64]float64{2: 0, 3: 90, 4: 180, 5: 270}
	for neighbor, bearing := range bearings {
		leg := inter.Approaches[osm.NodeID(neighbor)]
		if math.Abs(leg.Bearing-bearing) > 0.01 {
			t.Errorf("Bearing of leg to node '%d' must be %f, but got %f", neighbor, bearing, leg.Bearing)
		}
	}

	// Approach comes from the leg at bearing 0
	turns := network.Geometries["100-0-F"].Turns
	expected := map[MovementType]SegmentID{
		MOVEMENT_THRU:  "300-0-F",
		MOVEMENT_RIGHT: "200-0-F",
		MOVEMENT_LEFT:  "400-0-F",
	}
	for movement, dest := range expected {
		if len(turns[movement]) != 1 || turns[movement][0] != dest {
			t.Errorf("%s turns of '100-0-F' must be %v, but got %v", movement, []SegmentID{dest}, turns[movement])
		}
	}
	if turns.Len() != 3 {
		t.Errorf("Number of turns of '100-0-F' must be %d, but got %d", 3, turns.Len())
	}
}

func TestTwoWayCrossStreetClearance(t *testing.T) {
	// East leg has 2+2 lanes: clearance is (offset + lanes/2) lane widths
	nodes, ways := fourWayFixture(map[int64]map[string]string{200: {"lanes": "4"}})
	network := compileTestNetwork(t, nodes, ways)
	if len(network.Failures) != 0 {
		t.Fatalf("Unexpected failures: %v", network.Failures)
	}
	east := network.Segments["200-0-B"]
	if east.Offset != 1 || east.Lanes != 2 {
		t.Fatalf("Segment '200-0-B' must have offset %f and %d lanes, but got %f and %d", 1.0, 2, east.Offset, east.Lanes)
	}
	expected := (east.Offset + float64(east.Lanes)/2) * DefaultLaneWidth

	north, _ := network.projection.ToPlanar(GeoPoint{Lat: 55.751, Lon: 37.6})
	center, _ := network.projection.ToPlanar(GeoPoint{Lat: 55.75, Lon: 37.6})
	raw := math.Hypot(north.X()-center.X(), north.Y()-center.Y())
	trimmed := raw - network.Geometries["100-0-F"].Length()
	if Round(trimmed, 0.001) != Round(expected, 0.001) {
		t.Errorf("Segment '100-0-F' must be pulled back by %f, but got %f", expected, trimmed)
	}
}

func TestMalformedLegDoesNotFailNeighbors(t *testing.T) {
	nodes, ways := fourWayFixture(map[int64]map[string]string{100: {"lanes": "3"}})
	network := compileTestNetwork(t, nodes, ways)
	if len(network.Failures) != 1 {
		t.Fatalf("Number of failures must be %d, but got %d: %v", 1, len(network.Failures), network.Failures)
	}
	if errors.Cause(network.Failures[0]) != ErrLanesNotEvenlyDivisible {
		t.Errorf("Failure must be caused by %v, but got %v", ErrLanesNotEvenlyDivisible, network.Failures[0])
	}
	if len(network.Geometries) != 6 {
		t.Errorf("Number of geometries must be %d, but got %d", 6, len(network.Geometries))
	}
	for _, id := range []SegmentID{"200-0-F", "200-0-B", "300-0-F", "300-0-B", "400-0-F", "400-0-B"} {
		if _, ok := network.Geometries[id]; !ok {
			t.Errorf("Segment '%s' must have geometry", id)
		}
	}
}

func TestThroughTurnPocket(t *testing.T) {
	nodes := eastChain(1, 2, 3)
	nodes = append(nodes, testNode{id: 4, lat: 55.749, lon: 37.601})
	ways := []testWay{
		{id: 100, nodes: []int64{1, 2}, tags: map[string]string{"highway": "primary", "oneway": "yes", "turn:lanes": "through|right"}},
		{id: 150, nodes: []int64{2, 3}, tags: map[string]string{"highway": "primary", "oneway": "yes", "turn:lanes": "through|right"}},
		{id: 200, nodes: []int64{2, 4}, tags: map[string]string{"highway": "residential", "oneway": "yes"}},
	}
	network := compileTestNetwork(t, nodes, ways)
	if len(network.Failures) != 0 {
		t.Fatalf("Unexpected failures: %v", network.Failures)
	}
	turns := network.Geometries["100-0"].Turns
	for _, movement := range []MovementType{MOVEMENT_THRU, MOVEMENT_RIGHT} {
		if len(turns[movement]) != 1 || turns[movement][0] != "150-0" {
			t.Errorf("%s turns of '100-0' must be %v, but got %v", movement, []SegmentID{"150-0"}, turns[movement])
		}
	}
	if len(turns[MOVEMENT_LEFT]) != 1 || turns[MOVEMENT_LEFT][0] != "200-0" {
		t.Errorf("Left turns of '100-0' must be %v, but got %v", []SegmentID{"200-0"}, turns[MOVEMENT_LEFT])
	}

	// Untagged continuation gets through bucket only
	ways[1].tags = map[string]string{"highway": "primary", "oneway": "yes", "lanes": "2"}
	network = compileTestNetwork(t, nodes, ways)
	turns = network.Geometries["100-0"].Turns
	if len(turns[MOVEMENT_RIGHT]) != 0 {
		t.Errorf("Right turns of '100-0' must be empty, but got %v", turns[MOVEMENT_RIGHT])
	}
}

func TestUnresolvedTurnIsSkipped(t *testing.T) {
	// Exit stub can't accommodate wide road, so turn onto it has no destination
	nodes := eastChain(1, 2, 3)
	nodes = append(nodes, testNode{id: 4, lat: 55.75001, lon: 37.601})
	ways := []testWay{
		{id: 100, nodes: []int64{1, 2, 3}, tags: map[string]string{"highway": "primary", "oneway": "yes", "lanes": "8"}},
		{id: 200, nodes: []int64{2, 4}, tags: map[string]string{"highway": "service", "oneway": "yes"}},
	}
	network := compileTestNetwork(t, nodes, ways)
	if len(network.Failures) != 1 {
		t.Fatalf("Number of failures must be %d, but got %d: %v", 1, len(network.Failures), network.Failures)
	}
	if len(network.Warnings) != 1 {
		t.Fatalf("Number of warnings must be %d, but got %d: %v", 1, len(network.Warnings), network.Warnings)
	}
	if errors.Cause(network.Warnings[0]) != ErrAmbiguousTurn {
		t.Errorf("Warning must be caused by %v, but got %v", ErrAmbiguousTurn, network.Warnings[0])
	}
	turns := network.Geometries["100-0"].Turns
	if _, ok := turns[MOVEMENT_RIGHT]; ok {
		t.Errorf("Bucket without resolved destinations must be removed, but got %v", turns[MOVEMENT_RIGHT])
	}
	if len(turns[MOVEMENT_THRU]) != 1 || turns[MOVEMENT_THRU][0] != "100-1" {
		t.Errorf("Through turns of '100-0' must be %v, but got %v", []SegmentID{"100-1"}, turns[MOVEMENT_THRU])
	}

	model := newRecorderModel()
	report, err := network.Emit(model)
	if err != nil {
		t.Fatal(err)
	}
	if report.SkippedTurns != 1 || report.Connectors != 1 {
		t.Errorf("Skipped turns/connectors must be %d/%d, but got %d/%d", 1, 1, report.SkippedTurns, report.Connectors)
	}
}
