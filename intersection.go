package osm2vissim

import (
	"fmt"
	"math"

	"github.com/paulmach/osm"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Approach describes single leg of intersection
type Approach struct {
	Neighbor osm.NodeID
	WayID    WayID
	// Way points away from intersection
	Beginning bool
	// Compass bearing from intersection to neighbor [0; 360)
	Bearing float64
	// Planar angle (counterclockwise from east) from intersection to neighbor [-180; 180)
	Angle  float64
	Lanes  LaneCounts
	Oneway bool

	lanesErr error
}

type Intersection struct {
	NodeID     osm.NodeID
	Approaches map[osm.NodeID]*Approach
}

// buildIntersections prepares legs for every intersection node of the graph
func buildIntersections(graph *Graph) map[osm.NodeID]*Intersection {
	intersections := make(map[osm.NodeID]*Intersection)
	for _, id := range graph.NodeIDs() {
		if !graph.IsIntersection(id) {
			continue
		}
		intersections[id] = graph.getIntersection(id)
	}
	return intersections
}

func (graph *Graph) getIntersection(n osm.NodeID) *Intersection {
	node := graph.nodes[n]
	inter := &Intersection{
		NodeID:     n,
		Approaches: make(map[osm.NodeID]*Approach),
	}
	addLeg := func(edge *Edge, neighbor osm.NodeID, beginning bool) {
		if _, ok := inter.Approaches[neighbor]; ok {
			return
		}
		way := graph.ways[edge.WayID]
		lanes, err := getLaneCount(way.TagMap, way.Oneway)
		bearing := compassBearing(node.Point, graph.nodes[neighbor].Point)
		inter.Approaches[neighbor] = &Approach{
			Neighbor:  neighbor,
			WayID:     way.ID,
			Beginning: beginning,
			Bearing:   bearing,
			Angle:     bearingToAngle(bearing),
			Lanes:     lanes,
			Oneway:    way.Oneway,
			lanesErr:  err,
		}
	}
	for _, edge := range graph.primaryOutgoing(n) {
		addLeg(edge, edge.Target, true)
	}
	for _, edge := range graph.primaryIncoming(n) {
		addLeg(edge, edge.Source, false)
	}
	return inter
}

// analyzer resolves intersection geometry against already built segments
type analyzer struct {
	graph         *Graph
	intersections map[osm.NodeID]*Intersection
	segments      map[SegmentID]*WaySegment
	byEdge        map[edgeKey][]SegmentID
	laneWidth     float64
	logger        *zap.Logger
	// Legs which have been reported as skipped from clearance evaluation
	skippedLegs   map[edgeKey]struct{}
}

func newAnalyzer(graph *Graph, segments map[SegmentID]*WaySegment, laneWidth float64, logger *zap.Logger) *analyzer {
	a := &analyzer{
		graph:         graph,
		intersections: buildIntersections(graph),
		segments:      segments,
		byEdge:        make(map[edgeKey][]SegmentID),
		laneWidth:     laneWidth,
		logger:        logger,
		skippedLegs:   make(map[edgeKey]struct{}),
	}
	for _, id := range sortedSegmentIDs(segments) {
		nodes := segments[id].Nodes
		for i := 1; i < len(nodes); i++ {
			key := edgeKey{nodes[i-1], nodes[i]}
			a.byEdge[key] = append(a.byEdge[key], id)
		}
	}
	return a
}

// segmentByEdge returns segment which travels directed edge (u, v). Nil is returned when there is no such segment
func (a *analyzer) segmentByEdge(u, v osm.NodeID) (*WaySegment, error) {
	ids := a.byEdge[edgeKey{u, v}]
	switch len(ids) {
	case 0:
		return nil, nil
	case 1:
		return a.segments[ids[0]], nil
	default:
		return nil, errors.Wrapf(ErrAmbiguousTurn, "edge (%d, %d) is shared by segments %v", u, v, ids)
	}
}

// crossStreets returns distance the endpoint of segment coming from fromN must be pulled back from intersection intN.
// Nearest legs on both sides of approach are checked, the larger clearance wins.
// Legs of ways with malformed lane tags are never emitted, so they are left out
func (a *analyzer) crossStreets(intN, fromN osm.NodeID) (float64, error) {
	inter, ok := a.intersections[intN]
	if !ok {
		return 0, nil
	}
	from, ok := inter.Approaches[fromN]
	if !ok {
		return 0, fmt.Errorf("No leg to node '%d' at intersection '%d'", fromN, intN)
	}
	var right, left *Approach
	rightDiff, leftDiff := 0.0, 0.0
	for _, neighbor := range a.graph.Neighbors(intN) {
		if neighbor == fromN {
			continue
		}
		leg, ok := inter.Approaches[neighbor]
		if !ok {
			continue
		}
		if leg.lanesErr != nil {
			a.skipLeg(intN, leg)
			continue
		}
		diff := normalizeAngle(leg.Angle - from.Angle)
		switch {
		case diff > 0:
			if right == nil || diff < rightDiff {
				right, rightDiff = leg, diff
			}
		case diff < 0:
			if left == nil || diff > leftDiff {
				left, leftDiff = leg, diff
			}
		}
	}
	clearance := 0.0
	if right != nil {
		d, err := a.crossSection(intN, right, rightDiff)
		if err != nil {
			return 0, err
		}
		clearance = math.Max(clearance, d)
	}
	if left != nil {
		d, err := a.crossSection(intN, left, leftDiff)
		if err != nil {
			return 0, err
		}
		clearance = math.Max(clearance, d)
	}
	return clearance, nil
}

// crossSection returns perpendicular clearance required by given leg which is `diff` degrees away from approach
func (a *analyzer) crossSection(intN osm.NodeID, leg *Approach, diff float64) (float64, error) {
	sin := math.Abs(math.Sin(diff * pi180))
	if leg.Oneway {
		return float64(leg.Lanes.Forward) * a.laneWidth * sin / 2.0, nil
	}
	// Directional segment which lanes face approach: outgoing for legs counterclockwise from approach, incoming otherwise
	var seg *WaySegment
	var err error
	if diff > 0 {
		seg, err = a.segmentByEdge(intN, leg.Neighbor)
	} else {
		seg, err = a.segmentByEdge(leg.Neighbor, intN)
	}
	if err != nil {
		return 0, err
	}
	if seg == nil {
		return 0, fmt.Errorf("No directional segment of way '%s' at intersection '%d'", leg.WayID, intN)
	}
	return (seg.Offset + float64(seg.Lanes)/2.0) * a.laneWidth * sin, nil
}

// calcTurns buckets segments leaving intersection intN for given approach segment coming from fromN.
// Unresolvable destinations are returned as warnings
func (a *analyzer) calcTurns(intN, fromN osm.NodeID, approach *WaySegment) (TurnMap, []error) {
	turns := TurnMap{}
	warnings := []error{}
	inter, ok := a.intersections[intN]
	if !ok {
		return turns, warnings
	}
	from, ok := inter.Approaches[fromN]
	if !ok {
		return turns, warnings
	}
	for _, neighbor := range a.graph.Neighbors(intN) {
		if neighbor == fromN {
			continue
		}
		leg, ok := inter.Approaches[neighbor]
		if !ok {
			continue
		}
		exit, err := a.segmentByEdge(intN, neighbor)
		if err != nil {
			warnings = append(warnings, errors.Wrapf(err, "Can't resolve turn from segment '%s'", approach.ID))
			continue
		}
		if exit == nil {
			// Leg can't be entered (oneway towards intersection) or its way has failed
			continue
		}
		movement := classifyMovement(from.Bearing, leg.Bearing)
		if movement == MOVEMENT_NONE {
			continue
		}
		turns.add(movement, exit.ID)
		if movement == MOVEMENT_THRU {
			// Turn pocket could begin before the intersection node
			for _, pocket := range []MovementType{MOVEMENT_RIGHT, MOVEMENT_LEFT} {
				if approach.TurnLanesTagged && exit.TurnLanesTagged && anyLaneMarked(approach.TurnLanes, pocket) && anyLaneMarked(exit.TurnLanes, pocket) {
					turns.add(pocket, exit.ID)
				}
			}
		}
	}
	return turns, warnings
}

// skipLeg reports leg left out of clearance evaluation once per intersection
func (a *analyzer) skipLeg(intN osm.NodeID, leg *Approach) {
	key := edgeKey{intN, leg.Neighbor}
	if _, ok := a.skippedLegs[key]; ok {
		return
	}
	a.skippedLegs[key] = struct{}{}
	a.logger.Sugar().Warnf("Leg of way '%s' has been skipped at intersection '%d': %s", leg.WayID, intN, leg.lanesErr.Error())
}

// continuation returns through turn for segment ending at a non-intersection node where another way continues
func (a *analyzer) continuation(seg *WaySegment) (TurnMap, []error) {
	turns := TurnMap{}
	n := len(seg.Nodes)
	last, prev := seg.Nodes[n-1], seg.Nodes[n-2]
	for _, neighbor := range a.graph.Neighbors(last) {
		if neighbor == prev {
			continue
		}
		next, err := a.segmentByEdge(last, neighbor)
		if err != nil {
			return turns, []error{errors.Wrapf(err, "Can't resolve continuation of segment '%s'", seg.ID)}
		}
		if next != nil && next.ID != seg.ID {
			turns.add(MOVEMENT_THRU, next.ID)
		}
	}
	return turns, nil
}
