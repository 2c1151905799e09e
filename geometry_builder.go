package osm2vissim

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/osm"
)

// LinkGeometry is ready-to-emit representation of a segment
type LinkGeometry struct {
	SegmentID SegmentID
	// Planar coordinates (meters) relative to projection reference
	Line  orb.LineString
	Lanes int
	Turns TurnMap
}

// Points3D returns geometry as VISSIM points with zero height
func (geom *LinkGeometry) Points3D() []Point3D {
	points := make([]Point3D, len(geom.Line))
	for i, pt := range geom.Line {
		points[i] = Point3D{X: pt.X(), Y: pt.Y(), Z: 0}
	}
	return points
}

// Length returns planar length (meters)
func (geom *LinkGeometry) Length() float64 {
	return planar.Length(geom.Line)
}

type geometryBuilder struct {
	graph      *Graph
	projection *Projection
	analyzer   *analyzer
	laneWidth  float64
	planar     map[osm.NodeID]orb.Point
}

func newGeometryBuilder(graph *Graph, projection *Projection, a *analyzer, laneWidth float64) *geometryBuilder {
	return &geometryBuilder{
		graph:      graph,
		projection: projection,
		analyzer:   a,
		laneWidth:  laneWidth,
		planar:     make(map[osm.NodeID]orb.Point),
	}
}

// planarPoint returns memoized planar coordinates of node
func (b *geometryBuilder) planarPoint(id osm.NodeID) (orb.Point, error) {
	if pt, ok := b.planar[id]; ok {
		return pt, nil
	}
	node, ok := b.graph.Node(id)
	if !ok {
		return orb.Point{}, fmt.Errorf("No such node '%d'", id)
	}
	pt, err := b.projection.ToPlanar(node.Point)
	if err != nil {
		return orb.Point{}, err
	}
	b.planar[id] = pt
	return pt, nil
}

// build converts segment into link geometry. Turn resolution problems are returned as warnings
func (b *geometryBuilder) build(seg *WaySegment) (*LinkGeometry, []error, error) {
	line := make(orb.LineString, 0, len(seg.Nodes))
	for _, id := range seg.Nodes {
		pt, err := b.planarPoint(id)
		if err != nil {
			return nil, nil, err
		}
		line = append(line, pt)
	}
	if !seg.Oneway() && seg.Offset != 0 {
		line = offsetParallel(line, seg.Offset*b.laneWidth)
	}

	n := len(seg.Nodes)
	first, last := seg.Nodes[0], seg.Nodes[n-1]
	if b.graph.IsIntersection(first) {
		clearance, err := b.analyzer.crossStreets(first, seg.Nodes[1])
		if err != nil {
			return nil, nil, err
		}
		trimmed, ok := trimStart(line, clearance)
		if !ok {
			return nil, nil, &GeometryError{SegmentID: seg.ID, NodeID: first, Clearance: clearance, Length: planar.Length(line)}
		}
		line = trimmed
	}
	if b.graph.IsIntersection(last) {
		clearance, err := b.analyzer.crossStreets(last, seg.Nodes[n-2])
		if err != nil {
			return nil, nil, err
		}
		trimmed, ok := trimEnd(line, clearance)
		if !ok {
			return nil, nil, &GeometryError{SegmentID: seg.ID, NodeID: last, Clearance: clearance, Length: planar.Length(line)}
		}
		line = trimmed
	}

	var turns TurnMap
	var warnings []error
	if b.graph.IsIntersection(last) {
		turns, warnings = b.analyzer.calcTurns(last, seg.Nodes[n-2], seg)
	} else {
		turns, warnings = b.analyzer.continuation(seg)
	}
	return &LinkGeometry{
		SegmentID: seg.ID,
		Line:      line,
		Lanes:     seg.Lanes,
		Turns:     turns,
	}, warnings, nil
}
