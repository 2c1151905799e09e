package osm2vissim

import (
	"github.com/paulmach/osm"
)

// SegmentID is identifier of directed segment: way ID for oneway ways, way ID with '-F' / '-B' suffix for two-way ways
type SegmentID string

type DirectionType uint16

const (
	DIRECTION_ONEWAY = DirectionType(iota + 1)
	DIRECTION_FORWARD
	DIRECTION_BACKWARD
)

func (iotaIdx DirectionType) String() string {
	return [...]string{"oneway", "forward", "backward"}[iotaIdx-1]
}

// WaySegment is single-direction piece of way between intersections (or graph boundaries) which becomes VISSIM link
type WaySegment struct {
	ID        SegmentID
	WayID     WayID
	OSMWayID  osm.WayID
	Nodes     []osm.NodeID
	Direction DirectionType

	LanesForward  int
	LanesBackward int
	// Lanes in direction of travel
	Lanes int
	// Perpendicular shift of segment's centerline from OSM centerline (lane widths, to the right of travel)
	Offset float64

	// Marks for each lane from left to right
	TurnLanes [][]string
	// Marks came from `turn:lanes*` tag
	TurnLanesTagged bool
}

// Oneway checks if segment has been built from oneway way
func (seg *WaySegment) Oneway() bool {
	return seg.Direction == DIRECTION_ONEWAY
}

// Source returns first node
func (seg *WaySegment) Source() osm.NodeID {
	return seg.Nodes[0]
}

// Target returns last node
func (seg *WaySegment) Target() osm.NodeID {
	return seg.Nodes[len(seg.Nodes)-1]
}
