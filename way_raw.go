package osm2vissim

import (
	"fmt"

	"github.com/paulmach/osm"
)

// WayID is identifier of way after splitting: '<OSM way ID>-<fragment index>'
type WayID string

type WayData struct {
	ID     WayID
	OSMID  osm.WayID
	Nodes  []osm.NodeID
	TagMap osm.Tags

	highway string
	name    string

	Oneway     bool
	IsReversed bool
}

// NewWayData prepares way for graph insertion. For `oneway=-1` nodes are reversed so they always follow direction of travel
func NewWayData(id WayID, osmID osm.WayID, nodes []osm.NodeID, tags osm.Tags) *WayData {
	way := &WayData{
		ID:      id,
		OSMID:   osmID,
		Nodes:   make([]osm.NodeID, len(nodes)),
		TagMap:  make(osm.Tags, len(tags)),
		highway: tags.Find("highway"),
		name:    tags.Find("name"),
	}
	copy(way.Nodes, nodes)
	copy(way.TagMap, tags)
	way.Oneway = isOneway(way.TagMap)
	if way.TagMap.Find("oneway") == "-1" {
		way.IsReversed = true
		reverseNodesInPlace(way.Nodes)
	}
	return way
}

// Highway returns value of `highway` tag
func (way *WayData) Highway() string {
	return way.highway
}

// Name returns value of `name` tag
func (way *WayData) Name() string {
	return way.name
}

// unhandledOneway returns `oneway` value which is neither yes-like nor no-like value
func (way *WayData) unhandledOneway() (string, bool) {
	onewayText := way.TagMap.Find("oneway")
	if onewayText == "" {
		return "", false
	}
	if _, ok := onewayYes[onewayText]; ok {
		return "", false
	}
	if _, ok := onewayNo[onewayText]; ok {
		return "", false
	}
	return onewayText, true
}

// dedupAdjacent removes consecutive repeated nodes. Returns number of removed references
func (way *WayData) dedupAdjacent() int {
	before := len(way.Nodes)
	way.Nodes = dedupNodes(way.Nodes)
	return before - len(way.Nodes)
}

// split slices way at every interior node used by more than one way.
// Cuts are made at first shared interior node recursively, so fragments are stable for the same input
func (way *WayData) split(nodes map[osm.NodeID]*Node) []*WayData {
	slices := sliceNodes(way.Nodes, nodes)
	ret := make([]*WayData, 0, len(slices))
	for i, slice := range slices {
		fragment := &WayData{
			ID:         WayID(fmt.Sprintf("%d-%d", way.OSMID, i)),
			OSMID:      way.OSMID,
			Nodes:      slice,
			TagMap:     way.TagMap,
			highway:    way.highway,
			name:       way.name,
			Oneway:     way.Oneway,
			IsReversed: way.IsReversed,
		}
		ret = append(ret, fragment)
	}
	return ret
}

func sliceNodes(ids []osm.NodeID, nodes map[osm.NodeID]*Node) [][]osm.NodeID {
	for i := 1; i < len(ids)-1; i++ {
		if node, ok := nodes[ids[i]]; ok && node.useCount > 1 {
			left := make([]osm.NodeID, i+1)
			copy(left, ids[:i+1])
			return append([][]osm.NodeID{left}, sliceNodes(ids[i:], nodes)...)
		}
	}
	ret := make([]osm.NodeID, len(ids))
	copy(ret, ids)
	return [][]osm.NodeID{ret}
}

// dedupNodes returns new slice without consecutive repeated nodes
func dedupNodes(ids []osm.NodeID) []osm.NodeID {
	ret := make([]osm.NodeID, 0, len(ids))
	for i, id := range ids {
		if i > 0 && ids[i-1] == id {
			continue
		}
		ret = append(ret, id)
	}
	return ret
}

func reverseNodesInPlace(ids []osm.NodeID) {
	inputLen := len(ids)
	inputMid := inputLen / 2
	for i := 0; i < inputMid; i++ {
		j := inputLen - i - 1
		ids[i], ids[j] = ids[j], ids[i]
	}
}

func reverseNodes(ids []osm.NodeID) []osm.NodeID {
	ret := make([]osm.NodeID, len(ids))
	copy(ret, ids)
	reverseNodesInPlace(ret)
	return ret
}
