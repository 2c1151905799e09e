package osm2vissim

import (
	"strconv"
	"strings"

	"github.com/paulmach/osm"
	"github.com/pkg/errors"
)

// IsIntersection checks if more than two distinct nodes are adjacent to n
func (graph *Graph) IsIntersection(n osm.NodeID) bool {
	return len(graph.Neighbors(n)) > 2
}

// IsBoundary checks if traversal could be started from n: exactly one primary successor and no primary predecessors
func (graph *Graph) IsBoundary(n osm.NodeID) bool {
	return len(graph.primaryOutgoing(n)) == 1 && len(graph.primaryIncoming(n)) == 0
}

// StartNodes returns sorted boundary nodes.
// Boundary node has no primary predecessors, so it can't be reached by traversal started from another one
func (graph *Graph) StartNodes() []osm.NodeID {
	ret := []osm.NodeID{}
	for _, id := range graph.NodeIDs() {
		if graph.IsBoundary(id) {
			ret = append(ret, id)
		}
	}
	return ret
}

// isOneway checks tags in fixed order, first match wins:
// explicit `oneway` value, `highway=motorway`, `junction=roundabout`
func isOneway(tags osm.Tags) bool {
	onewayText := tags.Find("oneway")
	if _, ok := onewayYes[onewayText]; ok {
		return true
	}
	if _, ok := onewayNo[onewayText]; ok {
		return false
	}
	if getHighwayType(tags.Find("highway")) == HIGHWAY_MOTORWAY {
		return true
	}
	if _, ok := junctionTypes[tags.Find("junction")]; ok {
		return true
	}
	return false
}

// LaneCounts is number of lanes in each direction of a way
type LaneCounts struct {
	Forward  int
	Backward int
}

// Total returns number of lanes in both directions
func (lc LaneCounts) Total() int {
	return lc.Forward + lc.Backward
}

// getLaneCount returns lanes for each direction.
// Per direction `turn:lanes[:direction]` is preferred, then `lanes:direction`, then `lanes`, then 1.
// Oneway ways have no backward lanes
func getLaneCount(tags osm.Tags, oneway bool) (LaneCounts, error) {
	if oneway {
		forward := countTurnLanes(tags.Find("turn:lanes"))
		if forward == 0 {
			lanes, err := parseLanes(tags, "lanes")
			if err != nil {
				return LaneCounts{}, err
			}
			forward = lanes
		}
		if forward == 0 {
			forward = 1
		}
		return LaneCounts{Forward: forward}, nil
	}

	forward, err := directionalLanes(tags, "forward")
	if err != nil {
		return LaneCounts{}, err
	}
	backward, err := directionalLanes(tags, "backward")
	if err != nil {
		return LaneCounts{}, err
	}
	total, err := parseLanes(tags, "lanes")
	if err != nil {
		return LaneCounts{}, err
	}
	switch {
	case forward > 0 && backward > 0:
		// Both directions are explicit
	case forward > 0 && total > forward:
		backward = total - forward
	case backward > 0 && total > backward:
		forward = total - backward
	case forward == 0 && backward == 0 && total > 0:
		if total%2 != 0 {
			return LaneCounts{}, errors.Wrapf(ErrLanesNotEvenlyDivisible, "lanes=%d", total)
		}
		forward = total / 2
		backward = total / 2
	}
	if forward == 0 {
		forward = 1
	}
	if backward == 0 {
		backward = 1
	}
	return LaneCounts{Forward: forward, Backward: backward}, nil
}

func directionalLanes(tags osm.Tags, direction string) (int, error) {
	if lanes := countTurnLanes(tags.Find("turn:lanes:" + direction)); lanes > 0 {
		return lanes, nil
	}
	return parseLanes(tags, "lanes:"+direction)
}

// parseLanes returns 0 when tag is absent
func parseLanes(tags osm.Tags, key string) (int, error) {
	text := strings.TrimSpace(tags.Find(key))
	if text == "" {
		return 0, nil
	}
	lanes, err := strconv.Atoi(text)
	if err != nil || lanes < 0 {
		return 0, errors.Errorf("Provided `%s` tag value should be a non-negative integer. Got '%s'", key, text)
	}
	return lanes, nil
}

func countTurnLanes(text string) int {
	if text == "" {
		return 0
	}
	return len(strings.Split(text, "|"))
}

// getTurnLanes returns marks for each lane from left to right.
// Lanes without marks (or `none`) are `through`. Missing tag gives `through` for every lane
func getTurnLanes(tags osm.Tags, key string, lanes int) ([][]string, bool) {
	text := tags.Find(key)
	if text == "" {
		ret := make([][]string, lanes)
		for i := range ret {
			ret[i] = []string{"through"}
		}
		return ret, false
	}
	groups := strings.Split(text, "|")
	ret := make([][]string, 0, len(groups))
	for _, group := range groups {
		marks := []string{}
		for _, mark := range strings.Split(group, ";") {
			mark = strings.TrimSpace(mark)
			if _, ok := throughMarks[mark]; ok {
				mark = "through"
			}
			marks = append(marks, mark)
		}
		ret = append(ret, marks)
	}
	return ret, true
}
