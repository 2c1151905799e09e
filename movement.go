package osm2vissim

import (
	"math"
)

type MovementType uint16

const (
	MOVEMENT_THRU = MovementType(iota + 1)
	MOVEMENT_RIGHT
	MOVEMENT_LEFT

	MOVEMENT_NONE = MovementType(0)
)

func (iotaIdx MovementType) String() string {
	return [...]string{"none", "through", "right", "left"}[iotaIdx]
}

const (
	throughThreshold = 135.0
	turnThreshold    = 45.0
)

// movementsOrder is order of buckets connectors are emitted in
var movementsOrder = []MovementType{MOVEMENT_LEFT, MOVEMENT_THRU, MOVEMENT_RIGHT}

// classifyMovement returns movement between approach leg and exit leg.
// Both values are compass bearings (clockwise from north, degrees) from intersection to neighbor.
// Diagonal differences which fit into none of the buckets give MOVEMENT_NONE
func classifyMovement(approachBearing, exitBearing float64) MovementType {
	diff := normalizeAngle(exitBearing - approachBearing)
	switch {
	case math.Abs(diff) >= throughThreshold:
		return MOVEMENT_THRU
	case diff > -throughThreshold && diff < -turnThreshold:
		return MOVEMENT_LEFT
	case diff > turnThreshold && diff < throughThreshold:
		return MOVEMENT_RIGHT
	default:
		return MOVEMENT_NONE
	}
}

// hasMovementMark checks if lane marks allow given movement
func hasMovementMark(marks []string, movement MovementType) bool {
	var allowed map[string]struct{}
	switch movement {
	case MOVEMENT_THRU:
		allowed = throughMarks
	case MOVEMENT_LEFT:
		allowed = leftMarks
	case MOVEMENT_RIGHT:
		allowed = rightMarks
	default:
		return false
	}
	for _, mark := range marks {
		if _, ok := allowed[mark]; ok {
			return true
		}
	}
	return false
}

// anyLaneMarked checks if at least one lane allows given movement
func anyLaneMarked(turnLanes [][]string, movement MovementType) bool {
	for _, marks := range turnLanes {
		if hasMovementMark(marks, movement) {
			return true
		}
	}
	return false
}

// TurnMap is destinations of segment grouped by movement
type TurnMap map[MovementType][]SegmentID

func (turns TurnMap) add(movement MovementType, id SegmentID) {
	for _, existing := range turns[movement] {
		if existing == id {
			return
		}
	}
	turns[movement] = append(turns[movement], id)
}

// Len returns number of destinations over all buckets
func (turns TurnMap) Len() int {
	cnt := 0
	for _, ids := range turns {
		cnt += len(ids)
	}
	return cnt
}
