package osm2vissim

const (
	defaultRightMostLanes = 1
	defaultLeftMostLanes  = 1
)

// laneConnection is lanes range of a connector. VISSIM lanes are numbered from 1 starting at the rightmost lane
type laneConnection struct {
	fromLane int
	toLane   int
	lanes    int
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// eligibleLanes returns lane numbers (1 is the rightmost) which could be used for given movement.
// Untagged segments turn left from the leftmost lane, right from the rightmost lane and go through on every lane
func eligibleLanes(movement MovementType, turnLanes [][]string, tagged bool, fromLanes int) []int {
	ret := []int{}
	if !tagged || len(turnLanes) != fromLanes {
		switch movement {
		case MOVEMENT_LEFT:
			for lane := fromLanes - defaultLeftMostLanes + 1; lane <= fromLanes; lane++ {
				ret = append(ret, lane)
			}
		case MOVEMENT_RIGHT:
			for lane := 1; lane <= defaultRightMostLanes && lane <= fromLanes; lane++ {
				ret = append(ret, lane)
			}
		case MOVEMENT_THRU:
			for lane := 1; lane <= fromLanes; lane++ {
				ret = append(ret, lane)
			}
		}
		return ret
	}
	// Marks are listed from left to right
	for i := len(turnLanes) - 1; i >= 0; i-- {
		if hasMovementMark(turnLanes[i], movement) {
			ret = append(ret, fromLanes-i)
		}
	}
	return ret
}

// connectLanes evaluates lanes range for connector between two links.
// Right and through connectors start from the rightmost eligible lane, left connectors end at the leftmost one.
// Number of connected lanes is bounded by destination lanes
func connectLanes(movement MovementType, turnLanes [][]string, tagged bool, fromLanes, toLanes int) (laneConnection, bool) {
	lanes := eligibleLanes(movement, turnLanes, tagged, fromLanes)
	if len(lanes) == 0 || toLanes <= 0 {
		return laneConnection{}, false
	}
	// Keep contiguous block only
	if movement == MOVEMENT_LEFT {
		end := lanes[len(lanes)-1]
		start := end
		for i := len(lanes) - 2; i >= 0 && lanes[i] == start-1; i-- {
			start = lanes[i]
		}
		cnt := min(end-start+1, toLanes)
		return laneConnection{
			fromLane: end - cnt + 1,
			toLane:   toLanes - cnt + 1,
			lanes:    cnt,
		}, true
	}
	start := lanes[0]
	end := start
	for i := 1; i < len(lanes) && lanes[i] == end+1; i++ {
		end = lanes[i]
	}
	cnt := min(end-start+1, toLanes)
	return laneConnection{
		fromLane: start,
		toLane:   1,
		lanes:    cnt,
	}, true
}
