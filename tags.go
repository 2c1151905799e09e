package osm2vissim

var (
	// Ways with those `highway` values are never imported regardless of configuration
	excludedHighwayTags = map[string]struct{}{
		"footway": {},
	}

	onewayYes = map[string]struct{}{
		"yes":  {},
		"true": {},
		"1":    {},
		"-1":   {},
	}

	onewayNo = map[string]struct{}{
		"no":    {},
		"false": {},
		"0":     {},
	}

	// See ref.: https://wiki.openstreetmap.org/wiki/Tag:oneway%3Dreversible
	onewayReversible = map[string]struct{}{
		"reversible":  {},
		"alternating": {},
	}

	junctionTypes = map[string]struct{}{
		"roundabout": {},
	}

	transitStopTags = map[string]struct{}{
		"bus_stop": {},
	}

	// Turn lane marks which are treated as `through`
	throughMarks = map[string]struct{}{
		"":               {},
		"none":           {},
		"through":        {},
		"merge_to_left":  {},
		"merge_to_right": {},
	}

	leftMarks = map[string]struct{}{
		"left":        {},
		"slight_left": {},
		"sharp_left":  {},
	}

	rightMarks = map[string]struct{}{
		"right":        {},
		"slight_right": {},
		"sharp_right":  {},
	}
)
