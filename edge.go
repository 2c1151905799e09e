package osm2vissim

import (
	"github.com/paulmach/osm"
)

type Edge struct {
	WayID  WayID
	Source osm.NodeID
	Target osm.NodeID
	// Edge follows direction of travel of its way. Mirrored edges of two-way ways are not primary
	Primary bool
}

type edgeKey struct {
	source osm.NodeID
	target osm.NodeID
}
