package osm2vissim

import (
	"github.com/paulmach/osm"
)

type Node struct {
	ID     osm.NodeID
	Point  GeoPoint
	TagMap osm.Tags

	// Number of ways node is used by. Used for splitting ways
	useCount int
}

func newNode(node *osm.Node) *Node {
	tags := make(osm.Tags, len(node.Tags))
	copy(tags, node.Tags)
	return &Node{
		ID:     node.ID,
		Point:  GeoPoint{Lat: node.Lat, Lon: node.Lon},
		TagMap: tags,
	}
}
