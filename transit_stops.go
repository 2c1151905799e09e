package osm2vissim

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/tidwall/rtree"
)

// linkPiece is single straight piece of emitted link
type linkPiece struct {
	segmentID SegmentID
}

// linkIndex is spatial index over pieces of emitted links (planar meters)
type linkIndex struct {
	tree *rtree.RTreeG[linkPiece]
}

func newLinkIndex(geometries map[SegmentID]*LinkGeometry) *linkIndex {
	idx := &linkIndex{
		tree: &rtree.RTreeG[linkPiece]{},
	}
	for id, geom := range geometries {
		for i := 1; i < len(geom.Line); i++ {
			bound := orb.LineString{geom.Line[i-1], geom.Line[i]}.Bound()
			idx.tree.Insert(
				[2]float64{bound.Min.X(), bound.Min.Y()},
				[2]float64{bound.Max.X(), bound.Max.Y()},
				linkPiece{segmentID: id},
			)
		}
	}
	return idx
}

// near returns distinct segments which have at least one piece within radius of the point
func (idx *linkIndex) near(pt orb.Point, radius float64) []SegmentID {
	seen := make(map[SegmentID]struct{})
	ret := []SegmentID{}
	idx.tree.Search(
		[2]float64{pt.X() - radius, pt.Y() - radius},
		[2]float64{pt.X() + radius, pt.Y() + radius},
		func(min, max [2]float64, piece linkPiece) bool {
			if _, ok := seen[piece.segmentID]; !ok {
				seen[piece.segmentID] = struct{}{}
				ret = append(ret, piece.segmentID)
			}
			return true
		},
	)
	return ret
}

// transitStopName returns identifier of stop: `asset_ref`, then `ref`, then `name`
func transitStopName(node *Node) string {
	for _, key := range []string{"asset_ref", "ref", "name"} {
		if value := node.TagMap.Find(key); value != "" {
			return value
		}
	}
	return ""
}

// emitTransitStops snaps every bus stop to the nearest link and creates stop on its rightmost lane.
// Returns number of created and skipped stops
func (net *Network) emitTransitStops(creator TransitStopCreator, links map[SegmentID]LinkHandle) (int, int, error) {
	sugar := net.logger.Sugar()
	idx := newLinkIndex(net.Geometries)
	created, skipped := 0, 0
	for _, node := range net.graph.transitStops {
		name := transitStopName(node)
		if name == "" {
			sugar.Warnf("Transit stop has no identifier, it has been skipped. Node ID: '%d'", node.ID)
			skipped++
			continue
		}
		pt, err := net.projection.ToPlanar(node.Point)
		if err != nil {
			sugar.Warnf("Can't project transit stop '%s': %s", name, err.Error())
			skipped++
			continue
		}
		var best SegmentID
		bestAlong, bestDist := 0.0, math.Inf(1)
		for _, id := range idx.near(pt, net.cfg.TransitStopRadius) {
			along, dist := projectOnLine(net.Geometries[id].Line, pt)
			if dist < bestDist || (dist == bestDist && id < best) {
				best, bestAlong, bestDist = id, along, dist
			}
		}
		if best == "" || bestDist > net.cfg.TransitStopRadius {
			sugar.Warnf("No link within %.1f m of transit stop '%s'. Node ID: '%d'", net.cfg.TransitStopRadius, name, node.ID)
			skipped++
			continue
		}
		pos, length := fitTransitStop(bestAlong, net.cfg.TransitStopLength, net.Geometries[best].Length())
		if _, err := creator.CreateTransitStop(links[best], 1, pos, length, name); err != nil {
			return created, skipped, errors.Wrapf(err, "Can't create transit stop '%s' on segment '%s'", name, best)
		}
		created++
	}
	return created, skipped, nil
}

// fitTransitStop keeps stop of given length inside the link
func fitTransitStop(pos, length, linkLength float64) (float64, float64) {
	if length > linkLength {
		length = linkLength
	}
	if pos+length > linkLength {
		pos = linkLength - length
	}
	if pos < 0 {
		pos = 0
	}
	return pos, length
}
