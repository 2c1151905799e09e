package osm2vissim

import (
	"fmt"
	"sort"
	"time"

	"github.com/paulmach/osm"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Network is compiled road network: directed segments, their geometries and turns
type Network struct {
	graph      *Graph
	projection *Projection
	cfg        *Config
	logger     *zap.Logger

	Segments      map[SegmentID]*WaySegment
	Geometries    map[SegmentID]*LinkGeometry
	Intersections map[osm.NodeID]*Intersection

	// Ways (or segments) which have not been converted
	Failures []error
	// Turns which have been dropped since destination can't be resolved
	Warnings []error
}

// Projection returns projection network geometries are built in
func (net *Network) Projection() *Projection {
	return net.projection
}

// SegmentIDs returns sorted identifiers of segments which have geometry
func (net *Network) SegmentIDs() []SegmentID {
	ids := make([]SegmentID, 0, len(net.Geometries))
	for id := range net.Geometries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func compileNetwork(graph *Graph, cfg *Config, logger *zap.Logger) (*Network, error) {
	sugar := logger.Sugar()
	if cfg.LaneWidth <= 0 {
		return nil, fmt.Errorf("Lane width must be positive. Got %f", cfg.LaneWidth)
	}

	reference := cfg.Reference
	if reference == nil {
		first, ok := graph.Node(graph.firstNode)
		if !ok || !graph.hasFirst {
			return nil, ErrNoRoadWays
		}
		reference = &first.Point
	}
	projection, err := NewProjection(*reference)
	if err != nil {
		return nil, errors.Wrap(err, "Can't prepare projection")
	}

	net := &Network{
		graph:      graph,
		projection: projection,
		cfg:        cfg,
		logger:     logger,
		Segments:   make(map[SegmentID]*WaySegment),
		Geometries: make(map[SegmentID]*LinkGeometry),
	}

	sugar.Infof("Preparing segments...")
	st := time.Now()
	runs := segmentGraph(graph)
	for _, run := range runs {
		segments, failures := buildRunSegments(graph, run)
		net.Failures = append(net.Failures, failures...)
		for _, seg := range segments {
			if _, ok := net.Segments[seg.ID]; ok {
				// Way has been entered by several traversals
				seg.ID = uniqueSegmentID(net.Segments, seg.ID)
			}
			net.Segments[seg.ID] = seg
		}
	}
	sugar.Infof("Done in %v. Runs: %d. Segments: %d", time.Since(st), len(runs), len(net.Segments))

	sugar.Infof("Preparing geometries...")
	st = time.Now()
	a := newAnalyzer(graph, net.Segments, cfg.LaneWidth, logger)
	net.Intersections = a.intersections
	builder := newGeometryBuilder(graph, projection, a, cfg.LaneWidth)
	for _, id := range sortedSegmentIDs(net.Segments) {
		seg := net.Segments[id]
		geom, warnings, err := builder.build(seg)
		if err != nil {
			net.Failures = append(net.Failures, &WayError{WayID: seg.WayID, Err: err})
			continue
		}
		net.Warnings = append(net.Warnings, warnings...)
		net.Geometries[id] = geom
	}
	net.dropUnresolvedTurns()
	sugar.Infof("Done in %v. Intersections: %d. Geometries: %d", time.Since(st), len(net.Intersections), len(net.Geometries))

	for _, failure := range net.Failures {
		sugar.Warnf("Way has not been converted: %s", failure.Error())
	}
	return net, nil
}

// dropUnresolvedTurns removes destinations which have no geometry
func (net *Network) dropUnresolvedTurns() {
	for _, id := range net.SegmentIDs() {
		geom := net.Geometries[id]
		for _, movement := range movementsOrder {
			dests := geom.Turns[movement]
			if len(dests) == 0 {
				continue
			}
			kept := dests[:0]
			for _, dest := range dests {
				if _, ok := net.Geometries[dest]; !ok {
					net.Warnings = append(net.Warnings, errors.Wrapf(ErrAmbiguousTurn, "destination '%s' of %s turn from segment '%s' has no geometry", dest, movement, id))
					continue
				}
				kept = append(kept, dest)
			}
			if len(kept) == 0 {
				delete(geom.Turns, movement)
				continue
			}
			geom.Turns[movement] = kept
		}
	}
}

func uniqueSegmentID(segments map[SegmentID]*WaySegment, id SegmentID) SegmentID {
	for i := 1; ; i++ {
		candidate := SegmentID(fmt.Sprintf("%s#%d", id, i))
		if _, ok := segments[candidate]; !ok {
			return candidate
		}
	}
}

func sortedSegmentIDs(segments map[SegmentID]*WaySegment) []SegmentID {
	ids := make([]SegmentID, 0, len(segments))
	for id := range segments {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
