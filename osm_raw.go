package osm2vissim

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type OSMScanner interface {
	Scan() bool
	Close() error
	Err() error
	Object() osm.Object
}

type OSMFormat uint16

const (
	FORMAT_XML = OSMFormat(iota + 1)
	FORMAT_PBF
)

func (iotaIdx OSMFormat) String() string {
	return [...]string{"xml", "pbf"}[iotaIdx-1]
}

func formatByExtension(filename string) (OSMFormat, error) {
	ext := filepath.Ext(filename)
	switch strings.ToLower(ext) {
	case ".osm", ".xml":
		return FORMAT_XML, nil
	case ".pbf":
		return FORMAT_PBF, nil
	default:
		return 0, fmt.Errorf("File extension '%s' for file '%s' is not handled yet", ext, filename)
	}
}

func newScanner(r io.Reader, format OSMFormat) (OSMScanner, error) {
	switch format {
	case FORMAT_XML:
		return osmxml.New(context.Background(), r), nil
	case FORMAT_PBF:
		return osmpbf.New(context.Background(), r, 4), nil
	default:
		return nil, fmt.Errorf("OSM format '%d' is not handled yet", format)
	}
}

// ReadGraphFrom loads graph from stream of given format
func (parser *Parser) ReadGraphFrom(r io.Reader, format OSMFormat) (*Graph, error) {
	return readOSM(r, format, &parser.cfg, parser.logger)
}

func readOSM(r io.Reader, format OSMFormat, cfg *Config, logger *zap.Logger) (*Graph, error) {
	sugar := logger.Sugar()
	scanner, err := newScanner(r, format)
	if err != nil {
		return nil, err
	}
	defer scanner.Close()

	sugar.Infof("Processing OSM objects...")
	st := time.Now()
	nodes := make(map[osm.NodeID]*Node)
	ways := []*WayData{}
	transitCandidates := []osm.NodeID{}
	skippedWays := 0
	for scanner.Scan() {
		switch obj := scanner.Object().(type) {
		case *osm.Node:
			nodes[obj.ID] = newNode(obj)
			if _, ok := transitStopTags[obj.Tags.Find("highway")]; ok && cfg.TransitStops {
				transitCandidates = append(transitCandidates, obj.ID)
			}
		case *osm.Way:
			if !cfg.acceptsWay(obj.Tags.Find("highway")) {
				skippedWays++
				continue
			}
			nodeIDs := make([]osm.NodeID, 0, len(obj.Nodes))
			for _, wayNode := range obj.Nodes {
				nodeIDs = append(nodeIDs, wayNode.ID)
			}
			way := NewWayData(WayID(fmt.Sprintf("%d", obj.ID)), obj.ID, nodeIDs, obj.Tags)
			if onewayText, unhandled := way.unhandledOneway(); unhandled {
				if _, reversible := onewayReversible[onewayText]; !reversible {
					sugar.Warnf("Unhandled `oneway` tag value has been met: '%s'. Way ID: '%d'", onewayText, obj.ID)
				}
			}
			ways = append(ways, way)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "Can't scan OSM data")
	}
	sugar.Infof("Done in %v. Nodes: %d. Road ways: %d. Skipped ways: %d", time.Since(st), len(nodes), len(ways), skippedWays)

	graph, err := prepareGraph(nodes, ways, cfg, logger)
	if err != nil {
		return nil, err
	}
	for _, id := range transitCandidates {
		graph.transitStops = append(graph.transitStops, nodes[id])
	}
	return graph, nil
}

// prepareGraph validates ways, splits them at shared nodes and builds graph
func prepareGraph(nodes map[osm.NodeID]*Node, ways []*WayData, cfg *Config, logger *zap.Logger) (*Graph, error) {
	sugar := logger.Sugar()
	sugar.Infof("Preparing graph...")
	st := time.Now()

	valid := make([]*WayData, 0, len(ways))
	for _, way := range ways {
		for _, nodeID := range way.Nodes {
			if _, ok := nodes[nodeID]; !ok {
				return nil, &LoadError{WayID: way.OSMID, NodeID: nodeID, Reason: "no such node"}
			}
		}
		if removed := way.dedupAdjacent(); removed > 0 {
			if cfg.StrictMode {
				return nil, &LoadError{WayID: way.OSMID, Reason: "duplicated adjacent node references"}
			}
			sugar.Warnf("Way has %d duplicated adjacent node references, they have been collapsed. Way ID: '%d'", removed, way.OSMID)
		}
		if len(way.Nodes) < 2 {
			sugar.Warnf("Way has less than 2 nodes, it has been dropped. Way ID: '%d'", way.OSMID)
			continue
		}
		valid = append(valid, way)
	}
	if len(valid) == 0 {
		return nil, ErrNoRoadWays
	}

	for _, way := range valid {
		for _, nodeID := range way.Nodes {
			nodes[nodeID].useCount++
		}
	}

	fragments := make([]*WayData, 0, len(valid))
	for _, way := range valid {
		fragments = append(fragments, way.split(nodes)...)
	}

	graph := NewGraph()
	for _, way := range fragments {
		for _, nodeID := range way.Nodes {
			graph.AddNode(nodes[nodeID])
		}
	}
	// Stable insertion order: OSM identifier, then fragment index
	sort.SliceStable(fragments, func(i, j int) bool {
		return fragments[i].OSMID < fragments[j].OSMID
	})
	first := valid[0].Nodes[0]
	for _, way := range fragments {
		if err := graph.AddWay(way); err != nil {
			return nil, errors.Wrap(err, "Can't add way to graph")
		}
	}
	// First seen node of the source is the default projection reference
	graph.firstNode = first
	if graph.duplicatedEdges > 0 {
		sugar.Warnf("%d edges are shared by several ways, only first way has been used for each of them", graph.duplicatedEdges)
	}
	sugar.Infof("Done in %v. Ways after splitting: %d. Nodes: %d", time.Since(st), len(fragments), len(graph.NodeIDs()))
	return graph, nil
}
