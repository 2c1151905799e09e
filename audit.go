package osm2vissim

import (
	"time"

	"github.com/LdDl/ch"
	"github.com/pkg/errors"
)

// ReachabilityReport lists entry segments (no turns lead into them) which can't reach any exit segment (no turns lead out of them)
type ReachabilityReport struct {
	Entries     int
	Exits       int
	Unreachable []SegmentID
}

// AuditReachability checks connectivity of compiled network via contraction hierarchies.
// Segments are vertices, turns are edges weighted by length of destination link
func (net *Network) AuditReachability() (*ReachabilityReport, error) {
	sugar := net.logger.Sugar()
	sugar.Infof("Auditing reachability...")
	st := time.Now()

	order := net.SegmentIDs()
	if len(order) == 0 {
		return &ReachabilityReport{Unreachable: []SegmentID{}}, nil
	}
	vertices := make(map[SegmentID]int64, len(order))
	for i, id := range order {
		vertices[id] = int64(i)
	}
	incoming := make(map[SegmentID]int, len(order))
	graph := ch.Graph{}
	for _, id := range order {
		if err := graph.CreateVertex(vertices[id]); err != nil {
			return nil, errors.Wrapf(err, "Can't create vertex for segment '%s'", id)
		}
	}
	for _, id := range order {
		for _, movement := range movementsOrder {
			for _, dest := range net.Geometries[id].Turns[movement] {
				target, ok := vertices[dest]
				if !ok {
					continue
				}
				if err := graph.AddEdge(vertices[id], target, net.Geometries[dest].Length()); err != nil {
					return nil, errors.Wrapf(err, "Can't add edge from '%s' to '%s'", id, dest)
				}
				incoming[dest]++
			}
		}
	}
	graph.PrepareContractionHierarchies()

	entries, exits := []SegmentID{}, []SegmentID{}
	for _, id := range order {
		isEntry := incoming[id] == 0
		isExit := net.Geometries[id].Turns.Len() == 0
		// Isolated segment is entry and exit at once
		if isEntry && isExit {
			continue
		}
		if isEntry {
			entries = append(entries, id)
		}
		if isExit {
			exits = append(exits, id)
		}
	}

	report := &ReachabilityReport{
		Entries:     len(entries),
		Exits:       len(exits),
		Unreachable: []SegmentID{},
	}
	for _, entry := range entries {
		reached := false
		for _, exit := range exits {
			cost, _ := graph.ShortestPath(vertices[entry], vertices[exit])
			if cost >= 0 {
				reached = true
				break
			}
		}
		if !reached {
			report.Unreachable = append(report.Unreachable, entry)
		}
	}
	sugar.Infof("Done in %v. Entries: %d. Exits: %d. Unreachable entries: %d", time.Since(st), report.Entries, report.Exits, len(report.Unreachable))
	for _, id := range report.Unreachable {
		sugar.Warnf("Segment '%s' can't reach any exit", id)
	}
	return report, nil
}
