package osm2vissim

import (
	"github.com/paulmach/osm"
)

type segmenterState uint16

const (
	STATE_ACCUMULATING = segmenterState(iota + 1)
	STATE_AT_INTERSECTION
	STATE_AT_BOUNDARY
)

func (iotaIdx segmenterState) String() string {
	return [...]string{"accumulating", "at_intersection", "at_boundary"}[iotaIdx-1]
}

// runPart is node list of single way inside run
type runPart struct {
	wayID WayID
	nodes []osm.NodeID
}

// wayRun is sequence of way pieces between two intersections (or graph boundaries)
type wayRun []runPart

type segmenter struct {
	graph   *Graph
	visited map[edgeKey]struct{}
	runs    []wayRun
}

// segmentGraph traverses primary edges depth-first and splits them into runs.
// Every primary edge belongs to exactly one run
func segmentGraph(graph *Graph) []wayRun {
	s := &segmenter{
		graph:   graph,
		visited: make(map[edgeKey]struct{}),
	}
	for _, start := range graph.StartNodes() {
		s.traverse(start)
	}
	// Loops and ways which can't be reached from any boundary node
	for {
		seed, ok := s.nextSeed()
		if !ok {
			break
		}
		s.traverse(seed)
	}
	return s.runs
}

func (s *segmenter) traverse(start osm.NodeID) {
	stack := []osm.NodeID{start}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		edge := s.nextEdge(n, "")
		if edge == nil {
			stack = stack[:len(stack)-1]
			continue
		}
		run, end := s.follow(edge)
		s.runs = append(s.runs, run)
		stack = append(stack, end)
	}
}

// follow accumulates nodes starting from given edge until intersection or dead end is reached
func (s *segmenter) follow(edge *Edge) (wayRun, osm.NodeID) {
	run := wayRun{}
	part := runPart{wayID: edge.WayID, nodes: []osm.NodeID{edge.Source}}
	state := STATE_ACCUMULATING
	for state == STATE_ACCUMULATING {
		s.visited[edgeKey{edge.Source, edge.Target}] = struct{}{}
		if edge.WayID != part.wayID {
			// New way begins without intersection
			run = append(run, part)
			part = runPart{wayID: edge.WayID, nodes: []osm.NodeID{edge.Source}}
		}
		part.nodes = append(part.nodes, edge.Target)
		if s.graph.IsIntersection(edge.Target) {
			state = STATE_AT_INTERSECTION
			continue
		}
		edge = s.nextEdge(edge.Target, part.wayID)
		if edge == nil {
			state = STATE_AT_BOUNDARY
		}
	}
	run = append(run, part)
	return run, part.nodes[len(part.nodes)-1]
}

// nextEdge returns unvisited primary edge leaving n. Edges of the given way are preferred
func (s *segmenter) nextEdge(n osm.NodeID, wayID WayID) *Edge {
	var found *Edge
	for _, edge := range s.graph.primaryOutgoing(n) {
		if _, ok := s.visited[edgeKey{edge.Source, edge.Target}]; ok {
			continue
		}
		if edge.WayID == wayID {
			return edge
		}
		if found == nil {
			found = edge
		}
	}
	return found
}

// nextSeed picks node to start traversal from when boundary nodes are exhausted.
// Preference: no unvisited incoming edges, then intersections, then anything else
func (s *segmenter) nextSeed() (osm.NodeID, bool) {
	bestRank := -1
	var best osm.NodeID
	for _, id := range s.graph.NodeIDs() {
		if s.nextEdge(id, "") == nil {
			continue
		}
		rank := 2
		if s.unvisitedIncoming(id) == 0 {
			rank = 0
		} else if s.graph.IsIntersection(id) {
			rank = 1
		}
		if bestRank == -1 || rank < bestRank {
			bestRank = rank
			best = id
			if rank == 0 {
				break
			}
		}
	}
	return best, bestRank != -1
}

func (s *segmenter) unvisitedIncoming(n osm.NodeID) int {
	cnt := 0
	for _, edge := range s.graph.primaryIncoming(n) {
		if _, ok := s.visited[edgeKey{edge.Source, edge.Target}]; !ok {
			cnt++
		}
	}
	return cnt
}
