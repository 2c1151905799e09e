package osm2vissim

import (
	"fmt"
	"sort"

	"github.com/paulmach/osm"
)

// Graph is directed road graph. Two-way ways are represented by both directions
type Graph struct {
	nodes    map[osm.NodeID]*Node
	ways     map[WayID]*WayData
	outgoing map[osm.NodeID]map[osm.NodeID]*Edge
	incoming map[osm.NodeID]map[osm.NodeID]*Edge

	// First node of first inserted way. Used as default projection reference
	firstNode osm.NodeID
	hasFirst  bool

	transitStops []*Node
	// Number of edges which have been skipped since the same directed edge already exists
	duplicatedEdges int
}

func NewGraph() *Graph {
	return &Graph{
		nodes:    make(map[osm.NodeID]*Node),
		ways:     make(map[WayID]*WayData),
		outgoing: make(map[osm.NodeID]map[osm.NodeID]*Edge),
		incoming: make(map[osm.NodeID]map[osm.NodeID]*Edge),
	}
}

// AddNode registers node. Nodes without edges are ignored by every traversal
func (graph *Graph) AddNode(node *Node) {
	graph.nodes[node.ID] = node
}

// AddWay inserts edges of the way. Every referenced node must be added before
func (graph *Graph) AddWay(way *WayData) error {
	if len(way.Nodes) < 2 {
		return &LoadError{WayID: way.OSMID, Reason: fmt.Sprintf("way '%s' has less than 2 nodes", way.ID)}
	}
	for i, nodeID := range way.Nodes {
		if _, ok := graph.nodes[nodeID]; !ok {
			return &LoadError{WayID: way.OSMID, NodeID: nodeID, Reason: "no such node"}
		}
		if i > 0 && way.Nodes[i-1] == nodeID {
			return &LoadError{WayID: way.OSMID, NodeID: nodeID, Reason: "duplicated adjacent node reference"}
		}
	}
	if _, ok := graph.ways[way.ID]; ok {
		return &LoadError{WayID: way.OSMID, Reason: fmt.Sprintf("way '%s' has been added already", way.ID)}
	}
	graph.ways[way.ID] = way
	if !graph.hasFirst {
		graph.firstNode = way.Nodes[0]
		graph.hasFirst = true
	}
	for i := 1; i < len(way.Nodes); i++ {
		source, target := way.Nodes[i-1], way.Nodes[i]
		graph.addEdge(&Edge{WayID: way.ID, Source: source, Target: target, Primary: true})
		if !way.Oneway {
			graph.addEdge(&Edge{WayID: way.ID, Source: target, Target: source, Primary: false})
		}
	}
	return nil
}

func (graph *Graph) addEdge(edge *Edge) {
	if _, ok := graph.outgoing[edge.Source][edge.Target]; ok {
		graph.duplicatedEdges++
		return
	}
	if _, ok := graph.outgoing[edge.Source]; !ok {
		graph.outgoing[edge.Source] = make(map[osm.NodeID]*Edge)
	}
	if _, ok := graph.incoming[edge.Target]; !ok {
		graph.incoming[edge.Target] = make(map[osm.NodeID]*Edge)
	}
	graph.outgoing[edge.Source][edge.Target] = edge
	graph.incoming[edge.Target][edge.Source] = edge
}

// Node returns node by its identifier
func (graph *Graph) Node(id osm.NodeID) (*Node, bool) {
	node, ok := graph.nodes[id]
	return node, ok
}

// Way returns way by its identifier
func (graph *Graph) Way(id WayID) (*WayData, bool) {
	way, ok := graph.ways[id]
	return way, ok
}

// WaysNum returns number of ways in graph
func (graph *Graph) WaysNum() int {
	return len(graph.ways)
}

// Edge returns directed edge (u, v)
func (graph *Graph) Edge(u, v osm.NodeID) (*Edge, bool) {
	edge, ok := graph.outgoing[u][v]
	return edge, ok
}

// EdgeTags returns tags of the way which owns directed edge (u, v)
func (graph *Graph) EdgeTags(u, v osm.NodeID) (osm.Tags, bool) {
	edge, ok := graph.outgoing[u][v]
	if !ok {
		return nil, false
	}
	return graph.ways[edge.WayID].TagMap, true
}

// Successors returns sorted targets of outgoing edges
func (graph *Graph) Successors(n osm.NodeID) []osm.NodeID {
	return sortedKeys(graph.outgoing[n])
}

// Predecessors returns sorted sources of incoming edges
func (graph *Graph) Predecessors(n osm.NodeID) []osm.NodeID {
	return sortedKeys(graph.incoming[n])
}

// Neighbors returns sorted distinct successors and predecessors
func (graph *Graph) Neighbors(n osm.NodeID) []osm.NodeID {
	seen := make(map[osm.NodeID]*Edge, len(graph.outgoing[n])+len(graph.incoming[n]))
	for id, edge := range graph.outgoing[n] {
		seen[id] = edge
	}
	for id, edge := range graph.incoming[n] {
		seen[id] = edge
	}
	return sortedKeys(seen)
}

// NodeIDs returns sorted identifiers of nodes which have at least one edge
func (graph *Graph) NodeIDs() []osm.NodeID {
	ids := make([]osm.NodeID, 0, len(graph.outgoing))
	for id := range graph.nodes {
		if len(graph.outgoing[id]) == 0 && len(graph.incoming[id]) == 0 {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// primaryOutgoing returns primary edges leaving n sorted by target
func (graph *Graph) primaryOutgoing(n osm.NodeID) []*Edge {
	return primaryEdges(graph.outgoing[n])
}

// primaryIncoming returns primary edges entering n sorted by source
func (graph *Graph) primaryIncoming(n osm.NodeID) []*Edge {
	return primaryEdges(graph.incoming[n])
}

func primaryEdges(edges map[osm.NodeID]*Edge) []*Edge {
	ret := make([]*Edge, 0, len(edges))
	for _, id := range sortedKeys(edges) {
		if edges[id].Primary {
			ret = append(ret, edges[id])
		}
	}
	return ret
}

func sortedKeys(edges map[osm.NodeID]*Edge) []osm.NodeID {
	ids := make([]osm.NodeID, 0, len(edges))
	for id := range edges {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
