package osm2vissim

import (
	"fmt"
	"strings"
	"testing"
)

func Round(x, unit float64) float64 {
	if x > 0 {
		return float64(int64(x/unit+0.5)) * unit
	}
	return float64(int64(x/unit-0.5)) * unit
}

type testNode struct {
	id   int64
	lat  float64
	lon  float64
	tags map[string]string
}

type testWay struct {
	id    int64
	nodes []int64
	tags  map[string]string
}

// osmXML renders minimal OSM XML document
func osmXML(nodes []testNode, ways []testWay) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	sb.WriteString(`<osm version="0.6">` + "\n")
	for _, n := range nodes {
		if len(n.tags) == 0 {
			sb.WriteString(fmt.Sprintf(`<node id="%d" lat="%.7f" lon="%.7f"/>`+"\n", n.id, n.lat, n.lon))
			continue
		}
		sb.WriteString(fmt.Sprintf(`<node id="%d" lat="%.7f" lon="%.7f">`+"\n", n.id, n.lat, n.lon))
		for k, v := range n.tags {
			sb.WriteString(fmt.Sprintf(`<tag k="%s" v="%s"/>`+"\n", k, v))
		}
		sb.WriteString("</node>\n")
	}
	for _, w := range ways {
		sb.WriteString(fmt.Sprintf(`<way id="%d">`+"\n", w.id))
		for _, ref := range w.nodes {
			sb.WriteString(fmt.Sprintf(`<nd ref="%d"/>`+"\n", ref))
		}
		for k, v := range w.tags {
			sb.WriteString(fmt.Sprintf(`<tag k="%s" v="%s"/>`+"\n", k, v))
		}
		sb.WriteString("</way>\n")
	}
	sb.WriteString("</osm>\n")
	return sb.String()
}

func readTestGraph(t *testing.T, nodes []testNode, ways []testWay, options ...func(*Parser)) (*Parser, *Graph) {
	t.Helper()
	parser := NewParser("test.osm", options...)
	graph, err := parser.ReadGraphFrom(strings.NewReader(osmXML(nodes, ways)), FORMAT_XML)
	if err != nil {
		t.Fatalf("Can't read graph: %s", err.Error())
	}
	return parser, graph
}

func compileTestNetwork(t *testing.T, nodes []testNode, ways []testWay, options ...func(*Parser)) *Network {
	t.Helper()
	parser, graph := readTestGraph(t, nodes, ways, options...)
	network, err := parser.Compile(graph)
	if err != nil {
		t.Fatalf("Can't compile network: %s", err.Error())
	}
	return network
}

// eastChain returns nodes with given identifiers placed eastward every 0.001 degree
func eastChain(ids ...int64) []testNode {
	nodes := make([]testNode, len(ids))
	for i, id := range ids {
		nodes[i] = testNode{id: id, lat: 55.75, lon: 37.6 + 0.001*float64(i)}
	}
	return nodes
}

type recordedLink struct {
	points     []Point3D
	laneWidths []float64
	name       string
}

type recordedConnector struct {
	from     LinkHandle
	fromLane int
	to       LinkHandle
	toLane   int
	lanes    int
}

type recordedStop struct {
	link   LinkHandle
	lane   int
	pos    float64
	length float64
	name   string
}

// recorderModel is in-memory NetworkModel which keeps every call
type recorderModel struct {
	links      []recordedLink
	names      map[string]LinkHandle
	connectors []recordedConnector
	stops      []recordedStop
	refX, refY float64
	hasRef     bool
}

func newRecorderModel() *recorderModel {
	return &recorderModel{
		names: make(map[string]LinkHandle),
	}
}

func (m *recorderModel) CreateLink(points []Point3D, laneWidths []float64, name string) (LinkHandle, error) {
	m.links = append(m.links, recordedLink{points: points, laneWidths: laneWidths, name: name})
	handle := LinkHandle(len(m.links))
	m.names[name] = handle
	return handle, nil
}

func (m *recorderModel) CreateConnector(from LinkHandle, fromLane int, to LinkHandle, toLane int, lanes int) (LinkHandle, error) {
	m.connectors = append(m.connectors, recordedConnector{from: from, fromLane: fromLane, to: to, toLane: toLane, lanes: lanes})
	return LinkHandle(10000 + len(m.connectors)), nil
}

func (m *recorderModel) LookupLinkByName(name string) (LinkHandle, bool) {
	handle, ok := m.names[name]
	return handle, ok
}

func (m *recorderModel) LaneCount(link LinkHandle) (int, error) {
	if link < 1 || int(link) > len(m.links) {
		return 0, fmt.Errorf("No such link '%d'", link)
	}
	return len(m.links[link-1].laneWidths), nil
}

func (m *recorderModel) SetReference(x, y float64) error {
	m.refX, m.refY, m.hasRef = x, y, true
	return nil
}

func (m *recorderModel) CreateTransitStop(link LinkHandle, lane int, pos, length float64, name string) (int, error) {
	m.stops = append(m.stops, recordedStop{link: link, lane: lane, pos: pos, length: length, name: name})
	return len(m.stops), nil
}
