package inpx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/LdDl/osm2vissim"
	"github.com/beevik/etree"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/pkg/errors"
)

// attr is single XML attribute. Slices of attrs keep attribute order stable in written files
type attr struct {
	key   string
	value string
}

var (
	linkDefaults = []attr{
		{"assumSpeedOncom", "60.00000"},
		{"costPerKm", "0.00000"},
		{"direction", "ALL"},
		{"displayType", "1"},
		{"emergStopDist", "5.00000"},
		{"gradient", "0.00000"},
		{"hasOvtLn", "false"},
		{"isPedArea", "false"},
		{"level", "1"},
		{"linkBehavType", "1"},
		{"linkEvalAct", "false"},
		{"linkEvalSegLen", "10.00000"},
		{"lnChgDist", "200.00000"},
		{"lnChgEvalAct", "true"},
		{"lookAheadDistOvt", "250.00000"},
		{"mesoFollowUpGap", "0.00000"},
		{"mesoSpeed", "50.00000"},
		{"mesoSpeedModel", "VEHICLEBASED"},
		{"ovtOnlyPT", "false"},
		{"ovtSpeedFact", "1.300000"},
		{"showClsfValues", "true"},
		{"showLinkBar", "true"},
		{"showVeh", "true"},
		{"surch1", "0.00000"},
		{"surch2", "0.00000"},
		{"thickness", "0.00000"},
		{"vehRecAct", "true"},
	}

	netParaDefaults = []attr{
		{"concatMaxLen", "255"},
		{"concatSeparator", ","},
		{"leftHandTraffic", "false"},
		{"northDir", "0"},
		{"unitAccel", "METRIC"},
		{"unitLenLong", "METRIC"},
		{"unitLenShort", "METRIC"},
		{"unitLenVeryShort", "METRIC"},
		{"unitSpeed", "METRIC"},
		{"unitSpeedSmall", "METRIC"},
		{"useGradFromZCoord", "false"},
	}
)

// Document is VISSIM network file (*.inpx) kept as XML tree.
// Links and connectors are both <link> elements, connectors carry <fromLinkEndPt> and <toLinkEndPt>
type Document struct {
	doc     *etree.Document
	network *etree.Element

	links    map[osm2vissim.LinkHandle]*etree.Element
	byName   map[string]osm2vissim.LinkHandle
	nextLink int
	nextStop int
}

// New returns empty network
func New() *Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	network := doc.CreateElement("network")
	network.CreateAttr("version", "8")
	network.CreateElement("links")
	return &Document{
		doc:      doc,
		network:  network,
		links:    make(map[osm2vissim.LinkHandle]*etree.Element),
		byName:   make(map[string]osm2vissim.LinkHandle),
		nextLink: 1,
		nextStop: 1,
	}
}

// Load reads existing network. New links are numbered after existing ones
func Load(filename string) (*Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(filename); err != nil {
		return nil, errors.Wrapf(err, "Can't read file '%s'", filename)
	}
	return fromDocument(doc)
}

// LoadString reads network from given XML text
func LoadString(text string) (*Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(text); err != nil {
		return nil, errors.Wrap(err, "Can't parse network")
	}
	return fromDocument(doc)
}

func fromDocument(doc *etree.Document) (*Document, error) {
	network := doc.SelectElement("network")
	if network == nil {
		return nil, fmt.Errorf("No <network> element")
	}
	d := &Document{
		doc:      doc,
		network:  network,
		links:    make(map[osm2vissim.LinkHandle]*etree.Element),
		byName:   make(map[string]osm2vissim.LinkHandle),
		nextLink: 1,
		nextStop: 1,
	}
	links := network.SelectElement("links")
	if links == nil {
		links = network.CreateElement("links")
	}
	for _, link := range links.SelectElements("link") {
		no, err := strconv.Atoi(link.SelectAttrValue("no", ""))
		if err != nil {
			return nil, errors.Wrap(err, "Can't parse link number")
		}
		handle := osm2vissim.LinkHandle(no)
		d.links[handle] = link
		name := link.SelectAttrValue("name", "")
		if _, taken := d.byName[name]; name != "" && !taken && link.SelectElement("fromLinkEndPt") == nil {
			d.byName[name] = handle
		}
		if no >= d.nextLink {
			d.nextLink = no + 1
		}
	}
	if stops := network.SelectElement("publicTransportStops"); stops != nil {
		for _, stop := range stops.SelectElements("publicTransportStop") {
			no, err := strconv.Atoi(stop.SelectAttrValue("no", ""))
			if err != nil {
				return nil, errors.Wrap(err, "Can't parse transit stop number")
			}
			if no >= d.nextStop {
				d.nextStop = no + 1
			}
		}
	}
	return d, nil
}

// SetReference stores Mercator coordinates of the point local coordinates are measured from
func (d *Document) SetReference(x, y float64) error {
	netPara := d.network.SelectElement("netPara")
	if netPara == nil {
		netPara = d.network.CreateElement("netPara")
		for _, a := range netParaDefaults {
			netPara.CreateAttr(a.key, a.value)
		}
	}
	for _, tag := range []string{"refPointMap", "refPointNet"} {
		for _, old := range netPara.SelectElements(tag) {
			netPara.RemoveChild(old)
		}
	}
	refMap := netPara.CreateElement("refPointMap")
	refMap.CreateAttr("x", formatFloat(x))
	refMap.CreateAttr("y", formatFloat(y))
	refNet := netPara.CreateElement("refPointNet")
	refNet.CreateAttr("x", "0")
	refNet.CreateAttr("y", "0")
	return nil
}

// Reference returns map reference point and network point it corresponds to
func (d *Document) Reference() (mapX, mapY, netX, netY float64, err error) {
	netPara := d.network.SelectElement("netPara")
	if netPara == nil {
		return 0, 0, 0, 0, fmt.Errorf("No <netPara> element")
	}
	refMap := netPara.SelectElement("refPointMap")
	if refMap == nil {
		return 0, 0, 0, 0, fmt.Errorf("No <refPointMap> element")
	}
	if mapX, err = floatAttr(refMap, "x"); err != nil {
		return 0, 0, 0, 0, err
	}
	if mapY, err = floatAttr(refMap, "y"); err != nil {
		return 0, 0, 0, 0, err
	}
	if refNet := netPara.SelectElement("refPointNet"); refNet != nil {
		if netX, err = floatAttr(refNet, "x"); err != nil {
			return 0, 0, 0, 0, err
		}
		if netY, err = floatAttr(refNet, "y"); err != nil {
			return 0, 0, 0, 0, err
		}
	}
	return mapX, mapY, netX, netY, nil
}

func (d *Document) linksElement() *etree.Element {
	links := d.network.SelectElement("links")
	if links == nil {
		links = d.network.CreateElement("links")
	}
	return links
}

func (d *Document) newLink(name string) (osm2vissim.LinkHandle, *etree.Element) {
	handle := osm2vissim.LinkHandle(d.nextLink)
	d.nextLink++
	link := d.linksElement().CreateElement("link")
	for _, a := range linkDefaults {
		link.CreateAttr(a.key, a.value)
	}
	link.CreateAttr("name", name)
	link.CreateAttr("no", strconv.Itoa(int(handle)))
	d.links[handle] = link
	return handle, link
}

func setGeometry(link *etree.Element, points []osm2vissim.Point3D) {
	points3D := link.CreateElement("geometry").CreateElement("points3D")
	for _, pt := range points {
		el := points3D.CreateElement("point3D")
		el.CreateAttr("x", formatFloat(pt.X))
		el.CreateAttr("y", formatFloat(pt.Y))
		el.CreateAttr("zOffset", formatFloat(pt.Z))
	}
}

// CreateLink appends link with given geometry and lanes (widths from the rightmost lane)
func (d *Document) CreateLink(points []osm2vissim.Point3D, laneWidths []float64, name string) (osm2vissim.LinkHandle, error) {
	if len(points) < 2 {
		return 0, fmt.Errorf("Link '%s' must have at least 2 points. Got %d", name, len(points))
	}
	if len(laneWidths) == 0 {
		return 0, fmt.Errorf("Link '%s' must have at least 1 lane", name)
	}
	handle, link := d.newLink(name)
	setGeometry(link, points)
	lanes := link.CreateElement("lanes")
	for _, width := range laneWidths {
		lanes.CreateElement("lane").CreateAttr("width", formatFloat(width))
	}
	// Links of this run take over names of links loaded from base network
	if name != "" {
		d.byName[name] = handle
	}
	return handle, nil
}

// CreateConnector joins end of `from` link to beginning of `to` link.
// Lanes are numbered from 1 (the rightmost lane); `lanes` neighboring lanes starting from fromLane/toLane are connected
func (d *Document) CreateConnector(from osm2vissim.LinkHandle, fromLane int, to osm2vissim.LinkHandle, toLane int, lanes int) (osm2vissim.LinkHandle, error) {
	fromLanes, err := d.LaneCount(from)
	if err != nil {
		return 0, err
	}
	toLanes, err := d.LaneCount(to)
	if err != nil {
		return 0, err
	}
	if lanes <= 0 || lanes > fromLanes || lanes > toLanes {
		return 0, fmt.Errorf("Number of lanes %d exceeds number of from/to lanes (%d/%d)", lanes, fromLanes, toLanes)
	}
	if fromLane < 1 || fromLane+lanes-1 > fromLanes {
		return 0, fmt.Errorf("From lane %d (+%d) is out of range of link '%d' with %d lanes", fromLane, lanes, from, fromLanes)
	}
	if toLane < 1 || toLane+lanes-1 > toLanes {
		return 0, fmt.Errorf("To lane %d (+%d) is out of range of link '%d' with %d lanes", toLane, lanes, to, toLanes)
	}
	fromPoints, err := d.LinkPoints(from)
	if err != nil {
		return 0, err
	}
	toPoints, err := d.LinkPoints(to)
	if err != nil {
		return 0, err
	}
	fromLength, err := d.LinkLength(from)
	if err != nil {
		return 0, err
	}

	handle, link := d.newLink("")
	fromPt := link.CreateElement("fromLinkEndPt")
	fromPt.CreateAttr("lane", fmt.Sprintf("%d %d", from, fromLane))
	fromPt.CreateAttr("pos", formatFloat(fromLength))
	setGeometry(link, []osm2vissim.Point3D{fromPoints[len(fromPoints)-1], toPoints[0]})
	lanesEl := link.CreateElement("lanes")
	for i := 0; i < lanes; i++ {
		lanesEl.CreateElement("lane")
	}
	toPt := link.CreateElement("toLinkEndPt")
	toPt.CreateAttr("lane", fmt.Sprintf("%d %d", to, toLane))
	toPt.CreateAttr("pos", formatFloat(0))
	return handle, nil
}

// LookupLinkByName returns link (not connector) with given name. Created links win over loaded ones
func (d *Document) LookupLinkByName(name string) (osm2vissim.LinkHandle, bool) {
	handle, ok := d.byName[name]
	return handle, ok
}

func (d *Document) link(handle osm2vissim.LinkHandle) (*etree.Element, error) {
	link, ok := d.links[handle]
	if !ok {
		return nil, fmt.Errorf("No such link '%d'", handle)
	}
	return link, nil
}

// LaneCount returns number of lanes of link
func (d *Document) LaneCount(handle osm2vissim.LinkHandle) (int, error) {
	link, err := d.link(handle)
	if err != nil {
		return 0, err
	}
	return len(link.FindElements("./lanes/lane")), nil
}

// LinkPoints returns geometry of link
func (d *Document) LinkPoints(handle osm2vissim.LinkHandle) ([]osm2vissim.Point3D, error) {
	link, err := d.link(handle)
	if err != nil {
		return nil, err
	}
	return linkPoints(link)
}

func linkPoints(link *etree.Element) ([]osm2vissim.Point3D, error) {
	elements := link.FindElements("./geometry/points3D/point3D")
	points := make([]osm2vissim.Point3D, 0, len(elements))
	for _, el := range elements {
		x, err := floatAttr(el, "x")
		if err != nil {
			return nil, err
		}
		y, err := floatAttr(el, "y")
		if err != nil {
			return nil, err
		}
		z := 0.0
		if el.SelectAttr("zOffset") != nil {
			if z, err = floatAttr(el, "zOffset"); err != nil {
				return nil, err
			}
		}
		points = append(points, osm2vissim.Point3D{X: x, Y: y, Z: z})
	}
	return points, nil
}

// LinkLength returns planar length of link (meters)
func (d *Document) LinkLength(handle osm2vissim.LinkHandle) (float64, error) {
	points, err := d.LinkPoints(handle)
	if err != nil {
		return 0, err
	}
	line := make(orb.LineString, len(points))
	for i, pt := range points {
		line[i] = orb.Point{pt.X, pt.Y}
	}
	return planar.Length(line), nil
}

// CreateTransitStop places public transport stop on given lane of link
func (d *Document) CreateTransitStop(handle osm2vissim.LinkHandle, lane int, pos, length float64, name string) (int, error) {
	lanes, err := d.LaneCount(handle)
	if err != nil {
		return 0, err
	}
	if lane < 1 || lane > lanes {
		return 0, fmt.Errorf("Lane %d is out of range of link '%d' with %d lanes", lane, handle, lanes)
	}
	if pos < 0 || length <= 0 {
		return 0, fmt.Errorf("Transit stop '%s' must have non-negative position and positive length. Got %f and %f", name, pos, length)
	}
	stops := d.network.SelectElement("publicTransportStops")
	if stops == nil {
		stops = d.network.CreateElement("publicTransportStops")
	}
	no := d.nextStop
	d.nextStop++
	stop := stops.CreateElement("publicTransportStop")
	stop.CreateAttr("lane", fmt.Sprintf("%d %d", handle, lane))
	stop.CreateAttr("length", formatFloat(length))
	stop.CreateAttr("name", name)
	stop.CreateAttr("no", strconv.Itoa(no))
	stop.CreateAttr("pos", formatFloat(pos))
	return no, nil
}

// WriteToFile writes indented XML
func (d *Document) WriteToFile(filename string) error {
	d.doc.Indent(2)
	if err := d.doc.WriteToFile(filename); err != nil {
		return errors.Wrapf(err, "Can't write file '%s'", filename)
	}
	return nil
}

// WriteToString returns indented XML
func (d *Document) WriteToString() (string, error) {
	d.doc.Indent(2)
	return d.doc.WriteToString()
}

func floatAttr(el *etree.Element, key string) (float64, error) {
	text := strings.TrimSpace(el.SelectAttrValue(key, ""))
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "Can't parse attribute '%s' of <%s>", key, el.Tag)
	}
	return value, nil
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', 5, 64)
}
