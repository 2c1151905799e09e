package osm2vissim

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/paulmach/orb/geo"
	"github.com/pkg/errors"
)

// GeoLine returns link geometry in geographic coordinates
func (net *Network) GeoLine(id SegmentID) []GeoPoint {
	geom, ok := net.Geometries[id]
	if !ok {
		return nil
	}
	pts := make([]GeoPoint, len(geom.Line))
	for i, pt := range geom.Line {
		pts[i] = net.projection.ToGeographic(pt)
	}
	return pts
}

func prepareGeometry(pts []GeoPoint, geomFormat string) (string, error) {
	if strings.ToLower(geomFormat) == "geojson" {
		return PrepareGeoJSONLinestring(pts)
	}
	return PrepareWKTLinestring(pts), nil
}

func preparePointGeometry(pt GeoPoint, geomFormat string) (string, error) {
	if strings.ToLower(geomFormat) == "geojson" {
		return PrepareGeoJSONPoint(pt)
	}
	return PrepareWKTPoint(pt), nil
}

func newCSVFile(fname string) (*os.File, *csv.Writer, error) {
	file, err := os.Create(fname)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "Can't create file '%s'", fname)
	}
	writer := csv.NewWriter(file)
	writer.Comma = ';'
	return file, writer, nil
}

// ExportToCSV writes links, turns and intersections of the network.
// E.g.: if file name is 'map.csv' then 3 files will be produced: 'map_links.csv', 'map_turns.csv', 'map_intersections.csv'
func (net *Network) ExportToCSV(fname, geomFormat string) error {
	base := strings.TrimSuffix(fname, ".csv")
	if err := net.exportLinks(base+"_links.csv", geomFormat); err != nil {
		return errors.Wrap(err, "Can't export links")
	}
	if err := net.exportTurns(base + "_turns.csv"); err != nil {
		return errors.Wrap(err, "Can't export turns")
	}
	if err := net.exportIntersections(base+"_intersections.csv", geomFormat); err != nil {
		return errors.Wrap(err, "Can't export intersections")
	}
	return nil
}

func (net *Network) exportLinks(fname, geomFormat string) error {
	file, writer, err := newCSVFile(fname)
	if err != nil {
		return err
	}
	defer file.Close()
	defer writer.Flush()

	err = writer.Write([]string{"segment_id", "way_id", "osm_way_id", "direction", "lanes", "offset", "length_meters", "geo_length_meters", "geom"})
	if err != nil {
		return err
	}
	for _, id := range net.SegmentIDs() {
		seg := net.Segments[id]
		geom := net.Geometries[id]
		pts := net.GeoLine(id)
		geomStr, err := prepareGeometry(pts, geomFormat)
		if err != nil {
			return err
		}
		err = writer.Write([]string{
			string(id),
			string(seg.WayID),
			fmt.Sprintf("%d", seg.OSMWayID),
			seg.Direction.String(),
			fmt.Sprintf("%d", geom.Lanes),
			fmt.Sprintf("%f", seg.Offset),
			fmt.Sprintf("%f", geom.Length()),
			fmt.Sprintf("%f", geo.Length(geoLineString(pts))),
			geomStr,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (net *Network) exportTurns(fname string) error {
	file, writer, err := newCSVFile(fname)
	if err != nil {
		return err
	}
	defer file.Close()
	defer writer.Flush()

	err = writer.Write([]string{"from_segment_id", "to_segment_id", "movement"})
	if err != nil {
		return err
	}
	for _, id := range net.SegmentIDs() {
		turns := net.Geometries[id].Turns
		for _, movement := range movementsOrder {
			for _, dest := range turns[movement] {
				err = writer.Write([]string{string(id), string(dest), movement.String()})
				if err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (net *Network) exportIntersections(fname, geomFormat string) error {
	file, writer, err := newCSVFile(fname)
	if err != nil {
		return err
	}
	defer file.Close()
	defer writer.Flush()

	err = writer.Write([]string{"node_id", "legs", "geom"})
	if err != nil {
		return err
	}
	for _, id := range net.graph.NodeIDs() {
		inter, ok := net.Intersections[id]
		if !ok {
			continue
		}
		node, _ := net.graph.Node(id)
		geomStr, err := preparePointGeometry(node.Point, geomFormat)
		if err != nil {
			return err
		}
		err = writer.Write([]string{
			fmt.Sprintf("%d", id),
			fmt.Sprintf("%d", len(inter.Approaches)),
			geomStr,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
