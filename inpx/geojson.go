package inpx

import (
	"os"
	"strconv"

	"github.com/LdDl/osm2vissim"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"

	geojson "github.com/paulmach/go.geojson"
)

// FeatureCollection converts every link (and connector) into GeoJSON feature with WGS84 coordinates
func (d *Document) FeatureCollection() (*geojson.FeatureCollection, error) {
	mapX, mapY, netX, netY, err := d.Reference()
	if err != nil {
		return nil, errors.Wrap(err, "Can't get reference point")
	}
	projection := osm2vissim.ProjectionFromReference(mapX, mapY)
	scale := projection.Scale()

	fc := geojson.NewFeatureCollection()
	for _, link := range d.linksElement().SelectElements("link") {
		points, err := linkPoints(link)
		if err != nil {
			return nil, err
		}
		coords := make([][]float64, len(points))
		for i, pt := range points {
			geo := projection.ToGeographic(orb.Point{pt.X - netX/scale, pt.Y - netY/scale})
			coords[i] = []float64{geo.Lon, geo.Lat}
		}
		feature := geojson.NewLineStringFeature(coords)
		if no, err := strconv.Atoi(link.SelectAttrValue("no", "")); err == nil {
			feature.ID = no
		}
		feature.SetProperty("name", link.SelectAttrValue("name", ""))
		feature.SetProperty("lanes", len(link.FindElements("./lanes/lane")))
		feature.SetProperty("connector", link.SelectElement("fromLinkEndPt") != nil)
		fc.AddFeature(feature)
	}
	return fc, nil
}

// ExportGeoJSON writes links as GeoJSON FeatureCollection
func (d *Document) ExportGeoJSON(filename string) error {
	fc, err := d.FeatureCollection()
	if err != nil {
		return err
	}
	b, err := fc.MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "Can't marshal GeoJSON")
	}
	if err := os.WriteFile(filename, b, 0644); err != nil {
		return errors.Wrapf(err, "Can't write file '%s'", filename)
	}
	return nil
}
