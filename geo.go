package osm2vissim

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

const (
	// Height/width in meters of the VISSIM map
	vissimExtent = 20015085.0
	pi180        = math.Pi / 180.0
	pi180Rev     = 180.0 / math.Pi
)

// GeoPoint representation of point on Earth
type GeoPoint struct {
	Lat float64
	Lon float64
}

// String returns pretty printed value for for GeoPoint
func (gp GeoPoint) String() string {
	return fmt.Sprintf("Lon: %f | Lat: %f", gp.Lon, gp.Lat)
}

// latLngToMeters is spherical Mercator with VISSIM map extent
func latLngToMeters(lat, lon float64) (float64, float64, error) {
	if math.Abs(lon) > 180 {
		return 0, 0, &DomainError{Lon: lon}
	}
	x := lon * vissimExtent / 180
	y := math.Log(math.Tan((90+lat)*math.Pi/360)) / pi180
	y = y * vissimExtent / 180
	return x, y, nil
}

// metersToLatLng is inverse of latLngToMeters
func metersToLatLng(x, y float64) (float64, float64) {
	lon := x * 180 / vissimExtent
	y = y * 180 / vissimExtent
	lat := math.Atan(math.Exp(y*pi180))*360/math.Pi - 90
	return lat, lon
}

// Projection converts geographic coordinates into locally flat meters around reference point
type Projection struct {
	reference  GeoPoint
	refX, refY float64
	// Mercator scale factor at reference latitude: 1/cos(lat)
	scale      float64
}

// NewProjection returns projection anchored at given point
func NewProjection(reference GeoPoint) (*Projection, error) {
	refX, refY, err := latLngToMeters(reference.Lat, reference.Lon)
	if err != nil {
		return nil, err
	}
	return &Projection{
		reference: reference,
		refX:      refX,
		refY:      refY,
		scale:     1 / math.Cos(reference.Lat*pi180),
	}, nil
}

// ProjectionFromReference restores projection from reference point stored in Mercator meters
func ProjectionFromReference(refX, refY float64) *Projection {
	lat, lon := metersToLatLng(refX, refY)
	return &Projection{
		reference: GeoPoint{Lat: lat, Lon: lon},
		refX:      refX,
		refY:      refY,
		scale:     1 / math.Cos(lat*pi180),
	}
}

// Reference returns anchor point of projection
func (p *Projection) Reference() GeoPoint {
	return p.reference
}

// ReferenceMeters returns anchor point of projection in Mercator meters
func (p *Projection) ReferenceMeters() (float64, float64) {
	return p.refX, p.refY
}

// ToPlanar converts geographic point to local planar meters
func (p *Projection) ToPlanar(pt GeoPoint) (orb.Point, error) {
	x, y, err := latLngToMeters(pt.Lat, pt.Lon)
	if err != nil {
		return orb.Point{}, err
	}
	return orb.Point{(x - p.refX) / p.scale, (y - p.refY) / p.scale}, nil
}

// ToGeographic converts local planar meters back to geographic point
func (p *Projection) ToGeographic(pt orb.Point) GeoPoint {
	x := pt.X()*p.scale + p.refX
	y := pt.Y()*p.scale + p.refY
	lat, lon := metersToLatLng(x, y)
	return GeoPoint{Lat: lat, Lon: lon}
}

// compassBearing returns initial bearing from a to b in degrees [0; 360)
func compassBearing(a, b GeoPoint) float64 {
	lat1 := a.Lat * pi180
	lat2 := b.Lat * pi180
	diffLon := (b.Lon - a.Lon) * pi180
	x := math.Sin(diffLon) * math.Cos(lat2)
	y := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(diffLon)
	bearing := math.Mod(math.Atan2(x, y)*pi180Rev+360, 360)
	if bearing >= 360 {
		bearing -= 360
	}
	return bearing
}

// bearingToAngle converts compass bearing (clockwise from north) to planar angle (counterclockwise from east)
func bearingToAngle(bearing float64) float64 {
	return normalizeAngle(90 - bearing)
}

// normalizeAngle maps angle in degrees into [-180; 180)
func normalizeAngle(angle float64) float64 {
	angle = math.Mod(angle+180, 360)
	if angle < 0 {
		angle += 360
	}
	return angle - 180
}

// Scale returns Mercator scale factor at reference latitude
func (p *Projection) Scale() float64 {
	return p.scale
}
