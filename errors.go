package osm2vissim

import (
	"fmt"

	"github.com/paulmach/osm"
	"github.com/pkg/errors"
)

var (
	// ErrLanesNotEvenlyDivisible is returned for two-way ways with odd `lanes` tag and no directional split
	ErrLanesNotEvenlyDivisible = errors.New("Number of lanes is not evenly divisible")
	// ErrAmbiguousTurn is returned when turn destination can't be resolved to exactly one segment
	ErrAmbiguousTurn = errors.New("Ambiguous turn destination")
	// ErrNoRoadWays is returned when nothing left after filtering ways by tags
	ErrNoRoadWays = errors.New("No road ways have been found")
)

// DomainError is returned by projection for coordinates out of range
type DomainError struct {
	Lon float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("Longitude %f is out of [-180; 180] domain", e.Lon)
}

// LoadError describes malformed source data. It always aborts the run
type LoadError struct {
	WayID  osm.WayID
	NodeID osm.NodeID
	Reason string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("Can't load OSM data: %s. Way ID: '%d'. Node ID: '%d'", e.Reason, e.WayID, e.NodeID)
}

// WayError wraps any error which makes single way unusable (lanes parsing, geometry)
type WayError struct {
	WayID WayID
	Err   error
}

func (e *WayError) Error() string {
	return fmt.Sprintf("Way '%s': %s", e.WayID, e.Err.Error())
}

// Cause makes WayError compatible with errors.Cause
func (e *WayError) Cause() error {
	return e.Err
}

// Unwrap makes WayError compatible with standard errors.Is/As
func (e *WayError) Unwrap() error {
	return e.Err
}

// GeometryError is returned when segment can't accommodate intersection clearance
type GeometryError struct {
	SegmentID SegmentID
	NodeID    osm.NodeID
	Clearance float64
	Length    float64
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("Clearance %.3f at node '%d' is not less than remaining length %.3f of segment '%s'", e.Clearance, e.NodeID, e.Length, e.SegmentID)
}
