package osm2vissim

// LinkHandle identifies link (or connector) in network model
type LinkHandle int

// NetworkModel is target network document links and connectors are written to
type NetworkModel interface {
	CreateLink(points []Point3D, laneWidths []float64, name string) (LinkHandle, error)
	CreateConnector(from LinkHandle, fromLane int, to LinkHandle, toLane int, lanes int) (LinkHandle, error)
	LookupLinkByName(name string) (LinkHandle, bool)
	LaneCount(link LinkHandle) (int, error)
}

// ReferenceSetter is implemented by models which store projection reference point (Mercator meters)
type ReferenceSetter interface {
	SetReference(x, y float64) error
}

// TransitStopCreator is implemented by models which support public transport stops
type TransitStopCreator interface {
	CreateTransitStop(link LinkHandle, lane int, pos, length float64, name string) (int, error)
}
