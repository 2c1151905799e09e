package osm2vissim

const (
	// DefaultLaneWidth is VISSIM's default lane width (meters)
	DefaultLaneWidth = 3.6
	// DefaultTransitStopRadius is max distance (meters) between bus stop and link it could be snapped to
	DefaultTransitStopRadius = 30.0
	// DefaultTransitStopLength is length (meters) of created transit stops
	DefaultTransitStopLength = 15.0
)

// OsmConfiguration Allows to filter ways by certain tags from OSM data
type OsmConfiguration struct {
	EntityName string // Currrently we support 'highway' only
	Tags       []string
}

// CheckTag Checks if incoming tag is represented in configuration
func (cfg *OsmConfiguration) CheckTag(tag string) bool {
	for i := range cfg.Tags {
		if cfg.Tags[i] == tag {
			return true
		}
	}
	return false
}

// Config is the set of settings shared by every stage of conversion
type Config struct {
	OsmConfiguration

	// Physical width of single lane (meters)
	LaneWidth float64
	// Reference point for projection. First seen node is used when nil
	Reference *GeoPoint
	// Duplicated adjacent node references fail the load when enabled
	StrictMode bool

	TransitStops      bool
	TransitStopRadius float64
	TransitStopLength float64
}

// DefaultConfig returns configuration for motorized road network
func DefaultConfig() Config {
	return Config{
		OsmConfiguration: OsmConfiguration{
			EntityName: "highway",
			Tags:       DefaultHighwayTags(),
		},
		LaneWidth:         DefaultLaneWidth,
		TransitStopRadius: DefaultTransitStopRadius,
		TransitStopLength: DefaultTransitStopLength,
	}
}

// acceptsWay checks if way with given `highway` value should be imported
func (cfg *Config) acceptsWay(highway string) bool {
	if highway == "" {
		return false
	}
	if _, ok := excludedHighwayTags[highway]; ok {
		return false
	}
	return cfg.CheckTag(highway)
}
