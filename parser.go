package osm2vissim

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Parser struct {
	filename string
	cfg      Config
	logger   *zap.Logger
}

func (parser *Parser) String() string {
	reference := "first seen node"
	if parser.cfg.Reference != nil {
		reference = parser.cfg.Reference.String()
	}
	return fmt.Sprintf(`
Network parser parameters:
	filename: '%s'
	highway_tags: '%s'
	lane_width: %f
	reference: '%s'
	strict_mode enabled?: %t
	transit stops?: %t
	transit_stop_radius: %f
	transit_stop_length: %f
	`,
		parser.filename,
		strings.Join(parser.cfg.Tags, ","),
		parser.cfg.LaneWidth,
		reference,
		parser.cfg.StrictMode,
		parser.cfg.TransitStops,
		parser.cfg.TransitStopRadius,
		parser.cfg.TransitStopLength,
	)
}

func NewParser(fileName string, options ...func(*Parser)) *Parser {
	parser := &Parser{
		filename: fileName,
		cfg:      DefaultConfig(),
		logger:   zap.NewNop(),
	}
	for _, option := range options {
		option(parser)
	}
	return parser
}

func WithHighwayTags(tags []string) func(*Parser) {
	return func(parser *Parser) {
		parser.cfg.Tags = tags
	}
}

func WithLaneWidth(laneWidth float64) func(*Parser) {
	return func(parser *Parser) {
		parser.cfg.LaneWidth = laneWidth
	}
}

func WithReference(reference GeoPoint) func(*Parser) {
	return func(parser *Parser) {
		parser.cfg.Reference = &reference
	}
}

func WithStrictMode(strictMode bool) func(*Parser) {
	return func(parser *Parser) {
		parser.cfg.StrictMode = strictMode
	}
}

func WithTransitStops(transitStops bool) func(*Parser) {
	return func(parser *Parser) {
		parser.cfg.TransitStops = transitStops
	}
}

func WithTransitStopRadius(radius float64) func(*Parser) {
	return func(parser *Parser) {
		parser.cfg.TransitStopRadius = radius
	}
}

func WithTransitStopLength(length float64) func(*Parser) {
	return func(parser *Parser) {
		parser.cfg.TransitStopLength = length
	}
}

func WithLogger(logger *zap.Logger) func(*Parser) {
	return func(parser *Parser) {
		if logger != nil {
			parser.logger = logger
		}
	}
}

// Config returns settings parser has been built with
func (parser *Parser) Config() Config {
	return parser.cfg
}

// ReadGraph loads OSM file into directed graph. File format is guessed by extension
func (parser *Parser) ReadGraph() (*Graph, error) {
	format, err := formatByExtension(parser.filename)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(parser.filename)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't open file '%s'", parser.filename)
	}
	defer file.Close()
	return readOSM(file, format, &parser.cfg, parser.logger)
}

// Compile converts graph into set of directed way segments with their geometries and turns
func (parser *Parser) Compile(graph *Graph) (*Network, error) {
	return compileNetwork(graph, &parser.cfg, parser.logger)
}

// Convert does whole pipeline: reads file, compiles network and emits it into given model
func (parser *Parser) Convert(model NetworkModel) (*Network, *Report, error) {
	st := time.Now()
	graph, err := parser.ReadGraph()
	if err != nil {
		return nil, nil, errors.Wrap(err, "Can't read graph")
	}
	network, err := parser.Compile(graph)
	if err != nil {
		return nil, nil, errors.Wrap(err, "Can't compile network")
	}
	report, err := network.Emit(model)
	if err != nil {
		return network, report, errors.Wrap(err, "Can't emit network")
	}
	parser.logger.Sugar().Infof("Conversion done in %v", time.Since(st))
	return network, report, nil
}
