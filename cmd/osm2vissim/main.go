package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/LdDl/osm2vissim"
	"github.com/LdDl/osm2vissim/inpx"
	"go.uber.org/zap"
)

var (
	tagStr          = flag.String("tags", strings.Join(osm2vissim.DefaultHighwayTags(), ","), "Set of needed tags (separated by commas)")
	osmFileName     = flag.String("file", "my_graph.osm", "Filename of *.osm (XML) or *.osm.pbf file")
	out             = flag.String("out", "my_network.inpx", "Filename of VISSIM network (*.inpx)")
	baseFileName    = flag.String("base", "", "Filename of existing VISSIM network new links are appended to. Empty network is used if not provided")
	laneWidth       = flag.Float64("lane-width", osm2vissim.DefaultLaneWidth, "Width of a single lane (meters)")
	includeBusStops = flag.Bool("include-bus-stops", false, "Convert nodes tagged 'highway=bus_stop' into public transport stops?")
	geojsonFileName = flag.String("geojson", "", "Filename of GeoJSON export of resulting network. Not produced if empty")
	csvFileName     = flag.String("csv", "", "Filename of 'Comma-Separated Values' (CSV) export. E.g.: if file name is 'map.csv' then 3 files will be produced: 'map_links.csv', 'map_turns.csv', 'map_intersections.csv'")
	geomFormat      = flag.String("geomf", "wkt", "Format of CSV geometry. Expected values: wkt / geojson")
	doAudit         = flag.Bool("audit", false, "Check if every entry link could reach some exit link?")
	strictMode      = flag.Bool("strict", false, "Fail on duplicated adjacent node references instead of collapsing them?")
	verbose         = flag.Bool("verbose", false, "Development (debug) logging")
)

func main() {

	flag.Parse()

	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Println(err)
		return
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	parser := osm2vissim.NewParser(
		*osmFileName,
		osm2vissim.WithHighwayTags(strings.Split(*tagStr, ",")),
		osm2vissim.WithLaneWidth(*laneWidth),
		osm2vissim.WithTransitStops(*includeBusStops),
		osm2vissim.WithStrictMode(*strictMode),
		osm2vissim.WithLogger(logger),
	)
	sugar.Debugf("%s", parser)

	model := inpx.New()
	if *baseFileName != "" {
		model, err = inpx.Load(*baseFileName)
		if err != nil {
			sugar.Errorf("Can't load base network: %s", err.Error())
			return
		}
	}

	network, report, err := parser.Convert(model)
	if err != nil {
		sugar.Errorf("Can't convert network: %s", err.Error())
		return
	}
	sugar.Infof("Links: %d. Connectors: %d. Transit stops: %d. Failed ways: %d. Skipped turns: %d",
		report.Links, report.Connectors, report.TransitStops, len(report.Failures), report.SkippedTurns)

	err = model.WriteToFile(*out)
	if err != nil {
		sugar.Errorf("Can't save network: %s", err.Error())
		return
	}

	if *geojsonFileName != "" {
		err = model.ExportGeoJSON(*geojsonFileName)
		if err != nil {
			sugar.Errorf("Can't export GeoJSON: %s", err.Error())
			return
		}
	}

	if *csvFileName != "" {
		err = network.ExportToCSV(*csvFileName, *geomFormat)
		if err != nil {
			sugar.Errorf("Can't export CSV: %s", err.Error())
			return
		}
	}

	if *doAudit {
		audit, err := network.AuditReachability()
		if err != nil {
			sugar.Errorf("Can't audit network: %s", err.Error())
			return
		}
		sugar.Infof("Entry links: %d. Exit links: %d. Entry links without exit: %d", audit.Entries, audit.Exits, len(audit.Unreachable))
	}
}
