package osm2vissim

import (
	"time"

	"github.com/pkg/errors"
)

// Report sums up emission
type Report struct {
	Links               int
	Connectors          int
	TransitStops        int
	SkippedTurns        int
	SkippedTransitStops int
	// Ways (or segments) which have not been converted
	Failures []error
}

// Emit materializes network in given model: every link first, then every connector, then transit stops (if model supports them)
func (net *Network) Emit(model NetworkModel) (*Report, error) {
	sugar := net.logger.Sugar()
	report := &Report{
		Failures:     net.Failures,
		SkippedTurns: len(net.Warnings),
	}
	for _, warning := range net.Warnings {
		sugar.Warnf("Turn has been skipped: %s", warning.Error())
	}

	if setter, ok := model.(ReferenceSetter); ok {
		x, y := net.projection.ReferenceMeters()
		if err := setter.SetReference(x, y); err != nil {
			return report, errors.Wrap(err, "Can't set reference point")
		}
	}

	sugar.Infof("Emitting links...")
	st := time.Now()
	order := net.SegmentIDs()
	links := make(map[SegmentID]LinkHandle, len(order))
	for _, id := range order {
		geom := net.Geometries[id]
		laneWidths := make([]float64, geom.Lanes)
		for i := range laneWidths {
			laneWidths[i] = net.cfg.LaneWidth
		}
		link, err := model.CreateLink(geom.Points3D(), laneWidths, string(id))
		if err != nil {
			return report, errors.Wrapf(err, "Can't create link for segment '%s'", id)
		}
		links[id] = link
		report.Links++
	}
	sugar.Infof("Done in %v. Links: %d", time.Since(st), report.Links)

	sugar.Infof("Emitting connectors...")
	st = time.Now()
	for _, id := range order {
		geom := net.Geometries[id]
		seg := net.Segments[id]
		for _, movement := range movementsOrder {
			for _, dest := range geom.Turns[movement] {
				created, err := net.emitConnector(model, seg, movement, dest)
				if err != nil {
					return report, err
				}
				if !created {
					report.SkippedTurns++
					continue
				}
				report.Connectors++
			}
		}
	}
	sugar.Infof("Done in %v. Connectors: %d", time.Since(st), report.Connectors)

	if creator, ok := model.(TransitStopCreator); ok && net.cfg.TransitStops {
		sugar.Infof("Emitting transit stops...")
		st = time.Now()
		created, skipped, err := net.emitTransitStops(creator, links)
		if err != nil {
			return report, err
		}
		report.TransitStops = created
		report.SkippedTransitStops = skipped
		sugar.Infof("Done in %v. Transit stops: %d", time.Since(st), report.TransitStops)
	}

	if report.SkippedTurns > 0 || len(report.Failures) > 0 || report.SkippedTransitStops > 0 {
		sugar.Warnf("Network has been emitted partially. Failed ways: %d. Skipped turns: %d. Skipped transit stops: %d", len(report.Failures), report.SkippedTurns, report.SkippedTransitStops)
	}
	return report, nil
}

// emitConnector creates single connector. Returns false when no lanes could serve the movement
func (net *Network) emitConnector(model NetworkModel, seg *WaySegment, movement MovementType, dest SegmentID) (bool, error) {
	from, ok := model.LookupLinkByName(string(seg.ID))
	if !ok {
		return false, errors.Errorf("No link for segment '%s'", seg.ID)
	}
	to, ok := model.LookupLinkByName(string(dest))
	if !ok {
		return false, errors.Errorf("No link for segment '%s'", dest)
	}
	fromLanes, err := model.LaneCount(from)
	if err != nil {
		return false, errors.Wrapf(err, "Can't get lanes of segment '%s'", seg.ID)
	}
	toLanes, err := model.LaneCount(to)
	if err != nil {
		return false, errors.Wrapf(err, "Can't get lanes of segment '%s'", dest)
	}
	conn, ok := connectLanes(movement, seg.TurnLanes, seg.TurnLanesTagged, fromLanes, toLanes)
	if !ok {
		net.logger.Sugar().Debugf("No lanes of segment '%s' allow %s movement to '%s'", seg.ID, movement, dest)
		return false, nil
	}
	if _, err := model.CreateConnector(from, conn.fromLane, to, conn.toLane, conn.lanes); err != nil {
		return false, errors.Wrapf(err, "Can't create %s connector from '%s' to '%s'", movement, seg.ID, dest)
	}
	return true, nil
}
