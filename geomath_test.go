package osm2vissim

import (
	"testing"

	"github.com/paulmach/orb"
)

func TestOffsetParallel(t *testing.T) {
	line := orb.LineString{{0, 0}, {10, 0}, {10, 10}}
	shifted := offsetParallel(line, 1)
	expected := orb.LineString{{0, -1}, {10, -1}, {11, 10}}
	if !shifted.Equal(expected) {
		t.Errorf("Shifted line must be %v, but got %v", expected, shifted)
	}
	// Negative distance shifts to the left
	shifted = offsetParallel(line, -2)
	expected = orb.LineString{{0, 2}, {10, 2}, {8, 10}}
	if !shifted.Equal(expected) {
		t.Errorf("Shifted line must be %v, but got %v", expected, shifted)
	}
	// Source line must stay untouched
	if !line.Equal(orb.LineString{{0, 0}, {10, 0}, {10, 10}}) {
		t.Errorf("Source line has been modified: %v", line)
	}
}

func TestRightNormal(t *testing.T) {
	normal := rightNormal(orb.Point{0, 0}, orb.Point{0, 5})
	if normal != [2]float64{1, 0} {
		t.Errorf("Normal must be %v, but got %v", [2]float64{1, 0}, normal)
	}
	normal = rightNormal(orb.Point{3, 3}, orb.Point{3, 3})
	if normal != [2]float64{0, 0} {
		t.Errorf("Normal of degenerate segment must be %v, but got %v", [2]float64{0, 0}, normal)
	}
}

func TestTrimStart(t *testing.T) {
	line := orb.LineString{{0, 0}, {10, 0}, {20, 0}}
	trimmed, ok := trimStart(line, 15)
	if !ok {
		t.Fatalf("Line must be trimmed")
	}
	expected := orb.LineString{{15, 0}, {20, 0}}
	if !trimmed.Equal(expected) {
		t.Errorf("Trimmed line must be %v, but got %v", expected, trimmed)
	}
	trimmed, ok = trimStart(line, 0)
	if !ok || !trimmed.Equal(line) {
		t.Errorf("Zero distance must keep line %v, but got %v", line, trimmed)
	}
	if _, ok = trimStart(line, 20); ok {
		t.Errorf("Distance equal to line length must not be accepted")
	}
	if _, ok = trimStart(line, 25); ok {
		t.Errorf("Distance greater than line length must not be accepted")
	}
}

func TestTrimEnd(t *testing.T) {
	line := orb.LineString{{0, 0}, {10, 0}, {20, 0}}
	trimmed, ok := trimEnd(line, 5)
	if !ok {
		t.Fatalf("Line must be trimmed")
	}
	expected := orb.LineString{{0, 0}, {10, 0}, {15, 0}}
	if !trimmed.Equal(expected) {
		t.Errorf("Trimmed line must be %v, but got %v", expected, trimmed)
	}
}

func TestProjectOnLine(t *testing.T) {
	line := orb.LineString{{0, 0}, {10, 0}, {10, 10}}
	along, dist := projectOnLine(line, orb.Point{4, 3})
	if along != 4 || dist != 3 {
		t.Errorf("Projection must be (%f, %f), but got (%f, %f)", 4.0, 3.0, along, dist)
	}
	along, dist = projectOnLine(line, orb.Point{12, 5})
	if along != 15 || dist != 2 {
		t.Errorf("Projection must be (%f, %f), but got (%f, %f)", 15.0, 2.0, along, dist)
	}
}

func TestReverseLine(t *testing.T) {
	line := orb.LineString{{0, 0}, {1, 1}, {2, 0}}
	expected := orb.LineString{{2, 0}, {1, 1}, {0, 0}}
	if got := reverseLine(line); !got.Equal(expected) {
		t.Errorf("Reversed line must be %v, but got %v", expected, got)
	}
}
