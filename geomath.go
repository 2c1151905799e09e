package osm2vissim

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Point3D is point of VISSIM link geometry
type Point3D struct {
	X float64
	Y float64
	Z float64
}

// rightNormal returns unit vector perpendicular to segment (a, b) pointing to the right of direction a -> b
func rightNormal(a, b orb.Point) [2]float64 {
	// Calculate the vector between the points
	vec := [2]float64{b[0] - a[0], b[1] - a[1]}
	vecLen := math.Sqrt(vec[0]*vec[0] + vec[1]*vec[1])
	if vecLen == 0 {
		return [2]float64{0, 0}
	}
	// Normalize the vector and rotate it by -90 degrees
	return [2]float64{vec[1] / vecLen, -vec[0] / vecLen}
}

// offsetParallel shifts every point of the line to the right of direction of travel.
// First and second points use normal of the first segment, the others use normal of segment ending in them
func offsetParallel(line orb.LineString, distance float64) orb.LineString {
	result := make(orb.LineString, len(line))
	if len(line) < 2 {
		copy(result, line)
		return result
	}
	for i := range line {
		a, b := line[0], line[1]
		if i > 1 {
			a, b = line[i-1], line[i]
		}
		normal := rightNormal(a, b)
		result[i] = orb.Point{line[i][0] + normal[0]*distance, line[i][1] + normal[1]*distance}
	}
	return result
}

// trimStart cuts given distance from the beginning of the line.
// Returns false when distance is not less than line length
func trimStart(line orb.LineString, distance float64) (orb.LineString, bool) {
	if distance <= 0 {
		return copyLine(line), true
	}
	if distance >= planar.Length(line) {
		return nil, false
	}
	remaining := distance
	for i := 1; i < len(line); i++ {
		segLen := planar.Distance(line[i-1], line[i])
		if remaining < segLen {
			fraction := remaining / segLen
			start := orb.Point{
				(1-fraction)*line[i-1][0] + fraction*line[i][0],
				(1-fraction)*line[i-1][1] + fraction*line[i][1],
			}
			result := make(orb.LineString, 0, len(line)-i+1)
			result = append(result, start)
			return append(result, line[i:]...), true
		}
		remaining -= segLen
	}
	return nil, false
}

// trimEnd cuts given distance from the end of the line
func trimEnd(line orb.LineString, distance float64) (orb.LineString, bool) {
	trimmed, ok := trimStart(reverseLine(line), distance)
	if !ok {
		return nil, false
	}
	return reverseLine(trimmed), true
}

// reverseLine reverses order of points in given line. Returns new slice
func reverseLine(line orb.LineString) orb.LineString {
	inputLen := len(line)
	output := make(orb.LineString, inputLen)
	for i, n := range line {
		j := inputLen - i - 1
		output[j] = n
	}
	return output
}

// copyLine returns copy of given line
func copyLine(line orb.LineString) orb.LineString {
	output := make(orb.LineString, len(line))
	copy(output, line)
	return output
}

// projectOnLine returns distance along the line to the closest point and distance from pt to that point
func projectOnLine(line orb.LineString, pt orb.Point) (float64, float64) {
	bestAlong, bestDist := 0.0, math.Inf(1)
	passed := 0.0
	for i := 1; i < len(line); i++ {
		a, b := line[i-1], line[i]
		segLen := planar.Distance(a, b)
		t := 0.0
		if segLen > 0 {
			t = ((pt[0]-a[0])*(b[0]-a[0]) + (pt[1]-a[1])*(b[1]-a[1])) / (segLen * segLen)
			t = math.Max(0, math.Min(1, t))
		}
		closest := orb.Point{a[0] + t*(b[0]-a[0]), a[1] + t*(b[1]-a[1])}
		if dist := planar.Distance(pt, closest); dist < bestDist {
			bestDist = dist
			bestAlong = passed + t*segLen
		}
		passed += segLen
	}
	return bestAlong, bestDist
}
