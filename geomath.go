package natmap

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/pkg/errors"
)

var (
	errParallelSegments = errors.New("segments are parallel")
	errNoIntersection   = errors.New("segments do not intersect")
)

// intersectSegments returns intersection point of segments (p1, p2) and (p3, p4)
// Note: Euclidean space
func intersectSegments(p1, p2, p3, p4 orb.Point) (orb.Point, error) {
	a1 := p2[1] - p1[1]
	b1 := p1[0] - p2[0]
	c1 := a1*p1[0] + b1*p1[1]
	a2 := p4[1] - p3[1]
	b2 := p3[0] - p4[0]
	c2 := a2*p3[0] + b2*p3[1]

	det := a1*b2 - a2*b1
	if det == 0 {
		return orb.Point{}, errParallelSegments
	}
	x := (b2*c1 - b1*c2) / det
	y := (a1*c2 - a2*c1) / det
	pt := orb.Point{x, y}
	if !withinSegmentBox(p1, p2, pt) || !withinSegmentBox(p3, p4, pt) {
		return orb.Point{}, errNoIntersection
	}
	return pt, nil
}

const boxEpsilon = 1e-9

func withinSegmentBox(a, b, pt orb.Point) bool {
	return pt[0] >= math.Min(a[0], b[0])-boxEpsilon && pt[0] <= math.Max(a[0], b[0])+boxEpsilon &&
		pt[1] >= math.Min(a[1], b[1])-boxEpsilon && pt[1] <= math.Max(a[1], b[1])+boxEpsilon
}

// lineIntersections returns every point where two lines cross each other. Shared vertices are reported once
func lineIntersections(l1, l2 orb.LineString) []orb.Point {
	if !l1.Bound().Pad(boxEpsilon).Intersects(l2.Bound()) {
		return nil
	}
	var result []orb.Point
	for i := 1; i < len(l1); i++ {
		for j := 1; j < len(l2); j++ {
			pt, err := intersectSegments(l1[i-1], l1[i], l2[j-1], l2[j])
			if err != nil {
				continue
			}
			duplicate := false
			for _, seen := range result {
				if planar.Distance(seen, pt) <= boxEpsilon {
					duplicate = true
					break
				}
			}
			if !duplicate {
				result = append(result, pt)
			}
		}
	}
	return result
}

// pointTouchesLine checks if point lies on line within given tolerance
func pointTouchesLine(line orb.LineString, pt orb.Point, tolerance float64) bool {
	if len(line) == 0 {
		return false
	}
	if !line.Bound().Pad(tolerance).Contains(pt) {
		return false
	}
	return planar.DistanceFrom(line, pt) <= tolerance
}

// lineWithinPolygon checks that every vertex of the line lies inside polygon
func lineWithinPolygon(line orb.LineString, poly orb.Polygon) bool {
	if len(line) == 0 || len(poly) == 0 {
		return false
	}
	bound := poly.Bound()
	for _, pt := range line {
		if !bound.Contains(pt) {
			return false
		}
		if !planar.PolygonContains(poly, pt) {
			return false
		}
	}
	return true
}
