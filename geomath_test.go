package natmap

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

func TestIntersectSegments(t *testing.T) {
	pt, err := intersectSegments(orb.Point{0, 0}, orb.Point{2, 2}, orb.Point{0, 2}, orb.Point{2, 0})
	if err != nil {
		t.Error(err)
		return
	}
	correct := orb.Point{1, 1}
	if pt != correct {
		t.Errorf("Intersection must be %v, but got %v", correct, pt)
	}

	_, err = intersectSegments(orb.Point{0, 0}, orb.Point{1, 0}, orb.Point{0, 1}, orb.Point{1, 1})
	if err != errParallelSegments {
		t.Errorf("Parallel segments must produce %v, but got %v", errParallelSegments, err)
	}

	_, err = intersectSegments(orb.Point{0, 0}, orb.Point{1, 1}, orb.Point{3, 0}, orb.Point{2, 1})
	if err != errNoIntersection {
		t.Errorf("Disjoint segments must produce %v, but got %v", errNoIntersection, err)
	}
}

func TestLineIntersections(t *testing.T) {
	street := orb.LineString{{0, 0}, {10, 0}}
	railroad := orb.LineString{{4, -5}, {4, 5}, {6, 5}, {6, -5}}
	pts := lineIntersections(street, railroad)
	if len(pts) != 2 {
		t.Errorf("Number of intersections must be 2, but got %d (%s)", len(pts), wkt.MarshalString(orb.MultiPoint(pts)))
		return
	}
	if pts[0] != (orb.Point{4, 0}) || pts[1] != (orb.Point{6, 0}) {
		t.Errorf("Intersections must be POINT(4 0) and POINT(6 0), but got %v", pts)
	}
	if got := lineIntersections(street, orb.LineString{{0, 1}, {10, 1}}); len(got) != 0 {
		t.Errorf("Parallel lines must not intersect, but got %v", got)
	}
}

func TestMeasureOnLine(t *testing.T) {
	line := orb.LineString{{0, 0}, {3, 0}, {3, 4}}
	if l := lineLength(line); l != 7 {
		t.Errorf("Length must be 7, but got %f", l)
	}
	cases := []struct {
		pt      orb.Point
		measure float64
	}{
		{orb.Point{0, 0}, 0},
		{orb.Point{1.5, 0.2}, 1.5},
		{orb.Point{3, 2}, 5},
		{orb.Point{3, 10}, 7},
		{orb.Point{-1, 0}, 0},
	}
	for _, c := range cases {
		m := measureOnLine(line, c.pt)
		if math.Abs(m-c.measure) > 1e-9 {
			t.Errorf("Measure of %v must be %f, but got %f", c.pt, c.measure, m)
		}
	}
}

func TestPointTouchesLine(t *testing.T) {
	line := orb.LineString{{0, 0}, {10, 0}}
	if !pointTouchesLine(line, orb.Point{5, 0.0005}, 0.001) {
		t.Errorf("Point within tolerance must touch the line")
	}
	if pointTouchesLine(line, orb.Point{5, 0.5}, 0.001) {
		t.Errorf("Point outside tolerance must not touch the line")
	}
}

func TestLineWithinPolygon(t *testing.T) {
	town := orb.Polygon{orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}}
	if !lineWithinPolygon(orb.LineString{{1, 1}, {9, 9}}, town) {
		t.Errorf("Line must be within polygon")
	}
	if lineWithinPolygon(orb.LineString{{1, 1}, {11, 9}}, town) {
		t.Errorf("Line crossing the border must not be within polygon")
	}
}

func TestUnionLines(t *testing.T) {
	var acc orb.MultiLineString
	acc = unionLines(acc, orb.LineString{{0, 0}, {1, 0}})
	acc = unionLines(acc, orb.LineString{{1, 0}, {2, 0}})
	acc = unionLines(acc, orb.LineString{{5, 5}, {6, 6}})
	if len(acc) != 2 {
		t.Errorf("Union must consist of 2 parts, but got %d: %s", len(acc), wkt.MarshalString(acc))
		return
	}
	if len(acc[0]) != 3 {
		t.Errorf("Contiguous parts must be glued, but got %s", wkt.MarshalString(acc[0]))
	}
	first, _ := firstPoint(acc)
	last, _ := lastPoint(acc)
	if first != (orb.Point{0, 0}) || last != (orb.Point{6, 6}) {
		t.Errorf("Wrong end points of union: %v %v", first, last)
	}
}

func TestWebMercator(t *testing.T) {
	pt := pointToWebMercator(orb.Point{180, 0})
	if math.Abs(pt[0]-20037508.34) > 0.01 || math.Abs(pt[1]) > 1e-6 {
		t.Errorf("Projected point must be (20037508.34; 0), but got %v", pt)
	}
	if roundTo(0.12345, 2) != 0.12 {
		t.Errorf("Rounding must give 0.12, but got %f", roundTo(0.12345, 2))
	}
}

func TestRoundTo(t *testing.T) {
	cases := []struct {
		value    float64
		expected float64
	}{
		{0.125, 0.12},
		{0.625, 0.62},
		{0.165, 0.17},
		{0.155, 0.15},
		{0.145, 0.14},
		{0.005, 0.01},
		{0.015, 0.01},
		{0.33333, 0.33},
		{1, 1},
	}
	for _, c := range cases {
		if got := roundTo(c.value, 2); got != c.expected {
			t.Errorf("Rounding %v must give %v, but got %v", c.value, c.expected, got)
		}
	}
}
