package natmap

import (
	"math"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/project"
)

// firstPoint returns first vertex of the geometry. Multi-part geometries return first vertex of the first part
func firstPoint(g orb.Geometry) (orb.Point, bool) {
	switch v := g.(type) {
	case orb.Point:
		return v, true
	case orb.LineString:
		if len(v) == 0 {
			return orb.Point{}, false
		}
		return v[0], true
	case orb.MultiLineString:
		for _, part := range v {
			if len(part) > 0 {
				return part[0], true
			}
		}
	}
	return orb.Point{}, false
}

// lastPoint returns last vertex of the geometry. Multi-part geometries return last vertex of the last part
func lastPoint(g orb.Geometry) (orb.Point, bool) {
	switch v := g.(type) {
	case orb.Point:
		return v, true
	case orb.LineString:
		if len(v) == 0 {
			return orb.Point{}, false
		}
		return v[len(v)-1], true
	case orb.MultiLineString:
		for i := len(v) - 1; i >= 0; i-- {
			if len(v[i]) > 0 {
				return v[i][len(v[i])-1], true
			}
		}
	}
	return orb.Point{}, false
}

// samePoint is exact X/Y comparison. No tolerance is applied
func samePoint(p, q orb.Point) bool {
	return p[0] == q[0] && p[1] == q[1]
}

// unionLines appends line parts of g to the accumulated geometry.
// A part which starts exactly where the previous part ends is glued to it
func unionLines(acc orb.MultiLineString, g orb.Geometry) orb.MultiLineString {
	var parts orb.MultiLineString
	switch v := g.(type) {
	case orb.LineString:
		parts = orb.MultiLineString{v}
	case orb.MultiLineString:
		parts = v
	default:
		return acc
	}
	for _, part := range parts {
		if len(part) == 0 {
			continue
		}
		if len(acc) > 0 {
			prev := acc[len(acc)-1]
			if len(prev) > 0 && samePoint(prev[len(prev)-1], part[0]) {
				glued := make(orb.LineString, 0, len(prev)+len(part)-1)
				glued = append(glued, prev...)
				glued = append(glued, part[1:]...)
				acc[len(acc)-1] = glued
				continue
			}
		}
		cp := make(orb.LineString, len(part))
		copy(cp, part)
		acc = append(acc, cp)
	}
	return acc
}

// lineLength returns planar length of the line in units of its coordinates
func lineLength(line orb.LineString) float64 {
	return planar.Length(line)
}

// measureOnLine returns distance along the line to the point of the line closest to pt
func measureOnLine(line orb.LineString, pt orb.Point) float64 {
	if len(line) < 2 {
		return 0
	}
	best := math.Inf(1)
	measure := 0.0
	walked := 0.0
	for i := 1; i < len(line); i++ {
		a, b := line[i-1], line[i]
		segLength := planar.Distance(a, b)
		fraction := projectionFraction(a, b, pt)
		closest := orb.Point{a[0] + fraction*(b[0]-a[0]), a[1] + fraction*(b[1]-a[1])}
		d := planar.DistanceSquared(closest, pt)
		if d < best {
			best = d
			measure = walked + fraction*segLength
		}
		walked += segLength
	}
	return measure
}

// projectionFraction returns clamped [0; 1] parameter of orthogonal projection of pt onto segment (a, b)
func projectionFraction(a, b, pt orb.Point) float64 {
	dx, dy := b[0]-a[0], b[1]-a[1]
	lengthSquared := dx*dx + dy*dy
	if lengthSquared == 0 {
		return 0
	}
	t := ((pt[0]-a[0])*dx + (pt[1]-a[1])*dy) / lengthSquared
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// lineToWebMercator projects WGS84 line into EPSG:3857
func lineToWebMercator(line orb.LineString) orb.LineString {
	return project.LineString(line.Clone(), project.WGS84.ToMercator)
}

// pointToWebMercator projects WGS84 point into EPSG:3857
func pointToWebMercator(pt orb.Point) orb.Point {
	return project.Point(pt, project.WGS84.ToMercator)
}

// polygonToWebMercator projects WGS84 polygon into EPSG:3857
func polygonToWebMercator(poly orb.Polygon) orb.Polygon {
	return project.Polygon(poly.Clone(), project.WGS84.ToMercator)
}

// roundTo rounds exact binary value to given number of decimal places, ties go to even
func roundTo(value float64, places int) float64 {
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(value, 'f', places, 64), 64)
	if err != nil {
		return value
	}
	return rounded
}
