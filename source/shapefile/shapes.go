package shapefile

import (
	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
)

func partBounds(parts []int32, numPoints int, i int) (int32, int32) {
	start := parts[i]
	end := int32(numPoints)
	if i+1 < len(parts) {
		end = parts[i+1]
	}
	return start, end
}

// toLineString joins parts of polyline into single line. Repeated joint vertices are dropped
func toLineString(shape shp.Shape) orb.LineString {
	pl, ok := shape.(*shp.PolyLine)
	if !ok || pl == nil || len(pl.Points) == 0 {
		return nil
	}
	parts := pl.Parts
	if len(parts) == 0 {
		parts = []int32{0}
	}
	line := make(orb.LineString, 0, len(pl.Points))
	for i := range parts {
		start, end := partBounds(parts, len(pl.Points), i)
		for j := start; j < end; j++ {
			pt := orb.Point{pl.Points[j].X, pl.Points[j].Y}
			if len(line) > 0 && line[len(line)-1].Equal(pt) {
				continue
			}
			line = append(line, pt)
		}
	}
	return line
}

func toPolygon(shape shp.Shape) orb.Polygon {
	p, ok := shape.(*shp.Polygon)
	if !ok || p == nil || len(p.Points) == 0 {
		return nil
	}
	parts := p.Parts
	if len(parts) == 0 {
		parts = []int32{0}
	}
	poly := make(orb.Polygon, 0, len(parts))
	for i := range parts {
		start, end := partBounds(parts, len(p.Points), i)
		ring := make(orb.Ring, 0, end-start)
		for j := start; j < end; j++ {
			ring = append(ring, orb.Point{p.Points[j].X, p.Points[j].Y})
		}
		if len(ring) > 0 {
			poly = append(poly, ring)
		}
	}
	return poly
}

func toPoint(shape shp.Shape) (orb.Point, bool) {
	p, ok := shape.(*shp.Point)
	if !ok || p == nil {
		return orb.Point{}, false
	}
	return orb.Point{p.X, p.Y}, true
}
