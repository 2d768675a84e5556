// Package geomcodec converts orb geometries into go-geom ones and encodes them as EWKB for persistence.
package geomcodec

import (
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

const (
	SRID_WGS84        = 4326
	SRID_WEB_MERCATOR = 3857
)

// ErrUnsupportedGeometry is returned for geometry kinds no dataset stores
var ErrUnsupportedGeometry = errors.New("unsupported geometry")

func flatCoords(points []orb.Point) []float64 {
	flat := make([]float64, 0, len(points)*2)
	for _, pt := range points {
		flat = append(flat, pt[0], pt[1])
	}
	return flat
}

func orbPoints(coords []geom.Coord) []orb.Point {
	points := make([]orb.Point, len(coords))
	for i, c := range coords {
		points[i] = orb.Point{c.X(), c.Y()}
	}
	return points
}

// ToGeom converts orb geometry into go-geom geometry with given SRID
func ToGeom(g orb.Geometry, srid int) (geom.T, error) {
	switch v := g.(type) {
	case orb.Point:
		return geom.NewPointFlat(geom.XY, []float64{v[0], v[1]}).SetSRID(srid), nil
	case orb.LineString:
		return geom.NewLineStringFlat(geom.XY, flatCoords(v)).SetSRID(srid), nil
	case orb.MultiLineString:
		mls := geom.NewMultiLineString(geom.XY).SetSRID(srid)
		for i, line := range v {
			if err := mls.Push(geom.NewLineStringFlat(geom.XY, flatCoords(line))); err != nil {
				return nil, errors.Wrapf(err, "Can't push line %d", i)
			}
		}
		return mls, nil
	case orb.Polygon:
		flat := []float64{}
		ends := make([]int, 0, len(v))
		for _, ring := range v {
			flat = append(flat, flatCoords(ring)...)
			ends = append(ends, len(flat))
		}
		return geom.NewPolygonFlat(geom.XY, flat, ends).SetSRID(srid), nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedGeometry, "%T", g)
	}
}

// FromGeom converts go-geom geometry back into orb geometry
func FromGeom(g geom.T) (orb.Geometry, error) {
	switch v := g.(type) {
	case *geom.Point:
		return orb.Point{v.X(), v.Y()}, nil
	case *geom.LineString:
		return orb.LineString(orbPoints(v.Coords())), nil
	case *geom.MultiLineString:
		mls := make(orb.MultiLineString, v.NumLineStrings())
		for i := range mls {
			mls[i] = orb.LineString(orbPoints(v.LineString(i).Coords()))
		}
		return mls, nil
	case *geom.Polygon:
		poly := make(orb.Polygon, v.NumLinearRings())
		for i := range poly {
			poly[i] = orb.Ring(orbPoints(v.LinearRing(i).Coords()))
		}
		return poly, nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedGeometry, "%T", g)
	}
}

// MarshalEWKB encodes geometry as little-endian EWKB. Nil geometry gives nil bytes
func MarshalEWKB(g orb.Geometry, srid int) ([]byte, error) {
	if g == nil {
		return nil, nil
	}
	t, err := ToGeom(g, srid)
	if err != nil {
		return nil, err
	}
	data, err := ewkb.Marshal(t, ewkb.NDR)
	if err != nil {
		return nil, errors.Wrap(err, "Can't encode EWKB")
	}
	return data, nil
}

// UnmarshalEWKB decodes EWKB into orb geometry and its SRID
func UnmarshalEWKB(data []byte) (orb.Geometry, int, error) {
	if len(data) == 0 {
		return nil, 0, nil
	}
	t, err := ewkb.Unmarshal(data)
	if err != nil {
		return nil, 0, errors.Wrap(err, "Can't decode EWKB")
	}
	g, err := FromGeom(t)
	if err != nil {
		return nil, 0, err
	}
	return g, t.SRID(), nil
}

// SRID returns SRID of datasets depending on whether geometries are projected into Web Mercator
func SRID(projected bool) int {
	if projected {
		return SRID_WEB_MERCATOR
	}
	return SRID_WGS84
}
