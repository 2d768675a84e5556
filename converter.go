package natmap

import (
	"strings"

	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// GeomFormat is text representation of geometries in exported CSV files
type GeomFormat uint16

const (
	GEOM_FORMAT_WKT = GeomFormat(iota + 1)
	GEOM_FORMAT_GEOJSON
)

func (iotaIdx GeomFormat) String() string {
	if iotaIdx < GEOM_FORMAT_WKT || iotaIdx > GEOM_FORMAT_GEOJSON {
		return "undefined"
	}
	return [...]string{"wkt", "geojson"}[iotaIdx-1]
}

// ParseGeomFormat converts configuration value into GeomFormat. Empty value means WKT
func ParseGeomFormat(s string) (GeomFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "wkt":
		return GEOM_FORMAT_WKT, nil
	case "geojson":
		return GEOM_FORMAT_GEOJSON, nil
	default:
		return 0, errors.Errorf("unknown geometry format '%s'", s)
	}
}

// PrepareGeometry returns WKT or GeoJSON representation of point or linestring
func PrepareGeometry(g orb.Geometry, format GeomFormat) string {
	if format != GEOM_FORMAT_GEOJSON {
		return wkt.MarshalString(g)
	}
	var geom *geojson.Geometry
	switch v := g.(type) {
	case orb.Point:
		geom = geojson.NewPointGeometry([]float64{v[0], v[1]})
	case orb.LineString:
		pts2d := make([][]float64, len(v))
		for i := range v {
			pts2d[i] = []float64{v[i][0], v[i][1]}
		}
		geom = geojson.NewLineStringGeometry(pts2d)
	default:
		zap.L().Warn("Can't convert geometry to geojson format", zap.String("type", g.GeoJSONType()))
		return ""
	}
	b, err := geom.MarshalJSON()
	if err != nil {
		zap.L().Warn("Can't convert geometry to geojson format", zap.Error(err))
		return ""
	}
	return string(b)
}
