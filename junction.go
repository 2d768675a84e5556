package natmap

import (
	"github.com/paulmach/orb"
)

// junctionStreets is the number of streets meeting at T-junction
const junctionStreets = 3

// Junction is street node where exactly three streets meet
type Junction struct {
	NodeOID int64
	ZElev   int
	Geom    orb.Point
}

// FindJunctions returns nodes touched by exactly three streets
func FindJunctions(nodes []*StreetNode, streets []*StreetSegment, tolerance float64) []*Junction {
	lines := make([]orb.LineString, len(streets))
	for i, street := range streets {
		lines[i] = street.Geom
	}
	idx := newLineIndex(lines)
	junctions := []*Junction{}
	for _, node := range nodes {
		if countTouchingLines(idx, lines, node.Geom, tolerance, junctionStreets+1) != junctionStreets {
			continue
		}
		junctions = append(junctions, &Junction{
			NodeOID: node.ObjectID,
			ZElev:   node.Elevation,
			Geom:    node.Geom,
		})
	}
	return junctions
}
