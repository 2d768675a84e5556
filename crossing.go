package natmap

import (
	"github.com/paulmach/orb"
)

// Railroad is railroad line with its elevation levels
type Railroad struct {
	ObjectID      int64
	FeatureID     string
	FromElevation int
	ToElevation   int
	State         string
	Geom          orb.LineString
}

// RailroadCrossing is a point where street crosses railroad at grade
type RailroadCrossing struct {
	StreetOID   int64
	StreetID    string
	RailroadOID int64
	Geom        orb.Point
}

func atGrade(street *StreetSegment, railroad *Railroad) bool {
	return street.FromElevation == street.ToElevation &&
		railroad.FromElevation == railroad.ToElevation &&
		street.FromElevation == railroad.FromElevation
}

// DetectCrossings returns at-grade intersection points of streets and railroads.
// Same point on the same street is reported once
func DetectCrossings(streets []*StreetSegment, railroads []*Railroad) []*RailroadCrossing {
	lines := make([]orb.LineString, len(railroads))
	for i, railroad := range railroads {
		lines[i] = railroad.Geom
	}
	idx := newLineIndex(lines)
	result := []*RailroadCrossing{}
	for _, street := range streets {
		if len(street.Geom) < 2 {
			continue
		}
		seen := make(map[orb.Point]struct{})
		for _, i := range idx.query(street.Geom.Bound()) {
			railroad := railroads[i]
			if !atGrade(street, railroad) {
				continue
			}
			for _, pt := range lineIntersections(street.Geom, railroad.Geom) {
				if _, ok := seen[pt]; ok {
					continue
				}
				seen[pt] = struct{}{}
				result = append(result, &RailroadCrossing{
					StreetOID:   street.ObjectID,
					StreetID:    street.FeatureID,
					RailroadOID: railroad.ObjectID,
					Geom:        pt,
				})
			}
		}
	}
	return result
}
