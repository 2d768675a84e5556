package natmap

import (
	"github.com/paulmach/orb"
)

// Town is a named city polygon of a state
type Town struct {
	Name  string
	State string
	Geom  orb.Polygon
}

// AssignCities sets City of every street to the name of the first town which fully contains it.
// Streets outside any town keep empty City. Returns number of matched streets
func AssignCities(streets []*StreetSegment, towns []*Town) int {
	if len(towns) == 0 {
		return 0
	}
	rings := make([]orb.LineString, len(towns))
	for i, town := range towns {
		if len(town.Geom) > 0 {
			rings[i] = orb.LineString(town.Geom[0])
		}
	}
	idx := newLineIndex(rings)
	matched := 0
	for _, street := range streets {
		if len(street.Geom) == 0 {
			continue
		}
		bound := street.Geom.Bound()
		for _, i := range idx.query(bound) {
			town := towns[i]
			if lineWithinPolygon(street.Geom, town.Geom) {
				street.City = town.Name
				matched++
				break
			}
		}
	}
	return matched
}

// AssignLegLocations copies State and City of referenced street to every restriction leg
func AssignLegLocations(legs []*RestrictionLeg, streets *StreetLookup) {
	for _, leg := range legs {
		street, ok := streets.Get(leg.FeatureID)
		if !ok {
			continue
		}
		leg.State = street.State
		leg.City = street.City
	}
}
