package natmap

// HighwayType is OSM highway tag value of exported street
type HighwayType uint16

const (
	HIGHWAY_MOTORWAY = HighwayType(iota + 1)
	HIGHWAY_MOTORWAY_LINK
	HIGHWAY_PRIMARY
	HIGHWAY_PRIMARY_LINK
	HIGHWAY_SECONDARY
	HIGHWAY_SECONDARY_LINK
	HIGHWAY_TERTIARY
	HIGHWAY_TERTIARY_LINK
	HIGHWAY_RESIDENTIAL
	HIGHWAY_FOOTWAY
	HIGHWAY_STEPS
)

func (iotaIdx HighwayType) String() string {
	if iotaIdx < HIGHWAY_MOTORWAY || iotaIdx > HIGHWAY_STEPS {
		return "road"
	}
	return [...]string{"motorway", "motorway_link", "primary", "primary_link", "secondary", "secondary_link", "tertiary", "tertiary_link", "residential", "footway", "steps"}[iotaIdx-1]
}

var (
	highwayByHierarchy = map[Hierarchy]HighwayType{
		HIERARCHY_HIGHWAY:   HIGHWAY_MOTORWAY,
		HIERARCHY_PRIMARY:   HIGHWAY_PRIMARY,
		HIERARCHY_SECONDARY: HIGHWAY_SECONDARY,
		HIERARCHY_COLLECTOR: HIGHWAY_TERTIARY,
		HIERARCHY_LOCAL:     HIGHWAY_RESIDENTIAL,
	}
	linkByHighway = map[HighwayType]HighwayType{
		HIGHWAY_MOTORWAY:  HIGHWAY_MOTORWAY_LINK,
		HIGHWAY_PRIMARY:   HIGHWAY_PRIMARY_LINK,
		HIGHWAY_SECONDARY: HIGHWAY_SECONDARY_LINK,
		HIGHWAY_TERTIARY:  HIGHWAY_TERTIARY_LINK,
	}
)

// highwayTypeOf picks highway tag from classified road class and hierarchy
func highwayTypeOf(street *StreetSegment) HighwayType {
	switch street.RoadClass {
	case ROAD_CLASS_PEDESTRIAN:
		return HIGHWAY_FOOTWAY
	case ROAD_CLASS_STAIRS:
		return HIGHWAY_STEPS
	}
	highway, ok := highwayByHierarchy[street.Hierarchy]
	if !ok {
		highway = HIGHWAY_RESIDENTIAL
	}
	if street.RoadClass == ROAD_CLASS_RAMP {
		if link, ok := linkByHighway[highway]; ok {
			return link
		}
	}
	return highway
}
