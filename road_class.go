package natmap

import "fmt"

// RoadClass is routing class of street segment
type RoadClass uint16

const (
	ROAD_CLASS_LOCAL      = RoadClass(1)
	ROAD_CLASS_HIGHWAY    = RoadClass(2)
	ROAD_CLASS_RAMP       = RoadClass(3)
	ROAD_CLASS_ROUNDABOUT = RoadClass(5)
	ROAD_CLASS_MAJOR      = RoadClass(6)
	ROAD_CLASS_PEDESTRIAN = RoadClass(10)
	ROAD_CLASS_STAIRS     = RoadClass(12)
)

var roadClassNames = map[RoadClass]string{
	ROAD_CLASS_LOCAL:      "local",
	ROAD_CLASS_HIGHWAY:    "highway",
	ROAD_CLASS_RAMP:       "ramp",
	ROAD_CLASS_ROUNDABOUT: "roundabout",
	ROAD_CLASS_MAJOR:      "major",
	ROAD_CLASS_PEDESTRIAN: "pedestrian",
	ROAD_CLASS_STAIRS:     "stairs",
}

func (rc RoadClass) String() string {
	if name, ok := roadClassNames[rc]; ok {
		return name
	}
	return fmt.Sprintf("undefined(%d)", uint16(rc))
}

// Hierarchy is importance level of street segment, 1 is the most important one
type Hierarchy uint8

const (
	HIERARCHY_HIGHWAY = Hierarchy(iota + 1)
	HIERARCHY_PRIMARY
	HIERARCHY_SECONDARY
	HIERARCHY_COLLECTOR
	HIERARCHY_LOCAL
)

func (iotaIdx Hierarchy) String() string {
	if iotaIdx < HIERARCHY_HIGHWAY || iotaIdx > HIERARCHY_LOCAL {
		return "undefined"
	}
	return [...]string{"highway", "primary", "secondary", "collector", "local"}[iotaIdx-1]
}

// Source ROAD_CLASS letters grouped by meaning
var (
	highwayRoadClasses = map[string]struct{}{
		"M": {}, "N": {}, "G": {}, "I": {},
	}
	majorRoadClasses = map[string]struct{}{
		"S": {}, "T": {}, "P": {}, "Q": {},
	}
	primaryRoadClasses = map[string]struct{}{
		"P": {}, "Q": {},
	}
	secondaryRoadClasses = map[string]struct{}{
		"S": {}, "T": {},
	}
	collectorRoadClasses = map[string]struct{}{
		"C": {}, "F": {},
	}
	// Feature type codes of pedestrian ways. Used together with ROAD_CLASS 'Z'
	pedestrianFeatureTypes = map[int]struct{}{
		26014: {}, 27014: {}, 27514: {}, 28014: {}, 28015: {}, 29016: {}, 28515: {}, 29116: {}, 29216: {},
	}
)

const (
	pedestrianRoadClass = "Z"
	ferryRoadClass      = "H"
	stairsFeatureType   = 28019
)

// isRampFeatureType checks if feature type code stands for ramp
func isRampFeatureType(featureType int) bool {
	m := featureType % 1000
	return m == 10 || m == 510
}

// isRoundaboutFeatureType checks if feature type code stands for roundabout
func isRoundaboutFeatureType(featureType int) bool {
	return featureType%1000 == 4
}
