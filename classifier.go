package natmap

import (
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	// Converts length unit of LENGTH_GEO into miles
	mileFactor = 0.000621371192
	// Walking speed divisor for WalkTime
	walkingSpeedDivisor = 84.0

	unnamedStreetName = "Unnamed"
	rampStreetName    = "Ramp"

	traversableYes = "T"
	traversableNo  = "F"
)

// Classify populates derived attributes of the segment in place.
// Derived values depend on raw fields and on current street name only, so repeated calls give the same result
func (street *StreetSegment) Classify() {
	street.classifyName()
	street.clampAddressRanges()
	street.RoadClass = classifyRoadClass(street.RoadClassCode, street.FeatureType)
	street.Hierarchy = classifyHierarchy(street.RoadClassCode)
	street.classifySpeeds()
	street.classifyTimes()
	street.classifyTraversable()
	street.classifyLocatorFields()
}

func (street *StreetSegment) classifyName() {
	if strings.TrimSpace(street.Street) != "" {
		return
	}
	if isRampFeatureType(street.FeatureType) {
		street.Street = rampStreetName
		return
	}
	street.Street = unnamedStreetName
}

func (street *StreetSegment) clampAddressRanges() {
	for _, v := range []*int64{&street.FromLeft, &street.ToLeft, &street.FromRight, &street.ToRight} {
		if *v < 0 {
			*v = 0
		}
	}
}

// classifyRoadClass evaluates override rules in fixed order, later rule wins
func classifyRoadClass(roadClassCode string, featureType int) RoadClass {
	roadClass := ROAD_CLASS_LOCAL
	if _, ok := highwayRoadClasses[roadClassCode]; ok {
		roadClass = ROAD_CLASS_HIGHWAY
	}
	if _, ok := majorRoadClasses[roadClassCode]; ok {
		roadClass = ROAD_CLASS_MAJOR
	}
	if _, ok := pedestrianFeatureTypes[featureType]; ok && roadClassCode == pedestrianRoadClass {
		roadClass = ROAD_CLASS_PEDESTRIAN
	}
	if isRampFeatureType(featureType) {
		roadClass = ROAD_CLASS_RAMP
	}
	if isRoundaboutFeatureType(featureType) {
		roadClass = ROAD_CLASS_ROUNDABOUT
	}
	if featureType == stairsFeatureType {
		roadClass = ROAD_CLASS_STAIRS
	}
	return roadClass
}

func classifyHierarchy(roadClassCode string) Hierarchy {
	if _, ok := highwayRoadClasses[roadClassCode]; ok {
		return HIERARCHY_HIGHWAY
	}
	if _, ok := primaryRoadClasses[roadClassCode]; ok {
		return HIERARCHY_PRIMARY
	}
	if _, ok := secondaryRoadClasses[roadClassCode]; ok {
		return HIERARCHY_SECONDARY
	}
	if _, ok := collectorRoadClasses[roadClassCode]; ok {
		return HIERARCHY_COLLECTOR
	}
	return HIERARCHY_LOCAL
}

func (street *StreetSegment) classifySpeeds() {
	street.SpeedLeft = street.Speed
	street.SpeedRight = street.Speed
	switch street.Oneway {
	case ONEWAY_FORWARD:
		street.SpeedLeft = 0
	case ONEWAY_BACKWARD:
		street.SpeedRight = 0
	}
}

// travelTime returns minutes needed to pass length with speed given in mph
func travelTime(length float64, speed int) float64 {
	if speed == 0 {
		return 0
	}
	return (length / float64(speed)) * mileFactor * 60
}

func (street *StreetSegment) classifyTimes() {
	street.WalkTime = street.Length / walkingSpeedDivisor
	street.LeftTime = travelTime(street.Length, street.SpeedLeft)
	street.RightTime = travelTime(street.Length, street.SpeedRight)
}

func (street *StreetSegment) classifyTraversable() {
	street.Traversable = 1
	if street.Oneway == ONEWAY_NOT_ALLOWED && (street.RoadClass == ROAD_CLASS_PEDESTRIAN || street.RoadClass == ROAD_CLASS_STAIRS) {
		street.Traversable = 0
	}
	if street.RoughRoad == 1 {
		street.Traversable = 0
	}
	street.TraversableByVehicle = traversableNo
	if street.Traversable == 1 {
		street.TraversableByVehicle = traversableYes
	}
	street.TraversableByWalkers = traversableYes
}

func (street *StreetSegment) classifyLocatorFields() {
	street.PostedLeft = street.SpeedLeft
	street.PostedRight = street.SpeedRight
	street.LeftPostalCode = prefix(street.PostcodeLeft, 5)
	street.RightPostalCode = prefix(street.PostcodeRight, 5)
	street.StateLeft = prefix(street.LocalityCodeLeft, 2)
	street.StateRight = prefix(street.LocalityCodeRight, 2)
	street.ProhibitCrosser = 0
}

// prefix returns first n runes of s
func prefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// ClassifyStats is a result of batch classification
type ClassifyStats struct {
	Classified int
	Skipped    int
}

// ClassifyStreets classifies every segment of the set. Bad segment is skipped and never aborts the batch
func ClassifyStreets(streets []*StreetSegment) ClassifyStats {
	stats := ClassifyStats{}
	for _, street := range streets {
		if err := classifySafe(street); err != nil {
			stats.Skipped++
			zap.L().Warn("Can't classify street segment", zap.Error(err))
			continue
		}
		stats.Classified++
	}
	return stats
}

func classifySafe(street *StreetSegment) (err error) {
	if street == nil {
		return errors.New("nil street segment")
	}
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("street segment '%s': %v", street.FeatureID, r)
		}
	}()
	street.Classify()
	return nil
}
