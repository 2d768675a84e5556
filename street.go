package natmap

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Oneway codes of source data
const (
	ONEWAY_BOTH        = 1
	ONEWAY_FORWARD     = 2 // travel is allowed along digitized direction only
	ONEWAY_BACKWARD    = 3 // travel is allowed against digitized direction only
	ONEWAY_NOT_ALLOWED = 4
)

// StreetSegment is a single routable road edge.
// Raw fields are filled by extractor, derived fields are filled by Classify.
type StreetSegment struct {
	// ObjectID is national row identifier. Zero until segment is merged
	ObjectID int64
	// FeatureID is original identifier of the segment. It becomes LocalId after merge
	FeatureID string
	State     string
	City      string

	Street    string
	FromLeft  int64
	ToLeft    int64
	FromRight int64
	ToRight   int64

	// Raw source attributes
	RoadClassCode     string
	FeatureType       int
	Length            float64
	Speed             int
	Oneway            int
	RoughRoad         int
	FromElevation     int
	ToElevation       int
	LocalityCodeLeft  string
	LocalityCodeRight string
	PostcodeLeft      string
	PostcodeRight     string

	// Derived attributes
	RoadClass            RoadClass
	Hierarchy            Hierarchy
	SpeedLeft            int
	SpeedRight           int
	PostedLeft           int
	PostedRight          int
	WalkTime             float64
	LeftTime             float64
	RightTime            float64
	Traversable          int
	TraversableByVehicle string
	TraversableByWalkers string
	LeftPostalCode       string
	RightPostalCode      string
	StateLeft            string
	StateRight           string
	ProhibitCrosser      int

	Geom orb.LineString
}

// LocalID returns stable key of the segment
func (street *StreetSegment) LocalID() string {
	return street.FeatureID
}

// IsFerry checks if segment is a ferry route
func (street *StreetSegment) IsFerry() bool {
	return street.RoadClassCode == ferryRoadClass
}

func (street *StreetSegment) String() string {
	return fmt.Sprintf("StreetSegment{ObjectID: %d, LocalId: '%s', Street: '%s', RoadClass: %s, Hierarchy: %s, State: '%s'}",
		street.ObjectID,
		street.FeatureID,
		street.Street,
		street.RoadClass,
		street.Hierarchy,
		street.State,
	)
}
