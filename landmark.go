package natmap

import (
	"fmt"
)

const (
	GUIDANCE_TYPE_RAILROAD_CROSSING = 4
	LANDMARK_IMPORTANCE             = 100
	// LANDMARK_SIDE_BOTH means landmark is visible from both sides of the edge
	LANDMARK_SIDE_BOTH = 0

	firstLandmarkID = 1
	// Half-width of position window around landmark
	landmarkOffset = 0.00001
)

// ReferenceLandmark is confirmation cue anchored to a position along street edge
type ReferenceLandmark struct {
	LandmarkID      int64
	GuidanceType    int
	Edge            EdgeRef
	FromPos         float64
	ToPos           float64
	ConfirmationPos float64
	Importance      int
	Side            int
}

func (landmark *ReferenceLandmark) String() string {
	return fmt.Sprintf("ReferenceLandmark{LandmarkID: %d, Edge: %s, Pos: %f [%f; %f]}",
		landmark.LandmarkID, landmark.Edge, landmark.ConfirmationPos, landmark.FromPos, landmark.ToPos)
}

// landmarkBracket returns window around normalized position clamped to [0; 1]
func landmarkBracket(position float64) (from, to float64) {
	switch {
	case position <= 0:
		return 0, landmarkOffset
	case position >= 1:
		return 1 - landmarkOffset, 1
	default:
		return position - landmarkOffset, position + landmarkOffset
	}
}

// LandmarkStats counts outcome of landmark generation
type LandmarkStats struct {
	Built   int
	Skipped int
}

// BuildReferenceLandmarks creates one landmark per crossing. Landmark ids start at 1 and increase by one.
// Crossing referencing unknown or zero length street is skipped
func BuildReferenceLandmarks(crossings []*RailroadCrossing, streets []*StreetSegment) ([]*ReferenceLandmark, LandmarkStats) {
	byOID := make(map[int64]*StreetSegment, len(streets))
	for _, street := range streets {
		if _, ok := byOID[street.ObjectID]; !ok {
			byOID[street.ObjectID] = street
		}
	}
	stats := LandmarkStats{}
	landmarks := make([]*ReferenceLandmark, 0, len(crossings))
	landmarkID := int64(firstLandmarkID)
	for _, crossing := range crossings {
		street, ok := byOID[crossing.StreetOID]
		if !ok {
			stats.Skipped++
			continue
		}
		length := lineLength(street.Geom)
		if length == 0 {
			stats.Skipped++
			continue
		}
		position := roundTo(measureOnLine(street.Geom, crossing.Geom)/length, 2)
		from, to := landmarkBracket(position)
		landmarks = append(landmarks, &ReferenceLandmark{
			LandmarkID:      landmarkID,
			GuidanceType:    GUIDANCE_TYPE_RAILROAD_CROSSING,
			Edge:            EdgeRef{SegmentID: street.FeatureID, FID: street.ObjectID, Resolved: street.ObjectID > 0},
			FromPos:         from,
			ToPos:           to,
			ConfirmationPos: position,
			Importance:      LANDMARK_IMPORTANCE,
			Side:            LANDMARK_SIDE_BOTH,
		})
		landmarkID++
		stats.Built++
	}
	return landmarks, stats
}
