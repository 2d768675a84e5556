package natmap

import (
	"go.uber.org/zap"
)

// StateData is a working set of one state
type StateData struct {
	State           string
	Streets         []*StreetSegment
	Nodes           []*StreetNode
	RestrictionLegs []*RestrictionLeg
	SignpostIDs     []string
	SignpostRows    []RawSignpostDestination
	Towns           []*Town
	Railroads       []*Railroad
	Stats           ExtractStats

	// Filled by per-state signpost reconstruction
	Signposts        []*SignpostFeature
	SignpostRecords  []*SignpostStreetRecord
	SkippedSignposts []*SkippedSignpost
}

// NationalData is concatenation of state working sets with national row identifiers
type NationalData struct {
	States           []string
	Streets          []*StreetSegment
	Nodes            []*StreetNode
	RestrictionLegs  []*RestrictionLeg
	Railroads        []*Railroad
	Signposts        []*SignpostFeature
	SignpostRecords  []*SignpostStreetRecord
	SkippedSignposts []*SkippedSignpost

	// DuplicateLocalIDs counts street segments whose LocalId has been seen in a previous row
	DuplicateLocalIDs int
}

// MergeStates concatenates states in given order and assigns continuous ObjectIDs starting at 1 per dataset.
// State and original identifier of every record are kept as is
func MergeStates(states []*StateData) *NationalData {
	national := &NationalData{}
	var streetOID, nodeOID, signpostOID, railroadOID int64
	seen := make(map[string]string)
	for _, state := range states {
		if state == nil {
			continue
		}
		national.States = append(national.States, state.State)
		for _, street := range state.Streets {
			streetOID++
			street.ObjectID = streetOID
			if firstState, ok := seen[street.FeatureID]; ok {
				national.DuplicateLocalIDs++
				zap.L().Warn("Duplicate LocalId, first occurrence wins",
					zap.String("local_id", street.FeatureID),
					zap.String("state", street.State),
					zap.String("first_state", firstState),
				)
			} else {
				seen[street.FeatureID] = street.State
			}
			national.Streets = append(national.Streets, street)
		}
		for _, node := range state.Nodes {
			nodeOID++
			node.ObjectID = nodeOID
			national.Nodes = append(national.Nodes, node)
		}
		for _, railroad := range state.Railroads {
			railroadOID++
			railroad.ObjectID = railroadOID
			national.Railroads = append(national.Railroads, railroad)
		}
		for _, signpost := range state.Signposts {
			signpostOID++
			signpost.ObjectID = signpostOID
			national.Signposts = append(national.Signposts, signpost)
		}
		national.RestrictionLegs = append(national.RestrictionLegs, state.RestrictionLegs...)
		national.SignpostRecords = append(national.SignpostRecords, state.SignpostRecords...)
		national.SkippedSignposts = append(national.SkippedSignposts, state.SkippedSignposts...)
	}
	return national
}
