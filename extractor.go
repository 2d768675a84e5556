package natmap

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

const (
	// Only prohibited maneuvers for every vehicle type are turned into restrictions
	prohibitedManeuverType = "8I"
	allVehiclesType        = 0
	// Nodes with lower valence are not intersections
	minNodeValence = 3
)

// ExtractStats counts raw records dropped by extraction filters
type ExtractStats struct {
	Streets              int
	Ferries              int
	Nodes                int
	LowValenceNodes      int
	RestrictionLegs      int
	FilteredRestrictions int
	SignpostIDs          int
	SignpostRows         int
}

// ExtractState reads raw records of one state from source and converts them into working set.
// Any source error is fatal for the state
func ExtractState(ctx context.Context, src Source, state string) (*StateData, error) {
	st := strings.ToUpper(state)
	data := &StateData{State: st}

	rawStreets, err := src.Streets(ctx, st)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't read streets of state '%s'", st)
	}
	data.Streets = make([]*StreetSegment, 0, len(rawStreets))
	for i := range rawStreets {
		if rawStreets[i].RoadClassCode == ferryRoadClass {
			data.Stats.Ferries++
			continue
		}
		data.Streets = append(data.Streets, newStreetSegment(&rawStreets[i], st))
	}
	data.Stats.Streets = len(data.Streets)

	rawNodes, err := src.Nodes(ctx, st)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't read nodes of state '%s'", st)
	}
	data.Nodes = make([]*StreetNode, 0, len(rawNodes))
	for _, raw := range rawNodes {
		if raw.Valence < minNodeValence {
			data.Stats.LowValenceNodes++
			continue
		}
		data.Nodes = append(data.Nodes, &StreetNode{
			NodeID:    raw.NodeID,
			Elevation: raw.Elevation,
			Valence:   raw.Valence,
			State:     st,
			Geom:      raw.Geom,
		})
	}
	data.Stats.Nodes = len(data.Nodes)

	rawRestrictions, err := src.Restrictions(ctx, st)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't read restrictions of state '%s'", st)
	}
	data.RestrictionLegs = make([]*RestrictionLeg, 0, len(rawRestrictions))
	for _, raw := range rawRestrictions {
		if raw.RestrictionType != prohibitedManeuverType || raw.VehicleType != allVehiclesType {
			data.Stats.FilteredRestrictions++
			continue
		}
		data.RestrictionLegs = append(data.RestrictionLegs, &RestrictionLeg{
			RestrictionID: raw.RestrictionID,
			Sequence:      raw.Sequence,
			FeatureID:     raw.FeatureID,
			State:         st,
			Geom:          raw.Geom,
		})
	}
	SortRestrictionLegs(data.RestrictionLegs)
	data.Stats.RestrictionLegs = len(data.RestrictionLegs)

	data.SignpostIDs, err = src.SignpostIDs(ctx, st)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't read signposts of state '%s'", st)
	}
	data.SignpostRows, err = src.SignpostDestinations(ctx, st)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't read signpost destinations of state '%s'", st)
	}
	data.Stats.SignpostIDs = len(data.SignpostIDs)
	data.Stats.SignpostRows = len(data.SignpostRows)

	towns, err := src.Towns(ctx, st)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't read towns of state '%s'", st)
	}
	data.Towns = make([]*Town, len(towns))
	for i := range towns {
		town := towns[i]
		if town.State == "" {
			town.State = st
		}
		data.Towns[i] = &town
	}

	railroads, err := src.Railroads(ctx, st)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't read railroads of state '%s'", st)
	}
	data.Railroads = make([]*Railroad, len(railroads))
	for i := range railroads {
		railroad := railroads[i]
		railroad.State = st
		data.Railroads[i] = &railroad
	}
	return data, nil
}

func newStreetSegment(raw *RawStreet, state string) *StreetSegment {
	return &StreetSegment{
		FeatureID:         raw.FeatureID,
		State:             state,
		Street:            raw.Street,
		FromLeft:          raw.FromLeft,
		ToLeft:            raw.ToLeft,
		FromRight:         raw.FromRight,
		ToRight:           raw.ToRight,
		RoadClassCode:     raw.RoadClassCode,
		FeatureType:       raw.FeatureType,
		Length:            raw.Length,
		Speed:             raw.Speed,
		Oneway:            raw.Oneway,
		RoughRoad:         raw.RoughRoad,
		FromElevation:     raw.FromElevation,
		ToElevation:       raw.ToElevation,
		LocalityCodeLeft:  raw.LocalityCodeLeft,
		LocalityCodeRight: raw.LocalityCodeRight,
		PostcodeLeft:      raw.PostcodeLeft,
		PostcodeRight:     raw.PostcodeRight,
		Geom:              raw.Geom,
	}
}

// ProjectState projects every geometry of working set from WGS84 into Web Mercator
func ProjectState(data *StateData) {
	for _, street := range data.Streets {
		street.Geom = lineToWebMercator(street.Geom)
	}
	for _, node := range data.Nodes {
		node.Geom = pointToWebMercator(node.Geom)
	}
	for _, leg := range data.RestrictionLegs {
		leg.Geom = lineToWebMercator(leg.Geom)
	}
	for _, town := range data.Towns {
		town.Geom = polygonToWebMercator(town.Geom)
	}
	for _, railroad := range data.Railroads {
		railroad.Geom = lineToWebMercator(railroad.Geom)
	}
}
