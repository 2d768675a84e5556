package natmap

import (
	"context"
	"strings"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// Source is read side of spatial data store. Every method returns records of one state
type Source interface {
	Streets(ctx context.Context, state string) ([]RawStreet, error)
	Nodes(ctx context.Context, state string) ([]RawNode, error)
	Restrictions(ctx context.Context, state string) ([]RawRestriction, error)
	SignpostIDs(ctx context.Context, state string) ([]string, error)
	SignpostDestinations(ctx context.Context, state string) ([]RawSignpostDestination, error)
	Towns(ctx context.Context, state string) ([]Town, error)
	Railroads(ctx context.Context, state string) ([]Railroad, error)
}

// ErrStateNotFound is returned by source which has no data for requested state
var ErrStateNotFound = errors.New("state not found in source")

// RawStreet is a row of source streets dataset
type RawStreet struct {
	FeatureID         string
	Street            string
	FromLeft          int64
	ToLeft            int64
	FromRight         int64
	ToRight           int64
	FeatureType       int
	RoadClassCode     string
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
	Geom              orb.LineString
}

// RawNode is a row of source nodes dataset
type RawNode struct {
	NodeID    string
	Elevation int
	Valence   int
	Geom      orb.Point
}

// RawRestriction is a row of source maneuver legs dataset
type RawRestriction struct {
	RestrictionID   string
	Sequence        int
	FeatureID       string
	RestrictionType string
	VehicleType     int
	Geom            orb.LineString
}

// StateRecords holds raw records of one state for MemorySource
type StateRecords struct {
	Streets              []RawStreet
	Nodes                []RawNode
	Restrictions         []RawRestriction
	SignpostIDs          []string
	SignpostDestinations []RawSignpostDestination
	Towns                []Town
	Railroads            []Railroad
}

// MemorySource serves records kept in memory. Keys are state codes in any case
type MemorySource map[string]*StateRecords

func (src MemorySource) state(state string) (*StateRecords, error) {
	records, ok := src[strings.ToUpper(state)]
	if !ok {
		records, ok = src[strings.ToLower(state)]
	}
	if !ok {
		return nil, errors.Wrapf(ErrStateNotFound, "state '%s'", state)
	}
	return records, nil
}

func (src MemorySource) Streets(ctx context.Context, state string) ([]RawStreet, error) {
	records, err := src.state(state)
	if err != nil {
		return nil, err
	}
	return records.Streets, nil
}

func (src MemorySource) Nodes(ctx context.Context, state string) ([]RawNode, error) {
	records, err := src.state(state)
	if err != nil {
		return nil, err
	}
	return records.Nodes, nil
}

func (src MemorySource) Restrictions(ctx context.Context, state string) ([]RawRestriction, error) {
	records, err := src.state(state)
	if err != nil {
		return nil, err
	}
	return records.Restrictions, nil
}

func (src MemorySource) SignpostIDs(ctx context.Context, state string) ([]string, error) {
	records, err := src.state(state)
	if err != nil {
		return nil, err
	}
	return records.SignpostIDs, nil
}

func (src MemorySource) SignpostDestinations(ctx context.Context, state string) ([]RawSignpostDestination, error) {
	records, err := src.state(state)
	if err != nil {
		return nil, err
	}
	return records.SignpostDestinations, nil
}

func (src MemorySource) Towns(ctx context.Context, state string) ([]Town, error) {
	records, err := src.state(state)
	if err != nil {
		return nil, err
	}
	return records.Towns, nil
}

func (src MemorySource) Railroads(ctx context.Context, state string) ([]Railroad, error) {
	records, err := src.state(state)
	if err != nil {
		return nil, err
	}
	return records.Railroads, nil
}
