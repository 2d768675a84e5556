// Package shapefile reads per-state street data delivered as ESRI shapefiles.
package shapefile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/LdDl/natmap"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Source implements natmap.Source over directory of state deliveries
type Source struct {
	dir     string
	version string
	logger  *zap.Logger
}

// NewSource returns source reading '<dir>/usa_<st>_navprem_<version>' folders
func NewSource(dir, version string) *Source {
	return &Source{
		dir:     dir,
		version: version,
		logger:  zap.L().With(zap.String("component", "shapefile_source")),
	}
}

// StateDir returns folder holding shapefiles of the state
func (src *Source) StateDir(state string) string {
	return filepath.Join(src.dir, fmt.Sprintf("usa_%s_navprem_%s", strings.ToLower(state), src.version))
}

func (src *Source) stateFile(state, name string) (string, error) {
	dir := src.StateDir(state)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", errors.Wrapf(natmap.ErrStateNotFound, "state '%s' (%s)", state, dir)
	}
	return filepath.Join(dir, name), nil
}

func (src *Source) requiredFile(state, name string) (string, error) {
	fname, err := src.stateFile(state, name)
	if err != nil {
		return "", err
	}
	if !fileExists(fname) {
		return "", errors.Errorf("Can't find '%s' of state '%s'", fname, state)
	}
	return fname, nil
}

// optionalFile returns empty name when state has no such file
func (src *Source) optionalFile(state, name string) (string, error) {
	fname, err := src.stateFile(state, name)
	if err != nil {
		return "", err
	}
	if !fileExists(fname) {
		src.logger.Debug("No optional layer", zap.String("state", state), zap.String("file", fname))
		return "", nil
	}
	return fname, nil
}

func lower(state string) string {
	return strings.ToLower(state)
}

func (src *Source) Streets(ctx context.Context, state string) ([]natmap.RawStreet, error) {
	fname, err := src.requiredFile(state, fmt.Sprintf("usa_%s_streets.shp", lower(state)))
	if err != nil {
		return nil, err
	}
	streets := []natmap.RawStreet{}
	err = streetsLayer.read(ctx, fname, func(rec *record) error {
		streets = append(streets, natmap.RawStreet{
			FeatureID:         rec.String("FEATURE_ID"),
			Street:            rec.String("STREET"),
			FromLeft:          rec.Int("FROMLEFT"),
			ToLeft:            rec.Int("TOLEFT"),
			FromRight:         rec.Int("FROMRIGHT"),
			ToRight:           rec.Int("TORIGHT"),
			FeatureType:       int(rec.Int("FCODE")),
			RoadClassCode:     rec.String("ROAD_CLASS"),
			Length:            rec.Float("LENGTH"),
			Speed:             int(rec.Int("SPEED")),
			Oneway:            int(rec.Int("ONEWAY")),
			RoughRoad:         int(rec.Int("ROUGHRD")),
			FromElevation:     int(rec.Int("LEVEL_BEG")),
			ToElevation:       int(rec.Int("LEVEL_END")),
			LocalityCodeLeft:  rec.String("LOCCODE_L"),
			LocalityCodeRight: rec.String("LOCCODE_R"),
			PostcodeLeft:      rec.String("PC_LEFT"),
			PostcodeRight:     rec.String("PC_RIGHT"),
			Geom:              toLineString(rec.shape),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return streets, nil
}

func (src *Source) Nodes(ctx context.Context, state string) ([]natmap.RawNode, error) {
	fname, err := src.requiredFile(state, fmt.Sprintf("usa_%s_nodes.shp", lower(state)))
	if err != nil {
		return nil, err
	}
	nodes := []natmap.RawNode{}
	err = nodesLayer.read(ctx, fname, func(rec *record) error {
		pt, _ := toPoint(rec.shape)
		nodes = append(nodes, natmap.RawNode{
			NodeID:    rec.String("NODE_ID"),
			Elevation: int(rec.Int("ELEVATION")),
			Valence:   int(rec.Int("VALENCE")),
			Geom:      pt,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return nodes, nil
}

func (src *Source) Restrictions(ctx context.Context, state string) ([]natmap.RawRestriction, error) {
	fname, err := src.requiredFile(state, fmt.Sprintf("usa_%s_restrictions.shp", lower(state)))
	if err != nil {
		return nil, err
	}
	restrictions := []natmap.RawRestriction{}
	err = restrictionsLayer.read(ctx, fname, func(rec *record) error {
		restrictions = append(restrictions, natmap.RawRestriction{
			RestrictionID:   rec.String("RESTR_ID"),
			Sequence:        int(rec.Int("SEQ_NUM")),
			FeatureID:       rec.String("FEATURE_ID"),
			RestrictionType: rec.String("RESTR_TYPE"),
			VehicleType:     int(rec.Int("VEH_TYPE")),
			Geom:            toLineString(rec.shape),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return restrictions, nil
}

func (src *Source) SignpostIDs(ctx context.Context, state string) ([]string, error) {
	fname, err := src.optionalFile(state, fmt.Sprintf("%ssignposts.shp", lower(state)))
	if err != nil || fname == "" {
		return nil, err
	}
	ids := []string{}
	err = signpostsLayer.read(ctx, fname, func(rec *record) error {
		ids = append(ids, rec.String("SignpostID"))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (src *Source) SignpostDestinations(ctx context.Context, state string) ([]natmap.RawSignpostDestination, error) {
	fname, err := src.optionalFile(state, fmt.Sprintf("%ssignpostdestinations.shp", lower(state)))
	if err != nil || fname == "" {
		return nil, err
	}
	rows := []natmap.RawSignpostDestination{}
	err = signpostDestinationsLayer.read(ctx, fname, func(rec *record) error {
		rows = append(rows, natmap.RawSignpostDestination{
			SignpostID:      rec.String("SignpostID"),
			StreetID:        rec.String("StreetID"),
			StreetSeq:       int(rec.Int("StreetSeq")),
			Connection:      int(rec.Int("Connection")),
			DestinationSeq:  int(rec.Int("DestSeq")),
			DestinationName: rec.String("DestName"),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (src *Source) Towns(ctx context.Context, state string) ([]natmap.Town, error) {
	fname, err := src.optionalFile(state, fmt.Sprintf("%stowns.shp", lower(state)))
	if err != nil || fname == "" {
		return nil, err
	}
	towns := []natmap.Town{}
	err = townsLayer.read(ctx, fname, func(rec *record) error {
		poly := toPolygon(rec.shape)
		if len(poly) == 0 {
			return nil
		}
		townState := rec.String("A1_Abbrev")
		if townState == "" {
			townState = strings.ToUpper(state)
		}
		towns = append(towns, natmap.Town{
			Name:  rec.String("Name"),
			State: townState,
			Geom:  poly,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return towns, nil
}

func (src *Source) Railroads(ctx context.Context, state string) ([]natmap.Railroad, error) {
	fname, err := src.optionalFile(state, fmt.Sprintf("%srailroads.shp", lower(state)))
	if err != nil || fname == "" {
		return nil, err
	}
	railroads := []natmap.Railroad{}
	err = railroadsLayer.read(ctx, fname, func(rec *record) error {
		line := toLineString(rec.shape)
		if len(line) < 2 {
			return nil
		}
		railroads = append(railroads, natmap.Railroad{
			ObjectID:      int64(len(railroads) + 1),
			FeatureID:     rec.String("FEATURE_ID"),
			FromElevation: int(rec.Int("LEVEL_BEG")),
			ToElevation:   int(rec.Int("LEVEL_END")),
			State:         strings.ToUpper(state),
			Geom:          line,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return railroads, nil
}
