package natmap

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pipelineStreet(id string, geom orb.LineString) RawStreet {
	return RawStreet{
		FeatureID:     id,
		Street:        "Street " + id,
		RoadClassCode: "S",
		Speed:         30,
		Oneway:        ONEWAY_BOTH,
		Length:        10,
		PostcodeLeft:  "12207-1000",
		Geom:          geom,
	}
}

func branchRow(signpostID string, connection SignpostConnection, seq int, name string) RawSignpostDestination {
	return RawSignpostDestination{SignpostID: signpostID, Connection: int(connection), DestinationSeq: seq, DestinationName: name}
}

func legRow(signpostID, streetID string, seq int) RawSignpostDestination {
	return RawSignpostDestination{SignpostID: signpostID, StreetID: streetID, StreetSeq: seq}
}

func pipelineSource() MemorySource {
	a := orb.LineString{{0, 0}, {10, 0}}
	b := orb.LineString{{10, 0}, {10, 10}}
	streetA := pipelineStreet("A", a)
	streetA.FromLeft, streetA.ToLeft = 1, 99
	rows := []RawSignpostDestination{
		legRow("S1", "A", 1),
		legRow("S1", "B", 2),
		legRow("S1", "C", 3),
		branchRow("S1", CONNECTION_BRANCH, 1, "Main St"),
		branchRow("S1", CONNECTION_TOWARD, 2, "Downtown"),
		legRow("S2", "A", 1),
	}
	for i := 1; i <= 6; i++ {
		rows = append(rows, branchRow("S2", CONNECTION_TOWARD, i, "Town"))
	}
	return MemorySource{
		"NY": &StateRecords{
			Streets: []RawStreet{
				streetA,
				pipelineStreet("B", b),
				pipelineStreet("C", orb.LineString{{10, 10}, {20, 10}}),
				pipelineStreet("D", orb.LineString{{20, 10}, {20, 20}}),
				pipelineStreet("E", orb.LineString{{10, 0}, {10, -10}}),
			},
			Nodes: []RawNode{
				{NodeID: "N1", Valence: 3, Geom: orb.Point{10, 0}},
				{NodeID: "N2", Valence: 3, Geom: orb.Point{50, 50}},
			},
			Restrictions: []RawRestriction{
				{RestrictionID: "R1", Sequence: 2, FeatureID: "B", RestrictionType: prohibitedManeuverType, Geom: b},
				{RestrictionID: "R1", Sequence: 1, FeatureID: "A", RestrictionType: prohibitedManeuverType, Geom: a},
			},
			SignpostIDs:          []string{"S2", "S1"},
			SignpostDestinations: rows,
			Towns:                []Town{{Name: "Albany", Geom: square(-20, -20, 40, 40)}},
			Railroads:            []Railroad{{FeatureID: "RR1", Geom: orb.LineString{{5, -5}, {5, 5}}}},
		},
	}
}

func column(t *testing.T, schema *Schema, row []any, name string) any {
	t.Helper()
	idx := schema.Index(name)
	require.GreaterOrEqual(t, idx, 0, "no column %s in %s", name, schema.Name)
	return row[idx]
}

func TestPipelineRun(t *testing.T) {
	ws := NewMemoryWorkspace()
	output := t.TempDir()
	pipeline := NewPipeline(pipelineSource(), ws, NewOptions(
		WithStates([]string{"NY", "NJ"}),
		WithWebMercator(false),
		WithOutputFolder(output),
		WithTurnBatchSize(2),
		WithSignpostBatchSize(2),
		WithRunID("test-run"),
	))
	report, err := pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test-run", report.RunID)
	assert.Equal(t, []string{"NY"}, report.States)
	assert.Equal(t, []string{"NJ"}, report.FailedStates)

	streets := ws.Rows(StreetsSchema.Name)
	require.Len(t, streets, 5)
	assert.Equal(t, int64(1), column(t, StreetsSchema, streets[0], "OBJECTID"))
	assert.Equal(t, "A", column(t, StreetsSchema, streets[0], "LocalId"))
	assert.Equal(t, "Albany", column(t, StreetsSchema, streets[0], "City"))
	assert.Equal(t, "12207", column(t, StreetsSchema, streets[0], "LeftPostalCode"))

	nodes := ws.Rows(NodesSchema.Name)
	require.Len(t, nodes, 1)
	assert.Equal(t, "N1", column(t, NodesSchema, nodes[0], "NodeID"))

	// two legs A and B of one restriction
	turns := ws.Rows(TurnsSchema.Name)
	require.Len(t, turns, 1)
	assert.Equal(t, int64(1), column(t, TurnsSchema, turns[0], "Edge1FID"))
	assert.Equal(t, int64(2), column(t, TurnsSchema, turns[0], "Edge2FID"))
	assert.Equal(t, DATASET_STREETS, column(t, TurnsSchema, turns[0], "Edge1FCID"))
	assert.Equal(t, "Y", column(t, TurnsSchema, turns[0], "Edge1End"))
	assert.Equal(t, int64(1), column(t, TurnsSchema, turns[0], "ProhibitedTurnFlag"))
	assert.Nil(t, column(t, TurnsSchema, turns[0], "Edge3FID"))
	assert.Equal(t, "Albany", column(t, TurnsSchema, turns[0], "City"))

	// signpost with branch and toward entries
	signposts := ws.Rows(SignpostFeaturesSchema.Name)
	require.Len(t, signposts, 1)
	sign := signposts[0]
	assert.Equal(t, "S1", column(t, SignpostFeaturesSchema, sign, "SrcSignID"))
	assert.Equal(t, "Main St", column(t, SignpostFeaturesSchema, sign, "Branch0"))
	assert.Equal(t, "en", column(t, SignpostFeaturesSchema, sign, "Branch0Lng"))
	assert.Equal(t, "Downtown", column(t, SignpostFeaturesSchema, sign, "Toward1"))
	assert.Equal(t, "en", column(t, SignpostFeaturesSchema, sign, "Toward1Lng"))
	for i := 0; i < SIGNPOST_SLOTS; i++ {
		if i != 0 {
			assert.Nil(t, column(t, SignpostFeaturesSchema, sign, "Branch"+strconv.Itoa(i)))
		}
		if i != 1 {
			assert.Nil(t, column(t, SignpostFeaturesSchema, sign, "Toward"+strconv.Itoa(i)))
		}
	}

	records := ws.Rows(SignpostStreetsSchema.Name)
	require.Len(t, records, 3)
	for i, record := range records {
		assert.Equal(t, int64(1), column(t, SignpostStreetsSchema, record, "SignpostID"))
		assert.Equal(t, int64(i+1), column(t, SignpostStreetsSchema, record, "EdgeFID"))
	}
	assert.Equal(t, signpostIndexFields, ws.Indexes(SignpostStreetsSchema.Name))

	// signpost with six destination entries is skipped
	skips := ws.Rows(SignpostSkipsSchema.Name)
	require.Len(t, skips, 1)
	assert.Equal(t, []any{int64(1), "S2", int64(1), int64(6), string(SKIP_TOO_MANY_DESTINATIONS)}, skips[0])

	crossings := ws.Rows(CrossingsSchema.Name)
	require.Len(t, crossings, 1)
	crossing, ok := crossings[0][len(crossings[0])-1].(orb.Point)
	require.True(t, ok)
	assert.InDelta(t, 5.0, crossing.X(), 1e-9)
	assert.InDelta(t, 0.0, crossing.Y(), 1e-9)
	landmarks := ws.Rows(LandmarksSchema.Name)
	require.Len(t, landmarks, 1)
	assert.Equal(t, int64(1), column(t, LandmarksSchema, landmarks[0], "Edge1FID"))
	assert.InDelta(t, 0.5, column(t, LandmarksSchema, landmarks[0], "Edge1ConfirmationPos"), 1e-9)

	junctions := ws.Rows(JunctionsSchema.Name)
	require.Len(t, junctions, 1)
	assert.Equal(t, int64(1), column(t, JunctionsSchema, junctions[0], "NodeOID"))

	assert.Len(t, ws.Rows(LocatorSchema.Name), 1)
	require.NotNil(t, report.Locator)
	assert.Len(t, report.Locator.Find("street a", 50, "albany"), 1)

	require.NotNil(t, report.Network)
	assert.True(t, report.Network.Contracted)
	assert.Equal(t, 1, report.Network.Stats.TurnRestrictions)
	require.NotNil(t, report.Dissolved)
	_, err = os.Stat(filepath.Join(output, "network", "routing_ND.csv"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(output, "network", "routing_ND_dissolved.csv"))
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(output, "national_streets.mmpk"), report.PackageFile)
	_, err = ReadPackageEntry(report.PackageFile, packageManifestEntry)
	assert.NoError(t, err)

	assert.Equal(t, TurnStats{Groups: 1, Converted: 1}, report.TurnStats)
	assert.Equal(t, ResolveStats{Resolved: 2}, report.TurnRefs)
	assert.Equal(t, ResolveStats{Resolved: 3}, report.SignpostRefs)
	assert.Equal(t, ResolveStats{Resolved: 1}, report.LandmarkRefs)
}

func TestPipelineSQLResolveMode(t *testing.T) {
	ws := NewMemoryWorkspace()
	pipeline := NewPipeline(pipelineSource(), ws, NewOptions(
		WithStates([]string{"NY"}),
		WithWebMercator(false),
		WithResolveMode(RESOLVE_MODE_SQL),
		WithNetwork(false, false, false),
	))
	report, err := pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, pipeline.RunID())
	assert.Equal(t, pipeline.RunID(), report.RunID)
	assert.Nil(t, report.Network)
	assert.Empty(t, report.PackageFile)

	assert.Equal(t, []string{
		SignpostEdgeUpdateSQL("SIGNPOST_TABLE", "MAP_STREET"),
		SignpostFCIDUpdateSQL("SIGNPOST_TABLE", DATASET_STREETS),
		SignpostIDUpdateSQL("SIGNPOST_TABLE", "SIGNPOST_FEATURE"),
	}, ws.Statements)
	for _, record := range ws.Rows(SignpostStreetsSchema.Name) {
		assert.Nil(t, column(t, SignpostStreetsSchema, record, "EdgeFID"))
		assert.Nil(t, column(t, SignpostStreetsSchema, record, "SignpostID"))
	}
	assert.Len(t, ws.Rows(TurnsSchema.Name), 1)
	assert.Equal(t, int64(1), column(t, TurnsSchema, ws.Rows(TurnsSchema.Name)[0], "Edge1FID"))
}

func TestPipelineNoStates(t *testing.T) {
	pipeline := NewPipeline(pipelineSource(), NewMemoryWorkspace(), NewOptions(WithStates([]string{"NJ", "PA"})))
	report, err := pipeline.Run(context.Background())
	assert.True(t, errors.Is(err, ErrNoStates))
	assert.Equal(t, []string{"NJ", "PA"}, report.FailedStates)
}

func TestPipelineCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pipeline := NewPipeline(pipelineSource(), NewMemoryWorkspace(), NewOptions(WithStates([]string{"NY"})))
	_, err := pipeline.Run(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
