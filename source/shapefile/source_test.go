package shapefile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/LdDl/natmap"
	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVersion = "2024_Q4"

func writeLayer(t *testing.T, fname string, shapeType shp.ShapeType, fields []shp.Field, shapes []shp.Shape, rows [][]any) {
	t.Helper()
	writer, err := shp.Create(fname, shapeType)
	require.NoError(t, err)
	defer writer.Close()
	require.NoError(t, writer.SetFields(fields))
	for i, shape := range shapes {
		idx := writer.Write(shape)
		for j, value := range rows[i] {
			require.NoError(t, writer.WriteAttribute(int(idx), j, value), "row %d field %d", i, j)
		}
	}
}

func polyline(parts ...[]shp.Point) shp.Shape {
	return shp.NewPolyLine(parts)
}

func stateFolder(t *testing.T, root, state string) string {
	t.Helper()
	dir := filepath.Join(root, "usa_"+state+"_navprem_"+testVersion)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	return dir
}

var streetFields = []shp.Field{
	shp.StringField("FEATURE_ID", 36),
	shp.StringField("STREET", 50),
	shp.NumberField("FROMLEFT", 10),
	shp.NumberField("TOLEFT", 10),
	shp.StringField("ROAD_CLASS", 2),
	shp.FloatField("LENGTH", 16, 3),
	shp.NumberField("SPEED", 4),
	shp.NumberField("ONEWAY", 4),
	shp.NumberField("LEVEL_BEG", 4),
	shp.StringField("PC_LEFT", 10),
}

func writeStreets(t *testing.T, dir string) {
	t.Helper()
	writeLayer(t, filepath.Join(dir, "usa_ny_streets.shp"), shp.POLYLINE, streetFields,
		[]shp.Shape{
			polyline([]shp.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}),
			// two parts sharing joint vertex
			polyline([]shp.Point{{X: 10, Y: 0}, {X: 10, Y: 5}}, []shp.Point{{X: 10, Y: 5}, {X: 10, Y: 10}}),
			polyline([]shp.Point{{X: 20, Y: 0}, {X: 30, Y: 0}}),
		},
		[][]any{
			{"A", "Main St", 1, 99, "S", 12.5, 30, 0, 1, "12207"},
			{"B", "Oak St", "n/a", 20, "T", 7.25, 25, 1, 0, "12208"},
			{"F", "Ferry", 0, 0, "H", 100.0, 5, 0, 0, ""},
		},
	)
}

func writeFixture(t *testing.T, root string) {
	t.Helper()
	dir := stateFolder(t, root, "ny")
	writeStreets(t, dir)
	writeLayer(t, filepath.Join(dir, "usa_ny_nodes.shp"), shp.POINT,
		[]shp.Field{shp.StringField("NODE_ID", 36), shp.NumberField("ELEVATION", 4), shp.NumberField("VALENCE", 4)},
		[]shp.Shape{&shp.Point{X: 10, Y: 0}, &shp.Point{X: 0, Y: 0}},
		[][]any{{"N1", 1, 3}, {"N2", 0, 1}},
	)
	writeLayer(t, filepath.Join(dir, "usa_ny_restrictions.shp"), shp.POLYLINE,
		[]shp.Field{shp.StringField("RESTR_ID", 36), shp.NumberField("SEQ_NUM", 4), shp.StringField("FEATURE_ID", 36), shp.StringField("RESTR_TYPE", 2), shp.NumberField("VEH_TYPE", 4)},
		[]shp.Shape{
			polyline([]shp.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}),
			polyline([]shp.Point{{X: 10, Y: 0}, {X: 10, Y: 10}}),
		},
		[][]any{{"R1", 1, "A", "8I", 0}, {"R1", 2, "B", "8I", 0}},
	)
	writeLayer(t, filepath.Join(dir, "nysignposts.shp"), shp.POINT,
		[]shp.Field{shp.StringField("SignpostID", 36)},
		[]shp.Shape{&shp.Point{X: 10, Y: 0}},
		[][]any{{"S1"}},
	)
	writeLayer(t, filepath.Join(dir, "nysignpostdestinations.shp"), shp.POINT,
		[]shp.Field{shp.StringField("SignpostID", 36), shp.StringField("StreetID", 36), shp.NumberField("StreetSeq", 4), shp.NumberField("Connection", 4), shp.NumberField("DestSeq", 4), shp.StringField("DestName", 100)},
		[]shp.Shape{&shp.Point{}, &shp.Point{}},
		[][]any{{"S1", "A", 1, 0, 0, ""}, {"S1", "", 0, 1, 1, "Albany"}},
	)
	town := shp.Polygon(*shp.NewPolyLine([][]shp.Point{{{X: -1, Y: -1}, {X: 40, Y: -1}, {X: 40, Y: 40}, {X: -1, Y: 40}, {X: -1, Y: -1}}}))
	writeLayer(t, filepath.Join(dir, "nytowns.shp"), shp.POLYGON,
		[]shp.Field{shp.StringField("Name", 100), shp.StringField("A1_Abbrev", 2)},
		[]shp.Shape{&town},
		[][]any{{"Albany", "NY"}},
	)
}

func TestSourceReadsState(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root)
	src := NewSource(root, testVersion)
	ctx := context.Background()

	streets, err := src.Streets(ctx, "NY")
	require.NoError(t, err)
	require.Len(t, streets, 3)
	assert.Equal(t, "A", streets[0].FeatureID)
	assert.Equal(t, "Main St", streets[0].Street)
	assert.Equal(t, int64(1), streets[0].FromLeft)
	assert.Equal(t, int64(99), streets[0].ToLeft)
	assert.Equal(t, "S", streets[0].RoadClassCode)
	assert.InDelta(t, 12.5, streets[0].Length, 1e-9)
	assert.Equal(t, 30, streets[0].Speed)
	assert.Equal(t, 1, streets[0].FromElevation)
	assert.Equal(t, "12207", streets[0].PostcodeLeft)
	assert.Equal(t, orb.LineString{{0, 0}, {10, 0}}, streets[0].Geom)
	// malformed number reads as zero
	assert.Equal(t, int64(0), streets[1].FromLeft)
	assert.Equal(t, 1, streets[1].Oneway)
	assert.Equal(t, orb.LineString{{10, 0}, {10, 5}, {10, 10}}, streets[1].Geom)
	// absent optional field
	assert.Empty(t, streets[0].LocalityCodeLeft)

	nodes, err := src.Nodes(ctx, "ny")
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, natmap.RawNode{NodeID: "N1", Elevation: 1, Valence: 3, Geom: orb.Point{10, 0}}, nodes[0])

	restrictions, err := src.Restrictions(ctx, "NY")
	require.NoError(t, err)
	require.Len(t, restrictions, 2)
	assert.Equal(t, "R1", restrictions[1].RestrictionID)
	assert.Equal(t, 2, restrictions[1].Sequence)
	assert.Equal(t, "B", restrictions[1].FeatureID)
	assert.Equal(t, "8I", restrictions[1].RestrictionType)

	ids, err := src.SignpostIDs(ctx, "NY")
	require.NoError(t, err)
	assert.Equal(t, []string{"S1"}, ids)

	destinations, err := src.SignpostDestinations(ctx, "NY")
	require.NoError(t, err)
	assert.Equal(t, []natmap.RawSignpostDestination{
		{SignpostID: "S1", StreetID: "A", StreetSeq: 1},
		{SignpostID: "S1", Connection: 1, DestinationSeq: 1, DestinationName: "Albany"},
	}, destinations)

	towns, err := src.Towns(ctx, "NY")
	require.NoError(t, err)
	require.Len(t, towns, 1)
	assert.Equal(t, "Albany", towns[0].Name)
	assert.Equal(t, "NY", towns[0].State)
	require.Len(t, towns[0].Geom, 1)
	assert.Len(t, towns[0].Geom[0], 5)

	// no railroads delivered
	railroads, err := src.Railroads(ctx, "NY")
	require.NoError(t, err)
	assert.Empty(t, railroads)
}

func TestSourceFeedsExtractor(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root)

	data, err := natmap.ExtractState(context.Background(), NewSource(root, testVersion), "ny")
	require.NoError(t, err)
	assert.Equal(t, "NY", data.State)
	assert.Len(t, data.Streets, 2)
	assert.Equal(t, 1, data.Stats.Ferries)
	assert.Len(t, data.Nodes, 1)
}

func TestSourceMissingState(t *testing.T) {
	src := NewSource(t.TempDir(), testVersion)
	_, err := src.Streets(context.Background(), "VT")
	assert.True(t, errors.Is(err, natmap.ErrStateNotFound))
	_, err = src.Towns(context.Background(), "VT")
	assert.True(t, errors.Is(err, natmap.ErrStateNotFound))
}

func TestSourceMissingRequiredFile(t *testing.T) {
	root := t.TempDir()
	stateFolder(t, root, "ny")
	_, err := NewSource(root, testVersion).Streets(context.Background(), "NY")
	require.Error(t, err)
	assert.False(t, errors.Is(err, natmap.ErrStateNotFound))
}

func TestSourceMissingRequiredField(t *testing.T) {
	root := t.TempDir()
	dir := stateFolder(t, root, "ny")
	writeLayer(t, filepath.Join(dir, "usa_ny_nodes.shp"), shp.POINT,
		[]shp.Field{shp.StringField("NODE_ID", 36)},
		[]shp.Shape{&shp.Point{X: 1, Y: 1}},
		[][]any{{"N1"}},
	)
	_, err := NewSource(root, testVersion).Nodes(context.Background(), "NY")
	assert.True(t, errors.Is(err, ErrMissingField))
}

func TestSourceFieldType(t *testing.T) {
	root := t.TempDir()
	dir := stateFolder(t, root, "ny")
	writeLayer(t, filepath.Join(dir, "usa_ny_nodes.shp"), shp.POINT,
		[]shp.Field{shp.StringField("NODE_ID", 36), shp.StringField("VALENCE", 4)},
		[]shp.Shape{&shp.Point{X: 1, Y: 1}},
		[][]any{{"N1", "3"}},
	)
	_, err := NewSource(root, testVersion).Nodes(context.Background(), "NY")
	assert.True(t, errors.Is(err, ErrFieldType))
}

func TestSourceCancelled(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSource(root, testVersion).Streets(ctx, "NY")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestStateDir(t *testing.T) {
	src := NewSource("/data", "2024_Q4")
	assert.Equal(t, filepath.Join("/data", "usa_ny_navprem_2024_Q4"), src.StateDir("NY"))
}
