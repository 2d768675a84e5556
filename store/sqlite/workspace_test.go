package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/LdDl/natmap"
	"github.com/LdDl/natmap/internal/geomcodec"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = &natmap.Schema{
	ID:       100,
	Name:     "TEST_FEATURE",
	Geometry: natmap.GEOMETRY_POLYLINE,
	Fields: []natmap.Field{
		{Name: natmap.ObjectIDColumn, Type: natmap.FIELD_INTEGER},
		{Name: "LocalId", Type: natmap.FIELD_TEXT, Length: 36},
		{Name: "EdgeFID", Type: natmap.FIELD_INTEGER},
		{Name: "Weight", Type: natmap.FIELD_DOUBLE},
	},
}

var linkSchema = &natmap.Schema{
	ID:   101,
	Name: "TEST_LINK",
	Fields: []natmap.Field{
		{Name: "SegmentID", Type: natmap.FIELD_TEXT, Length: 36},
		{Name: "EdgeFID", Type: natmap.FIELD_INTEGER},
	},
}

func newTestWorkspace(t *testing.T) *Workspace {
	t.Helper()
	ws, err := Open(filepath.Join(t.TempDir(), "national.gdb.sqlite"), geomcodec.SRID_WEB_MERCATOR)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() }) //nolint:errcheck
	return ws
}

func TestCreateTableSQL(t *testing.T) {
	assert.Equal(t, "CREATE TABLE TEST_FEATURE (\n\tOBJECTID INTEGER,\n\tLocalId TEXT,\n\tEdgeFID INTEGER,\n\tWeight REAL,\n\tShape BLOB\n)", CreateTableSQL(testSchema))
	assert.Equal(t, "CREATE TABLE TEST_LINK (\n\tSegmentID TEXT,\n\tEdgeFID INTEGER\n)", CreateTableSQL(linkSchema))
}

func TestInsertAndRead(t *testing.T) {
	ws := newTestWorkspace(t)
	ctx := context.Background()
	require.NoError(t, ws.CreateTable(ctx, testSchema))

	rows := [][]any{
		{int64(1), "A", int64(10), 1.5, orb.LineString{{0, 0}, {1, 1}}},
		{int64(2), "B", nil, 2.0, nil},
	}
	n, err := ws.Insert(ctx, testSchema, rows)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	stored, err := ws.Rows(ctx, testSchema)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, []any{int64(1), "A", int64(10), 1.5, orb.LineString{{0, 0}, {1, 1}}}, stored[0])
	assert.Equal(t, int64(2), stored[1][0])
	assert.Nil(t, stored[1][2])
	assert.Nil(t, stored[1][4])
}

func TestInsertRejectsInvalidRow(t *testing.T) {
	ws := newTestWorkspace(t)
	ctx := context.Background()
	require.NoError(t, ws.CreateTable(ctx, testSchema))

	_, err := ws.Insert(ctx, testSchema, [][]any{
		{int64(1), "A", int64(10), 1.5, orb.LineString{{0, 0}, {1, 1}}},
		{int64(2), "B"},
	})
	require.Error(t, err)

	// rejected batch is rolled back as a whole
	stored, err := ws.Rows(ctx, testSchema)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestCreateTableRecreates(t *testing.T) {
	ws := newTestWorkspace(t)
	ctx := context.Background()
	require.NoError(t, ws.CreateTable(ctx, linkSchema))
	_, err := ws.Insert(ctx, linkSchema, [][]any{{"A", nil}})
	require.NoError(t, err)

	require.NoError(t, ws.CreateTable(ctx, linkSchema))
	stored, err := ws.Rows(ctx, linkSchema)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestAddIndex(t *testing.T) {
	ws := newTestWorkspace(t)
	ctx := context.Background()
	require.NoError(t, ws.CreateTable(ctx, linkSchema))

	require.NoError(t, ws.AddIndex(ctx, linkSchema, "SegmentID"))
	require.NoError(t, ws.AddIndex(ctx, linkSchema, "SegmentID"))
	assert.Error(t, ws.AddIndex(ctx, linkSchema, "Missing"))

	indexes, err := ws.Indexes(ctx, linkSchema)
	require.NoError(t, err)
	assert.Equal(t, []string{"idx_test_link_segmentid"}, indexes)
}

func TestExecUpdateFrom(t *testing.T) {
	ws := newTestWorkspace(t)
	ctx := context.Background()
	require.NoError(t, ws.CreateTable(ctx, testSchema))
	require.NoError(t, ws.CreateTable(ctx, linkSchema))
	_, err := ws.Insert(ctx, testSchema, [][]any{
		{int64(7), "A", nil, 0.0, nil},
		{int64(8), "B", nil, 0.0, nil},
	})
	require.NoError(t, err)
	_, err = ws.Insert(ctx, linkSchema, [][]any{{"B", nil}, {"Z", nil}})
	require.NoError(t, err)

	n, err := ws.Exec(ctx, "UPDATE TEST_LINK SET EdgeFID = S.OBJECTID FROM TEST_FEATURE S WHERE SegmentID = S.LocalId;")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	stored, err := ws.Rows(ctx, linkSchema)
	require.NoError(t, err)
	assert.Equal(t, [][]any{{"B", int64(8)}, {"Z", nil}}, stored)

	_, err = ws.Exec(ctx, "UPDATE MISSING SET x = 1")
	assert.Error(t, err)
}

func TestNationalSchemasOnSQLite(t *testing.T) {
	ws := newTestWorkspace(t)
	ctx := context.Background()
	for _, schema := range natmap.Schemas() {
		require.NoError(t, ws.CreateTable(ctx, schema))
	}
	n, err := ws.Exec(ctx, natmap.SignpostFCIDUpdateSQL(natmap.SignpostStreetsSchema.Name, natmap.DATASET_STREETS))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSignpostIDUpdatePerState(t *testing.T) {
	ws := newTestWorkspace(t)
	ctx := context.Background()
	features, records := natmap.SignpostFeaturesSchema, natmap.SignpostStreetsSchema
	require.NoError(t, ws.CreateTable(ctx, features))
	require.NoError(t, ws.CreateTable(ctx, records))
	_, err := ws.Insert(ctx, features, [][]any{
		natmap.SignpostFeatureRow(&natmap.SignpostFeature{ObjectID: 1, SrcSignID: "100", State: "NY"}),
		natmap.SignpostFeatureRow(&natmap.SignpostFeature{ObjectID: 2, SrcSignID: "100", State: "NJ"}),
	})
	require.NoError(t, err)
	_, err = ws.Insert(ctx, records, [][]any{
		natmap.SignpostStreetRow(1, &natmap.SignpostStreetRecord{Sequence: 1, Edge: natmap.NewEdgeRef("A"), SrcSignID: "100", State: "NJ"}),
		natmap.SignpostStreetRow(2, &natmap.SignpostStreetRecord{Sequence: 1, Edge: natmap.NewEdgeRef("B"), SrcSignID: "100", State: "NY"}),
	})
	require.NoError(t, err)

	n, err := ws.Exec(ctx, natmap.SignpostIDUpdateSQL(records.Name, features.Name))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	stored, err := ws.Rows(ctx, records)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, int64(2), stored[0][records.Index("SignpostID")])
	assert.Equal(t, int64(1), stored[1][records.Index("SignpostID")])
}
