package natmap

import (
	"fmt"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurnsSchemaSlots(t *testing.T) {
	for seq := 1; seq <= MAX_TURN_EDGES; seq++ {
		start := 2 + (seq-1)*3
		assert.Equal(t, start, TurnsSchema.Index(fmt.Sprintf("Edge%dFCID", seq)))
		assert.Equal(t, start+1, TurnsSchema.Index(fmt.Sprintf("Edge%dFID", seq)))
		assert.Equal(t, start+2, TurnsSchema.Index(fmt.Sprintf("Edge%dPos", seq)))
	}
	assert.Equal(t, 1, TurnsSchema.Index("edge1end"))
	assert.Equal(t, -1, TurnsSchema.Index("Edge6FID"))
}

func TestSignpostFeaturesSchemaSlots(t *testing.T) {
	for seq := 1; seq <= SIGNPOST_SLOTS; seq++ {
		assert.Equal(t, 5*seq-3, SignpostFeaturesSchema.Index(fmt.Sprintf("Branch%d", seq-1)))
		assert.Equal(t, 5*seq-1, SignpostFeaturesSchema.Index(fmt.Sprintf("Branch%dLng", seq-1)))
	}
	columns := SignpostFeaturesSchema.Columns()
	assert.Equal(t, GeometryColumn, columns[len(columns)-1])
}

func TestSchemaIDsAreUnique(t *testing.T) {
	seen := map[int64]string{}
	for _, schema := range Schemas() {
		other, ok := seen[schema.ID]
		require.False(t, ok, "%s and %s share id", schema.Name, other)
		seen[schema.ID] = schema.Name
	}
	assert.Equal(t, DATASET_STREETS, StreetsSchema.ID)
}

func TestValidateRow(t *testing.T) {
	street := &StreetSegment{ObjectID: 1, FeatureID: "A", Geom: orb.LineString{{0, 0}, {1, 1}}}
	assert.NoError(t, StreetsSchema.ValidateRow(StreetRow(street)))

	row := StreetRow(street)
	assert.Error(t, StreetsSchema.ValidateRow(row[:len(row)-1]))

	row[len(row)-1] = orb.Point{1, 1}
	assert.Error(t, StreetsSchema.ValidateRow(row))

	skip := &SkippedSignpost{SignpostID: "S", EdgesCount: 1, DestinationsCount: 6, Reason: SKIP_TOO_MANY_DESTINATIONS}
	assert.NoError(t, SignpostSkipsSchema.ValidateRow(SkippedSignpostRow(1, skip)))
	assert.Error(t, SignpostSkipsSchema.ValidateRow(append(SkippedSignpostRow(1, skip), orb.Point{})))
	assert.NoError(t, JunctionsSchema.ValidateRow(JunctionRow(1, &Junction{NodeOID: 3, Geom: orb.Point{1, 1}})))
}

func TestTurnRowNullSlots(t *testing.T) {
	turn := &TurnFeature{
		RestrictionID:      "R1",
		Edge1End:           EDGE_END_REVERSED,
		ProhibitedTurnFlag: PROHIBITED_TURN_FLAG,
		Edges: [MAX_TURN_EDGES]TurnEdge{
			{EdgeRef: EdgeRef{SegmentID: "A", FCID: DATASET_STREETS, FID: 7, Resolved: true}, Pos: turnEdgePosition, Filled: true},
			{EdgeRef: NewEdgeRef("B"), Pos: turnEdgePosition, Filled: true},
		},
		Geom: orb.MultiLineString{{{0, 0}, {1, 0}}},
	}
	row := TurnRow(1, turn)
	require.NoError(t, TurnsSchema.ValidateRow(row))
	assert.Equal(t, "Y", row[1])
	assert.Equal(t, DATASET_STREETS, row[2])
	assert.Equal(t, int64(7), row[3])
	assert.Nil(t, row[5])
	assert.Nil(t, row[6])
	assert.Equal(t, turnEdgePosition, row[7])
	for i := 8; i < 17; i++ {
		assert.Nil(t, row[i], "column %s", TurnsSchema.Fields[i].Name)
	}
}
