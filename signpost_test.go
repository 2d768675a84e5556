package natmap

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signpostStreets() *StreetLookup {
	return NewStreetLookup([]*StreetSegment{
		{FeatureID: "S1", State: "NY", City: "Albany", Geom: orb.LineString{{0, 0}, {10, 0}}},
		{FeatureID: "S2", State: "NY", City: "Albany", Geom: orb.LineString{{10, 0}, {20, 0}}},
		{FeatureID: "S3", State: "NY", City: "Albany", Geom: orb.LineString{{30, 0}, {20, 0}}},
	})
}

func TestSignpostLabels(t *testing.T) {
	group := SignpostGroup{
		SignpostID: "SP1",
		Legs: []SignpostLeg{
			{StreetID: "S1", Sequence: 1},
			{StreetID: "S2", Sequence: 2},
			{StreetID: "S3", Sequence: 3},
		},
		Destinations: []SignpostDestination{
			{Connection: CONNECTION_BRANCH, Sequence: 1, Name: "Main St"},
			{Connection: CONNECTION_TOWARD, Sequence: 2, Name: "Downtown"},
		},
	}
	feature, records, skip := NewSignpostBuilder(signpostStreets()).Build(group)
	require.Nil(t, skip)
	require.NotNil(t, feature)
	assert.Equal(t, "SP1", feature.SrcSignID)
	assert.Equal(t, "Main St", feature.Branches[0].Text)
	assert.Equal(t, "en", feature.Branches[0].Lng)
	assert.Empty(t, feature.Branches[0].Dir)
	assert.Equal(t, "Downtown", feature.Towards[1].Text)
	assert.Equal(t, "en", feature.Towards[1].Lng)
	for i := 1; i < SIGNPOST_SLOTS; i++ {
		assert.Empty(t, feature.Branches[i].Text, "branch %d", i)
	}
	for i := 0; i < SIGNPOST_SLOTS; i++ {
		if i == 1 {
			continue
		}
		assert.Empty(t, feature.Towards[i].Text, "toward %d", i)
	}
	assert.Empty(t, feature.ExitName)
	assert.Equal(t, "NY", feature.State)
	assert.Len(t, records, 3)
}

func TestSignpostExitName(t *testing.T) {
	group := SignpostGroup{
		SignpostID:   "SP1",
		Legs:         []SignpostLeg{{StreetID: "S1", Sequence: 1}, {StreetID: "S2", Sequence: 2}},
		Destinations: []SignpostDestination{{Connection: CONNECTION_EXIT_NAME, Sequence: 1, Name: "12B"}},
	}
	feature, _, skip := NewSignpostBuilder(signpostStreets()).Build(group)
	require.Nil(t, skip)
	assert.Equal(t, "12B", feature.ExitName)
}

func TestSignpostRecordsOrientation(t *testing.T) {
	group := SignpostGroup{
		SignpostID: "SP1",
		Legs: []SignpostLeg{
			{StreetID: "S1", Sequence: 1},
			{StreetID: "S2", Sequence: 2},
			{StreetID: "S3", Sequence: 3},
		},
	}
	streets := signpostStreets()
	_, records, skip := NewSignpostBuilder(streets).Build(group)
	require.Nil(t, skip)
	require.Len(t, records, 3)

	// S1 starts at (0 0) which is not an end of S2
	assert.Equal(t, 0.0, records[0].FromPos)
	assert.Equal(t, 1.0, records[0].ToPos)
	// S2 starts at (10 0) which is the last point of S1 but S2 is compared with next leg S3
	assert.Equal(t, 0.0, records[1].FromPos)
	assert.Equal(t, 1.0, records[1].ToPos)

	s2, _ := streets.Get("S2")
	s3, _ := streets.Get("S3")
	last := ComputeEdgeEnd(s3.Geom, s2.Geom).Reverse()
	from, to := last.Positions()
	assert.Equal(t, from, records[2].FromPos)
	assert.Equal(t, to, records[2].ToPos)
	assert.Equal(t, EDGE_END_STRAIGHT, last)

	for i, r := range records {
		assert.Equal(t, "SP1", r.SrcSignID)
		assert.Equal(t, i+1, r.Sequence)
		assert.False(t, r.Edge.Resolved)
	}
	assert.Equal(t, "S3", records[2].Edge.SegmentID)
}

func TestSignpostLastLegInverse(t *testing.T) {
	streets := NewStreetLookup([]*StreetSegment{
		{FeatureID: "A", Geom: orb.LineString{{0, 0}, {10, 0}}},
		{FeatureID: "B", Geom: orb.LineString{{10, 0}, {10, 10}}},
	})
	_, records, _ := NewSignpostBuilder(streets).Build(SignpostGroup{
		SignpostID: "SP",
		Legs:       []SignpostLeg{{StreetID: "A", Sequence: 1}, {StreetID: "B", Sequence: 2}},
	})
	require.Len(t, records, 2)
	// edge_end(B, A) is 'N' since B starts at the last point of A, inverted to 'Y'
	assert.Equal(t, 0.0, records[1].FromPos)
	assert.Equal(t, 1.0, records[1].ToPos)
}

func TestSignpostTooManyDestinations(t *testing.T) {
	group := SignpostGroup{
		SignpostID: "SP6",
		Legs:       []SignpostLeg{{StreetID: "S1", Sequence: 1}, {StreetID: "S2", Sequence: 2}},
	}
	for i := 1; i <= 6; i++ {
		group.Destinations = append(group.Destinations, SignpostDestination{Connection: CONNECTION_TOWARD, Sequence: i, Name: "X"})
	}
	feature, records, skip := NewSignpostBuilder(signpostStreets()).Build(group)
	assert.Nil(t, feature)
	assert.Nil(t, records)
	require.NotNil(t, skip)
	assert.Equal(t, SkippedSignpost{SignpostID: "SP6", EdgesCount: 2, DestinationsCount: 6, Reason: SKIP_TOO_MANY_DESTINATIONS}, *skip)
}

func TestSignpostTooManyEdges(t *testing.T) {
	group := SignpostGroup{SignpostID: "SP"}
	for i := 1; i <= 6; i++ {
		group.Legs = append(group.Legs, SignpostLeg{StreetID: "S1", Sequence: i})
	}
	feature, _, skip := NewSignpostBuilder(signpostStreets()).Build(group)
	assert.Nil(t, feature)
	require.NotNil(t, skip)
	assert.Equal(t, SKIP_TOO_MANY_EDGES, skip.Reason)
	assert.Equal(t, 6, skip.EdgesCount)
}

func TestSignpostUnresolvedStreet(t *testing.T) {
	group := SignpostGroup{
		SignpostID: "SP",
		Legs:       []SignpostLeg{{StreetID: "S1", Sequence: 1}, {StreetID: "missing", Sequence: 2}},
	}
	feature, records, skip := NewSignpostBuilder(signpostStreets()).Build(group)
	assert.Nil(t, feature)
	assert.Nil(t, records)
	require.NotNil(t, skip)
	assert.Equal(t, SKIP_UNRESOLVED_STREET, skip.Reason)
}

func TestGroupSignposts(t *testing.T) {
	rows := []RawSignpostDestination{
		{SignpostID: "B", StreetID: "S2", StreetSeq: 2, Connection: 2, DestinationSeq: 1, DestinationName: "Downtown"},
		{SignpostID: "B", StreetID: "S1", StreetSeq: 1, Connection: 1, DestinationSeq: 1, DestinationName: "I-90"},
		{SignpostID: "B", StreetID: "S1", StreetSeq: 1, Connection: 1, DestinationSeq: 1, DestinationName: "I-90"},
		{SignpostID: "A", StreetID: "S3", StreetSeq: 1},
	}
	groups, duplicates := GroupSignposts([]string{"B", "A", "B"}, rows)
	assert.Equal(t, 1, duplicates)
	require.Len(t, groups, 2)
	assert.Equal(t, "A", groups[0].SignpostID)
	assert.Equal(t, "B", groups[1].SignpostID)
	assert.Equal(t, []SignpostLeg{{StreetID: "S1", Sequence: 1}, {StreetID: "S2", Sequence: 2}}, groups[1].Legs)
	assert.Equal(t, []SignpostDestination{
		{Connection: CONNECTION_BRANCH, Sequence: 1, Name: "I-90"},
		{Connection: CONNECTION_TOWARD, Sequence: 1, Name: "Downtown"},
	}, groups[1].Destinations)
	assert.Empty(t, groups[0].Destinations)
}

func TestBuildSignposts(t *testing.T) {
	rows := []RawSignpostDestination{
		{SignpostID: "OK", StreetID: "S1", StreetSeq: 1, Connection: 1, DestinationSeq: 1, DestinationName: "Main St"},
		{SignpostID: "OK", StreetID: "S2", StreetSeq: 2},
		{SignpostID: "BAD", StreetID: "nope", StreetSeq: 1},
	}
	var features []*SignpostFeature
	var skipped []*SkippedSignpost
	stats, err := BuildSignposts(signpostStreets(), []string{"OK", "BAD"}, rows,
		func(f *SignpostFeature, _ []*SignpostStreetRecord) error {
			features = append(features, f)
			return nil
		},
		func(s *SkippedSignpost) error {
			skipped = append(skipped, s)
			return nil
		},
	)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Groups)
	assert.Equal(t, 1, stats.Built)
	assert.Equal(t, 2, stats.Records)
	assert.Equal(t, 1, stats.Skipped[SKIP_UNRESOLVED_STREET])
	require.Len(t, features, 1)
	assert.Equal(t, "OK", features[0].SrcSignID)
	require.Len(t, skipped, 1)
	assert.Equal(t, "BAD", skipped[0].SignpostID)
}
