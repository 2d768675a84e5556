package natmap

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"go.uber.org/zap"
)

const (
	// MAX_SIGNPOST_EDGES is maximum number of path legs in signpost
	MAX_SIGNPOST_EDGES = 5
	// MAX_SIGNPOST_DESTINATIONS is maximum number of destination entries in signpost
	MAX_SIGNPOST_DESTINATIONS = 5
	// SIGNPOST_SLOTS is number of branch and toward slots of signpost feature
	SIGNPOST_SLOTS = 10

	signpostLanguageCode = "en"
)

// SignpostConnection is kind of destination entry
type SignpostConnection int

const (
	CONNECTION_BRANCH = SignpostConnection(iota + 1)
	CONNECTION_TOWARD
	CONNECTION_EXIT_NAME
)

func (iotaIdx SignpostConnection) String() string {
	if iotaIdx < CONNECTION_BRANCH || iotaIdx > CONNECTION_EXIT_NAME {
		return fmt.Sprintf("undefined(%d)", int(iotaIdx))
	}
	return [...]string{"branch", "toward", "exit_name"}[iotaIdx-1]
}

// SkipReason explains why signpost has not been built
type SkipReason string

const (
	SKIP_TOO_MANY_EDGES        = SkipReason("too_many_edges")
	SKIP_TOO_MANY_DESTINATIONS = SkipReason("too_many_destinations")
	SKIP_UNRESOLVED_STREET     = SkipReason("unresolved_street")
)

// SignpostLeg is one street of signpost path
type SignpostLeg struct {
	StreetID string
	Sequence int
}

// SignpostDestination is one text entry of signpost
type SignpostDestination struct {
	Connection SignpostConnection
	Sequence   int
	Name       string
}

// SignpostGroup is everything known about one signpost id
type SignpostGroup struct {
	SignpostID   string
	Legs         []SignpostLeg
	Destinations []SignpostDestination
}

// SignpostBranch is branch slot of signpost feature. Empty strings are stored as NULL
type SignpostBranch struct {
	Text string
	Dir  string
	Lng  string
}

// SignpostToward is toward slot of signpost feature. Empty strings are stored as NULL
type SignpostToward struct {
	Text string
	Lng  string
}

// SignpostFeature is signpost geometry with denormalized labels
type SignpostFeature struct {
	ObjectID  int64
	SrcSignID string
	ExitName  string
	Branches  [SIGNPOST_SLOTS]SignpostBranch
	Towards   [SIGNPOST_SLOTS]SignpostToward
	State     string
	City      string
	Geom      orb.MultiLineString
}

// SignpostStreetRecord references one edge of signpost path
type SignpostStreetRecord struct {
	// SignpostID is national ObjectID of signpost feature. Zero until resolved
	SignpostID int64
	Sequence   int
	Edge       EdgeRef
	FromPos    float64
	ToPos      float64
	SrcSignID  string
	State      string
	City       string
}

// SkippedSignpost is diagnostic record of signpost which has not been built
type SkippedSignpost struct {
	SignpostID        string
	EdgesCount        int
	DestinationsCount int
	Reason            SkipReason
}

// RawSignpostDestination is a row of source signpost destinations table
type RawSignpostDestination struct {
	SignpostID      string
	StreetID        string
	StreetSeq       int
	Connection      int
	DestinationSeq  int
	DestinationName string
}

// GroupSignposts builds per-signpost groups. Ids are processed in ascending order, repeated id is skipped
func GroupSignposts(signpostIDs []string, rows []RawSignpostDestination) ([]SignpostGroup, int) {
	ids := make([]string, len(signpostIDs))
	copy(ids, signpostIDs)
	sort.Strings(ids)

	type collected struct {
		legs  map[SignpostLeg]struct{}
		dests map[SignpostDestination]struct{}
	}
	byID := make(map[string]*collected)
	for _, row := range rows {
		c, ok := byID[row.SignpostID]
		if !ok {
			c = &collected{legs: make(map[SignpostLeg]struct{}), dests: make(map[SignpostDestination]struct{})}
			byID[row.SignpostID] = c
		}
		if row.StreetID != "" {
			c.legs[SignpostLeg{StreetID: row.StreetID, Sequence: row.StreetSeq}] = struct{}{}
		}
		if row.Connection != 0 {
			c.dests[SignpostDestination{Connection: SignpostConnection(row.Connection), Sequence: row.DestinationSeq, Name: row.DestinationName}] = struct{}{}
		}
	}

	groups := make([]SignpostGroup, 0, len(ids))
	duplicates := 0
	previous := ""
	for i, id := range ids {
		if i > 0 && id == previous {
			duplicates++
			zap.L().Warn("Duplicate signpost id", zap.String("signpost_id", id))
			continue
		}
		previous = id
		group := SignpostGroup{SignpostID: id}
		if c, ok := byID[id]; ok {
			for l := range c.legs {
				group.Legs = append(group.Legs, l)
			}
			for d := range c.dests {
				group.Destinations = append(group.Destinations, d)
			}
		}
		sortSignpostLegs(group.Legs)
		sortSignpostDestinations(group.Destinations)
		groups = append(groups, group)
	}
	return groups, duplicates
}

func sortSignpostLegs(legs []SignpostLeg) {
	sort.Slice(legs, func(i, j int) bool {
		if legs[i].Sequence != legs[j].Sequence {
			return legs[i].Sequence < legs[j].Sequence
		}
		return legs[i].StreetID < legs[j].StreetID
	})
}

func sortSignpostDestinations(dests []SignpostDestination) {
	sort.Slice(dests, func(i, j int) bool {
		if dests[i].Connection != dests[j].Connection {
			return dests[i].Connection < dests[j].Connection
		}
		if dests[i].Sequence != dests[j].Sequence {
			return dests[i].Sequence < dests[j].Sequence
		}
		return dests[i].Name < dests[j].Name
	})
}

// SignpostBuilder stitches signpost groups against streets of one processing unit
type SignpostBuilder struct {
	streets *StreetLookup
}

// NewSignpostBuilder returns builder resolving legs with given lookup
func NewSignpostBuilder(streets *StreetLookup) *SignpostBuilder {
	return &SignpostBuilder{streets: streets}
}

// Build returns signpost feature and its street records.
// When signpost can't be built nil feature is returned together with skip diagnostic
func (builder *SignpostBuilder) Build(group SignpostGroup) (*SignpostFeature, []*SignpostStreetRecord, *SkippedSignpost) {
	skip := func(reason SkipReason) *SkippedSignpost {
		return &SkippedSignpost{
			SignpostID:        group.SignpostID,
			EdgesCount:        len(group.Legs),
			DestinationsCount: len(group.Destinations),
			Reason:            reason,
		}
	}
	if len(group.Legs) > MAX_SIGNPOST_EDGES {
		return nil, nil, skip(SKIP_TOO_MANY_EDGES)
	}
	if len(group.Destinations) > MAX_SIGNPOST_DESTINATIONS {
		return nil, nil, skip(SKIP_TOO_MANY_DESTINATIONS)
	}
	geom, ok := builder.signpostGeometry(group.Legs)
	if !ok {
		return nil, nil, skip(SKIP_UNRESOLVED_STREET)
	}
	feature := newSignpostFeature(group.SignpostID, geom, group.Destinations)
	records := builder.streetRecords(group)
	if len(records) > 0 {
		feature.State = records[0].State
		feature.City = records[0].City
	}
	return feature, records, nil
}

// signpostGeometry unions geometries of path streets. Any unresolved street drops the whole geometry
func (builder *SignpostBuilder) signpostGeometry(legs []SignpostLeg) (orb.MultiLineString, bool) {
	if len(legs) == 0 {
		return nil, false
	}
	var geom orb.MultiLineString
	for _, l := range legs {
		street, ok := builder.streets.Get(l.StreetID)
		if !ok || len(street.Geom) == 0 {
			return nil, false
		}
		geom = unionLines(geom, street.Geom)
	}
	return geom, true
}

func newSignpostFeature(signpostID string, geom orb.MultiLineString, destinations []SignpostDestination) *SignpostFeature {
	feature := &SignpostFeature{
		SrcSignID: signpostID,
		Geom:      geom,
	}
	for _, dest := range destinations {
		slot := dest.Sequence - 1
		switch dest.Connection {
		case CONNECTION_BRANCH:
			if slot < 0 || slot >= SIGNPOST_SLOTS {
				continue
			}
			feature.Branches[slot].Text = dest.Name
			feature.Branches[slot].Lng = signpostLanguageCode
		case CONNECTION_TOWARD:
			if slot < 0 || slot >= SIGNPOST_SLOTS {
				continue
			}
			feature.Towards[slot].Text = dest.Name
			feature.Towards[slot].Lng = signpostLanguageCode
		case CONNECTION_EXIT_NAME:
			feature.ExitName = dest.Name
		}
	}
	return feature
}

// streetRecords orients every path leg against its neighbour.
// Last leg is compared with previous one and the flag is inverted
func (builder *SignpostBuilder) streetRecords(group SignpostGroup) []*SignpostStreetRecord {
	legs := group.Legs
	records := make([]*SignpostStreetRecord, 0, len(legs))
	for i, l := range legs {
		street, ok := builder.streets.Get(l.StreetID)
		if !ok {
			continue
		}
		var edgeEnd EdgeEnd
		switch {
		case len(legs) == 1:
			edgeEnd = ComputeEdgeEnd(street.Geom, street.Geom).Reverse()
		case i == len(legs)-1:
			previous, ok := builder.streets.Get(legs[i-1].StreetID)
			if !ok {
				continue
			}
			edgeEnd = ComputeEdgeEnd(street.Geom, previous.Geom).Reverse()
		default:
			next, ok := builder.streets.Get(legs[i+1].StreetID)
			if !ok {
				continue
			}
			edgeEnd = ComputeEdgeEnd(street.Geom, next.Geom)
		}
		from, to := edgeEnd.Positions()
		records = append(records, &SignpostStreetRecord{
			Sequence:  l.Sequence,
			Edge:      NewEdgeRef(street.FeatureID),
			FromPos:   from,
			ToPos:     to,
			SrcSignID: group.SignpostID,
			State:     street.State,
			City:      street.City,
		})
	}
	return records
}

// SignpostStats counts outcome of signpost reconstruction
type SignpostStats struct {
	Groups     int
	Built      int
	Records    int
	Duplicates int
	Skipped    map[SkipReason]int
}

// BuildSignposts groups raw rows and builds every signpost.
// Built features and records are handed to emit, skipped ones to skipped
func BuildSignposts(
	streets *StreetLookup,
	signpostIDs []string,
	rows []RawSignpostDestination,
	emit func(*SignpostFeature, []*SignpostStreetRecord) error,
	skipped func(*SkippedSignpost) error,
) (SignpostStats, error) {
	groups, duplicates := GroupSignposts(signpostIDs, rows)
	stats := SignpostStats{
		Groups:     len(groups),
		Duplicates: duplicates,
		Skipped:    make(map[SkipReason]int),
	}
	builder := NewSignpostBuilder(streets)
	for _, group := range groups {
		feature, records, skip := builder.Build(group)
		if skip != nil {
			stats.Skipped[skip.Reason]++
			if err := skipped(skip); err != nil {
				return stats, err
			}
			continue
		}
		stats.Built++
		stats.Records += len(records)
		if err := emit(feature, records); err != nil {
			return stats, err
		}
	}
	return stats, nil
}
