package natmap

import (
	"fmt"

	"go.uber.org/zap"
)

// Resolver rewrites symbolic street references (LocalId) into (feature class id, row id) pairs
// once national streets have stable ObjectIDs
type Resolver struct {
	streetFCID int64
	streets    *StreetLookup
	signposts  map[signpostKey]int64
}

// signpostKey identifies signpost feature across states: signpost ids are numbered per state delivery
type signpostKey struct {
	state     string
	srcSignID string
}

// ResolveStats counts resolved and broken references
type ResolveStats struct {
	Resolved   int
	Unresolved int
}

func (stats *ResolveStats) add(ok bool) {
	if ok {
		stats.Resolved++
		return
	}
	stats.Unresolved++
}

// NewResolver builds lookups over merged streets and signpost features.
// Signpost features are keyed by (State, SrcSignID). For repeated LocalId or key first occurrence wins
func NewResolver(streetFCID int64, streets []*StreetSegment, signposts []*SignpostFeature) *Resolver {
	resolver := &Resolver{
		streetFCID: streetFCID,
		streets:    NewStreetLookup(streets),
		signposts:  make(map[signpostKey]int64, len(signposts)),
	}
	for _, signpost := range signposts {
		key := signpostKey{state: signpost.State, srcSignID: signpost.SrcSignID}
		if first, ok := resolver.signposts[key]; ok {
			zap.L().Warn("Duplicate signpost, first occurrence wins",
				zap.String("src_sign_id", signpost.SrcSignID),
				zap.String("state", signpost.State),
				zap.Int64("first_oid", first),
			)
			continue
		}
		resolver.signposts[key] = signpost.ObjectID
	}
	return resolver
}

// StreetFCID returns feature class id shared by all national streets
func (resolver *Resolver) StreetFCID() int64 {
	return resolver.streetFCID
}

// Resolve returns reference with FCID and FID filled. Unknown key gives unresolved reference
func (resolver *Resolver) Resolve(ref EdgeRef) EdgeRef {
	street, ok := resolver.streets.Get(ref.SegmentID)
	if !ok || street.ObjectID == 0 {
		return EdgeRef{SegmentID: ref.SegmentID}
	}
	return EdgeRef{
		SegmentID: ref.SegmentID,
		FCID:      resolver.streetFCID,
		FID:       street.ObjectID,
		Resolved:  true,
	}
}

// ResolveTurns resolves every filled edge slot of turns
func (resolver *Resolver) ResolveTurns(turns []*TurnFeature) ResolveStats {
	stats := ResolveStats{}
	for _, turn := range turns {
		for i := range turn.Edges {
			if !turn.Edges[i].Filled {
				continue
			}
			turn.Edges[i].EdgeRef = resolver.Resolve(turn.Edges[i].EdgeRef)
			stats.add(turn.Edges[i].Resolved)
		}
	}
	return stats
}

// ResolveSignpostRecords resolves edge of every record and links record to national signpost feature
func (resolver *Resolver) ResolveSignpostRecords(records []*SignpostStreetRecord) ResolveStats {
	stats := ResolveStats{}
	for _, record := range records {
		record.Edge = resolver.Resolve(record.Edge)
		stats.add(record.Edge.Resolved)
		if oid, ok := resolver.signposts[signpostKey{state: record.State, srcSignID: record.SrcSignID}]; ok {
			record.SignpostID = oid
		}
	}
	return stats
}

// ResolveLandmarks resolves edge of landmarks which are not bound to row id yet
func (resolver *Resolver) ResolveLandmarks(landmarks []*ReferenceLandmark) ResolveStats {
	stats := ResolveStats{}
	for _, landmark := range landmarks {
		if landmark.Edge.Resolved {
			landmark.Edge.FCID = resolver.streetFCID
			stats.add(true)
			continue
		}
		landmark.Edge = resolver.Resolve(landmark.Edge)
		stats.add(landmark.Edge.Resolved)
	}
	return stats
}

// SignpostEdgeUpdateSQL returns statement filling EdgeFID of signpost street table from national streets
func SignpostEdgeUpdateSQL(signpostTable, streetTable string) string {
	return fmt.Sprintf("UPDATE %s SET EdgeFID = S.OBJECTID FROM %s S WHERE SegmentID = S.LocalId;", signpostTable, streetTable)
}

// SignpostFCIDUpdateSQL returns statement filling EdgeFCID of resolved rows of signpost street table
func SignpostFCIDUpdateSQL(signpostTable string, fcid int64) string {
	return fmt.Sprintf("UPDATE %s SET EdgeFCID = %d WHERE EdgeFID IS NOT NULL;", signpostTable, fcid)
}

// SignpostIDUpdateSQL returns statement linking signpost street table to signpost features of the same state
func SignpostIDUpdateSQL(signpostTable, signpostFeatureTable string) string {
	return fmt.Sprintf("UPDATE %s SET SignpostID = F.OBJECTID FROM %s F WHERE %s.SrcSignID = F.SrcSignID AND %s.State = F.State;",
		signpostTable, signpostFeatureTable, signpostTable, signpostTable)
}
