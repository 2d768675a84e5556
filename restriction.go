package natmap

import (
	"fmt"
	"sort"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

const (
	// MAX_TURN_EDGES is maximum number of legs in turn restriction
	MAX_TURN_EDGES = 5
	// Position of turn edge reference along the edge
	turnEdgePosition = 0.5

	PROHIBITED_TURN_FLAG = 1
	RESTRICTED_TURN_FLAG = 0
)

// RestrictionLeg is one ordered component of prohibited maneuver
type RestrictionLeg struct {
	RestrictionID string
	Sequence      int
	// FeatureID is LocalId of referenced street
	FeatureID string
	State     string
	City      string
	Geom      orb.LineString
}

// RestrictionGroup is a set of legs sharing one restriction id in sequence order
type RestrictionGroup struct {
	RestrictionID string
	Legs          []*RestrictionLeg
}

// TurnEdge is one edge slot of turn feature
type TurnEdge struct {
	EdgeRef
	Pos float64
	// Filled is false for slots not addressed by any leg
	Filled bool
}

// TurnFeature is turn restriction record referencing up to MAX_TURN_EDGES edges
type TurnFeature struct {
	RestrictionID      string
	Geom               orb.MultiLineString
	Edge1End           EdgeEnd
	Edges              [MAX_TURN_EDGES]TurnEdge
	ProhibitedTurnFlag int
	RestrictedTurnFlag int
	State              string
	City               string
}

func (turn *TurnFeature) String() string {
	return fmt.Sprintf("TurnFeature{RestrictionID: '%s', Edge1End: %s, Edges: %d}", turn.RestrictionID, turn.Edge1End, turn.EdgesCount())
}

// EdgesCount returns number of filled edge slots
func (turn *TurnFeature) EdgesCount() int {
	n := 0
	for _, e := range turn.Edges {
		if e.Filled {
			n++
		}
	}
	return n
}

// SortRestrictionLegs orders legs by (restriction id, sequence). Grouping relies on this order
func SortRestrictionLegs(legs []*RestrictionLeg) {
	sort.SliceStable(legs, func(i, j int) bool {
		if legs[i].RestrictionID != legs[j].RestrictionID {
			return legs[i].RestrictionID < legs[j].RestrictionID
		}
		return legs[i].Sequence < legs[j].Sequence
	})
}

// RestrictionGrouper accumulates ordered legs and cuts a group on restriction id change
type RestrictionGrouper struct {
	current *RestrictionGroup
}

// Push adds leg to current group. When leg starts a new group the completed one is returned
func (grouper *RestrictionGrouper) Push(leg *RestrictionLeg) (RestrictionGroup, bool) {
	if grouper.current == nil {
		grouper.current = &RestrictionGroup{RestrictionID: leg.RestrictionID, Legs: []*RestrictionLeg{leg}}
		return RestrictionGroup{}, false
	}
	if grouper.current.RestrictionID == leg.RestrictionID {
		grouper.current.Legs = append(grouper.current.Legs, leg)
		return RestrictionGroup{}, false
	}
	completed := *grouper.current
	grouper.current = &RestrictionGroup{RestrictionID: leg.RestrictionID, Legs: []*RestrictionLeg{leg}}
	return completed, true
}

// Flush returns the group being accumulated at the end of stream
func (grouper *RestrictionGrouper) Flush() (RestrictionGroup, bool) {
	if grouper.current == nil {
		return RestrictionGroup{}, false
	}
	completed := *grouper.current
	grouper.current = nil
	return completed, true
}

// GroupRestrictions splits legs ordered by (restriction id, sequence) into groups including the last one
func GroupRestrictions(legs []*RestrictionLeg) []RestrictionGroup {
	grouper := RestrictionGrouper{}
	groups := []RestrictionGroup{}
	for _, leg := range legs {
		if group, ok := grouper.Push(leg); ok {
			groups = append(groups, group)
		}
	}
	if group, ok := grouper.Flush(); ok {
		groups = append(groups, group)
	}
	return groups
}

// ConvertRestriction builds turn feature from the group.
// Returns nil for groups having more than MAX_TURN_EDGES legs or less than two legs with geometry
func ConvertRestriction(group RestrictionGroup) *TurnFeature {
	if len(group.Legs) > MAX_TURN_EDGES || len(group.Legs) < 2 {
		return nil
	}
	first, second := group.Legs[0].Geom, group.Legs[1].Geom
	if len(first) == 0 || len(second) == 0 {
		return nil
	}
	turn := &TurnFeature{
		RestrictionID:      group.RestrictionID,
		ProhibitedTurnFlag: PROHIBITED_TURN_FLAG,
		RestrictedTurnFlag: RESTRICTED_TURN_FLAG,
		State:              group.Legs[0].State,
		City:               group.Legs[0].City,
	}
	for _, leg := range group.Legs {
		slot := leg.Sequence - 1
		if slot >= 0 && slot < MAX_TURN_EDGES {
			turn.Edges[slot] = TurnEdge{
				EdgeRef: NewEdgeRef(leg.FeatureID),
				Pos:     turnEdgePosition,
				Filled:  true,
			}
		}
		turn.Geom = unionLines(turn.Geom, leg.Geom)
	}
	turn.Edge1End = ComputeEdgeEnd(first, second)
	return turn
}

// TurnStats counts outcome of turn reconstruction
type TurnStats struct {
	Groups     int
	Converted  int
	Oversized  int
	Undersized int
}

// BuildTurns groups ordered legs, converts every group and hands resulting features to emit.
// Error is returned only when emit fails
func BuildTurns(legs []*RestrictionLeg, emit func(*TurnFeature) error) (TurnStats, error) {
	stats := TurnStats{}
	grouper := RestrictionGrouper{}
	handle := func(group RestrictionGroup) error {
		stats.Groups++
		turn := ConvertRestriction(group)
		if turn == nil {
			if len(group.Legs) > MAX_TURN_EDGES {
				stats.Oversized++
			} else {
				stats.Undersized++
			}
			return nil
		}
		stats.Converted++
		return errors.Wrapf(emit(turn), "Can't emit turn for restriction '%s'", group.RestrictionID)
	}
	for _, leg := range legs {
		group, ok := grouper.Push(leg)
		if !ok {
			continue
		}
		if err := handle(group); err != nil {
			return stats, err
		}
	}
	if group, ok := grouper.Flush(); ok {
		if err := handle(group); err != nil {
			return stats, err
		}
	}
	return stats, nil
}
