package natmap

import "github.com/paulmach/orb"

// EdgeEnd is orientation flag of an edge relative to its neighbour in a turn or signpost path
type EdgeEnd byte

const (
	// EDGE_END_REVERSED means that first point of the edge does not touch the neighbour
	EDGE_END_REVERSED = EdgeEnd('Y')
	// EDGE_END_STRAIGHT means that first point of the edge coincides with first or last point of the neighbour
	EDGE_END_STRAIGHT = EdgeEnd('N')
)

func (e EdgeEnd) String() string {
	return string(e)
}

// Reverse returns opposite flag
func (e EdgeEnd) Reverse() EdgeEnd {
	if e == EDGE_END_REVERSED {
		return EDGE_END_STRAIGHT
	}
	return EDGE_END_REVERSED
}

// Positions returns from/to positions of the edge for given orientation
func (e EdgeEnd) Positions() (from, to float64) {
	if e == EDGE_END_REVERSED {
		return 0, 1
	}
	return 1, 0
}

// ComputeEdgeEnd compares first point of edge with first and last points of neighbour using exact coordinates equality
func ComputeEdgeEnd(edge, neighbour orb.Geometry) EdgeEnd {
	start, ok := firstPoint(edge)
	if !ok {
		return EDGE_END_REVERSED
	}
	if first, ok := firstPoint(neighbour); ok && samePoint(start, first) {
		return EDGE_END_STRAIGHT
	}
	if last, ok := lastPoint(neighbour); ok && samePoint(start, last) {
		return EDGE_END_STRAIGHT
	}
	return EDGE_END_REVERSED
}
