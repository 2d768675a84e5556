package natmap

import (
	"fmt"

	"github.com/paulmach/orb"
)

// StreetNode is a point where street segments meet
type StreetNode struct {
	ObjectID  int64
	NodeID    string
	Elevation int
	Valence   int
	State     string
	Geom      orb.Point
}

func (node *StreetNode) String() string {
	return fmt.Sprintf("StreetNode{ObjectID: %d, NodeID: '%s', Valence: %d, Elevation: %d}", node.ObjectID, node.NodeID, node.Valence, node.Elevation)
}

// FilterNodes keeps nodes with valence greater than 2 which touch at least one of given streets.
// Order of kept nodes is preserved
func FilterNodes(nodes []*StreetNode, streets []*StreetSegment, tolerance float64) []*StreetNode {
	lines := make([]orb.LineString, len(streets))
	for i, street := range streets {
		lines[i] = street.Geom
	}
	idx := newLineIndex(lines)
	result := make([]*StreetNode, 0, len(nodes))
	for _, node := range nodes {
		if node == nil || node.Valence <= 2 {
			continue
		}
		if countTouchingLines(idx, lines, node.Geom, tolerance, 1) == 0 {
			continue
		}
		result = append(result, node)
	}
	return result
}

// countTouchingLines counts lines touching the point. Counting stops once limit is reached, zero limit means no limit
func countTouchingLines(idx *gridIndex, lines []orb.LineString, pt orb.Point, tolerance float64, limit int) int {
	count := 0
	for _, i := range idx.query(orb.Bound{Min: pt, Max: pt}.Pad(tolerance)) {
		if !pointTouchesLine(lines[i], pt, tolerance) {
			continue
		}
		count++
		if limit > 0 && count >= limit {
			break
		}
	}
	return count
}
