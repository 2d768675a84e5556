package natmap

import (
	"testing"

	"github.com/paulmach/orb"
)

func TestComputeEdgeEnd(t *testing.T) {
	cases := []struct {
		name      string
		edge      orb.LineString
		neighbour orb.LineString
		correct   EdgeEnd
	}{
		{"first to first", orb.LineString{{0, 0}, {1, 0}}, orb.LineString{{0, 0}, {0, 1}}, EDGE_END_STRAIGHT},
		{"first to last", orb.LineString{{0, 0}, {1, 0}}, orb.LineString{{0, 1}, {0, 0}}, EDGE_END_STRAIGHT},
		{"last to first", orb.LineString{{1, 0}, {0, 0}}, orb.LineString{{0, 0}, {0, 1}}, EDGE_END_REVERSED},
		{"disjoint", orb.LineString{{5, 5}, {6, 6}}, orb.LineString{{0, 0}, {0, 1}}, EDGE_END_REVERSED},
		{"almost equal", orb.LineString{{0.0000001, 0}, {1, 0}}, orb.LineString{{0, 0}, {0, 1}}, EDGE_END_REVERSED},
		{"empty edge", orb.LineString{}, orb.LineString{{0, 0}, {0, 1}}, EDGE_END_REVERSED},
	}
	for _, c := range cases {
		for i := 0; i < 3; i++ {
			if got := ComputeEdgeEnd(c.edge, c.neighbour); got != c.correct {
				t.Errorf("%s: edge end must be %s, but got %s", c.name, c.correct, got)
			}
		}
	}
}

func TestEdgeEndPositions(t *testing.T) {
	from, to := EDGE_END_REVERSED.Positions()
	if from != 0 || to != 1 {
		t.Errorf("'Y' must give (0, 1), but got (%f, %f)", from, to)
	}
	from, to = EDGE_END_STRAIGHT.Positions()
	if from != 1 || to != 0 {
		t.Errorf("'N' must give (1, 0), but got (%f, %f)", from, to)
	}
	if EDGE_END_REVERSED.Reverse() != EDGE_END_STRAIGHT || EDGE_END_STRAIGHT.Reverse() != EDGE_END_REVERSED {
		t.Errorf("Reverse must swap flags")
	}
}
