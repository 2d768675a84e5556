package natmap

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
)

// gridIndex is a uniform grid over bounding boxes of indexed items.
// Items are referenced by their position in the slice they were taken from
type gridIndex struct {
	cellSize float64
	cells    map[[2]int64][]int
}

func newGridIndex(cellSize float64) *gridIndex {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &gridIndex{
		cellSize: cellSize,
		cells:    make(map[[2]int64][]int),
	}
}

// newLineIndex indexes lines by their bounds. Cell size is picked from average line extent
func newLineIndex(lines []orb.LineString) *gridIndex {
	total := 0.0
	count := 0
	for _, line := range lines {
		if len(line) == 0 {
			continue
		}
		b := line.Bound()
		total += math.Max(b.Max[0]-b.Min[0], b.Max[1]-b.Min[1])
		count++
	}
	cellSize := 1.0
	if count > 0 && total > 0 {
		cellSize = 2 * total / float64(count)
	}
	idx := newGridIndex(cellSize)
	for i, line := range lines {
		if len(line) == 0 {
			continue
		}
		idx.insert(i, line.Bound())
	}
	return idx
}

func (idx *gridIndex) cell(v float64) int64 {
	return int64(math.Floor(v / idx.cellSize))
}

func (idx *gridIndex) insert(item int, bound orb.Bound) {
	for x := idx.cell(bound.Min[0]); x <= idx.cell(bound.Max[0]); x++ {
		for y := idx.cell(bound.Min[1]); y <= idx.cell(bound.Max[1]); y++ {
			key := [2]int64{x, y}
			idx.cells[key] = append(idx.cells[key], item)
		}
	}
}

// query returns ascending unique items whose cells overlap with bound
func (idx *gridIndex) query(bound orb.Bound) []int {
	seen := make(map[int]struct{})
	var result []int
	for x := idx.cell(bound.Min[0]); x <= idx.cell(bound.Max[0]); x++ {
		for y := idx.cell(bound.Min[1]); y <= idx.cell(bound.Max[1]); y++ {
			for _, item := range idx.cells[[2]int64{x, y}] {
				if _, ok := seen[item]; ok {
					continue
				}
				seen[item] = struct{}{}
				result = append(result, item)
			}
		}
	}
	sort.Ints(result)
	return result
}
