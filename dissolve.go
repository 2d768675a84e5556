package natmap

// dissolveKey holds attributes which must be equal along dissolved chain
type dissolveKey struct {
	street     string
	roadClass  RoadClass
	hierarchy  Hierarchy
	oneway     int
	speedLeft  int
	speedRight int
}

func newDissolveKey(street *StreetSegment) dissolveKey {
	return dissolveKey{
		street:     street.Street,
		roadClass:  street.RoadClass,
		hierarchy:  street.Hierarchy,
		oneway:     street.Oneway,
		speedLeft:  street.SpeedLeft,
		speedRight: street.SpeedRight,
	}
}

type dissolveItem struct {
	segment *networkSegment
	key     dissolveKey
}

// DissolveNetwork merges chains of streets with equal attributes running in the same digitized direction
// through vertices where exactly two streets meet. Turns are applied through member streets of dissolved edges
func DissolveNetwork(name string, streets []*StreetSegment, turns []*TurnFeature, contract bool) (*Network, error) {
	items := make([]*dissolveItem, 0, len(streets))
	excluded := 0
	for _, street := range streets {
		segment, ok := streetSegment(street)
		if !ok {
			excluded++
			continue
		}
		items = append(items, &dissolveItem{segment: segment, key: newDissolveKey(street)})
	}
	segments := dissolveSegments(items)
	net, err := assembleNetwork(name, segments, turns, contract)
	if err != nil {
		return nil, err
	}
	net.Stats.Excluded = excluded
	return net, nil
}

func dissolveSegments(items []*dissolveItem) []*networkSegment {
	incident := make(map[vertexKey][]int)
	for i, item := range items {
		incident[item.segment.source] = append(incident[item.segment.source], i)
		incident[item.segment.target] = append(incident[item.segment.target], i)
	}
	// next returns continuation of item through its target vertex
	next := func(i int) (int, bool) {
		at := items[i].segment.target
		around := incident[at]
		if len(around) != 2 {
			return 0, false
		}
		j := around[0]
		if j == i {
			j = around[1]
		}
		if j == i || items[j].segment.source != at || items[j].key != items[i].key {
			return 0, false
		}
		return j, true
	}
	// previous returns item continued by given one through its source vertex
	previous := func(i int) (int, bool) {
		at := items[i].segment.source
		around := incident[at]
		if len(around) != 2 {
			return 0, false
		}
		j := around[0]
		if j == i {
			j = around[1]
		}
		if j == i || items[j].segment.target != at || items[j].key != items[i].key {
			return 0, false
		}
		return j, true
	}

	visited := make([]bool, len(items))
	result := make([]*networkSegment, 0, len(items))
	for i := range items {
		if visited[i] {
			continue
		}
		start := i
		for {
			j, ok := previous(start)
			if !ok || j == i || visited[j] {
				break
			}
			start = j
		}
		chain := []int{start}
		visited[start] = true
		for current := start; ; {
			j, ok := next(current)
			if !ok || visited[j] {
				break
			}
			chain = append(chain, j)
			visited[j] = true
			current = j
		}
		result = append(result, mergeChain(items, chain))
	}
	return result
}

func mergeChain(items []*dissolveItem, chain []int) *networkSegment {
	first := items[chain[0]].segment
	if len(chain) == 1 {
		return first
	}
	last := items[chain[len(chain)-1]].segment
	merged := &networkSegment{
		ID:       first.ID,
		source:   first.source,
		target:   last.target,
		forward:  0,
		backward: 0,
	}
	for n, idx := range chain {
		segment := items[idx].segment
		merged.StreetOIDs = append(merged.StreetOIDs, segment.StreetOIDs...)
		if n == 0 {
			merged.Geom = append(merged.Geom, segment.Geom...)
		} else {
			merged.Geom = append(merged.Geom, segment.Geom[1:]...)
		}
		merged.forward = addWeight(merged.forward, segment.forward)
		merged.backward = addWeight(merged.backward, segment.backward)
	}
	return merged
}

// addWeight sums travel times keeping negative value as "not allowed"
func addWeight(acc, w float64) float64 {
	if acc < 0 || w < 0 {
		return -1
	}
	return acc + w
}
