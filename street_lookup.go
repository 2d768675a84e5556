package natmap

// StreetLookup maps LocalId to street segment.
// It is built once per processing unit (state or nation) and is read-only afterwards
type StreetLookup struct {
	streets    map[string]*StreetSegment
	duplicates int
}

// NewStreetLookup builds lookup over given streets. First occurrence of LocalId wins
func NewStreetLookup(streets []*StreetSegment) *StreetLookup {
	lookup := &StreetLookup{
		streets: make(map[string]*StreetSegment, len(streets)),
	}
	for _, street := range streets {
		if street == nil {
			continue
		}
		if _, ok := lookup.streets[street.FeatureID]; ok {
			lookup.duplicates++
			continue
		}
		lookup.streets[street.FeatureID] = street
	}
	return lookup
}

// Get returns street by its LocalId
func (lookup *StreetLookup) Get(localID string) (*StreetSegment, bool) {
	street, ok := lookup.streets[localID]
	return street, ok
}

// Len returns number of unique keys
func (lookup *StreetLookup) Len() int {
	return len(lookup.streets)
}

// Duplicates returns number of segments ignored because of repeated LocalId
func (lookup *StreetLookup) Duplicates() int {
	return lookup.duplicates
}
