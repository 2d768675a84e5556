package natmap

import "fmt"

// EdgeRef references a street edge.
// SegmentID is a symbolic key (LocalId) known before merge, FCID and FID are filled by Resolver
type EdgeRef struct {
	SegmentID string
	FCID      int64
	FID       int64
	Resolved  bool
}

// NewEdgeRef returns unresolved reference to street with given LocalId
func NewEdgeRef(segmentID string) EdgeRef {
	return EdgeRef{SegmentID: segmentID}
}

// FCIDValue returns feature class id or nil for unresolved reference
func (ref EdgeRef) FCIDValue() any {
	if !ref.Resolved {
		return nil
	}
	return ref.FCID
}

// FIDValue returns row id or nil for unresolved reference
func (ref EdgeRef) FIDValue() any {
	if !ref.Resolved {
		return nil
	}
	return ref.FID
}

func (ref EdgeRef) String() string {
	if !ref.Resolved {
		return fmt.Sprintf("EdgeRef{SegmentID: '%s', unresolved}", ref.SegmentID)
	}
	return fmt.Sprintf("EdgeRef{SegmentID: '%s', FCID: %d, FID: %d}", ref.SegmentID, ref.FCID, ref.FID)
}
