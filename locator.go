package natmap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// LocatorSide is side of street which address belongs to
type LocatorSide uint16

const (
	LOCATOR_SIDE_LEFT = LocatorSide(iota + 1)
	LOCATOR_SIDE_RIGHT
)

func (iotaIdx LocatorSide) String() string {
	if iotaIdx < LOCATOR_SIDE_LEFT || iotaIdx > LOCATOR_SIDE_RIGHT {
		return "undefined"
	}
	return [...]string{"left", "right"}[iotaIdx-1]
}

// LocatorRecord is address range of street segment as locator sees it
type LocatorRecord struct {
	FeatureID   string
	FromLeft    int64
	ToLeft      int64
	FromRight   int64
	ToRight     int64
	StreetName  string
	City        string
	Region      string
	PostalLeft  string
	PostalRight string
	Geom        orb.LineString
}

// NewLocatorRecord maps classified street into locator fields
func NewLocatorRecord(street *StreetSegment) *LocatorRecord {
	return &LocatorRecord{
		FeatureID:   street.FeatureID,
		FromLeft:    street.FromLeft,
		ToLeft:      street.ToLeft,
		FromRight:   street.FromRight,
		ToRight:     street.ToRight,
		StreetName:  street.Street,
		City:        street.City,
		Region:      street.State,
		PostalLeft:  street.LeftPostalCode,
		PostalRight: street.RightPostalCode,
		Geom:        street.Geom,
	}
}

// LocatorRow returns row of Locator dataset
func LocatorRow(oid int64, record *LocatorRecord) []any {
	return []any{
		oid,
		record.FeatureID,
		record.FromLeft,
		record.ToLeft,
		record.FromRight,
		record.ToRight,
		record.StreetName,
		nullString(record.City),
		nullString(record.Region),
		nullString(record.PostalLeft),
		nullString(record.PostalRight),
		lineValue(record.Geom),
	}
}

// LocatorMatch is result of address lookup
type LocatorMatch struct {
	Record *LocatorRecord
	Side   LocatorSide
	// Point is address position interpolated along the segment
	Point orb.Point
}

func (match LocatorMatch) String() string {
	return fmt.Sprintf("LocatorMatch{FeatureID: '%s', Side: %s, Point: %v}", match.Record.FeatureID, match.Side, match.Point)
}

// Locator finds street segments by street name and house number
type Locator struct {
	Name    string
	records map[string][]*LocatorRecord
	size    int
}

func locatorKey(streetName string) string {
	return strings.ToUpper(strings.TrimSpace(streetName))
}

// BuildLocator indexes streets having non-zero address range on any side
func BuildLocator(name string, streets []*StreetSegment) *Locator {
	locator := &Locator{
		Name:    name,
		records: make(map[string][]*LocatorRecord),
	}
	for _, street := range streets {
		if street.FromLeft == 0 && street.ToLeft == 0 && street.FromRight == 0 && street.ToRight == 0 {
			continue
		}
		key := locatorKey(street.Street)
		locator.records[key] = append(locator.records[key], NewLocatorRecord(street))
		locator.size++
	}
	return locator
}

// Len returns number of indexed records
func (locator *Locator) Len() int {
	return locator.size
}

// Records returns indexed records ordered by street name
func (locator *Locator) Records() []*LocatorRecord {
	keys := make([]string, 0, len(locator.records))
	for key := range locator.records {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	result := make([]*LocatorRecord, 0, locator.size)
	for _, key := range keys {
		result = append(result, locator.records[key]...)
	}
	return result
}

// Find returns segments whose left or right range holds the house number. City is optional
func (locator *Locator) Find(streetName string, houseNumber int64, city string) []LocatorMatch {
	matches := []LocatorMatch{}
	for _, record := range locator.records[locatorKey(streetName)] {
		if city != "" && !strings.EqualFold(record.City, city) {
			continue
		}
		if fraction, ok := rangeFraction(record.FromLeft, record.ToLeft, houseNumber); ok {
			matches = append(matches, LocatorMatch{Record: record, Side: LOCATOR_SIDE_LEFT, Point: pointAlong(record.Geom, fraction)})
			continue
		}
		if fraction, ok := rangeFraction(record.FromRight, record.ToRight, houseNumber); ok {
			matches = append(matches, LocatorMatch{Record: record, Side: LOCATOR_SIDE_RIGHT, Point: pointAlong(record.Geom, fraction)})
		}
	}
	return matches
}

// rangeFraction checks that number lies within range of either direction and returns its relative position.
// Range with endpoints of the same parity holds only numbers of that parity
func rangeFraction(from, to, number int64) (float64, bool) {
	if from == 0 && to == 0 {
		return 0, false
	}
	if from%2 == to%2 && number%2 != from%2 {
		return 0, false
	}
	low, high := from, to
	if low > high {
		low, high = high, low
	}
	if number < low || number > high {
		return 0, false
	}
	if from == to {
		return 0.5, true
	}
	return float64(number-from) / float64(to-from), true
}

// pointAlong returns point at given fraction of line length
func pointAlong(line orb.LineString, fraction float64) orb.Point {
	if len(line) == 0 {
		return orb.Point{}
	}
	target := lineLength(line) * fraction
	walked := 0.0
	for i := 1; i < len(line); i++ {
		segment := planar.Distance(line[i-1], line[i])
		if walked+segment >= target && segment > 0 {
			t := (target - walked) / segment
			return orb.Point{
				line[i-1][0] + t*(line[i][0]-line[i-1][0]),
				line[i-1][1] + t*(line[i][1]-line[i-1][1]),
			}
		}
		walked += segment
	}
	return line[len(line)-1]
}
