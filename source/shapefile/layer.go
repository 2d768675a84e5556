package shapefile

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/pkg/errors"
)

var (
	// ErrMissingField is returned when a layer lacks a required attribute
	ErrMissingField = errors.New("required field is missing")
	// ErrFieldType is returned when attribute is stored with unexpected dBASE type
	ErrFieldType = errors.New("unexpected field type")
)

type fieldKind uint16

const (
	FIELD_STRING = fieldKind(iota + 1)
	FIELD_INT
	FIELD_FLOAT
)

func (iotaIdx fieldKind) String() string {
	return [...]string{"string", "int", "float"}[iotaIdx-1]
}

// accepts reports whether dBASE column type can hold values of the kind
func (iotaIdx fieldKind) accepts(dbfType byte) bool {
	switch iotaIdx {
	case FIELD_STRING:
		return dbfType == 'C'
	case FIELD_INT, FIELD_FLOAT:
		return dbfType == 'N' || dbfType == 'F'
	default:
		return false
	}
}

type field struct {
	name     string
	kind     fieldKind
	required bool
}

// layer describes attributes of one shapefile of a state
type layer struct {
	name   string
	fields []field
}

// record gives typed access to attributes of the current shapefile row.
// Malformed or absent values read as zero
type record struct {
	reader *shp.Reader
	index  map[string]int
	shape  shp.Shape
}

func (rec *record) raw(name string) string {
	idx, ok := rec.index[strings.ToLower(name)]
	if !ok {
		return ""
	}
	return strings.TrimSpace(strings.TrimRight(rec.reader.Attribute(idx), "\x00"))
}

func (rec *record) String(name string) string {
	return rec.raw(name)
}

func (rec *record) Int(name string) int64 {
	value := rec.raw(name)
	if value == "" {
		return 0
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err == nil {
		return n
	}
	// numeric columns are sometimes stored with decimals
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return int64(f)
}

func (rec *record) Float(name string) float64 {
	value := rec.raw(name)
	if value == "" {
		return 0
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return f
}

// read opens shapefile, validates its attributes against the layer and calls fn for every row
func (l *layer) read(ctx context.Context, fname string, fn func(rec *record) error) error {
	reader, err := shp.Open(fname)
	if err != nil {
		return errors.Wrapf(err, "Can't open shapefile '%s'", fname)
	}
	defer reader.Close()

	fields := reader.Fields()
	index := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		index[strings.ToLower(name)] = i
	}
	for _, f := range l.fields {
		idx, ok := index[strings.ToLower(f.name)]
		if !ok {
			if f.required {
				return errors.Wrapf(ErrMissingField, "layer '%s' (%s): field '%s' of type %s", l.name, fname, f.name, f.kind)
			}
			continue
		}
		if dbfType := fields[idx].Fieldtype; !f.kind.accepts(dbfType) {
			return errors.Wrapf(ErrFieldType, "layer '%s' (%s): field '%s' is '%c', expected %s", l.name, fname, f.name, dbfType, f.kind)
		}
	}

	rec := &record{reader: reader, index: index}
	row := 0
	for reader.Next() {
		if row%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		_, rec.shape = reader.Shape()
		if err := fn(rec); err != nil {
			return errors.Wrapf(err, "Can't read row %d of '%s'", row, fname)
		}
		row++
	}
	return nil
}

func fileExists(fname string) bool {
	info, err := os.Stat(fname)
	return err == nil && !info.IsDir()
}

var (
	streetsLayer = &layer{
		name: "streets",
		fields: []field{
			{"FEATURE_ID", FIELD_STRING, true},
			{"STREET", FIELD_STRING, false},
			{"FROMLEFT", FIELD_INT, false},
			{"TOLEFT", FIELD_INT, false},
			{"FROMRIGHT", FIELD_INT, false},
			{"TORIGHT", FIELD_INT, false},
			{"FCODE", FIELD_INT, false},
			{"ROAD_CLASS", FIELD_STRING, true},
			{"LENGTH", FIELD_FLOAT, true},
			{"SPEED", FIELD_INT, true},
			{"ONEWAY", FIELD_INT, true},
			{"ROUGHRD", FIELD_INT, false},
			{"LEVEL_BEG", FIELD_INT, false},
			{"LEVEL_END", FIELD_INT, false},
			{"LOCCODE_L", FIELD_STRING, false},
			{"LOCCODE_R", FIELD_STRING, false},
			{"PC_LEFT", FIELD_STRING, false},
			{"PC_RIGHT", FIELD_STRING, false},
		},
	}
	nodesLayer = &layer{
		name: "nodes",
		fields: []field{
			{"NODE_ID", FIELD_STRING, true},
			{"ELEVATION", FIELD_INT, false},
			{"VALENCE", FIELD_INT, true},
		},
	}
	restrictionsLayer = &layer{
		name: "restrictions",
		fields: []field{
			{"RESTR_ID", FIELD_STRING, true},
			{"SEQ_NUM", FIELD_INT, true},
			{"FEATURE_ID", FIELD_STRING, true},
			{"RESTR_TYPE", FIELD_STRING, true},
			{"VEH_TYPE", FIELD_INT, false},
		},
	}
	signpostsLayer = &layer{
		name: "signposts",
		fields: []field{
			{"SignpostID", FIELD_STRING, true},
		},
	}
	signpostDestinationsLayer = &layer{
		name: "signpost destinations",
		fields: []field{
			{"SignpostID", FIELD_STRING, true},
			{"StreetID", FIELD_STRING, true},
			{"StreetSeq", FIELD_INT, true},
			{"Connection", FIELD_INT, true},
			{"DestSeq", FIELD_INT, true},
			{"DestName", FIELD_STRING, true},
		},
	}
	townsLayer = &layer{
		name: "towns",
		fields: []field{
			{"Name", FIELD_STRING, true},
			{"A1_Abbrev", FIELD_STRING, false},
		},
	}
	railroadsLayer = &layer{
		name: "railroads",
		fields: []field{
			{"FEATURE_ID", FIELD_STRING, true},
			{"LEVEL_BEG", FIELD_INT, false},
			{"LEVEL_END", FIELD_INT, false},
		},
	}
)
