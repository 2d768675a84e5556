package natmap

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// Dataset identifiers. DATASET_STREETS is feature class id referenced by every resolved edge
const (
	DATASET_STREETS = int64(iota + 1)
	DATASET_NODES
	DATASET_TURNS
	DATASET_SIGNPOST_FEATURES
	DATASET_SIGNPOST_STREETS
	DATASET_SIGNPOST_SKIPS
	DATASET_LANDMARKS
	DATASET_CROSSINGS
	DATASET_JUNCTIONS
	DATASET_LOCATOR
)

// FieldType is storage type of dataset field
type FieldType uint16

const (
	FIELD_TEXT = FieldType(iota + 1)
	FIELD_INTEGER
	FIELD_DOUBLE
)

func (iotaIdx FieldType) String() string {
	if iotaIdx < FIELD_TEXT || iotaIdx > FIELD_DOUBLE {
		return "undefined"
	}
	return [...]string{"text", "integer", "double"}[iotaIdx-1]
}

// GeometryType is kind of geometry column of dataset. Zero value means plain table
type GeometryType uint16

const (
	GEOMETRY_POINT = GeometryType(iota + 1)
	GEOMETRY_POLYLINE
)

func (iotaIdx GeometryType) String() string {
	if iotaIdx < GEOMETRY_POINT || iotaIdx > GEOMETRY_POLYLINE {
		return "none"
	}
	return [...]string{"point", "polyline"}[iotaIdx-1]
}

// GeometryColumn is name of geometry column of every feature dataset
const GeometryColumn = "Shape"

// ObjectIDColumn is name of row identifier column of every dataset
const ObjectIDColumn = "OBJECTID"

// Field is typed column of dataset
type Field struct {
	Name   string
	Type   FieldType
	Length int
}

// Schema describes persisted dataset. Rows are slices of values in Columns order
type Schema struct {
	ID       int64
	Name     string
	Geometry GeometryType
	Fields   []Field
}

// HasGeometry checks if dataset is a feature dataset
func (schema *Schema) HasGeometry() bool {
	return schema.Geometry != 0
}

// Columns returns column names in row order. Geometry column goes last
func (schema *Schema) Columns() []string {
	columns := make([]string, 0, len(schema.Fields)+1)
	for _, f := range schema.Fields {
		columns = append(columns, f.Name)
	}
	if schema.HasGeometry() {
		columns = append(columns, GeometryColumn)
	}
	return columns
}

// Index returns position of column in row or -1
func (schema *Schema) Index(name string) int {
	for i, column := range schema.Columns() {
		if strings.EqualFold(column, name) {
			return i
		}
	}
	return -1
}

// ValidateRow checks row width and geometry value type
func (schema *Schema) ValidateRow(row []any) error {
	columns := schema.Columns()
	if len(row) != len(columns) {
		return errors.Errorf("dataset '%s' expects %d values, got %d", schema.Name, len(columns), len(row))
	}
	if !schema.HasGeometry() {
		return nil
	}
	switch row[len(row)-1].(type) {
	case nil:
		return nil
	case orb.Point:
		if schema.Geometry == GEOMETRY_POINT {
			return nil
		}
	case orb.LineString, orb.MultiLineString:
		if schema.Geometry == GEOMETRY_POLYLINE {
			return nil
		}
	}
	return errors.Errorf("dataset '%s' expects %s geometry, got %T", schema.Name, schema.Geometry, row[len(row)-1])
}

func (schema *Schema) String() string {
	return fmt.Sprintf("Schema{ID: %d, Name: '%s', Geometry: %s, Fields: %d}", schema.ID, schema.Name, schema.Geometry, len(schema.Fields))
}

func textField(name string, length int) Field {
	return Field{Name: name, Type: FIELD_TEXT, Length: length}
}

func intField(name string) Field {
	return Field{Name: name, Type: FIELD_INTEGER}
}

func doubleField(name string) Field {
	return Field{Name: name, Type: FIELD_DOUBLE}
}

var (
	StreetsSchema = &Schema{
		ID:       DATASET_STREETS,
		Name:     "MAP_STREET",
		Geometry: GEOMETRY_POLYLINE,
		Fields: []Field{
			intField(ObjectIDColumn),
			textField("LocalId", 64),
			textField("Street", 256),
			intField("FromLeft"),
			intField("ToLeft"),
			intField("FromRight"),
			intField("ToRight"),
			intField("RoadClass"),
			intField("Hierarchy"),
			intField("SpeedLeft"),
			intField("SpeedRight"),
			intField("PostedLeft"),
			intField("PostedRight"),
			doubleField("WalkTime"),
			doubleField("LeftTime"),
			doubleField("RightTime"),
			intField("Oneway"),
			intField("Traversable"),
			textField("TraversableByVehicle", 1),
			textField("TraversableByWalkers", 1),
			textField("LeftPostalCode", 5),
			textField("RightPostalCode", 5),
			textField("StateLeft", 2),
			textField("StateRight", 2),
			intField("ProhibitCrosser"),
			intField("FromElevation"),
			intField("ToElevation"),
			textField("State", 2),
			textField("City", 128),
		},
	}
	NodesSchema = &Schema{
		ID:       DATASET_NODES,
		Name:     "national_street_nodes",
		Geometry: GEOMETRY_POINT,
		Fields: []Field{
			intField(ObjectIDColumn),
			textField("NodeID", 64),
			intField("Elevation"),
			intField("Valence"),
			textField("State", 2),
		},
	}
	TurnsSchema            = newTurnsSchema()
	SignpostFeaturesSchema = newSignpostFeaturesSchema()

	SignpostStreetsSchema = &Schema{
		ID:   DATASET_SIGNPOST_STREETS,
		Name: "SIGNPOST_TABLE",
		Fields: []Field{
			intField(ObjectIDColumn),
			intField("SignpostID"),
			intField("Sequence"),
			intField("EdgeFCID"),
			intField("EdgeFID"),
			doubleField("EdgeFrmPos"),
			doubleField("EdgeToPos"),
			textField("SegmentID", 64),
			textField("SrcSignID", 64),
			textField("State", 2),
			textField("City", 128),
		},
	}
	SignpostSkipsSchema = &Schema{
		ID:   DATASET_SIGNPOST_SKIPS,
		Name: "national_signposts_skip",
		Fields: []Field{
			intField(ObjectIDColumn),
			textField("SignpostID", 64),
			intField("EdgesCount"),
			intField("DestinationsCount"),
			textField("Reason", 32),
		},
	}
	LandmarksSchema = &Schema{
		ID:   DATASET_LANDMARKS,
		Name: "Reference_Landmarks",
		Fields: []Field{
			intField(ObjectIDColumn),
			intField("LandmarkID"),
			intField("GuidanceType"),
			intField("Edge1FCID"),
			intField("Edge1FID"),
			doubleField("Edge1FrmPos"),
			doubleField("Edge1ToPos"),
			doubleField("Edge1ConfirmationPos"),
			intField("Edge2FCID"),
			intField("Edge2FID"),
			doubleField("Edge2FrmPos"),
			doubleField("Edge2ToPos"),
			doubleField("Edge2ConfirmationPos"),
			intField("Importance"),
			intField("Side"),
			textField("Name", 128),
			textField("NameLng", 2),
			textField("Phrase", 128),
		},
	}
	CrossingsSchema = &Schema{
		ID:       DATASET_CROSSINGS,
		Name:     "STREETINTERSECTR",
		Geometry: GEOMETRY_POINT,
		Fields: []Field{
			intField(ObjectIDColumn),
			intField("StreetOID"),
			textField("LocalId", 64),
			intField("RailroadOID"),
		},
	}
	JunctionsSchema = &Schema{
		ID:       DATASET_JUNCTIONS,
		Name:     "Junctions",
		Geometry: GEOMETRY_POINT,
		Fields: []Field{
			intField(ObjectIDColumn),
			intField("NodeOID"),
			intField("ZELEV"),
		},
	}
	LocatorSchema = &Schema{
		ID:       DATASET_LOCATOR,
		Name:     "Locator",
		Geometry: GEOMETRY_POLYLINE,
		Fields: []Field{
			intField(ObjectIDColumn),
			textField("FEATURE_ID", 64),
			intField("FROMLEFT"),
			intField("TOLEFT"),
			intField("FROMRIGHT"),
			intField("TORIGHT"),
			textField("STREET_NAME", 256),
			textField("CITY", 128),
			textField("REGION", 2),
			textField("POSTAL_LEFT", 5),
			textField("POSTAL_RIGHT", 5),
		},
	}
)

// Schemas lists every persisted dataset in creation order
func Schemas() []*Schema {
	return []*Schema{
		StreetsSchema,
		NodesSchema,
		TurnsSchema,
		SignpostFeaturesSchema,
		SignpostStreetsSchema,
		SignpostSkipsSchema,
		LandmarksSchema,
		CrossingsSchema,
		JunctionsSchema,
		LocatorSchema,
	}
}

// newTurnsSchema lays out turn fields so that slot of leg with sequence s starts at 2+(s-1)*3
func newTurnsSchema() *Schema {
	fields := []Field{intField(ObjectIDColumn), textField("Edge1End", 1)}
	for i := 1; i <= MAX_TURN_EDGES; i++ {
		fields = append(fields,
			intField(fmt.Sprintf("Edge%dFCID", i)),
			intField(fmt.Sprintf("Edge%dFID", i)),
			doubleField(fmt.Sprintf("Edge%dPos", i)),
		)
	}
	fields = append(fields,
		textField("RestrictionID", 64),
		intField("ProhibitedTurnFlag"),
		intField("RestrictedTurnFlag"),
		textField("State", 2),
		textField("City", 128),
	)
	return &Schema{ID: DATASET_TURNS, Name: "MAP_TURN", Geometry: GEOMETRY_POLYLINE, Fields: fields}
}

// newSignpostFeaturesSchema lays out label fields so that branch text of destination sequence s is at 5*s-3
func newSignpostFeaturesSchema() *Schema {
	fields := []Field{intField(ObjectIDColumn), textField("ExitName", 128)}
	for i := 0; i < SIGNPOST_SLOTS; i++ {
		fields = append(fields,
			textField(fmt.Sprintf("Branch%d", i), 180),
			textField(fmt.Sprintf("Branch%dDir", i), 5),
			textField(fmt.Sprintf("Branch%dLng", i), 2),
			textField(fmt.Sprintf("Toward%d", i), 180),
			textField(fmt.Sprintf("Toward%dLng", i), 2),
		)
	}
	fields = append(fields,
		textField("SrcSignID", 64),
		textField("State", 2),
		textField("City", 128),
	)
	return &Schema{ID: DATASET_SIGNPOST_FEATURES, Name: "SIGNPOST_FEATURE", Geometry: GEOMETRY_POLYLINE, Fields: fields}
}

// nullString maps empty text to NULL
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// lineValue returns nil for empty geometry
func lineValue(line orb.LineString) any {
	if len(line) == 0 {
		return nil
	}
	return line
}

func multiLineValue(lines orb.MultiLineString) any {
	if len(lines) == 0 {
		return nil
	}
	return lines
}

// StreetRow returns row of MAP_STREET
func StreetRow(street *StreetSegment) []any {
	return []any{
		street.ObjectID,
		street.FeatureID,
		street.Street,
		street.FromLeft,
		street.ToLeft,
		street.FromRight,
		street.ToRight,
		int64(street.RoadClass),
		int64(street.Hierarchy),
		int64(street.SpeedLeft),
		int64(street.SpeedRight),
		int64(street.PostedLeft),
		int64(street.PostedRight),
		street.WalkTime,
		street.LeftTime,
		street.RightTime,
		int64(street.Oneway),
		int64(street.Traversable),
		street.TraversableByVehicle,
		street.TraversableByWalkers,
		nullString(street.LeftPostalCode),
		nullString(street.RightPostalCode),
		nullString(street.StateLeft),
		nullString(street.StateRight),
		int64(street.ProhibitCrosser),
		int64(street.FromElevation),
		int64(street.ToElevation),
		nullString(street.State),
		nullString(street.City),
		lineValue(street.Geom),
	}
}

// NodeRow returns row of national_street_nodes
func NodeRow(node *StreetNode) []any {
	return []any{
		node.ObjectID,
		node.NodeID,
		int64(node.Elevation),
		int64(node.Valence),
		nullString(node.State),
		node.Geom,
	}
}

// TurnRow returns row of MAP_TURN. Unfilled edge slots are NULL
func TurnRow(oid int64, turn *TurnFeature) []any {
	row := make([]any, 0, len(TurnsSchema.Fields)+1)
	row = append(row, oid, turn.Edge1End.String())
	for _, edge := range turn.Edges {
		if !edge.Filled {
			row = append(row, nil, nil, nil)
			continue
		}
		row = append(row, edge.FCIDValue(), edge.FIDValue(), edge.Pos)
	}
	row = append(row,
		turn.RestrictionID,
		int64(turn.ProhibitedTurnFlag),
		int64(turn.RestrictedTurnFlag),
		nullString(turn.State),
		nullString(turn.City),
		multiLineValue(turn.Geom),
	)
	return row
}

// SignpostFeatureRow returns row of SIGNPOST_FEATURE
func SignpostFeatureRow(feature *SignpostFeature) []any {
	row := make([]any, 0, len(SignpostFeaturesSchema.Fields)+1)
	row = append(row, feature.ObjectID, nullString(feature.ExitName))
	for i := 0; i < SIGNPOST_SLOTS; i++ {
		branch, toward := feature.Branches[i], feature.Towards[i]
		row = append(row,
			nullString(branch.Text),
			nullString(branch.Dir),
			nullString(branch.Lng),
			nullString(toward.Text),
			nullString(toward.Lng),
		)
	}
	row = append(row,
		feature.SrcSignID,
		nullString(feature.State),
		nullString(feature.City),
		multiLineValue(feature.Geom),
	)
	return row
}

// SignpostStreetRow returns row of SIGNPOST_TABLE. SignpostID is NULL until resolved
func SignpostStreetRow(oid int64, record *SignpostStreetRecord) []any {
	var signpostID any
	if record.SignpostID > 0 {
		signpostID = record.SignpostID
	}
	return []any{
		oid,
		signpostID,
		int64(record.Sequence),
		record.Edge.FCIDValue(),
		record.Edge.FIDValue(),
		record.FromPos,
		record.ToPos,
		record.Edge.SegmentID,
		record.SrcSignID,
		nullString(record.State),
		nullString(record.City),
	}
}

// SkippedSignpostRow returns row of national_signposts_skip
func SkippedSignpostRow(oid int64, skip *SkippedSignpost) []any {
	return []any{
		oid,
		skip.SignpostID,
		int64(skip.EdgesCount),
		int64(skip.DestinationsCount),
		string(skip.Reason),
	}
}

// LandmarkRow returns row of Reference_Landmarks. Second edge and text fields are NULL
func LandmarkRow(oid int64, landmark *ReferenceLandmark) []any {
	return []any{
		oid,
		landmark.LandmarkID,
		int64(landmark.GuidanceType),
		landmark.Edge.FCIDValue(),
		landmark.Edge.FIDValue(),
		landmark.FromPos,
		landmark.ToPos,
		landmark.ConfirmationPos,
		nil, nil, nil, nil, nil,
		int64(landmark.Importance),
		int64(landmark.Side),
		nil, nil, nil,
	}
}

// CrossingRow returns row of STREETINTERSECTR
func CrossingRow(oid int64, crossing *RailroadCrossing) []any {
	return []any{
		oid,
		crossing.StreetOID,
		crossing.StreetID,
		crossing.RailroadOID,
		crossing.Geom,
	}
}

// JunctionRow returns row of Junctions
func JunctionRow(oid int64, junction *Junction) []any {
	return []any{
		oid,
		junction.NodeOID,
		int64(junction.ZElev),
		junction.Geom,
	}
}
