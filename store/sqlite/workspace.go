// Package sqlite stores national datasets in a single SQLite file geodatabase.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/LdDl/natmap"
	"github.com/LdDl/natmap/internal/geomcodec"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Workspace implements natmap.Workspace on top of modernc.org/sqlite. Geometries are stored as EWKB blobs
type Workspace struct {
	db     *sql.DB
	srid   int
	logger *zap.Logger
}

// Open opens (or creates) SQLite database and configures WAL mode
func Open(dsn string, srid int) (*Workspace, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &Workspace{
		db:     db,
		srid:   srid,
		logger: zap.L().With(zap.String("component", "sqlite_workspace"), zap.String("dsn", dsn)),
	}, nil
}

func columnType(f natmap.Field) string {
	switch f.Type {
	case natmap.FIELD_INTEGER:
		return "INTEGER"
	case natmap.FIELD_DOUBLE:
		return "REAL"
	default:
		return "TEXT"
	}
}

// CreateTableSQL returns DDL of dataset
func CreateTableSQL(schema *natmap.Schema) string {
	columns := make([]string, 0, len(schema.Fields)+1)
	for _, f := range schema.Fields {
		columns = append(columns, fmt.Sprintf("%s %s", f.Name, columnType(f)))
	}
	if schema.HasGeometry() {
		columns = append(columns, natmap.GeometryColumn+" BLOB")
	}
	return fmt.Sprintf("CREATE TABLE %s (\n\t%s\n)", schema.Name, strings.Join(columns, ",\n\t"))
}

func (ws *Workspace) CreateTable(ctx context.Context, schema *natmap.Schema) error {
	if _, err := ws.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+schema.Name); err != nil {
		return errors.Wrapf(err, "sqlite: drop %s", schema.Name)
	}
	if _, err := ws.db.ExecContext(ctx, CreateTableSQL(schema)); err != nil {
		return errors.Wrapf(err, "sqlite: create %s", schema.Name)
	}
	ws.logger.Debug("Table created", zap.String("dataset", schema.Name), zap.String("geometry", schema.Geometry.String()))
	return nil
}

func insertSQL(schema *natmap.Schema) string {
	columns := schema.Columns()
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", schema.Name, strings.Join(columns, ", "), placeholders)
}

// Insert writes rows in single transaction
func (ws *Workspace) Insert(ctx context.Context, schema *natmap.Schema, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx, err := ws.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertSQL(schema))
	if err != nil {
		return 0, errors.Wrapf(err, "sqlite: prepare insert into %s", schema.Name)
	}
	defer stmt.Close()

	args := make([]any, len(schema.Columns()))
	for i, row := range rows {
		if err := schema.ValidateRow(row); err != nil {
			return 0, errors.Wrapf(err, "sqlite: row %d", i)
		}
		copy(args, row)
		if schema.HasGeometry() {
			last := len(args) - 1
			g, _ := row[last].(orb.Geometry)
			blob, err := geomcodec.MarshalEWKB(g, ws.srid)
			if err != nil {
				return 0, errors.Wrapf(err, "sqlite: geometry of row %d", i)
			}
			args[last] = nil
			if blob != nil {
				args[last] = blob
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, errors.Wrapf(err, "sqlite: insert into %s", schema.Name)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "sqlite: commit")
	}
	return int64(len(rows)), nil
}

// IndexName returns name of attribute index
func IndexName(schema *natmap.Schema, field string) string {
	return strings.ToLower(fmt.Sprintf("idx_%s_%s", schema.Name, field))
}

func (ws *Workspace) AddIndex(ctx context.Context, schema *natmap.Schema, field string) error {
	if schema.Index(field) < 0 {
		return errors.Errorf("sqlite: no field '%s' in '%s'", field, schema.Name)
	}
	statement := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", IndexName(schema, field), schema.Name, field)
	if _, err := ws.db.ExecContext(ctx, statement); err != nil {
		return errors.Wrapf(err, "sqlite: index %s.%s", schema.Name, field)
	}
	return nil
}

func (ws *Workspace) Exec(ctx context.Context, statement string) (int64, error) {
	res, err := ws.db.ExecContext(ctx, statement)
	if err != nil {
		return 0, errors.Wrap(err, "sqlite: exec")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "sqlite: rows affected")
	}
	ws.logger.Debug("Statement executed", zap.String("statement", statement), zap.Int64("affected", n))
	return n, nil
}

// Rows reads dataset back in insertion order. Geometry blobs are decoded into orb geometries
func (ws *Workspace) Rows(ctx context.Context, schema *natmap.Schema) ([][]any, error) {
	columns := schema.Columns()
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", strings.Join(columns, ", "), schema.Name)
	rows, err := ws.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(err, "sqlite: select %s", schema.Name)
	}
	defer rows.Close()

	result := [][]any{}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrapf(err, "sqlite: scan %s", schema.Name)
		}
		if schema.HasGeometry() {
			last := len(values) - 1
			blob, _ := values[last].([]byte)
			g, _, err := geomcodec.UnmarshalEWKB(blob)
			if err != nil {
				return nil, errors.Wrapf(err, "sqlite: geometry of %s", schema.Name)
			}
			values[last] = g
		}
		result = append(result, values)
	}
	return result, errors.Wrap(rows.Err(), "sqlite: iterate")
}

// Indexes lists attribute indexes of dataset
func (ws *Workspace) Indexes(ctx context.Context, schema *natmap.Schema) ([]string, error) {
	rows, err := ws.db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = ? ORDER BY name", schema.Name)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite: list indexes")
	}
	defer rows.Close()
	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "sqlite: scan index")
		}
		names = append(names, name)
	}
	return names, errors.Wrap(rows.Err(), "sqlite: iterate")
}

func (ws *Workspace) Close() error {
	return ws.db.Close()
}
