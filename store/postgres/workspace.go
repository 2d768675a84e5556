// Package postgres stores national datasets in PostgreSQL/PostGIS (the enterprise geodatabase).
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/LdDl/natmap"
	"github.com/LdDl/natmap/internal/geomcodec"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Pool is subset of pgxpool.Pool used by workspace
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Close()
}

// Workspace implements natmap.Workspace with COPY bulk loads. Identifiers are folded to lower case
// so raw statements with unquoted names address the same tables
type Workspace struct {
	pool   Pool
	srid   int
	logger *zap.Logger
}

// New wraps existing pool
func New(pool Pool, srid int) *Workspace {
	return &Workspace{
		pool:   pool,
		srid:   srid,
		logger: zap.L().With(zap.String("component", "postgres_workspace")),
	}
}

// Connect creates connection pool and checks it
func Connect(ctx context.Context, connString string, srid int) (*Workspace, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, errors.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 4
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "postgres: ping")
	}
	return New(pool, srid), nil
}

func ident(name string) string {
	return strings.ToLower(name)
}

func columnType(f natmap.Field) string {
	switch f.Type {
	case natmap.FIELD_INTEGER:
		return "bigint"
	case natmap.FIELD_DOUBLE:
		return "double precision"
	default:
		if f.Length > 0 {
			return fmt.Sprintf("varchar(%d)", f.Length)
		}
		return "text"
	}
}

// CreateTableSQL returns DDL of dataset with PostGIS geometry column
func CreateTableSQL(schema *natmap.Schema, srid int) string {
	columns := make([]string, 0, len(schema.Fields)+1)
	for _, f := range schema.Fields {
		columns = append(columns, fmt.Sprintf("%s %s", ident(f.Name), columnType(f)))
	}
	if schema.HasGeometry() {
		columns = append(columns, fmt.Sprintf("%s geometry(Geometry, %d)", ident(natmap.GeometryColumn), srid))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", ident(schema.Name), strings.Join(columns, ", "))
}

func (ws *Workspace) CreateTable(ctx context.Context, schema *natmap.Schema) error {
	if _, err := ws.pool.Exec(ctx, "DROP TABLE IF EXISTS "+ident(schema.Name)); err != nil {
		return errors.Wrapf(err, "postgres: drop %s", schema.Name)
	}
	if _, err := ws.pool.Exec(ctx, CreateTableSQL(schema, ws.srid)); err != nil {
		return errors.Wrapf(err, "postgres: create %s", schema.Name)
	}
	ws.logger.Debug("Table created", zap.String("dataset", schema.Name))
	return nil
}

// Columns returns lower case column names of dataset
func Columns(schema *natmap.Schema) []string {
	columns := schema.Columns()
	for i := range columns {
		columns[i] = ident(columns[i])
	}
	return columns
}

// copyRows validates rows and replaces geometries with EWKB
func (ws *Workspace) copyRows(schema *natmap.Schema, rows [][]any) ([][]any, error) {
	if !schema.HasGeometry() {
		for i, row := range rows {
			if err := schema.ValidateRow(row); err != nil {
				return nil, errors.Wrapf(err, "postgres: row %d", i)
			}
		}
		return rows, nil
	}
	result := make([][]any, len(rows))
	for i, row := range rows {
		if err := schema.ValidateRow(row); err != nil {
			return nil, errors.Wrapf(err, "postgres: row %d", i)
		}
		converted := make([]any, len(row))
		copy(converted, row)
		last := len(row) - 1
		g, _ := row[last].(orb.Geometry)
		blob, err := geomcodec.MarshalEWKB(g, ws.srid)
		if err != nil {
			return nil, errors.Wrapf(err, "postgres: geometry of row %d", i)
		}
		converted[last] = nil
		if blob != nil {
			converted[last] = blob
		}
		result[i] = converted
	}
	return result, nil
}

// Insert bulk-loads rows using COPY protocol
func (ws *Workspace) Insert(ctx context.Context, schema *natmap.Schema, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	copyRows, err := ws.copyRows(schema, rows)
	if err != nil {
		return 0, err
	}
	n, err := ws.pool.CopyFrom(ctx, pgx.Identifier{ident(schema.Name)}, Columns(schema), pgx.CopyFromRows(copyRows))
	if err != nil {
		return 0, errors.Wrapf(err, "postgres: COPY INTO %s", ident(schema.Name))
	}
	return n, nil
}

// IndexName returns name of attribute index
func IndexName(schema *natmap.Schema, field string) string {
	return ident(fmt.Sprintf("idx_%s_%s", schema.Name, field))
}

func (ws *Workspace) AddIndex(ctx context.Context, schema *natmap.Schema, field string) error {
	if schema.Index(field) < 0 {
		return errors.Errorf("postgres: no field '%s' in '%s'", field, schema.Name)
	}
	statement := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", IndexName(schema, field), ident(schema.Name), ident(field))
	if _, err := ws.pool.Exec(ctx, statement); err != nil {
		return errors.Wrapf(err, "postgres: index %s.%s", schema.Name, field)
	}
	return nil
}

func (ws *Workspace) Exec(ctx context.Context, statement string) (int64, error) {
	tag, err := ws.pool.Exec(ctx, statement)
	if err != nil {
		return 0, errors.Wrap(err, "postgres: exec")
	}
	ws.logger.Debug("Statement executed", zap.String("statement", statement), zap.Int64("affected", tag.RowsAffected()))
	return tag.RowsAffected(), nil
}

func (ws *Workspace) Close() error {
	ws.pool.Close()
	return nil
}
