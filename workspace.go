package natmap

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Workspace is write side of spatial data store
type Workspace interface {
	// CreateTable creates (or recreates) dataset described by schema
	CreateTable(ctx context.Context, schema *Schema) error
	// Insert appends rows given in schema column order and returns number of inserted rows
	Insert(ctx context.Context, schema *Schema, rows [][]any) (int64, error)
	// AddIndex creates attribute index on the field
	AddIndex(ctx context.Context, schema *Schema, field string) error
	// Exec executes raw statement and returns number of affected rows
	Exec(ctx context.Context, statement string) (int64, error)
	Close() error
}

// ErrTableNotFound is returned when dataset has not been created
var ErrTableNotFound = errors.New("table not found")

// MemoryWorkspace keeps datasets in memory
type MemoryWorkspace struct {
	mu      sync.Mutex
	tables  map[string][][]any
	indexes map[string][]string
	// Statements holds every statement passed to Exec
	Statements []string
}

// NewMemoryWorkspace returns empty in-memory workspace
func NewMemoryWorkspace() *MemoryWorkspace {
	return &MemoryWorkspace{
		tables:  make(map[string][][]any),
		indexes: make(map[string][]string),
	}
}

func (ws *MemoryWorkspace) CreateTable(ctx context.Context, schema *Schema) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.tables[schema.Name] = [][]any{}
	delete(ws.indexes, schema.Name)
	return nil
}

func (ws *MemoryWorkspace) Insert(ctx context.Context, schema *Schema, rows [][]any) (int64, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	table, ok := ws.tables[schema.Name]
	if !ok {
		return 0, errors.Wrapf(ErrTableNotFound, "Can't insert into '%s'", schema.Name)
	}
	for _, row := range rows {
		if err := schema.ValidateRow(row); err != nil {
			return 0, errors.Wrap(err, "Can't insert row")
		}
	}
	ws.tables[schema.Name] = append(table, rows...)
	return int64(len(rows)), nil
}

func (ws *MemoryWorkspace) AddIndex(ctx context.Context, schema *Schema, field string) error {
	if schema.Index(field) < 0 {
		return errors.Errorf("Can't index '%s': no field '%s'", schema.Name, field)
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	if _, ok := ws.tables[schema.Name]; !ok {
		return errors.Wrapf(ErrTableNotFound, "Can't index '%s'", schema.Name)
	}
	ws.indexes[schema.Name] = append(ws.indexes[schema.Name], field)
	return nil
}

// Exec records the statement. In-memory tables are rewritten by resolver in process, so nothing is affected
func (ws *MemoryWorkspace) Exec(ctx context.Context, statement string) (int64, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.Statements = append(ws.Statements, statement)
	return 0, nil
}

func (ws *MemoryWorkspace) Close() error {
	return nil
}

// Rows returns rows of the dataset
func (ws *MemoryWorkspace) Rows(name string) [][]any {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.tables[name]
}

// Indexes returns indexed fields of the dataset
func (ws *MemoryWorkspace) Indexes(name string) []string {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.indexes[name]
}

// BatchWriter buffers rows of one dataset and flushes them to workspace once threshold is reached
type BatchWriter struct {
	workspace Workspace
	schema    *Schema
	threshold int
	buffer    [][]any
	written   int64
	flushes   int
	onFlush   func(n int64)
}

// NewBatchWriter returns writer with given flush threshold. Non-positive threshold means a flush per row
func NewBatchWriter(workspace Workspace, schema *Schema, threshold int) *BatchWriter {
	if threshold <= 0 {
		threshold = 1
	}
	return &BatchWriter{
		workspace: workspace,
		schema:    schema,
		threshold: threshold,
		buffer:    make([][]any, 0, threshold),
	}
}

// OnFlush registers callback receiving number of rows written by every flush
func (writer *BatchWriter) OnFlush(fn func(n int64)) *BatchWriter {
	writer.onFlush = fn
	return writer
}

// Write buffers row and flushes buffer when threshold is reached
func (writer *BatchWriter) Write(ctx context.Context, row []any) error {
	writer.buffer = append(writer.buffer, row)
	if len(writer.buffer) < writer.threshold {
		return nil
	}
	return writer.Flush(ctx)
}

// Flush writes buffered rows
func (writer *BatchWriter) Flush(ctx context.Context) error {
	if len(writer.buffer) == 0 {
		return nil
	}
	n, err := writer.workspace.Insert(ctx, writer.schema, writer.buffer)
	if err != nil {
		return errors.Wrapf(err, "Can't flush %d rows into '%s'", len(writer.buffer), writer.schema.Name)
	}
	writer.written += n
	writer.flushes++
	zap.L().Debug("Batch flushed",
		zap.String("dataset", writer.schema.Name),
		zap.Int64("rows", n),
		zap.Int64("written", writer.written),
	)
	if writer.onFlush != nil {
		writer.onFlush(n)
	}
	writer.buffer = writer.buffer[:0]
	return nil
}

// Written returns number of rows flushed so far
func (writer *BatchWriter) Written() int64 {
	return writer.written
}

// Flushes returns number of performed flushes
func (writer *BatchWriter) Flushes() int {
	return writer.flushes
}
