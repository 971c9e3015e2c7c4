// Package query executes reads against remote tables through the table-read
// RFC: it compiles filters, fetches dictionary metadata on demand, paginates
// large reads and splits oversized membership filters into sequential
// sub-requests.
package query

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"sap-rfcread/internal/logging"
	"sap-rfcread/internal/observability"
	"sap-rfcread/internal/predicate"
	"sap-rfcread/internal/rfc"
	"sap-rfcread/internal/sapval"
)

// Engine executes read specs against one remote system.
type Engine struct {
	caller       rfc.Caller
	logger       *logging.Logger
	metrics      *observability.ReadMetrics
	tracer       trace.Tracer
	readFunction string
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(logger *logging.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics attaches read metrics to the engine.
func WithMetrics(metrics *observability.ReadMetrics) Option {
	return func(e *Engine) {
		e.metrics = metrics
	}
}

// WithReadFunction overrides the table-read function name, for systems where
// the default is not released for remote use.
func WithReadFunction(name string) Option {
	return func(e *Engine) {
		if name != "" {
			e.readFunction = name
		}
	}
}

// New builds an Engine on top of the given transport.
func New(caller rfc.Caller, opts ...Option) *Engine {
	e := &Engine{
		caller:       caller,
		logger:       &logging.Logger{Logger: slog.Default()},
		tracer:       otel.Tracer("sap-rfcread"),
		readFunction: rfc.FuncReadTableBBP,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Query executes the spec and returns the matching rows, cells decoded per
// the remote field types. Each query gets a query ID that tags every log line
// it produces.
func (e *Engine) Query(ctx context.Context, spec Spec) ([]Row, error) {
	if strings.TrimSpace(spec.Table) == "" {
		return nil, fmt.Errorf("%w: table name is required", ErrInvalidSpec)
	}
	if spec.Delimiter == "" {
		spec.Delimiter = DefaultDelimiter
	}
	if spec.ChunkRows <= 0 {
		spec.ChunkRows = DefaultChunkRows
	}

	fields, err := normalizeFields(spec.Fields)
	if err != nil {
		return nil, err
	}
	spec.Fields = fields

	if !spec.KeepDuplicates {
		spec.Where = dedupConditions(spec.Where)
	}

	queryID := logging.GetQueryID(ctx)
	if queryID == "" {
		queryID = uuid.NewString()
		ctx = logging.WithQueryIDContext(ctx, queryID)
	}
	ctx = logging.WithLogger(ctx, e.logger.WithQueryID(queryID).WithFields("table", spec.Table))

	ctx, span := e.tracer.Start(ctx, "query.Query", trace.WithAttributes(
		attribute.String("table", spec.Table),
	))
	defer span.End()

	if spec.Metadata == nil && hasMembership(spec.Where) {
		metadata, err := e.FieldInfo(ctx, spec.Table, false, "")
		if err != nil {
			return nil, fmt.Errorf("fetch field metadata for %s: %w", spec.Table, err)
		}
		spec.Metadata = metadata
	}

	rows, err := e.run(ctx, spec)
	if err != nil {
		return nil, err
	}
	if metrics := e.metricsFor(ctx); metrics != nil {
		metrics.RecordRowsReturned(ctx, spec.Table, int64(len(rows)))
	}
	return rows, nil
}

// metricsFor prefers the engine's metrics, falling back to metrics carried by
// the context so embedding services can attach their own.
func (e *Engine) metricsFor(ctx context.Context) *observability.ReadMetrics {
	if e.metrics != nil {
		return e.metrics
	}
	return observability.ReadMetricsFromContext(ctx)
}

// run dispatches a normalized spec to the chunked, paginated or direct path.
func (e *Engine) run(ctx context.Context, spec Spec) ([]Row, error) {
	if idx, ok := oversizedMembership(spec); ok {
		return e.chunked(ctx, spec, idx)
	}
	if spec.BatchRows > 0 {
		return e.paginate(ctx, spec)
	}
	return e.readTable(ctx, spec, spec.MaxRows, spec.FromRow)
}

// oversizedMembership returns the index of the first single-field membership
// condition whose value list exceeds the chunk size.
func oversizedMembership(spec Spec) (int, bool) {
	for i, cond := range spec.Where {
		if cond.Kind == predicate.KindIn && len(cond.Values) > spec.ChunkRows {
			return i, true
		}
	}
	return 0, false
}

// chunked splits the oversized membership list into contiguous sub-lists of
// at most ChunkRows values, runs one sub-request per sub-list sequentially
// and concatenates the results in list order. The remaining conditions apply
// unchanged to every sub-request.
func (e *Engine) chunked(ctx context.Context, spec Spec, idx int) ([]Row, error) {
	cond := spec.Where[idx]
	rest := make([]predicate.Condition, 0, len(spec.Where)-1)
	rest = append(rest, spec.Where[:idx]...)
	rest = append(rest, spec.Where[idx+1:]...)

	logging.FromContext(ctx).Info("splitting oversized membership filter",
		"field", cond.Field,
		"values", len(cond.Values),
		"chunk_rows", spec.ChunkRows,
	)

	var rows []Row
	chunks := int64(0)
	for start := 0; start < len(cond.Values); start += spec.ChunkRows {
		end := min(start+spec.ChunkRows, len(cond.Values))

		sub := spec
		where := make([]predicate.Condition, 0, len(rest)+1)
		where = append(where, rest...)
		where = append(where, predicate.In(cond.Field, cond.Values[start:end]...))
		sub.Where = where

		part, err := e.run(ctx, sub)
		if err != nil {
			return nil, err
		}
		rows = append(rows, part...)
		chunks++
	}
	if metrics := e.metricsFor(ctx); metrics != nil {
		metrics.RecordChunks(ctx, spec.Table, chunks)
	}
	return rows, nil
}

// paginate fetches rows in BatchRows windows until a window comes back short
// or the MaxRows budget is exhausted. The last request is clamped to the
// remaining budget so the total never exceeds MaxRows.
func (e *Engine) paginate(ctx context.Context, spec Spec) ([]Row, error) {
	var rows []Row
	offset := spec.FromRow
	for {
		request := spec.BatchRows
		if spec.MaxRows > 0 {
			remaining := spec.MaxRows - len(rows)
			if remaining <= 0 {
				break
			}
			request = min(request, remaining)
		}

		batch, err := e.readTable(ctx, spec, request, offset)
		if err != nil {
			return nil, err
		}
		rows = append(rows, batch...)
		offset += len(batch)
		if metrics := e.metricsFor(ctx); metrics != nil {
			metrics.RecordBatch(ctx, spec.Table)
		}
		if len(batch) < request {
			break
		}
	}
	return rows, nil
}

// readTable performs one table-read call and decodes the returned row
// buffers using the delimiter and the field formats the call reports.
func (e *Engine) readTable(ctx context.Context, spec Spec, rowCount, rowSkips int) ([]Row, error) {
	options, err := predicate.Compile(spec.Where, spec.Metadata, logging.FromContext(ctx).Logger)
	if err != nil {
		return nil, err
	}

	params := rfc.ReadTableParams{
		Table:     spec.Table,
		Delimiter: spec.Delimiter,
		RowCount:  rowCount,
		RowSkips:  rowSkips,
		Fields:    spec.Fields,
		Options:   options,
	}
	raw, err := e.call(ctx, e.readFunction, params.Map())
	if err != nil {
		return nil, err
	}

	result, err := rfc.DecodeReadTableResult(raw)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(result.Data))
	for _, data := range result.Data {
		cells := strings.Split(data.WA, spec.Delimiter)
		row := make(Row, len(cells))
		for i, cell := range cells {
			typeCode := ""
			if i < len(result.Fields) {
				typeCode = result.Fields[i].Type
			}
			row[i] = sapval.Decode(cell, typeCode)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// call invokes one remote function with tracing and metrics around it. The
// logger comes from the context so every line carries the query fields.
func (e *Engine) call(ctx context.Context, function string, params map[string]any) (map[string]any, error) {
	ctx, span := e.tracer.Start(ctx, "rfc.call", trace.WithAttributes(
		attribute.String("function", function),
	))
	defer span.End()

	logger := logging.FromContext(ctx)
	logger.Info("running remote function", "function", function)

	start := time.Now()
	raw, err := e.caller.Call(ctx, function, params)
	if metrics := e.metricsFor(ctx); metrics != nil {
		metrics.RecordCall(ctx, function, time.Since(start), err != nil)
	}
	if err != nil {
		logger.Error("remote function failed", "function", function, "error", err)
		return nil, err
	}
	logger.Debug("remote function returned", "function", function, "duration_ms", time.Since(start).Milliseconds())
	return raw, nil
}

// Echo round-trips a message through the remote system's connection test
// function, verifying connectivity and credentials.
func (e *Engine) Echo(ctx context.Context, message string) (string, error) {
	ctx = logging.WithLogger(ctx, e.logger)
	raw, err := e.call(ctx, rfc.FuncPing, map[string]any{"REQUTEXT": message})
	if err != nil {
		return "", err
	}
	echo, _ := raw["ECHOTEXT"].(string)
	return strings.TrimRight(echo, " "), nil
}
