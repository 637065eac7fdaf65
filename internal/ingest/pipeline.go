// Package ingest runs the roster ingestion pipeline: parsed sheets are
// field-mapped, validated row by row across a worker pool, numbered, and
// uploaded to the external store.
package ingest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fieldday/combine/internal/adapters/mq/queue"
	"github.com/fieldday/combine/internal/adapters/mq/worker"
	"github.com/fieldday/combine/internal/adapters/store"
	"github.com/fieldday/combine/internal/domain/fieldmap"
	"github.com/fieldday/combine/internal/domain/model"
	"github.com/fieldday/combine/internal/domain/numbering"
	"github.com/fieldday/combine/internal/domain/rowcheck"
	"github.com/fieldday/combine/internal/domain/sheet"
	"github.com/fieldday/combine/pkg/logger"
	"github.com/fieldday/combine/pkg/metrics"
)

// Default pipeline configuration constants.
const (
	defaultWorkerCount = 8
	defaultMaxRows     = 2000
	validationTimeout  = 30 * time.Second
)

// Uploader is the slice of the store client the pipeline mutates through.
type Uploader interface {
	UploadPlayers(ctx context.Context, eventID string, players []store.PlayerUpload) (store.UploadResult, error)
}

// NumberSource exposes the numbers already persisted for the event.
type NumberSource interface {
	Numbers(ctx context.Context) []int
}

// Summary buckets validated rows by severity.
type Summary struct {
	Total    int `json:"total"`
	Clean    int `json:"clean"`
	Soft     int `json:"soft"`     // warnings only; still uploadable
	Critical int `json:"critical"` // missing name; excluded from upload
}

// Preview is the dry-run result shown before an upload is committed.
type Preview struct {
	Mapping      fieldmap.Mapping        `json:"-"`
	MappedFields map[string]string       `json:"mapped_fields"` // field key -> source header ("" when ignored)
	Dropped      []string                `json:"dropped_fields,omitempty"`
	NeedsMapping bool                    `json:"needs_mapping"`
	HeaderIssues []string                `json:"header_issues,omitempty"`
	Rows         []rowcheck.ValidatedRow `json:"rows,omitempty"`
	Summary      Summary                 `json:"summary"`
}

// Report summarizes a committed upload.
type Report struct {
	Attempted   int              `json:"attempted"`
	Added       int              `json:"added"`
	SkippedRows []int            `json:"skipped_rows,omitempty"` // zero-based data row indices
	RowErrors   []store.RowError `json:"row_errors,omitempty"`
}

// Pipeline validates and uploads roster sheets.
type Pipeline struct {
	uploader Uploader
	numbers  NumberSource
	alloc    *numbering.Allocator

	workerCount int
	maxRows     int
	log         logger.Logger
}

// New creates a Pipeline backed by the given store client and number source.
func New(uploader Uploader, numbers NumberSource, opts ...Option) *Pipeline {
	p := &Pipeline{
		uploader:    uploader,
		numbers:     numbers,
		alloc:       numbering.New(),
		workerCount: defaultWorkerCount,
		maxRows:     defaultMaxRows,
		log:         logger.Named("ingest"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Preview maps and validates a sheet without touching the store. Structural
// problems (no rows, unresolvable name columns) short-circuit before row
// validation, matching how the mapping screen gates the flow.
func (p *Pipeline) Preview(ctx context.Context, table sheet.Table, overrides fieldmap.Mapping, drills []model.DrillDefinition) (Preview, error) {
	start := time.Now()
	defer func() {
		metrics.RecordPreviewLatency(float64(time.Since(start).Milliseconds()))
	}()

	if table.Empty() {
		return Preview{}, ErrEmptySheet
	}
	if len(table.Rows) > p.maxRows {
		return Preview{}, fmt.Errorf("%w: %d rows, limit %d", ErrTooManyRows, len(table.Rows), p.maxRows)
	}

	mapping, dropped := fieldmap.Normalize(
		fieldmap.Merge(fieldmap.DefaultMapping(table.Headers, drills), overrides),
		drills,
	)

	out := Preview{
		Mapping:      mapping,
		MappedFields: describeMapping(mapping),
		Dropped:      describeKeys(dropped),
	}

	if mapping[model.FieldFirstName].Unset() || mapping[model.FieldLastName].Unset() {
		out.NeedsMapping = true
		out.HeaderIssues = rowcheck.CheckHeaders(table.Headers)
		return out, nil
	}

	rows, err := p.validateRows(ctx, fieldmap.Apply(table.Rows, mapping))
	if err != nil {
		return Preview{}, err
	}
	out.Rows = rows

	for _, r := range rows {
		out.Summary.Total++
		switch {
		case r.Critical():
			out.Summary.Critical++
			metrics.RecordRowValidated("critical")
		case len(r.Warnings) > 0:
			out.Summary.Soft++
			metrics.RecordRowValidated("soft")
		default:
			out.Summary.Clean++
			metrics.RecordRowValidated("clean")
		}
	}

	return out, nil
}

// Upload commits a sheet: rows without a resolvable name are skipped, every
// unnumbered row gets a collision-free number, drill cells that parse as
// complete numeric literals become scores, and the batch goes to the store
// in one call. Store-side row errors are surfaced verbatim, without retry.
func (p *Pipeline) Upload(ctx context.Context, eventID string, table sheet.Table, overrides fieldmap.Mapping, drills []model.DrillDefinition) (Report, error) {
	preview, err := p.Preview(ctx, table, overrides, drills)
	if err != nil {
		return Report{}, err
	}
	if preview.NeedsMapping {
		return Report{}, ErrMappingIncomplete
	}

	var report Report
	candidates := make([]model.Player, 0, len(preview.Rows))
	kept := make([]rowcheck.ValidatedRow, 0, len(preview.Rows))
	for i, r := range preview.Rows {
		if r.Critical() {
			report.SkippedRows = append(report.SkippedRows, i)
			continue
		}
		candidates = append(candidates, model.Player{
			Name:     r.Name,
			AgeGroup: strings.TrimSpace(r.Fields[model.FieldAgeGroup]),
			Number:   explicitNumber(r.Fields),
		})
		kept = append(kept, r)
	}
	if len(candidates) == 0 {
		return report, nil
	}

	numbered := p.alloc.AutoAssignWith(candidates, p.numbers.Numbers(ctx))

	uploads := make([]store.PlayerUpload, len(numbered))
	for i, pl := range numbered {
		uploads[i] = store.PlayerUpload{
			Name:     pl.Name,
			Number:   pl.Number,
			AgeGroup: pl.AgeGroup,
			Team:     strings.TrimSpace(kept[i].Fields[model.FieldTeamName]),
			Position: strings.TrimSpace(kept[i].Fields[model.FieldPosition]),
			Notes:    strings.TrimSpace(kept[i].Fields[model.FieldNotes]),
			Scores:   p.drillScores(ctx, kept[i].Fields, drills),
		}
	}

	result, err := p.uploader.UploadPlayers(ctx, eventID, uploads)
	if err != nil {
		return Report{}, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	metrics.RecordUpload(len(uploads))
	metrics.RecordUploadRowErrors(len(result.Errors))

	report.Attempted = len(uploads)
	report.Added = result.Added
	report.RowErrors = result.Errors
	return report, nil
}

// validateRows fans mapped rows across the worker pool and restores sheet
// order by job index.
func (p *Pipeline) validateRows(ctx context.Context, rows []model.MappedRow) ([]rowcheck.ValidatedRow, error) {
	q := queue.NewInMemoryQueue(queue.WithCapacity(len(rows)))
	collector := &orderedCollector{rows: make([]rowcheck.ValidatedRow, len(rows))}
	pool := worker.NewPool(p.workerCount, q, checkFunc{}, collector)

	for i, r := range rows {
		if !q.Enqueue(ctx, queue.Job{Index: i, Row: r}) {
			// Capacity equals the row count, so only cancellation gets here.
			break
		}
	}
	if err := q.Close(); err != nil {
		return nil, err
	}

	pool.Start(ctx)
	waitCtx, cancel := context.WithTimeout(ctx, validationTimeout)
	defer cancel()
	if err := pool.Wait(waitCtx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationTimedOut, err)
	}

	return collector.rows, nil
}

// drillScores coerces drill cells to floats. Cells that are not complete
// numeric literals are dropped without warning the operator; a debug line is
// the only trace.
func (p *Pipeline) drillScores(ctx context.Context, fields model.MappedRow, drills []model.DrillDefinition) map[string]float64 {
	var scores map[string]float64
	for _, d := range drills {
		raw, ok := fields[model.DrillScoreField(d.Key)]
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		v, ok := rowcheck.StrictFloat(raw)
		if !ok {
			p.log.Debug(ctx, "dropping non-numeric drill cell",
				logger.String("drill", d.Key),
				logger.String("value", raw))
			continue
		}
		if scores == nil {
			scores = make(map[string]float64)
		}
		scores[d.Key] = v
	}
	return scores
}

// explicitNumber reads a valid explicit number from the row, zero otherwise.
func explicitNumber(fields model.MappedRow) int {
	raw := strings.TrimSpace(fields[model.FieldNumber])
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

func describeMapping(m fieldmap.Mapping) map[string]string {
	out := make(map[string]string, len(m))
	for k, t := range m {
		if t.Ignore {
			out[k.String()] = ""
			continue
		}
		out[k.String()] = t.Header
	}
	return out
}

func describeKeys(keys []model.FieldKey) []string {
	if len(keys) == 0 {
		return nil
	}
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}

// checkFunc adapts the domain row check to the worker contract.
type checkFunc struct{}

func (checkFunc) Check(_ context.Context, row model.MappedRow) rowcheck.ValidatedRow {
	return rowcheck.CheckRow(row)
}

// orderedCollector stores results at their job index.
type orderedCollector struct {
	mu   sync.Mutex
	rows []rowcheck.ValidatedRow
}

func (c *orderedCollector) Collect(_ context.Context, index int, row rowcheck.ValidatedRow) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if index >= 0 && index < len(c.rows) {
		c.rows[index] = row
	}
}
