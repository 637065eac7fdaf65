package ingest

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/fieldday/combine/internal/domain/fieldmap"
	"github.com/fieldday/combine/internal/domain/model"
	"github.com/fieldday/combine/internal/domain/sheet"
)

// Request is one preview or upload submission as received from the outer
// surface: raw sheet content in exactly one format, plus mapping overrides
// keyed by canonical field name ("first_name", "drill:forty_yard_dash").
// An override with an empty header means "ignore this field".
type Request struct {
	CSV       string            `json:"csv,omitempty"`
	Workbook  []byte            `json:"workbook,omitempty"`
	Overrides map[string]string `json:"mapping,omitempty"`
}

// table parses whichever sheet format the request carries. Workbook data
// wins when both are present.
func (r Request) table() (sheet.Table, error) {
	if len(r.Workbook) > 0 {
		t, err := sheet.ParseWorkbook(bytes.NewReader(r.Workbook))
		if err != nil {
			return sheet.Table{}, fmt.Errorf("%w: %w", ErrEmptySheet, err)
		}
		return t, nil
	}
	return sheet.ParseDelimited(r.CSV), nil
}

// overrides converts string-keyed overrides into a typed mapping. Unknown
// field names are dropped; the preview response exposes what actually
// mapped, so a stale client key degrades visibly rather than erroring.
func (r Request) overrides(drills []model.DrillDefinition) fieldmap.Mapping {
	if len(r.Overrides) == 0 {
		return nil
	}
	out := make(fieldmap.Mapping, len(r.Overrides))
	for name, header := range r.Overrides {
		key, ok := ParseFieldKey(name, drills)
		if !ok {
			continue
		}
		if strings.TrimSpace(header) == "" {
			out[key] = fieldmap.IgnoreTarget()
			continue
		}
		out[key] = fieldmap.HeaderTarget(header)
	}
	return out
}

// ParseFieldKey resolves a canonical field name back to its typed key.
// Drill keys use the "drill:" prefix and must match a configured drill.
func ParseFieldKey(name string, drills []model.DrillDefinition) (model.FieldKey, bool) {
	for _, k := range model.FixedFields() {
		if k.String() == name {
			return k, true
		}
	}
	if drillKey, ok := strings.CutPrefix(name, "drill:"); ok {
		for _, d := range drills {
			if d.Key == drillKey {
				return model.DrillScoreField(drillKey), true
			}
		}
	}
	return model.FieldKey{}, false
}

// PreviewRequest parses the request payload and previews it.
func (p *Pipeline) PreviewRequest(ctx context.Context, req Request, drills []model.DrillDefinition) (Preview, error) {
	t, err := req.table()
	if err != nil {
		return Preview{}, err
	}
	return p.Preview(ctx, t, req.overrides(drills), drills)
}

// UploadRequest parses the request payload and commits it.
func (p *Pipeline) UploadRequest(ctx context.Context, eventID string, req Request, drills []model.DrillDefinition) (Report, error) {
	t, err := req.table()
	if err != nil {
		return Report{}, err
	}
	return p.Upload(ctx, eventID, t, req.overrides(drills), drills)
}
