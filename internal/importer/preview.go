package importer

import (
	"fmt"

	"kidbloom/internal/model"
)

// Preview is what an operator sees before deciding to commit.
type Preview struct {
	Filename     string              `json:"filename"`
	Collection   model.Collection    `json:"collection"`
	TotalRecords int                 `json:"totalRecords"`
	TotalErrors  int                 `json:"totalErrors"`
	Records      []model.Record      `json:"records"`    // first previewLimit records
	Errors       []model.ImportError `json:"errors"`     // every row error
	ShownErrors  []model.ImportError `json:"shownErrors"` // first errorLimit errors
	MoreErrors   int                 `json:"moreErrors"` // errors beyond ShownErrors
}

// Summarize bounds a parsed batch for display. Record order is preserved.
func Summarize(p *Parsed, previewLimit, errorLimit int) Preview {
	pv := Preview{
		Filename:     p.Filename,
		Collection:   p.Collection,
		TotalRecords: len(p.Records),
		TotalErrors:  len(p.Errors),
		Records:      head(p.Records, previewLimit),
		Errors:       p.Errors,
		ShownErrors:  head(p.Errors, errorLimit),
	}
	if pv.Errors == nil {
		pv.Errors = []model.ImportError{}
	}
	pv.MoreErrors = len(p.Errors) - len(pv.ShownErrors)
	return pv
}

// ErrorLines renders the shown errors plus a "+K more" line when truncated.
func (p Preview) ErrorLines() []string {
	lines := make([]string, 0, len(p.ShownErrors)+1)
	for _, e := range p.ShownErrors {
		lines = append(lines, e.Message)
	}
	if p.MoreErrors > 0 {
		lines = append(lines, fmt.Sprintf("+%d more", p.MoreErrors))
	}
	return lines
}

func head[T any](items []T, n int) []T {
	if n < 0 {
		n = 0
	}
	if len(items) < n {
		n = len(items)
	}
	out := make([]T, n)
	copy(out, items[:n])
	return out
}
