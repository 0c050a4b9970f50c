package exporter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"kidbloom/internal/logging"
	"kidbloom/internal/model"
	"kidbloom/internal/parser"
	"kidbloom/internal/service/excel"
)

// Source reads every stored record of a collection.
type Source interface {
	ListAllActivities(ctx context.Context) ([]model.ActivityRecord, error)
	ListStoriesMusic(ctx context.Context, kind string) ([]model.StoryMusicRecord, error)
	ListShopProducts(ctx context.Context) ([]model.ShopProductRecord, error)
}

// Exporter writes a collection back into a workbook laid out like its import
// template, so the file can be edited and imported again.
type Exporter struct {
	src Source
	now func() time.Time
}

// NewExporter creates an exporter over src.
func NewExporter(src Source) *Exporter {
	return &Exporter{src: src, now: time.Now}
}

// ExportOptions selects what to export.
type ExportOptions struct {
	Collection model.Collection
	Progress   func(ProgressEvent)
}

// Export builds the workbook and returns it with the number of data rows.
// The caller closes the workbook.
func (e *Exporter) Export(ctx context.Context, opts ExportOptions) (*excelize.File, int, error) {
	table, ok := parser.TableFor(opts.Collection)
	if !ok {
		return nil, 0, errors.Errorf("unknown collection %q", opts.Collection)
	}

	reportProgress(opts.Progress, 5, "loading records")
	rows, err := e.load(ctx, opts.Collection)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "load %s", opts.Collection)
	}

	wb, err := excel.NewTemplateWorkbook(opts.Collection)
	if err != nil {
		return nil, 0, err
	}
	sheet := wb.GetSheetName(0)

	// the template ships one example row under the header
	if len(rows) == 0 {
		if err := wb.RemoveRow(sheet, 2); err != nil {
			wb.Close()
			return nil, 0, err
		}
	}

	reportProgress(opts.Progress, 20, "writing rows")
	for i, values := range rows {
		if err := ctx.Err(); err != nil {
			wb.Close()
			return nil, 0, err
		}
		line := make([]any, len(table.Order))
		for j, f := range table.Order {
			line[j] = values[f]
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			wb.Close()
			return nil, 0, err
		}
		if err := wb.SetSheetRow(sheet, cell, &line); err != nil {
			wb.Close()
			return nil, 0, errors.Wrapf(err, "write row %d", i+2)
		}
		if (i+1)%50 == 0 {
			reportProgress(opts.Progress, 20+75*(i+1)/len(rows), fmt.Sprintf("wrote %d of %d rows", i+1, len(rows)))
		}
	}

	wb.SetActiveSheet(0)
	reportProgress(opts.Progress, 100, "done")
	return wb, len(rows), nil
}

// SaveSnapshot exports a collection into dir under a timestamped name and
// returns the written path.
func (e *Exporter) SaveSnapshot(ctx context.Context, c model.Collection, dir string) (string, int, error) {
	wb, n, err := e.Export(ctx, ExportOptions{Collection: c})
	if err != nil {
		return "", 0, err
	}
	defer wb.Close()

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", 0, errors.Wrapf(err, "create %s", dir)
	}
	path := filepath.Join(dir, Filename(c, e.now()))
	if err := wb.SaveAs(path); err != nil {
		return "", 0, errors.Wrapf(err, "save %s", path)
	}

	logging.FromContext(ctx).WithFields(logrus.Fields{
		"collection": c,
		"rows":       n,
		"path":       path,
	}).Info("collection snapshot saved")
	return path, n, nil
}

// Filename names an export of c taken at t.
func Filename(c model.Collection, t time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", c, t.Format("20060102-150405"))
}

func (e *Exporter) load(ctx context.Context, c model.Collection) ([]map[parser.Field]any, error) {
	switch c {
	case model.CollectionActivities:
		recs, err := e.src.ListAllActivities(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]map[parser.Field]any, len(recs))
		for i, r := range recs {
			out[i] = activityRow(r)
		}
		return out, nil
	case model.CollectionStoriesMusic:
		recs, err := e.src.ListStoriesMusic(ctx, "")
		if err != nil {
			return nil, err
		}
		out := make([]map[parser.Field]any, len(recs))
		for i, r := range recs {
			out[i] = storyMusicRow(r)
		}
		return out, nil
	case model.CollectionShopProducts:
		recs, err := e.src.ListShopProducts(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]map[parser.Field]any, len(recs))
		for i, r := range recs {
			out[i] = shopProductRow(r)
		}
		return out, nil
	}
	return nil, errors.Errorf("unknown collection %q", c)
}

func activityRow(r model.ActivityRecord) map[parser.Field]any {
	return map[parser.Field]any{
		parser.FieldScheduledDate: r.ScheduledDate,
		parser.FieldTitle:         r.Title,
		parser.FieldDescription:   r.Description,
		parser.FieldTags:          strings.Join(r.Tags, ", "),
		parser.FieldInstructions:  r.Instructions,
		parser.FieldGoals:         r.Goals,
		parser.FieldVideoURL:      r.VideoURL,
		parser.FieldPoints:        r.Points,
		parser.FieldExpertName:    r.ExpertName,
		parser.FieldExpertTitle:   r.ExpertTitle,
		parser.FieldExpertAvatar:  r.ExpertAvatar,
		parser.FieldImageURL:      r.ImageURL,
	}
}

func storyMusicRow(r model.StoryMusicRecord) map[parser.Field]any {
	row := map[parser.Field]any{
		parser.FieldTitle:        r.Title,
		parser.FieldType:         r.Type,
		parser.FieldDescription:  deref(r.Description),
		parser.FieldContentURL:   deref(r.ContentURL),
		parser.FieldThumbnailURL: deref(r.ThumbnailURL),
	}
	if r.DurationMinutes != nil {
		row[parser.FieldDurationMinutes] = *r.DurationMinutes
	}
	return row
}

func shopProductRow(r model.ShopProductRecord) map[parser.Field]any {
	row := map[parser.Field]any{
		parser.FieldName:        r.Name,
		parser.FieldDescription: deref(r.Description),
		parser.FieldImageURL:    deref(r.ImageURL),
		parser.FieldCategory:    deref(r.Category),
		parser.FieldLink:        deref(r.Link),
	}
	if r.Price.Valid {
		row[parser.FieldPrice] = r.Price.Decimal.InexactFloat64()
	}
	return row
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
