package importer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"kidbloom/internal/logging"
	"kidbloom/internal/model"
	"kidbloom/internal/observability"
	"kidbloom/internal/parser"
	"kidbloom/internal/service/excel"
)

// ErrUnknownCollection means the header row matched no collection and the
// caller did not name one.
var ErrUnknownCollection = errors.New("cannot tell which collection the sheet holds")

// RecordStore is the external collection store seen by the importer.
type RecordStore interface {
	BulkInsert(ctx context.Context, c model.Collection, records []model.Record) error
	DeleteAll(ctx context.Context, c model.Collection) (int64, error)
}

// ImportLogger records committed imports. Optional.
type ImportLogger interface {
	CreateImportLog(ctx context.Context, filename string, c model.Collection, mode model.ImportMode) (int64, error)
	FinishImportLog(ctx context.Context, id int64, records, errorRows int, status, errorMessage string) error
}

// Coordinator parses uploads into batches and commits them.
type Coordinator struct {
	store      RecordStore
	logs       ImportLogger
	validate   *validator.Validate
	recognizer *parser.HeaderRecognizer
}

// NewCoordinator builds a coordinator over store. logs may be nil.
func NewCoordinator(store RecordStore, logs ImportLogger) *Coordinator {
	return &Coordinator{
		store:      store,
		logs:       logs,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		recognizer: parser.NewHeaderRecognizer(),
	}
}

// ParseOptions describes one upload.
type ParseOptions struct {
	Filename   string
	Reader     io.Reader
	Collection model.Collection // empty: recognise from headers
}

// ProgressEvent is emitted while a file is parsed.
type ProgressEvent struct {
	Type      string      `json:"type"` // start/info/done/error
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Err       error       `json:"-"`
	Timestamp time.Time   `json:"timestamp"`
}

// Parsed is a batch of any collection, ready for preview and commit.
type Parsed struct {
	Filename   string
	Collection model.Collection
	Records    []model.Record
	Errors     []model.ImportError
}

// FromBatch erases the record type of a batch.
func FromBatch[T model.Record](filename string, b *model.ImportBatch[T]) *Parsed {
	return &Parsed{
		Filename:   filename,
		Collection: b.Collection(),
		Records:    b.AsRecords(),
		Errors:     b.Errors,
	}
}

// Parse reads the upload in the background and reports progress on the
// returned channel, which is closed after a done or error event.
func (c *Coordinator) Parse(ctx context.Context, opts ParseOptions) <-chan ProgressEvent {
	progressChan := make(chan ProgressEvent, 8)

	go func() {
		defer close(progressChan)
		c.doParse(ctx, opts, progressChan)
	}()

	return progressChan
}

// ParseSync runs Parse and waits for its result.
func (c *Coordinator) ParseSync(ctx context.Context, opts ParseOptions) (*Parsed, error) {
	var (
		parsed *Parsed
		err    error
	)
	for ev := range c.Parse(ctx, opts) {
		switch ev.Type {
		case "done":
			parsed, _ = ev.Data.(*Parsed)
		case "error":
			err = ev.Err
		}
	}
	if err != nil {
		return nil, err
	}
	if parsed == nil {
		return nil, errors.New("parse finished without a result")
	}
	return parsed, nil
}

func (c *Coordinator) doParse(ctx context.Context, opts ParseOptions, progressChan chan<- ProgressEvent) {
	log := logging.FromContext(ctx).WithField("filename", filepath.Base(opts.Filename))

	c.sendProgress(progressChan, ProgressEvent{
		Type:    "start",
		Message: "reading workbook",
		Data:    map[string]string{"filename": filepath.Base(opts.Filename)},
	})

	fail := func(err error) {
		log.WithError(err).Warn("import parse failed")
		c.sendProgress(progressChan, ProgressEvent{Type: "error", Message: err.Error(), Err: err})
	}

	// the whole upload is read before parsing; excelize needs random access
	data, err := io.ReadAll(opts.Reader)
	if err != nil {
		fail(errors.Wrap(err, "read upload"))
		return
	}
	if err := ctx.Err(); err != nil {
		fail(err)
		return
	}

	sheet, err := excel.LoadWorkbook(bytes.NewReader(data))
	if err != nil {
		fail(err)
		return
	}

	collection := opts.Collection
	if collection == "" {
		result, ok := c.recognizer.Recognize(sheet.Headers)
		if !ok {
			fail(ErrUnknownCollection)
			return
		}
		collection = result.Collection
		c.sendProgress(progressChan, ProgressEvent{
			Type:    "info",
			Message: fmt.Sprintf("sheet %q recognised as %s (confidence %.2f)", sheet.Name, collection, result.Confidence),
			Data:    result,
		})
	}

	c.sendProgress(progressChan, ProgressEvent{
		Type:    "info",
		Message: fmt.Sprintf("sheet %q has %d data rows", sheet.Name, len(sheet.Rows)),
		Data:    map[string]interface{}{"sheet": sheet.Name, "rows": len(sheet.Rows)},
	})

	parsed, err := ParseSheet(opts.Filename, collection, sheet)
	if err != nil {
		fail(err)
		return
	}

	observability.RecordParse(string(collection), len(parsed.Records), len(parsed.Errors))
	log.WithFields(logrus.Fields{
		"collection": collection,
		"records":    len(parsed.Records),
		"errors":     len(parsed.Errors),
	}).Info("import parsed")

	c.sendProgress(progressChan, ProgressEvent{
		Type:    "done",
		Message: fmt.Sprintf("%d records, %d row errors", len(parsed.Records), len(parsed.Errors)),
		Data:    parsed,
	})
}

// ParseSheet runs the row importer of a collection over a loaded sheet.
func ParseSheet(filename string, collection model.Collection, sheet *excel.Sheet) (*Parsed, error) {
	switch collection {
	case model.CollectionActivities:
		return FromBatch(filename, excel.ParseActivities(sheet)), nil
	case model.CollectionStoriesMusic:
		return FromBatch(filename, excel.ParseStoriesMusic(sheet)), nil
	case model.CollectionShopProducts:
		return FromBatch(filename, excel.ParseShopProducts(sheet)), nil
	default:
		return nil, errors.Errorf("unknown collection %q", collection)
	}
}

func (c *Coordinator) sendProgress(ch chan<- ProgressEvent, ev ProgressEvent) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	ch <- ev
}

// Recognize guesses the collection of a header row.
func (c *Coordinator) Recognize(headers []string) (parser.RecognitionResult, bool) {
	return c.recognizer.Recognize(headers)
}
