package importer

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"kidbloom/internal/logging"
	"kidbloom/internal/model"
	"kidbloom/internal/observability"
)

var (
	// ErrEmptyBatch is returned when there is nothing to commit.
	ErrEmptyBatch = errors.New("batch has no records to commit")
	// ErrInvalidRecord is returned when a record fails validation; nothing
	// was written.
	ErrInvalidRecord = errors.New("batch contains an invalid record")
	// ErrReplaceIncomplete means replace mode deleted the existing records
	// but could not insert the new ones. The collection is left empty.
	ErrReplaceIncomplete = errors.New("replace deleted existing records but the insert failed")
)

// Import log statuses.
const (
	statusCommitted = "committed"
	statusFailed    = "failed"
)

// CommitResult reports what a successful commit changed.
type CommitResult struct {
	Collection  model.Collection `json:"collection"`
	Mode        string           `json:"mode"`
	Inserted    int              `json:"inserted"`
	Deleted     int64            `json:"deleted"`
	ImportLogID int64            `json:"importLogId,omitempty"`
}

// Commit writes a parsed batch to the store. In add mode the records are
// appended. In replace mode every existing record of the collection is
// deleted first; the delete and the insert are separate store calls, so an
// insert failure after a successful delete returns ErrReplaceIncomplete.
func (c *Coordinator) Commit(ctx context.Context, p *Parsed, mode model.ImportMode) (*CommitResult, error) {
	if p == nil {
		logging.FromContext(ctx).WithField("mode", mode.String()).Info("import commit rejected: no batch")
		return nil, ErrEmptyBatch
	}

	log := logging.FromContext(ctx).WithFields(logrus.Fields{
		"collection": p.Collection,
		"mode":       mode.String(),
		"records":    len(p.Records),
	})
	start := time.Now()
	result := &CommitResult{Collection: p.Collection, Mode: mode.String()}

	if err := c.check(ctx, p, mode); err != nil {
		observability.RecordCommit(string(p.Collection), mode.String(), "rejected", 0, time.Since(start))
		log.WithError(err).Info("import commit rejected")
		return nil, err
	}

	logID := c.openLog(ctx, log, p, mode)
	result.ImportLogID = logID

	finish := func(outcome, status string, err error) {
		msg := ""
		if err != nil {
			msg = err.Error()
		}
		observability.RecordCommit(string(p.Collection), mode.String(), outcome, result.Inserted, time.Since(start))
		c.closeLog(ctx, log, logID, result.Inserted, len(p.Errors), status, msg)
	}

	if mode == model.ImportModeReplace {
		deleted, err := c.store.DeleteAll(ctx, p.Collection)
		if err != nil {
			err = errors.Wrapf(err, "delete existing %s", p.Collection)
			finish("failed", statusFailed, err)
			log.WithError(err).Error("import commit failed")
			return nil, err
		}
		result.Deleted = deleted
	}

	if err := c.store.BulkInsert(ctx, p.Collection, p.Records); err != nil {
		if mode == model.ImportModeReplace {
			err = errors.Wrapf(ErrReplaceIncomplete, "%s: %v", p.Collection, err)
			finish("incomplete", statusFailed, err)
			log.WithError(err).WithField("deleted", result.Deleted).
				Warn("replace import deleted existing records but the insert failed; collection is now empty")
			return nil, err
		}
		err = errors.Wrapf(err, "insert %s", p.Collection)
		finish("failed", statusFailed, err)
		log.WithError(err).Error("import commit failed")
		return nil, err
	}
	result.Inserted = len(p.Records)

	finish("ok", statusCommitted, nil)
	log.WithField("deleted", result.Deleted).Info("import committed")
	return result, nil
}

func (c *Coordinator) check(ctx context.Context, p *Parsed, mode model.ImportMode) error {
	if mode != model.ImportModeAdd && mode != model.ImportModeReplace {
		return errors.Errorf("unsupported import mode %s", mode)
	}
	if p == nil || len(p.Records) == 0 {
		return ErrEmptyBatch
	}
	for i, rec := range p.Records {
		if rec.Collection() != p.Collection {
			return errors.Wrapf(ErrInvalidRecord, "record %d belongs to %s", i+1, rec.Collection())
		}
		if err := c.validate.StructCtx(ctx, rec); err != nil {
			return errors.Wrapf(ErrInvalidRecord, "record %d: %v", i+1, err)
		}
	}
	return nil
}

func (c *Coordinator) openLog(ctx context.Context, log *logrus.Entry, p *Parsed, mode model.ImportMode) int64 {
	if c.logs == nil {
		return 0
	}
	id, err := c.logs.CreateImportLog(ctx, p.Filename, p.Collection, mode)
	if err != nil {
		log.WithError(err).Warn("could not create import log")
		return 0
	}
	return id
}

func (c *Coordinator) closeLog(ctx context.Context, log *logrus.Entry, id int64, records, errorRows int, status, msg string) {
	if c.logs == nil || id == 0 {
		return
	}
	if err := c.logs.FinishImportLog(ctx, id, records, errorRows, status, msg); err != nil {
		log.WithError(err).Warn("could not update import log")
	}
}
