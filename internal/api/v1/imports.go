package v1

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"kidbloom/internal/exporter"
	"kidbloom/internal/importer"
	"kidbloom/internal/logging"
	"kidbloom/internal/model"
	"kidbloom/internal/service/excel"
)

// pendingImportResponse is returned after an upload and when a pending batch
// is looked up again.
type pendingImportResponse struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expiresAt,omitempty"`
	Preview   importer.Preview `json:"preview"`
}

// readUpload returns the bytes and name of the multipart "file" field.
func (h *Handler) readUpload(c *gin.Context) ([]byte, string, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes+1<<20)

	fh, err := c.FormFile("file")
	if err != nil {
		errorResponse(c, http.StatusBadRequest, codeBadRequest, "missing upload field \"file\"")
		return nil, "", false
	}
	if fh.Size > h.opts.MaxUploadBytes {
		errorResponse(c, http.StatusRequestEntityTooLarge, codeBadRequest,
			fmt.Sprintf("file is larger than %d MB", h.opts.MaxUploadBytes>>20))
		return nil, "", false
	}

	f, err := fh.Open()
	if err != nil {
		fail(c, err)
		return nil, "", false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		fail(c, err)
		return nil, "", false
	}
	return data, filepath.Base(fh.Filename), true
}

// UploadImport parses an uploaded workbook and keeps the batch pending.
// POST /api/admin/imports (multipart: file, collection?)
func (h *Handler) UploadImport(c *gin.Context) {
	data, filename, ok := h.readUpload(c)
	if !ok {
		return
	}

	var collection model.Collection
	if raw := c.PostForm("collection"); raw != "" {
		parsed, err := model.ParseCollection(raw)
		if err != nil {
			errorResponse(c, http.StatusBadRequest, codeBadRequest, err.Error())
			return
		}
		collection = parsed
	}

	parsed, err := h.importer.ParseSync(c.Request.Context(), importer.ParseOptions{
		Filename:   filename,
		Reader:     bytes.NewReader(data),
		Collection: collection,
	})
	if err != nil {
		fail(c, err)
		return
	}

	token, expiresAt, err := h.pending.Put(sessionOf(c).UserID.String(), parsed)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, pendingImportResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Preview:   importer.Summarize(parsed, h.opts.PreviewLimit, h.opts.ErrorDisplayLimit),
	})
}

// GetPendingImport returns the preview of a pending batch.
// GET /api/admin/imports/pending/:token
func (h *Handler) GetPendingImport(c *gin.Context) {
	token := c.Param("token")
	parsed, ok := h.pending.Get(sessionOf(c).UserID.String(), token)
	if !ok {
		errorResponse(c, http.StatusNotFound, codeNotFound, "import not found or expired")
		return
	}
	success(c, pendingImportResponse{
		Token:   token,
		Preview: importer.Summarize(parsed, h.opts.PreviewLimit, h.opts.ErrorDisplayLimit),
	})
}

type commitRequest struct {
	Mode string `json:"mode"`
}

// CommitImport writes a pending batch in add or replace mode. A replace
// snapshot is taken while the batch is still pending, so a failed snapshot
// leaves the token usable. Once the commit reaches the store the batch is
// consumed whatever the outcome.
// POST /api/admin/imports/pending/:token/commit {"mode":"add"|"replace"}
func (h *Handler) CommitImport(c *gin.Context) {
	var req commitRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			errorResponse(c, http.StatusBadRequest, codeBadRequest, "invalid request body")
			return
		}
	}
	mode, err := model.ParseImportMode(req.Mode)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	owner, token := sessionOf(c).UserID.String(), c.Param("token")
	parsed, ok := h.pending.Get(owner, token)
	if !ok {
		errorResponse(c, http.StatusNotFound, codeNotFound, "import not found or expired")
		return
	}

	var resp commitResponse
	if mode == model.ImportModeReplace && h.opts.SnapshotDir != "" {
		path, _, err := h.exporter.SaveSnapshot(c.Request.Context(), parsed.Collection, h.opts.SnapshotDir)
		if err != nil {
			fail(c, err)
			return
		}
		resp.Snapshot = filepath.Base(path)
	}

	// a concurrent commit of the same token may have won the race
	if parsed, ok = h.pending.Take(owner, token); !ok {
		errorResponse(c, http.StatusNotFound, codeNotFound, "import not found or expired")
		return
	}

	result, err := h.importer.Commit(c.Request.Context(), parsed, mode)
	if err != nil {
		fail(c, err)
		return
	}
	resp.CommitResult = result
	success(c, resp)
}

type commitResponse struct {
	*importer.CommitResult
	// Snapshot names the export taken before a replace.
	Snapshot string `json:"snapshot,omitempty"`
}

// CancelImport discards a pending batch. Nothing has been written yet.
// DELETE /api/admin/imports/pending/:token
func (h *Handler) CancelImport(c *gin.Context) {
	if !h.pending.Cancel(sessionOf(c).UserID.String(), c.Param("token")) {
		errorResponse(c, http.StatusNotFound, codeNotFound, "import not found or expired")
		return
	}
	logging.FromContext(c.Request.Context()).WithField("token", c.Param("token")).Info("import cancelled")
	success(c, nil)
}

// RecognizeImport guesses which collection an uploaded sheet belongs to.
// POST /api/admin/imports/recognize (multipart: file)
func (h *Handler) RecognizeImport(c *gin.Context) {
	data, _, ok := h.readUpload(c)
	if !ok {
		return
	}
	sheet, err := excel.LoadWorkbook(bytes.NewReader(data))
	if err != nil {
		fail(c, err)
		return
	}
	result, ok := h.importer.Recognize(sheet.Headers)
	success(c, gin.H{
		"sheet":      sheet.Name,
		"headers":    sheet.Headers,
		"recognized": ok,
		"result":     result,
	})
}

// ListImportLogs returns recent imports.
// GET /api/admin/imports/logs?limit=
func (h *Handler) ListImportLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	logs, err := h.store.ListImportLogs(c.Request.Context(), limit)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, logs)
}

// DownloadTemplate streams the sample workbook of a collection.
// GET /api/admin/templates/:collection
func (h *Handler) DownloadTemplate(c *gin.Context) {
	collection, err := model.ParseCollection(c.Param("collection"))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	wb, err := excel.NewTemplateWorkbook(collection)
	if err != nil {
		fail(c, err)
		return
	}
	defer wb.Close()

	buf, err := wb.WriteToBuffer()
	if err != nil {
		fail(c, err)
		return
	}

	logging.FromContext(c.Request.Context()).WithFields(logrus.Fields{"collection": collection}).Debug("template downloaded")
	c.Header("Content-Disposition", contentDisposition(excel.TemplateFilename(collection)))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// ExportCollection streams every record of a collection as a workbook in
// the import template layout.
// GET /api/admin/exports/:collection
func (h *Handler) ExportCollection(c *gin.Context) {
	collection, err := model.ParseCollection(c.Param("collection"))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	wb, n, err := h.exporter.Export(c.Request.Context(), exporter.ExportOptions{Collection: collection})
	if err != nil {
		fail(c, err)
		return
	}
	defer wb.Close()

	buf, err := wb.WriteToBuffer()
	if err != nil {
		fail(c, err)
		return
	}

	logging.FromContext(c.Request.Context()).WithFields(logrus.Fields{"collection": collection, "rows": n}).Info("collection exported")
	c.Header("Content-Disposition", contentDisposition(exporter.Filename(collection, h.now())))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func contentDisposition(filename string) string {
	return fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s", filename, url.PathEscape(filename))
}
