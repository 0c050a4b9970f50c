package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"kidbloom/internal/exporter"
	"kidbloom/internal/importer"
	"kidbloom/internal/logging"
	"kidbloom/internal/rewards"
	"kidbloom/internal/service/excel"
	"kidbloom/internal/store"
)

// Options tunes the import endpoints.
type Options struct {
	PreviewLimit      int
	ErrorDisplayLimit int
	PendingTTL        time.Duration
	MaxUploadBytes    int64
	// SnapshotDir receives a copy of a collection before a replace import
	// deletes it. Empty disables snapshots.
	SnapshotDir       string
}

// Handler serves the v1 API.
type Handler struct {
	store    *store.Store
	importer *importer.Coordinator
	pending  *importer.PendingStore
	exporter *exporter.Exporter
	rewards  *rewards.Service
	opts     Options
	now      func() time.Time
}

// NewHandler wires the API over a store.
func NewHandler(st *store.Store, opts Options) *Handler {
	if opts.PreviewLimit <= 0 {
		opts.PreviewLimit = 10
	}
	if opts.ErrorDisplayLimit <= 0 {
		opts.ErrorDisplayLimit = 5
	}
	if opts.PendingTTL <= 0 {
		opts.PendingTTL = 30 * time.Minute
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	return &Handler{
		store:    st,
		importer: importer.NewCoordinator(st, st),
		pending:  importer.NewPendingStore(opts.PendingTTL),
		exporter: exporter.NewExporter(st),
		rewards:  rewards.NewService(st),
		opts:     opts,
		now:      time.Now,
	}
}

// RegisterRoutes mounts the API under router. Admin routes require an admin
// session; every route requires SessionMiddleware to run first.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/health", h.Health)

	// content for parents
	router.GET("/activities", h.ListActivities)
	router.GET("/activities/:id", h.GetActivity)
	router.GET("/stories-music", h.ListStoriesMusic)
	router.GET("/shop-products", h.ListShopProducts)

	// rewards
	user := router.Group("", RequireUser())
	user.POST("/activities/:id/complete", h.CompleteActivity)
	user.GET("/me/achievements", h.Achievements)
	user.GET("/me/profile", h.GetProfile)
	user.PUT("/me/profile", h.UpdateProfile)

	admin := router.Group("/admin", RequireAdmin())

	// spreadsheet import
	admin.POST("/imports", h.UploadImport)
	admin.POST("/imports/recognize", h.RecognizeImport)
	admin.GET("/imports/logs", h.ListImportLogs)
	admin.GET("/imports/pending/:token", h.GetPendingImport)
	admin.POST("/imports/pending/:token/commit", h.CommitImport)
	admin.DELETE("/imports/pending/:token", h.CancelImport)
	admin.GET("/templates/:collection", h.DownloadTemplate)
	admin.GET("/exports/:collection", h.ExportCollection)

	// content management
	admin.GET("/collections/:collection", h.ListCollection)
	admin.DELETE("/collections/:collection/:id", h.DeleteRecord)
	admin.POST("/activities", h.SaveActivity)
	admin.PUT("/activities/:id", h.SaveActivity)
}

// Response is the envelope of every JSON reply.
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Application error codes.
const (
	codeOK            = 0
	codeBadRequest    = 1001
	codeUnauthorized  = 1002
	codeForbidden     = 1003
	codeNotFound      = 1004
	codeUnreadable    = 2001
	codeUnrecognised  = 2002
	codeEmptyBatch    = 2003
	codeInvalidRecord = 2004
	codeConflict      = 3001
	codeIncomplete    = 5002
	codeInternal      = 5000
)

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Code: codeOK, Message: "success", Data: data})
}

func errorResponse(c *gin.Context, status, code int, message string) {
	c.AbortWithStatusJSON(status, Response{Code: code, Message: message})
}

// fail maps an error to its envelope. Store and commit failures become a
// single message asking the operator to retry.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		errorResponse(c, http.StatusNotFound, codeNotFound, "not found")
	case errors.Is(err, excel.ErrUnreadableWorkbook), errors.Is(err, excel.ErrNoSheet):
		errorResponse(c, http.StatusBadRequest, codeUnreadable, "the file is not a readable spreadsheet; please choose another file")
	case errors.Is(err, importer.ErrUnknownCollection):
		errorResponse(c, http.StatusBadRequest, codeUnrecognised, err.Error())
	case errors.Is(err, importer.ErrEmptyBatch):
		errorResponse(c, http.StatusBadRequest, codeEmptyBatch, err.Error())
	case errors.Is(err, importer.ErrInvalidRecord):
		errorResponse(c, http.StatusUnprocessableEntity, codeInvalidRecord, err.Error())
	case errors.Is(err, rewards.ErrAlreadyCompleted):
		errorResponse(c, http.StatusConflict, codeConflict, err.Error())
	case errors.Is(err, importer.ErrReplaceIncomplete):
		logging.FromContext(c.Request.Context()).WithError(err).Error("replace import left collection empty")
		errorResponse(c, http.StatusBadGateway, codeIncomplete,
			"existing records were deleted but the new records could not be saved; please import the file again")
	default:
		logging.FromContext(c.Request.Context()).WithError(err).Error("request failed")
		errorResponse(c, http.StatusInternalServerError, codeInternal, "the operation failed; please try again")
	}
}

// Health reports whether the store is reachable.
func (h *Handler) Health(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	success(c, gin.H{"status": "ok"})
}
