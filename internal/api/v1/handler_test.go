package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"kidbloom/internal/model"
	"kidbloom/internal/store"
)

type testAPI struct {
	t       *testing.T
	router  *gin.Engine
	store   *store.Store
	adminID uuid.UUID
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	return newTestAPIWithOptions(t, Options{})
}

func newTestAPIWithOptions(t *testing.T, opts Options) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.New(filepath.Join(t.TempDir(), "kidbloom.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	r := gin.New()
	r.Use(SessionMiddleware())
	NewHandler(st, opts).RegisterRoutes(r.Group("/api"))

	return &testAPI{t: t, router: r, store: st, adminID: uuid.New()}
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (a *testAPI) do(req *http.Request, userID uuid.UUID, role string) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()
	if userID != uuid.Nil {
		req.Header.Set(HeaderUserID, userID.String())
		req.Header.Set(HeaderRole, role)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	if ct := w.Header().Get("Content-Type"); len(ct) >= 16 && ct[:16] == "application/json" {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (a *testAPI) admin(method, path string, body []byte, contentType string) (*httptest.ResponseRecorder, envelope) {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return a.do(req, a.adminID, model.RoleAdmin)
}

func multipartFile(t *testing.T, filename string, data []byte, fields map[string]string) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return buf.Bytes(), mw.FormDataContentType()
}

func activityWorkbook(t *testing.T) []byte {
	t.Helper()
	wb := excelize.NewFile()
	defer wb.Close()

	rows := [][]any{
		{"Ngày (YYYY-MM-DD)", "Hoạt động", "Danh mục", "Video", "Điểm"},
		{"05/01/2025", "Vẽ tranh", "Sáng tạo, Nghệ thuật", "https://youtu.be/dQw4w9WgXcQ", 20},
		{"06/01/2025", ""},
		{45663, "Đọc truyện"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		require.NoError(t, wb.SetSheetRow("Sheet1", cell, &r))
	}
	buf, err := wb.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

type uploadData struct {
	Token   string `json:"token"`
	Preview struct {
		Collection   string `json:"collection"`
		TotalRecords int    `json:"totalRecords"`
		TotalErrors  int    `json:"totalErrors"`
		ShownErrors  []struct {
			RowNumber int    `json:"rowNumber"`
			Message   string `json:"message"`
		} `json:"shownErrors"`
	} `json:"preview"`
}

func (a *testAPI) upload(data []byte, fields map[string]string) uploadData {
	a.t.Helper()
	body, ct := multipartFile(a.t, "mau_hoat_dong.xlsx", data, fields)
	w, env := a.admin(http.MethodPost, "/api/admin/imports", body, ct)
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())

	var out uploadData
	require.NoError(a.t, json.Unmarshal(env.Data, &out))
	return out
}

func TestImportUploadPreviewCommit(t *testing.T) {
	api := newTestAPI(t)

	// an existing activity that replace mode must remove
	_, err := api.store.SaveActivity(context.Background(), model.ActivityRecord{ScheduledDate: "2025-01-07", Title: "old", Points: 10})
	require.NoError(t, err)

	up := api.upload(activityWorkbook(t), nil)
	assert.NotEmpty(t, up.Token)
	assert.Equal(t, "activities", up.Preview.Collection)
	assert.Equal(t, 2, up.Preview.TotalRecords)
	assert.Equal(t, 1, up.Preview.TotalErrors)
	require.Len(t, up.Preview.ShownErrors, 1)
	assert.Equal(t, "Row 3: missing title", up.Preview.ShownErrors[0].Message)

	w, _ := api.admin(http.MethodGet, "/api/admin/imports/pending/"+up.Token, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, env := api.admin(http.MethodPost, "/api/admin/imports/pending/"+up.Token+"/commit",
		[]byte(`{"mode":"replace"}`), "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 0, env.Code)

	var result struct {
		Inserted int   `json:"inserted"`
		Deleted  int64 `json:"deleted"`
		Mode     string
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 2, result.Inserted)
	assert.EqualValues(t, 1, result.Deleted)
	assert.Equal(t, "replace", result.Mode)

	req := httptest.NewRequest(http.MethodGet, "/api/activities?from=2025-01-01&to=2025-01-31", nil)
	w, env = api.do(req, uuid.Nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var activities []model.ActivityRecord
	require.NoError(t, json.Unmarshal(env.Data, &activities))
	require.Len(t, activities, 2)
	assert.Equal(t, "Vẽ tranh", activities[0].Title)
	assert.Equal(t, "https://www.youtube.com/embed/dQw4w9WgXcQ", activities[0].VideoURL)
	assert.Equal(t, []string{"Sáng tạo", "Nghệ thuật"}, activities[0].Tags)
	assert.Equal(t, "2025-01-06", activities[1].ScheduledDate)

	// the token is spent
	w, _ = api.admin(http.MethodPost, "/api/admin/imports/pending/"+up.Token+"/commit", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = api.admin(http.MethodGet, "/api/admin/imports/logs", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var logs []model.ImportLog
	require.NoError(t, json.Unmarshal(env.Data, &logs))
	require.Len(t, logs, 1)
	assert.Equal(t, "mau_hoat_dong.xlsx", logs[0].Filename)
}

func TestImportCancelHasNoSideEffects(t *testing.T) {
	api := newTestAPI(t)
	up := api.upload(activityWorkbook(t), map[string]string{"collection": "activities"})

	w, _ := api.admin(http.MethodDelete, "/api/admin/imports/pending/"+up.Token, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = api.admin(http.MethodPost, "/api/admin/imports/pending/"+up.Token+"/commit", []byte(`{"mode":"add"}`), "application/json")
	assert.Equal(t, http.StatusNotFound, w.Code)

	n, err := api.store.Count(context.Background(), model.CollectionActivities)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestImportRejectsBadInput(t *testing.T) {
	api := newTestAPI(t)

	body, ct := multipartFile(t, "broken.xlsx", []byte("not a workbook"), nil)
	w, env := api.admin(http.MethodPost, "/api/admin/imports", body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, codeUnreadable, env.Code)

	body, ct = multipartFile(t, "a.xlsx", activityWorkbook(t), map[string]string{"collection": "nope"})
	w, _ = api.admin(http.MethodPost, "/api/admin/imports", body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	up := api.upload(activityWorkbook(t), nil)
	w, _ = api.admin(http.MethodPost, "/api/admin/imports/pending/"+up.Token+"/commit", []byte(`{"mode":"merge"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	api := newTestAPI(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/collections/activities", nil)
	w, _ := api.do(req, uuid.Nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/collections/activities", nil)
	w, env := api.do(req, uuid.New(), "parent")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, codeForbidden, env.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/activities", nil)
	req.Header.Set(HeaderUserID, "not-a-uuid")
	w = httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDownloadTemplate(t *testing.T) {
	api := newTestAPI(t)

	w, _ := api.admin(http.MethodGet, "/api/admin/templates/shop_products", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "template_san_pham.xlsx")

	wb, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer wb.Close()
	assert.Equal(t, []string{"Sản phẩm"}, wb.GetSheetList())

	w, _ = api.admin(http.MethodGet, "/api/admin/templates/unknown", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReplaceCommitSnapshotsAndExport(t *testing.T) {
	dir := t.TempDir()
	api := newTestAPIWithOptions(t, Options{SnapshotDir: dir})

	_, err := api.store.SaveActivity(context.Background(), model.ActivityRecord{ScheduledDate: "2025-01-07", Title: "old", Points: 10})
	require.NoError(t, err)

	up := api.upload(activityWorkbook(t), nil)
	w, env := api.admin(http.MethodPost, "/api/admin/imports/pending/"+up.Token+"/commit",
		[]byte(`{"mode":"replace"}`), "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result struct {
		Inserted int    `json:"inserted"`
		Snapshot string `json:"snapshot"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 2, result.Inserted)
	require.NotEmpty(t, result.Snapshot)

	// the snapshot holds the collection as it was before the replace
	snap, err := excelize.OpenFile(filepath.Join(dir, result.Snapshot))
	require.NoError(t, err)
	defer snap.Close()
	rows, err := snap.GetRows(snap.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "old", rows[1][1])

	w, _ = api.admin(http.MethodGet, "/api/admin/exports/activities", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "activities_")
	wb, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer wb.Close()
	rows, err = wb.GetRows(wb.GetSheetName(0))
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	w, _ = api.admin(http.MethodGet, "/api/admin/exports/unknown", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReplaceCommitKeepsTokenWhenSnapshotFails(t *testing.T) {
	// a regular file where the snapshot directory should be
	blocked := filepath.Join(t.TempDir(), "snapshots")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))
	api := newTestAPIWithOptions(t, Options{SnapshotDir: blocked})

	_, err := api.store.SaveActivity(context.Background(), model.ActivityRecord{ScheduledDate: "2025-01-07", Title: "old", Points: 10})
	require.NoError(t, err)

	up := api.upload(activityWorkbook(t), nil)
	commitPath := "/api/admin/imports/pending/" + up.Token + "/commit"

	w, _ := api.admin(http.MethodPost, commitPath, []byte(`{"mode":"replace"}`), "application/json")
	require.Equal(t, http.StatusInternalServerError, w.Code, w.Body.String())

	// nothing was deleted and the batch is still pending
	all, err := api.store.ListAllActivities(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "old", all[0].Title)

	w, _ = api.admin(http.MethodGet, "/api/admin/imports/pending/"+up.Token, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env := api.admin(http.MethodPost, commitPath, []byte(`{"mode":"add"}`), "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result struct {
		Inserted int `json:"inserted"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, 2, result.Inserted)

	w, _ = api.admin(http.MethodPost, commitPath, []byte(`{"mode":"add"}`), "application/json")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProfileNameReadAndEdit(t *testing.T) {
	api := newTestAPI(t)
	parent := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/api/me/profile", nil)
	w, env := api.do(req, parent, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var profile model.Profile
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, parent, profile.UserID)
	assert.Empty(t, profile.FullName)

	req = httptest.NewRequest(http.MethodPut, "/api/me/profile", bytes.NewReader([]byte(`{"fullName":"  Trần Minh Anh "}`)))
	req.Header.Set("Content-Type", "application/json")
	w, env = api.do(req, parent, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, "Trần Minh Anh", profile.FullName)

	req = httptest.NewRequest(http.MethodGet, "/api/me/profile", nil)
	_, env = api.do(req, parent, "")
	require.NoError(t, json.Unmarshal(env.Data, &profile))
	assert.Equal(t, "Trần Minh Anh", profile.FullName)

	for _, body := range []string{`{}`, `{"fullName":"   "}`, `not json`} {
		req = httptest.NewRequest(http.MethodPut, "/api/me/profile", bytes.NewReader([]byte(body)))
		req.Header.Set("Content-Type", "application/json")
		w, env = api.do(req, parent, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Equal(t, codeBadRequest, env.Code, body)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/me/profile", nil)
	w, _ = api.do(req, uuid.Nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestActivityCRUDAndRewards(t *testing.T) {
	api := newTestAPI(t)

	w, env := api.admin(http.MethodPost, "/api/admin/activities",
		[]byte(`{"scheduled_date":"5/1/2025","title":"Nặn đất","tags":["Sáng tạo"," Sáng tạo ",""],"video_url":"https://www.youtube.com/shorts/dQw4w9WgXcQ","points":30}`),
		"application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var created model.ActivityRecord
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "2025-01-05", created.ScheduledDate)
	assert.Equal(t, []string{"Sáng tạo"}, created.Tags)
	assert.Equal(t, "https://www.youtube.com/embed/dQw4w9WgXcQ", created.VideoURL)
	assert.Equal(t, model.DefaultExpertName, created.ExpertName)

	w, _ = api.admin(http.MethodPut, "/api/admin/activities/"+created.ID.String(),
		[]byte(`{"scheduled_date":"2025-01-05","title":"Nặn đất sét","points":30}`), "application/json")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	parent := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/activities/"+created.ID.String()+"/complete", nil)
	w, _ = api.do(req, parent, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/api/activities/"+created.ID.String()+"/complete", nil)
	w, env = api.do(req, parent, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, codeConflict, env.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/me/achievements", nil)
	w, env = api.do(req, parent, "")
	require.Equal(t, http.StatusOK, w.Code)
	var ach model.Achievements
	require.NoError(t, json.Unmarshal(env.Data, &ach))
	assert.Equal(t, 30, ach.TotalPoints)
	assert.Equal(t, 50, ach.NextMilestone.Points)

	req = httptest.NewRequest(http.MethodGet, "/api/me/achievements", nil)
	w, _ = api.do(req, uuid.Nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = api.admin(http.MethodDelete, "/api/admin/collections/activities/"+created.ID.String(), nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = api.admin(http.MethodDelete, "/api/admin/collections/activities/"+created.ID.String(), nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
