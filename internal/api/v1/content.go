package v1

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"kidbloom/internal/model"
	"kidbloom/internal/parser"
	"kidbloom/internal/util"
)

const dateLayout = "2006-01-02"

// activityWindowDays is how far ahead the activity list looks by default.
const activityWindowDays = 7

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, codeBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// ListActivities returns activities between from and to, defaulting to today
// and the following week.
// GET /api/activities?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handler) ListActivities(c *gin.Context) {
	today := h.now().Format(dateLayout)
	from := c.DefaultQuery("from", today)
	to := c.Query("to")

	start, err := time.Parse(dateLayout, from)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, codeBadRequest, "from must be YYYY-MM-DD")
		return
	}
	if to == "" {
		to = start.AddDate(0, 0, activityWindowDays).Format(dateLayout)
	} else if _, err := time.Parse(dateLayout, to); err != nil {
		errorResponse(c, http.StatusBadRequest, codeBadRequest, "to must be YYYY-MM-DD")
		return
	}

	activities, err := h.store.ListActivities(c.Request.Context(), from, to)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, activities)
}

// GetActivity returns one activity.
// GET /api/activities/:id
func (h *Handler) GetActivity(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	activity, err := h.store.GetActivity(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, activity)
}

// ListStoriesMusic returns stories and music, newest first.
// GET /api/stories-music?type=
func (h *Handler) ListStoriesMusic(c *gin.Context) {
	items, err := h.store.ListStoriesMusic(c.Request.Context(), strings.ToLower(strings.TrimSpace(c.Query("type"))))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, items)
}

// ListShopProducts returns shop products, newest first.
// GET /api/shop-products
func (h *Handler) ListShopProducts(c *gin.Context) {
	items, err := h.store.ListShopProducts(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	success(c, items)
}

// ListCollection lists every record of a collection for the back office.
// GET /api/admin/collections/:collection
func (h *Handler) ListCollection(c *gin.Context) {
	collection, err := model.ParseCollection(c.Param("collection"))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	var data interface{}
	switch collection {
	case model.CollectionActivities:
		data, err = h.store.ListAllActivities(ctx)
	case model.CollectionStoriesMusic:
		data, err = h.store.ListStoriesMusic(ctx, "")
	case model.CollectionShopProducts:
		data, err = h.store.ListShopProducts(ctx)
	}
	if err != nil {
		fail(c, err)
		return
	}
	success(c, data)
}

// DeleteRecord removes one record.
// DELETE /api/admin/collections/:collection/:id
func (h *Handler) DeleteRecord(c *gin.Context) {
	collection, err := model.ParseCollection(c.Param("collection"))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.store.DeleteRecord(c.Request.Context(), collection, id); err != nil {
		fail(c, err)
		return
	}
	success(c, nil)
}

// activityRequest is the back-office activity form.
type activityRequest struct {
	ScheduledDate string   `json:"scheduled_date" binding:"required"`
	Title         string   `json:"title" binding:"required"`
	Description   string   `json:"description"`
	Tags          []string `json:"tags"`
	Instructions  string   `json:"instructions"`
	Goals         string   `json:"goals"`
	VideoURL      string   `json:"video_url"`
	Points        *int     `json:"points" binding:"omitempty,gte=0"`
	ExpertName    string   `json:"expert_name"`
	ExpertTitle   string   `json:"expert_title"`
	ImageURL      string   `json:"image_url"`
	ExpertAvatar  string   `json:"expert_avatar"`
}

func (r activityRequest) record() (model.ActivityRecord, bool) {
	date := parser.NormalizeDate(parser.Cell{Value: strings.TrimSpace(r.ScheduledDate)}, false)
	if date == "" {
		return model.ActivityRecord{}, false
	}

	points := model.DefaultActivityPoints
	if r.Points != nil {
		points = *r.Points
	}
	tags := parser.SplitTags(strings.Join(r.Tags, ","))

	rec := model.ActivityRecord{
		ScheduledDate: date,
		Title:         strings.TrimSpace(r.Title),
		Description:   r.Description,
		Tags:          tags,
		Instructions:  r.Instructions,
		Goals:         r.Goals,
		VideoURL:      util.EmbedURL(r.VideoURL),
		Points:        points,
		ExpertName:    strings.TrimSpace(r.ExpertName),
		ExpertTitle:   strings.TrimSpace(r.ExpertTitle),
		ImageURL:      strings.TrimSpace(r.ImageURL),
		ExpertAvatar:  strings.TrimSpace(r.ExpertAvatar),
	}
	if rec.ExpertName == "" {
		rec.ExpertName = model.DefaultExpertName
	}
	if rec.ExpertTitle == "" {
		rec.ExpertTitle = model.DefaultExpertTitle
	}
	return rec, rec.Title != ""
}

// SaveActivity creates an activity, or updates it when an id is in the path.
// POST /api/admin/activities, PUT /api/admin/activities/:id
func (h *Handler) SaveActivity(c *gin.Context) {
	var req activityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	rec, ok := req.record()
	if !ok {
		errorResponse(c, http.StatusBadRequest, codeBadRequest, "a title and a valid date are required")
		return
	}
	if c.Param("id") != "" {
		id, ok := parseID(c)
		if !ok {
			return
		}
		rec.ID = id
	}

	saved, err := h.store.SaveActivity(c.Request.Context(), rec)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, saved)
}

// CompleteActivity marks an activity done for the caller.
// POST /api/activities/:id/complete
func (h *Handler) CompleteActivity(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	progress, err := h.rewards.CompleteActivity(c.Request.Context(), sessionOf(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, progress)
}

// Achievements returns the caller's points and next milestone.
// GET /api/me/achievements
func (h *Handler) Achievements(c *gin.Context) {
	ach, err := h.rewards.Achievements(c.Request.Context(), sessionOf(c).UserID)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, ach)
}

// GetProfile returns the caller's name and point totals.
// GET /api/me/profile
func (h *Handler) GetProfile(c *gin.Context) {
	profile, err := h.store.GetProfile(c.Request.Context(), sessionOf(c).UserID)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, profile)
}

type profileRequest struct {
	FullName string `json:"fullName" binding:"required,max=100"`
}

// UpdateProfile renames the caller.
// PUT /api/me/profile {"fullName": "..."}
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, codeBadRequest, "fullName is required (at most 100 characters)")
		return
	}
	name := strings.TrimSpace(req.FullName)
	if name == "" {
		errorResponse(c, http.StatusBadRequest, codeBadRequest, "fullName is required (at most 100 characters)")
		return
	}

	profile, err := h.store.UpdateProfileName(c.Request.Context(), sessionOf(c).UserID, name)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, profile)
}
