package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Record is implemented by every importable entity.
type Record interface {
	Collection() Collection
}

// DefaultActivityPoints is awarded when a row or activity carries no points.
const DefaultActivityPoints = 10

// Default expert persona for activities without one.
const (
	DefaultExpertName  = "Chuyên gia Jenna"
	DefaultExpertTitle = "Chuyên gia Tâm lý Giáo dục"
)

// ActivityRecord is one suggested daily activity.
type ActivityRecord struct {
	ID            uuid.UUID `json:"id"`
	ScheduledDate string    `json:"scheduled_date" validate:"required,datetime=2006-01-02"`
	Title         string    `json:"title" validate:"required"`
	Description   string    `json:"description"`
	Tags          []string  `json:"tags" validate:"dive,required"`
	Instructions  string    `json:"instructions"`
	Goals         string    `json:"goals"`
	VideoURL      string    `json:"video_url"`
	Points        int       `json:"points" validate:"gte=0"`
	ExpertName    string    `json:"expert_name"`
	ExpertTitle   string    `json:"expert_title"`
	ImageURL      string    `json:"image_url"`
	ExpertAvatar  string    `json:"expert_avatar"`
	CreatedAt     time.Time `json:"created_at"`
}

// Collection implements Record.
func (ActivityRecord) Collection() Collection { return CollectionActivities }

// StoryMusicRecord is a story or a song.
type StoryMusicRecord struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title" validate:"required"`
	Type            string    `json:"type" validate:"required"`
	Description     *string   `json:"description"`
	ContentURL      *string   `json:"content_url"`
	ThumbnailURL    *string   `json:"thumbnail_url"`
	DurationMinutes *int      `json:"duration_minutes" validate:"omitempty,gt=0"`
	CreatedAt       time.Time `json:"created_at"`
}

// Collection implements Record.
func (StoryMusicRecord) Collection() Collection { return CollectionStoriesMusic }

// ShopProductRecord is a product listed in the shop.
type ShopProductRecord struct {
	ID          uuid.UUID           `json:"id"`
	Name        string              `json:"name" validate:"required"`
	Description *string             `json:"description"`
	Price       decimal.NullDecimal `json:"price"`
	ImageURL    *string             `json:"image_url"`
	Category    *string             `json:"category"`
	Link        *string             `json:"link"`
	CreatedAt   time.Time           `json:"created_at"`
}

// Collection implements Record.
func (ShopProductRecord) Collection() Collection { return CollectionShopProducts }
