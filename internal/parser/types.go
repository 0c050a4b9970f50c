package parser

import "kidbloom/internal/model"

// Field is a canonical record field that a spreadsheet column can feed.
type Field string

const (
	FieldScheduledDate   Field = "scheduled_date"
	FieldTitle           Field = "title"
	FieldDescription     Field = "description"
	FieldTags            Field = "tags"
	FieldInstructions    Field = "instructions"
	FieldGoals           Field = "goals"
	FieldVideoURL        Field = "video_url"
	FieldPoints          Field = "points"
	FieldExpertName      Field = "expert_name"
	FieldExpertTitle     Field = "expert_title"
	FieldImageURL        Field = "image_url"
	FieldExpertAvatar    Field = "expert_avatar"
	FieldType            Field = "type"
	FieldContentURL      Field = "content_url"
	FieldThumbnailURL    Field = "thumbnail_url"
	FieldDurationMinutes Field = "duration_minutes"
	FieldName            Field = "name"
	FieldPrice           Field = "price"
	FieldCategory        Field = "category"
	FieldLink            Field = "link"
)

// Cell is one trimmed cell value plus whether the workbook stored it as a number.
type Cell struct {
	Value   string `json:"value"`
	Numeric bool   `json:"numeric"`
}

// Empty reports whether the cell holds nothing.
func (c Cell) Empty() bool {
	return c.Value == ""
}

// Row is one data row keyed by header text.
type Row struct {
	Number int             // sheet row number, header is row 1
	Cells  map[string]Cell // header -> cell
}

// RecognitionResult is the best collection guess for a header row.
type RecognitionResult struct {
	Collection model.Collection `json:"collection"`
	Confidence float64          `json:"confidence"` // 0-1
	Matched    []Field          `json:"matched"`
	Missing    []Field          `json:"missing,omitempty"` // required fields without a column
}
