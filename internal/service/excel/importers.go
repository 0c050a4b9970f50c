package excel

import (
	"fmt"
	"strings"

	"kidbloom/internal/model"
	"kidbloom/internal/parser"
	"kidbloom/internal/util"
)

func rowError(row parser.Row, format string, args ...any) model.ImportError {
	return model.ImportError{
		RowNumber: row.Number,
		Message:   fmt.Sprintf("Row %d: ", row.Number) + fmt.Sprintf(format, args...),
	}
}

func newBatch[T model.Record](capacity int) *model.ImportBatch[T] {
	return &model.ImportBatch[T]{
		Records: make([]T, 0, capacity),
		Errors:  []model.ImportError{},
	}
}

// ParseActivities builds activity records from a sheet. Rows without a title
// or with an unreadable date become row errors; the rest of the sheet is still
// processed.
func ParseActivities(s *Sheet) *model.ImportBatch[model.ActivityRecord] {
	t := parser.ActivityAliases
	batch := newBatch[model.ActivityRecord](len(s.Rows))

	for _, row := range s.Rows {
		title, _ := t.Resolve(row, parser.FieldTitle)
		if title.Empty() {
			batch.Errors = append(batch.Errors, rowError(row, "missing title"))
			continue
		}

		rawDate, _ := t.Resolve(row, parser.FieldScheduledDate)
		if rawDate.Empty() {
			batch.Errors = append(batch.Errors, rowError(row, "missing date"))
			continue
		}
		date := parser.NormalizeDate(rawDate, s.Date1904)
		if date == "" {
			batch.Errors = append(batch.Errors, rowError(row, "invalid date (%s)", rawDate.Value))
			continue
		}

		get := func(f parser.Field) parser.Cell {
			c, _ := t.Resolve(row, f)
			return c
		}

		batch.Records = append(batch.Records, model.ActivityRecord{
			ScheduledDate: date,
			Title:         title.Value,
			Description:   get(parser.FieldDescription).Value,
			Tags:          parser.SplitTags(get(parser.FieldTags).Value),
			Instructions:  get(parser.FieldInstructions).Value,
			Goals:         get(parser.FieldGoals).Value,
			VideoURL:      util.EmbedURL(get(parser.FieldVideoURL).Value),
			Points:        parser.CoerceInt(get(parser.FieldPoints), model.DefaultActivityPoints),
			ExpertName:    parser.StringOr(get(parser.FieldExpertName), model.DefaultExpertName),
			ExpertTitle:   parser.StringOr(get(parser.FieldExpertTitle), model.DefaultExpertTitle),
			ImageURL:      get(parser.FieldImageURL).Value,
			ExpertAvatar:  get(parser.FieldExpertAvatar).Value,
		})
	}

	return batch
}

// ParseStoriesMusic builds story/music records. Title and type are both
// required; type is stored lower-cased.
func ParseStoriesMusic(s *Sheet) *model.ImportBatch[model.StoryMusicRecord] {
	t := parser.StoryMusicAliases
	batch := newBatch[model.StoryMusicRecord](len(s.Rows))

	for _, row := range s.Rows {
		get := func(f parser.Field) parser.Cell {
			c, _ := t.Resolve(row, f)
			return c
		}

		title := get(parser.FieldTitle)
		if title.Empty() {
			batch.Errors = append(batch.Errors, rowError(row, "missing title"))
			continue
		}
		typ := get(parser.FieldType)
		if typ.Empty() {
			batch.Errors = append(batch.Errors, rowError(row, "missing type"))
			continue
		}

		batch.Records = append(batch.Records, model.StoryMusicRecord{
			Title:           title.Value,
			Type:            strings.ToLower(typ.Value),
			Description:     parser.OptionalString(get(parser.FieldDescription)),
			ContentURL:      util.OptionalEmbedURL(get(parser.FieldContentURL).Value),
			ThumbnailURL:    parser.OptionalString(get(parser.FieldThumbnailURL)),
			DurationMinutes: parser.OptionalPositiveInt(get(parser.FieldDurationMinutes)),
		})
	}

	return batch
}

// ParseShopProducts builds shop product records; only the name is required.
func ParseShopProducts(s *Sheet) *model.ImportBatch[model.ShopProductRecord] {
	t := parser.ShopProductAliases
	batch := newBatch[model.ShopProductRecord](len(s.Rows))

	for _, row := range s.Rows {
		get := func(f parser.Field) parser.Cell {
			c, _ := t.Resolve(row, f)
			return c
		}

		name := get(parser.FieldName)
		if name.Empty() {
			batch.Errors = append(batch.Errors, rowError(row, "missing name"))
			continue
		}

		batch.Records = append(batch.Records, model.ShopProductRecord{
			Name:        name.Value,
			Description: parser.OptionalString(get(parser.FieldDescription)),
			Price:       parser.OptionalPrice(get(parser.FieldPrice)),
			ImageURL:    parser.OptionalString(get(parser.FieldImageURL)),
			Category:    parser.OptionalString(get(parser.FieldCategory)),
			Link:        parser.OptionalString(get(parser.FieldLink)),
		})
	}

	return batch
}
