package excel

import (
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"kidbloom/internal/model"
	"kidbloom/internal/parser"
)

// templateSpec describes the downloadable sample workbook of a collection.
type templateSpec struct {
	sheet    string
	filename string
	widths   []float64
	example  map[parser.Field]any
}

var templates = map[model.Collection]templateSpec{
	model.CollectionActivities: {
		sheet:    "Hoạt động",
		filename: "mau_hoat_dong.xlsx",
		widths:   []float64{15, 25, 40, 20, 50, 40, 40, 8, 20, 25, 40, 40},
		example: map[parser.Field]any{
			parser.FieldScheduledDate: "2025-01-01",
			parser.FieldTitle:         "Vẽ tranh thiên nhiên",
			parser.FieldDescription:   "Cùng bé vẽ những hình ảnh thiên nhiên xung quanh",
			parser.FieldTags:          "Sáng tạo, Nghệ thuật",
			parser.FieldInstructions:  "Bước 1: Chuẩn bị giấy và bút màu...",
			parser.FieldGoals:         "Phát triển tư duy sáng tạo, kỹ năng vận động tinh",
			parser.FieldVideoURL:      "https://youtube.com/watch?v=xxxxx",
			parser.FieldPoints:        15,
			parser.FieldExpertName:    model.DefaultExpertName,
			parser.FieldExpertTitle:   model.DefaultExpertTitle,
			parser.FieldExpertAvatar:  "https://example.com/avatar.jpg",
			parser.FieldImageURL:      "https://example.com/activity.jpg",
		},
	},
	model.CollectionStoriesMusic: {
		sheet:    "Truyện Nhạc",
		filename: "template_truyen_nhac.xlsx",
		widths:   []float64{30, 15, 40, 40, 40, 15},
		example: map[parser.Field]any{
			parser.FieldTitle:           "Truyện cổ tích Tấm Cám",
			parser.FieldType:            "truyện",
			parser.FieldDescription:     "Câu chuyện về lòng tốt và sự công bằng",
			parser.FieldContentURL:      "https://youtube.com/watch?v=xxxxx",
			parser.FieldThumbnailURL:    "https://example.com/image.jpg",
			parser.FieldDurationMinutes: 15,
		},
	},
	model.CollectionShopProducts: {
		sheet:    "Sản phẩm",
		filename: "template_san_pham.xlsx",
		widths:   []float64{30, 40, 15, 40, 20, 40},
		example: map[parser.Field]any{
			parser.FieldName:        "Sách nuôi dạy con",
			parser.FieldDescription: "Sách hướng dẫn nuôi dạy con thông minh",
			parser.FieldPrice:       250000,
			parser.FieldImageURL:    "https://example.com/image.jpg",
			parser.FieldCategory:    "Sách",
			parser.FieldLink:        "https://shopee.vn/xxxxx",
		},
	},
}

// TemplateFilename is the suggested download name for a collection's template.
func TemplateFilename(c model.Collection) string {
	if tpl, ok := templates[c]; ok {
		return tpl.filename
	}
	return string(c) + ".xlsx"
}

// NewTemplateWorkbook builds the import template of a collection: the
// preferred header of every field, one example row and fixed column widths.
// The caller closes the returned workbook.
func NewTemplateWorkbook(c model.Collection) (*excelize.File, error) {
	tpl, ok := templates[c]
	if !ok {
		return nil, errors.Errorf("no template for collection %q", c)
	}
	table, ok := parser.TableFor(c)
	if !ok {
		return nil, errors.Errorf("no alias table for collection %q", c)
	}

	wb := excelize.NewFile()
	if err := wb.SetSheetName("Sheet1", tpl.sheet); err != nil {
		wb.Close()
		return nil, err
	}

	headers := table.Headers()
	example := make([]any, len(table.Order))
	for i, f := range table.Order {
		example[i] = tpl.example[f]
	}

	if err := wb.SetSheetRow(tpl.sheet, "A1", &headers); err != nil {
		wb.Close()
		return nil, errors.Wrap(err, "write template headers")
	}
	if err := wb.SetSheetRow(tpl.sheet, "A2", &example); err != nil {
		wb.Close()
		return nil, errors.Wrap(err, "write template example row")
	}

	for i, w := range tpl.widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			wb.Close()
			return nil, err
		}
		if err := wb.SetColWidth(tpl.sheet, col, col, w); err != nil {
			wb.Close()
			return nil, errors.Wrap(err, "set column width")
		}
	}

	return wb, nil
}
