package parser

import "kidbloom/internal/model"

// AliasTable lists, per canonical field, the accepted header spellings in
// priority order. Vietnamese headers come first, then snake_case, then English.
type AliasTable struct {
	Collection model.Collection
	Order      []Field // template column order
	Required   []Field
	Aliases    map[Field][]string
}

// ActivityAliases maps activity sheet headers.
var ActivityAliases = &AliasTable{
	Collection: model.CollectionActivities,
	Order: []Field{
		FieldScheduledDate, FieldTitle, FieldDescription, FieldTags,
		FieldInstructions, FieldGoals, FieldVideoURL, FieldPoints,
		FieldExpertName, FieldExpertTitle, FieldExpertAvatar, FieldImageURL,
	},
	Required: []Field{FieldTitle, FieldScheduledDate},
	Aliases: map[Field][]string{
		FieldScheduledDate: {"Ngày (YYYY-MM-DD)", "Ngày", "ngay", "Date"},
		FieldTitle:         {"Hoạt động", "hoat_dong", "Title", "Activity"},
		FieldDescription:   {"Mô tả", "mo_ta", "Description"},
		FieldTags:          {"Danh mục", "danh_muc", "Tags", "Category"},
		FieldInstructions:  {"Hướng dẫn", "huong_dan", "Instructions"},
		FieldGoals:         {"Mục đích", "muc_dich", "Goals"},
		FieldVideoURL:      {"Video", "video", "Video URL"},
		FieldPoints:        {"Điểm", "diem", "Points"},
		FieldExpertName:    {"Chuyên gia", "chuyen_gia", "Expert"},
		// "Title" already belongs to the activity title.
		FieldExpertTitle:  {"Chức danh", "chuc_danh", "Expert Title"},
		FieldExpertAvatar: {"Avatar GV", "avatar_gv", "Avatar"},
		FieldImageURL:     {"Hình ảnh", "hinh_anh", "Image"},
	},
}

// StoryMusicAliases maps story/music sheet headers.
var StoryMusicAliases = &AliasTable{
	Collection: model.CollectionStoriesMusic,
	Order: []Field{
		FieldTitle, FieldType, FieldDescription, FieldContentURL,
		FieldThumbnailURL, FieldDurationMinutes,
	},
	Required: []Field{FieldTitle, FieldType},
	Aliases: map[Field][]string{
		FieldTitle:           {"Tiêu đề", "tieu_de", "Title"},
		FieldType:            {"Loại", "loai", "Type"},
		FieldDescription:     {"Mô tả", "mo_ta", "Description"},
		FieldContentURL:      {"Link nội dung", "link_noi_dung", "Content URL", "URL"},
		FieldThumbnailURL:    {"Hình ảnh", "hinh_anh", "Thumbnail", "Image"},
		FieldDurationMinutes: {"Thời lượng (phút)", "thoi_luong", "Duration (minutes)", "Duration"},
	},
}

// ShopProductAliases maps shop product sheet headers.
var ShopProductAliases = &AliasTable{
	Collection: model.CollectionShopProducts,
	Order: []Field{
		FieldName, FieldDescription, FieldPrice, FieldImageURL, FieldCategory, FieldLink,
	},
	Required: []Field{FieldName},
	Aliases: map[Field][]string{
		FieldName:        {"Tên sản phẩm", "ten_san_pham", "Name", "Product"},
		FieldDescription: {"Mô tả", "mo_ta", "Description"},
		FieldPrice:       {"Giá", "gia", "Price"},
		FieldImageURL:    {"Hình ảnh", "hinh_anh", "Image"},
		FieldCategory:    {"Danh mục", "danh_muc", "Category"},
		FieldLink:        {"Link mua", "link_mua", "Link", "URL"},
	},
}

// AliasTables returns every table in collection order.
func AliasTables() []*AliasTable {
	return []*AliasTable{ActivityAliases, StoryMusicAliases, ShopProductAliases}
}

// TableFor returns the alias table of a collection.
func TableFor(c model.Collection) (*AliasTable, bool) {
	for _, t := range AliasTables() {
		if t.Collection == c {
			return t, true
		}
	}
	return nil, false
}

// Header returns the primary (first) header spelling of a field.
func (t *AliasTable) Header(f Field) string {
	if aliases := t.Aliases[f]; len(aliases) > 0 {
		return aliases[0]
	}
	return string(f)
}

// Headers returns the primary headers in template order.
func (t *AliasTable) Headers() []string {
	out := make([]string, len(t.Order))
	for i, f := range t.Order {
		out[i] = t.Header(f)
	}
	return out
}

// Resolve returns the first non-empty cell among the field's aliases.
func (t *AliasTable) Resolve(row Row, f Field) (Cell, bool) {
	return ResolveCell(row, t.Aliases[f])
}

// ResolveCell returns the first non-empty cell among the given headers.
func ResolveCell(row Row, aliases []string) (Cell, bool) {
	for _, alias := range aliases {
		c, ok := row.Cells[alias]
		if ok && !c.Empty() {
			return c, true
		}
	}
	return Cell{}, false
}
