package store

import (
	"context"

	"github.com/pkg/errors"

	"kidbloom/internal/model"
)

// ListStoriesMusic returns stories and music, newest first. An empty kind
// returns every type.
func (s *Store) ListStoriesMusic(ctx context.Context, kind string) ([]model.StoryMusicRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, type, description, content_url, thumbnail_url, duration_minutes, created_at
		FROM stories_music
		WHERE ? = '' OR type = ?
		ORDER BY created_at DESC`, kind, kind)
	if err != nil {
		return nil, errors.Wrap(err, "query stories_music")
	}
	defer rows.Close()

	out := []model.StoryMusicRecord{}
	for rows.Next() {
		var r model.StoryMusicRecord
		if err := rows.Scan(&r.ID, &r.Title, &r.Type, &r.Description, &r.ContentURL,
			&r.ThumbnailURL, &r.DurationMinutes, &r.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan stories_music")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListShopProducts returns shop products, newest first.
func (s *Store) ListShopProducts(ctx context.Context) ([]model.ShopProductRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, price, image_url, category, link, created_at
		FROM shop_products
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "query shop_products")
	}
	defer rows.Close()

	out := []model.ShopProductRecord{}
	for rows.Next() {
		var r model.ShopProductRecord
		if err := rows.Scan(&r.ID, &r.Name, &r.Description, &r.Price, &r.ImageURL,
			&r.Category, &r.Link, &r.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan shop_products")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
