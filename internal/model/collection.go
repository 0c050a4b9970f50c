package model

import (
	"fmt"
	"strings"
)

// Collection names a record collection in the backend store.
type Collection string

const (
	CollectionActivities   Collection = "activities"
	CollectionStoriesMusic Collection = "stories_music"
	CollectionShopProducts Collection = "shop_products"
)

// Collections lists the importable collections in display order.
var Collections = []Collection{
	CollectionActivities,
	CollectionStoriesMusic,
	CollectionShopProducts,
}

// ParseCollection maps a route or CLI argument to a Collection.
func ParseCollection(s string) (Collection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "activities", "activity":
		return CollectionActivities, nil
	case "stories_music", "stories-music", "stories", "music":
		return CollectionStoriesMusic, nil
	case "shop_products", "shop-products", "products", "shop":
		return CollectionShopProducts, nil
	default:
		return "", fmt.Errorf("unknown collection %q", s)
	}
}

// ImportMode decides how a parsed batch is committed.
type ImportMode int

const (
	// ImportModeAdd appends the batch to the existing records.
	ImportModeAdd ImportMode = iota
	// ImportModeReplace deletes every existing record of the collection first.
	ImportModeReplace
)

func (m ImportMode) String() string {
	switch m {
	case ImportModeAdd:
		return "add"
	case ImportModeReplace:
		return "replace"
	default:
		return fmt.Sprintf("ImportMode(%d)", int(m))
	}
}

// ParseImportMode is the only place the wire string is interpreted.
func ParseImportMode(s string) (ImportMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "add":
		return ImportModeAdd, nil
	case "replace":
		return ImportModeReplace, nil
	default:
		return ImportModeAdd, fmt.Errorf("unknown import mode %q", s)
	}
}
