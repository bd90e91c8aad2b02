package domain

import (
	"sort"
	"strings"
)

// VisibleItems returns the items to render for the given selection: category
// filter, then search over name, description and tags, then a stable sort with
// featured items first and higher ratings ahead within each group.
func VisibleItems(items []Item, sel Selection) []Item {
	category := sel.CategoryID
	query := ""
	if strings.TrimSpace(sel.Search) != "" {
		query = strings.ToLower(sel.Search)
	}

	out := make([]Item, 0, len(items))
	for _, item := range items {
		if category != "" && category != AllCategories && item.CategoryID != category {
			continue
		}
		if query != "" && !matchesQuery(item, query) {
			continue
		}
		out = append(out, item)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Featured != out[j].Featured {
			return out[i].Featured
		}
		return out[i].Rating > out[j].Rating
	})
	return out
}

func matchesQuery(item Item, query string) bool {
	if strings.Contains(strings.ToLower(item.Name), query) {
		return true
	}
	if strings.Contains(strings.ToLower(item.Description), query) {
		return true
	}
	for _, tag := range item.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}
