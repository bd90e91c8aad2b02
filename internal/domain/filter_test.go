package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func itemIDs(items []Item) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids
}

func TestVisibleItemsCategoryAndSearch(t *testing.T) {
	items := fixtureSnapshot().Items

	got := VisibleItems(items, Selection{CategoryID: "music", Search: "harmony"})
	require.Len(t, got, 1)
	assert.Equal(t, "Harmony Music", got[0].Name)

	assert.Empty(t, VisibleItems(items, Selection{CategoryID: "games", Search: "harmony"}))
	assert.Empty(t, VisibleItems(items, Selection{CategoryID: "no-such-category"}))
}

func TestVisibleItemsAllCategories(t *testing.T) {
	items := fixtureSnapshot().Items
	for _, category := range []string{AllCategories, ""} {
		got := VisibleItems(items, Selection{CategoryID: category})
		assert.Equal(t, []string{"2", "1", "3"}, itemIDs(got), "category %q", category)
	}
}

func TestVisibleItemsSearchFields(t *testing.T) {
	items := fixtureSnapshot().Items

	assert.Equal(t, []string{"3"}, itemIDs(VisibleItems(items, Selection{Search: "TRIVIA"})))
	assert.Equal(t, []string{"1"}, itemIDs(VisibleItems(items, Selection{Search: "auto-mod"})))
	assert.Equal(t, []string{"2"}, itemIDs(VisibleItems(items, Selection{Search: "playlists"})))
	assert.Len(t, VisibleItems(items, Selection{Search: "   "}), 3)
}

func TestVisibleItemsSearchIsNotTrimmed(t *testing.T) {
	items := fixtureSnapshot().Items
	assert.Empty(t, VisibleItems(items, Selection{Search: " harmony"}))
	assert.Equal(t, []string{"2"}, itemIDs(VisibleItems(items, Selection{Search: "harmony music"})))
}

func TestVisibleItemsOrdering(t *testing.T) {
	items := []Item{
		{ID: "a", Rating: 4.9},
		{ID: "b", Rating: 4.5, Featured: true},
		{ID: "c", Rating: 4.5},
		{ID: "d", Rating: 4.7, Featured: true},
		{ID: "e", Rating: 4.5},
	}

	got := VisibleItems(items, NewSelection())
	assert.Equal(t, []string{"d", "b", "a", "c", "e"}, itemIDs(got))
	assert.Equal(t, "a", items[0].ID, "input order must be preserved")
}
