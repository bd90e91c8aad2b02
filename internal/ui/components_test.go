package ui

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atvirokodosprendimai/catalog/internal/domain"
)

func TestItemListEscapesContent(t *testing.T) {
	var buf bytes.Buffer
	items := []domain.Item{{ID: "1", Name: "<script>x</script>", Featured: true, Rating: 4.8, Tags: []string{"a&b"}}}
	require.NoError(t, ItemList(items).Render(context.Background(), &buf))

	out := buf.String()
	assert.Contains(t, out, `id="item-list"`)
	assert.Contains(t, out, `class="item featured"`)
	assert.Contains(t, out, "&lt;script&gt;x&lt;/script&gt;")
	assert.NotContains(t, out, "<script>x")
	assert.Contains(t, out, "a&amp;b")
	assert.Contains(t, out, "4.8")
}

func TestItemListEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ItemList(nil).Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "No items match")
}

func TestBrowsePageCarriesSignals(t *testing.T) {
	var buf bytes.Buffer
	categories := []domain.Category{{ID: "music", Name: "Music", ItemCount: 1}}
	sel := domain.Selection{Search: "harmony", CategoryID: "music"}
	require.NoError(t, BrowsePage("Bots", nil, categories, sel).Render(context.Background(), &buf))

	out := buf.String()
	assert.Contains(t, out, "data-signals=")
	assert.Contains(t, out, "&#34;harmony&#34;")
	assert.Contains(t, out, `<option value="music" selected>Music (1)</option>`)
	assert.Contains(t, out, "@post('/browse/search')")
}

func TestStatsPanel(t *testing.T) {
	var buf bytes.Buffer
	stats := domain.AdminStats{
		TotalItems:     2,
		PendingReviews: 1,
		AverageRating:  4.5,
		RecentActivity: []domain.Activity{{Kind: domain.ActivityItemAdded, Description: `New bot "A" added`, Timestamp: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)}},
	}
	require.NoError(t, StatsPanel(stats).Render(context.Background(), &buf))

	out := buf.String()
	assert.Contains(t, out, "<dt>Pending</dt><dd>1</dd>")
	assert.Contains(t, out, "<dt>Average rating</dt><dd>4.5</dd>")
	assert.Contains(t, out, "2024-01-05")
}

func TestFlash(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Flash("Saved <ok>", "info").Render(context.Background(), &buf))
	assert.Equal(t, `<div id="flash" class="flash flash-info">Saved &lt;ok&gt;</div>`, buf.String())
}
