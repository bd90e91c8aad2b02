package seed

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atvirokodosprendimai/catalog/internal/domain"
)

func TestBotsFixture(t *testing.T) {
	v, err := Lookup("bots")
	require.NoError(t, err)
	assert.False(t, v.Policy.Moderated)

	snap, err := v.Snapshot()
	require.NoError(t, err)
	require.Len(t, snap.Items, 6)
	require.Len(t, snap.Categories, 6)
	require.Len(t, snap.Reviews, 3)

	harmony, ok := snap.FindItem("2")
	require.True(t, ok)
	assert.Equal(t, "Harmony Music", harmony.Name)
	assert.Equal(t, domain.KindBot, harmony.Kind)
	assert.Equal(t, []string{"music", "playlists", "filters", "queue"}, harmony.Tags)
	assert.Equal(t, 2024, harmony.CreatedAt.Year())

	for _, c := range snap.Categories {
		assert.Equal(t, 1, c.ItemCount, c.ID)
	}
	assert.Equal(t, domain.NewSelection(), snap.Selection)

	visible := domain.VisibleItems(snap.Items, domain.Selection{CategoryID: "music", Search: "harmony"})
	require.Len(t, visible, 1)
	assert.Equal(t, "Harmony Music", visible[0].Name)
}

func TestProjectsFixture(t *testing.T) {
	v, err := Lookup("projects")
	require.NoError(t, err)
	assert.True(t, v.Policy.Moderated)

	snap, err := v.Snapshot()
	require.NoError(t, err)
	assert.Len(t, snap.Items, 4)
	assert.Equal(t, "webdev", snap.Categories[0].ID)
	assert.Equal(t, 1, snap.Categories[0].ItemCount)
	assert.Equal(t, 0, snap.Categories[4].ItemCount)
	assert.Len(t, snap.ReviewsFor("", domain.ReviewPending), 1)

	storefront, ok := snap.FindItem("p1")
	require.True(t, ok)
	require.Len(t, storefront.Files, 1)
	assert.Equal(t, "1.2.0", storefront.Files[0].Version)
}

func TestLookupUnknownVariant(t *testing.T) {
	_, err := Lookup("plugins")
	require.Error(t, err)
}

func TestParseRejectsDanglingReview(t *testing.T) {
	_, err := Parse([]byte(`
kind: bot
items:
  - id: "1"
    name: Solo
    category_id: fun
reviews:
  - id: r1
    item_id: "9"
    author: a
    rating: 3
    comment: hi
`))
	require.ErrorContains(t, err, `unknown item "9"`)

	_, err = Parse([]byte("items:\n  - id: a\n    name: x\n  - id: a\n    name: y\n"))
	require.ErrorContains(t, err, "duplicate item id")
}

func TestExportRoundTrip(t *testing.T) {
	v, err := Lookup("projects")
	require.NoError(t, err)
	snap, err := v.Snapshot()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, v.Kind, snap))

	back, err := Parse(buf.Bytes())
	require.NoError(t, err)
	if diff := cmp.Diff(snap, back, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("export mismatch (-want +got):\n%s", diff)
	}
}
