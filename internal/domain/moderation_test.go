package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentFilterRejectsBlockedTerms(t *testing.T) {
	filter := DefaultContentFilter()

	cases := map[string]bool{
		"this is spam":                  true,
		"HATE this bot":                 true,
		"Toxicity everywhere":           true,
		"totally Inappropriate content": true,
		"Great bot, easy to set up":     false,
		"":                              false,
	}
	for text, want := range cases {
		assert.Equal(t, want, filter.Rejects(text), text)
	}
}

func TestContentFilterCustomTerms(t *testing.T) {
	filter := NewContentFilter([]string{"  Crypto ", ""})
	assert.True(t, filter.Rejects("buy crypto now"))
	assert.False(t, filter.Rejects("this is spam"))
}

func TestContentFilterSanitize(t *testing.T) {
	filter := DefaultContentFilter()
	assert.Equal(t, "bold move", filter.Sanitize("<b>bold</b> move"))
	assert.Equal(t, "don't stop", filter.Sanitize("  don't stop  "))
	assert.Equal(t, "a < b", filter.Sanitize("a &lt; b"))
	assert.Equal(t, "Tom & Jerry", filter.Sanitize("Tom &amp; Jerry"))
}

func TestContentFilterSanitizeEncodedMarkup(t *testing.T) {
	filter := DefaultContentFilter()

	for _, input := range []string{
		"nice &lt;script&gt;alert(1)&lt;/script&gt;",
		"nice &amp;lt;script&amp;gt;alert(1)&amp;lt;/script&amp;gt;",
		"nice &lt;img src=x onerror=alert(1)&gt;",
	} {
		got := filter.Sanitize(input)
		assert.NotContains(t, got, "<", input)
		assert.Equal(t, "nice", got, input)
	}
}
