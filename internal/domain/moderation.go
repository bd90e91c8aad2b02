package domain

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var defaultBlockedTerms = []string{"spam", "hate", "toxic", "abuse", "inappropriate"}

// ContentFilter is the single sanitization step applied to review text before
// it is stored: block-listed terms reject the submission, markup is stripped
// from whatever is accepted.
type ContentFilter struct {
	blocked []string
	policy  *bluemonday.Policy
}

func NewContentFilter(blocked []string) *ContentFilter {
	terms := make([]string, 0, len(blocked))
	for _, term := range blocked {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" {
			terms = append(terms, term)
		}
	}
	return &ContentFilter{blocked: terms, policy: bluemonday.StrictPolicy()}
}

func DefaultContentFilter() *ContentFilter {
	return NewContentFilter(defaultBlockedTerms)
}

// Rejects reports whether text contains any blocked term, case-insensitively.
func (f *ContentFilter) Rejects(text string) bool {
	lower := strings.ToLower(text)
	for _, term := range f.blocked {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// sanitizePasses bounds how many layers of entity encoding Sanitize peels.
const sanitizePasses = 8

// Sanitize strips markup and returns plain text; renderers escape on output.
// Decoding entities can surface markup that was encoded in the input, so the
// policy runs again until the text stops changing. Text that is still not
// stable after sanitizePasses is returned in its escaped form.
func (f *ContentFilter) Sanitize(text string) string {
	current := text
	for range sanitizePasses {
		escaped := f.policy.Sanitize(current)
		decoded := html.UnescapeString(escaped)
		if decoded == current {
			return strings.TrimSpace(decoded)
		}
		current = decoded
	}
	return strings.TrimSpace(f.policy.Sanitize(current))
}
