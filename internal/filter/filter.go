// Package filter implements the ontology matcher and search-query builder.
// Matching is pure: no I/O, no logging.
package filter

import (
	"strings"
	"unicode"

	"github.com/trueinf/Repushieldv7-sub000/internal/domain"
)

const maxAssociatedTerms = 10

// Engine matches item text against a configuration's filter criteria and
// builds the search queries sent to external search APIs.
type Engine struct{}

// New returns a stateless filter engine.
func New() *Engine {
	return &Engine{}
}

// Matches reports whether an item should be kept. Exclusion keywords win
// over everything else; otherwise any entity/alias, ontology keyword or
// handle match accepts the item. Empty author fields are treated as empty
// strings.
func (e *Engine) Matches(text, authorHandle, authorName string, c domain.FilterCriteria) bool {
	loweredText := strings.ToLower(text)

	for _, excl := range c.Exclusion {
		if containsFold(loweredText, excl) {
			return false
		}
	}

	loweredAuthor := strings.ToLower(authorName)
	for _, name := range append([]string{c.EntityName}, c.Aliases...) {
		if nameMatches(loweredText, name) || nameMatches(loweredAuthor, name) {
			return true
		}
	}

	for _, set := range [][]string{c.Core, c.Associated, c.Narrative} {
		for _, kw := range set {
			if containsFold(loweredText, kw) {
				return true
			}
		}
	}

	for _, handle := range c.Handles {
		if handleEquals(authorHandle, handle) || containsFold(loweredText, handle) {
			return true
		}
	}

	return false
}

// BuildQuery joins entity name, aliases, core keywords and at most the
// first ten associated keywords into an OR query, de-duplicated preserving
// first occurrence.
func (e *Engine) BuildQuery(c domain.FilterCriteria) string {
	associated := c.Associated
	if len(associated) > maxAssociatedTerms {
		associated = associated[:maxAssociatedTerms]
	}

	var terms []string
	seen := map[string]struct{}{}
	add := func(term string) {
		term = strings.TrimSpace(term)
		if term == "" {
			return
		}
		key := strings.ToLower(term)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		terms = append(terms, term)
	}

	add(c.EntityName)
	for _, alias := range c.Aliases {
		add(alias)
	}
	for _, kw := range c.Core {
		add(kw)
	}
	for _, kw := range associated {
		add(kw)
	}

	return strings.Join(terms, " OR ")
}

// nameMatches compares case-folded, both literally and with all whitespace
// stripped, so "Acme Corp" also matches "AcmeCorp". haystack must already
// be lowercased.
func nameMatches(haystack, name string) bool {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return false
	}
	if strings.Contains(haystack, name) {
		return true
	}
	return strings.Contains(stripSpace(haystack), stripSpace(name))
}

// containsFold reports a case-insensitive substring match. haystack must
// already be lowercased.
func containsFold(haystack, needle string) bool {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return false
	}
	return strings.Contains(haystack, needle)
}

func handleEquals(authorHandle, configured string) bool {
	authorHandle = strings.TrimPrefix(strings.TrimSpace(authorHandle), "@")
	configured = strings.TrimPrefix(strings.TrimSpace(configured), "@")
	if authorHandle == "" || configured == "" {
		return false
	}
	return strings.EqualFold(authorHandle, configured)
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
