package filter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trueinf/Repushieldv7-sub000/internal/domain"
)

func testCriteria() domain.FilterCriteria {
	return domain.FilterCriteria{
		EntityName: "Acme Corp",
		Aliases:    []string{"Acme Inc"},
		Handles:    []string{"@acmeofficial"},
		Core:       []string{"recall"},
		Associated: []string{"warehouse"},
		Narrative:  []string{"coverup"},
		Exclusion:  []string{"acme cartoons"},
	}
}

func TestMatchesExclusionWins(t *testing.T) {
	t.Parallel()

	e := New()
	c := testCriteria()

	// Core keyword and entity name both present, exclusion still rejects.
	text := "Acme Corp recall announced by acme cartoons fan site"
	assert.False(t, e.Matches(text, "", "", c))
}

func TestMatchesEntityAndAliases(t *testing.T) {
	t.Parallel()

	e := New()
	c := testCriteria()

	cases := map[string]string{
		"literal":            "breaking: Acme Corp under fire",
		"case folded":        "breaking: ACME CORP under fire",
		"whitespace striped": "breaking: AcmeCorp under fire",
		"alias":              "statement from acme inc leadership",
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			assert.True(t, e.Matches(text, "", "", c), "text %q", text)
		})
	}

	assert.True(t, e.Matches("nothing relevant here", "", "Acme Corp PR", c),
		"entity name in author name should match")
	assert.False(t, e.Matches("nothing relevant here", "", "", c))
}

func TestMatchesKeywordSets(t *testing.T) {
	t.Parallel()

	e := New()
	c := testCriteria()

	assert.True(t, e.Matches("massive product recall today", "", "", c))
	assert.True(t, e.Matches("fire at the warehouse downtown", "", "", c))
	assert.True(t, e.Matches("they call it a coverup", "", "", c))
}

func TestMatchesHandles(t *testing.T) {
	t.Parallel()

	e := New()
	c := testCriteria()

	assert.True(t, e.Matches("irrelevant text", "acmeofficial", "", c),
		"author handle equals configured handle without @")
	assert.True(t, e.Matches("irrelevant text", "@AcmeOfficial", "", c),
		"handle comparison is case-insensitive")
	assert.True(t, e.Matches("reply to @acmeofficial about this", "", "", c),
		"handle appearing in body text matches")
}

func TestMatchesEmptyAuthorFields(t *testing.T) {
	t.Parallel()

	e := New()

	// Must not panic and must behave as empty strings.
	assert.False(t, e.Matches("", "", "", testCriteria()))
}

func TestBuildQueryBoundsAndDedup(t *testing.T) {
	t.Parallel()

	e := New()
	c := domain.FilterCriteria{
		EntityName: "Acme Corp",
		Aliases:    []string{"Acme Inc", "acme corp"},
		Core:       []string{"recall", "Recall"},
		Associated: []string{"a1", "a2", "a3", "a4", "a5", "a6", "a7", "a8", "a9", "a10", "a11", "a12"},
	}

	query := e.BuildQuery(c)
	terms := strings.Split(query, " OR ")

	// entity + 1 unique alias + 1 unique core + first 10 associated
	require.Len(t, terms, 13)
	assert.Equal(t, "Acme Corp", terms[0])
	assert.NotContains(t, terms, "a11")
	assert.NotContains(t, terms, "a12")

	seen := map[string]bool{}
	for _, term := range terms {
		key := strings.ToLower(term)
		assert.False(t, seen[key], "duplicate term %q", term)
		seen[key] = true
	}
}

func TestBuildQueryEmptyCriteria(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", New().BuildQuery(domain.FilterCriteria{}))
}
