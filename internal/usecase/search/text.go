package search

import (
	"strings"
	"unicode"

	"github.com/harbormind/specdex/internal/domain"
)

var pathWordsReplacer = strings.NewReplacer("/", " ", "{", " ", "}", " ")

// SearchableText flattens endpoint metadata into the blob both matchers
// score against: summary, description, the operationId decomposed into
// words, tags, the path with separators spaced out, and the lowercase
// method, space-joined.
func SearchableText(e *domain.Endpoint) string {
	parts := make([]string, 0, 6+len(e.Tags))

	if e.Summary != "" {
		parts = append(parts, e.Summary)
	}
	if e.Description != "" {
		parts = append(parts, e.Description)
	}
	if e.OperationID != "" {
		parts = append(parts, splitCamelCase(e.OperationID))
	}
	parts = append(parts, e.Tags...)
	parts = append(parts, pathWordsReplacer.Replace(e.Path))
	parts = append(parts, strings.ToLower(e.Method))

	return strings.Join(parts, " ")
}

// splitCamelCase decomposes an identifier into lowercase words; a new word
// starts at any uppercase rune following a non-empty accumulated word:
// "getPetById" becomes "get pet by id".
func splitCamelCase(s string) string {
	var words []string
	var current []rune

	for _, r := range s {
		if unicode.IsUpper(r) && len(current) > 0 {
			words = append(words, string(current))
			current = []rune{unicode.ToLower(r)}
			continue
		}
		current = append(current, r)
	}
	if len(current) > 0 {
		words = append(words, string(current))
	}
	return strings.Join(words, " ")
}
