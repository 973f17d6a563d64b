package summary

import (
	"sort"
	"strings"
	"unicode"
)

// UnknownLabel is used when a trace payload exposes no structural key at all.
const UnknownLabel = "Unknown"

// Label derives a deterministic human-readable title from the first
// structural key of a trace payload, for invocations where model-generated
// summaries are disabled. A camel-case key is split into space-separated
// capitalized words: "orchestrationTrace" becomes "Orchestration Trace".
func Label(payload map[string]any) string {
	if len(payload) == 0 {
		return UnknownLabel
	}

	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	label := splitCamel(keys[0])
	if label == "" {
		return UnknownLabel
	}
	return label
}

func splitCamel(key string) string {
	var words []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			words = append(words, capitalize(current.String()))
			current.Reset()
		}
	}

	for _, r := range key {
		switch {
		case unicode.IsUpper(r):
			flush()
			current.WriteRune(unicode.ToLower(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			current.WriteRune(r)
		default:
			flush()
		}
	}
	flush()

	return strings.Join(words, " ")
}

func capitalize(word string) string {
	if word == "" {
		return word
	}
	runes := []rune(word)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
