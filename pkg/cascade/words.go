package cascade

import (
	"sort"
	"strings"
	"unicode"

	"github.com/ripple-dev/ripple/pkg/records"
)

// WordCount is one entry of the word-frequency view-model.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// CountWords tokenizes the given payload field of each record and returns
// the top-n word frequencies, highest count first, ties broken
// alphabetically. Tokens are lowercased; anything that is not a letter or
// digit separates tokens.
func CountWords(recs []records.Record, field string, n int) []WordCount {
	counts := make(map[string]int)
	for _, r := range recs {
		for _, tok := range Tokenize(r.Field(field)) {
			counts[tok]++
		}
	}

	out := make([]WordCount, 0, len(counts))
	for w, c := range counts {
		out = append(out, WordCount{Word: w, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Word < out[j].Word
	})

	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Tokenize lowercases s and splits it on every non-alphanumeric rune.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
