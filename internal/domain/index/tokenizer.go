package index

import (
	"errors"
	"strings"
)

// ErrInvalidQuery is returned when a query word contains a byte that is not
// printable ASCII, or a backtick. It is a user-facing state distinct from
// "no results".
var ErrInvalidQuery = errors.New("invalid search query")

// ExtractTerms splits a query on whitespace into search terms.
// Rules:
//  1. Split on whitespace, keep order and duplicates (a repeated word counts twice)
//  2. Every byte of every word must be printable ASCII and not '`'
//  3. One bad word rejects the whole query
//  4. No case folding or normalization: matching is byte-exact
func ExtractTerms(query string) ([]string, error) {
	words := strings.Fields(query)
	for _, w := range words {
		for i := 0; i < len(w); i++ {
			if !indexable(w[i]) {
				return nil, ErrInvalidQuery
			}
		}
	}
	if words == nil {
		return []string{}, nil
	}
	return words, nil
}
