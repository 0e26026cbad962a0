package index

import (
	"slices"

	aho "github.com/petar-dambovaliev/aho-corasick"
)

// Span is a half-open byte range [Start, Start+Len) inside a text.
type Span struct {
	Start int `json:"start"`
	Len   int `json:"len"`
}

// End returns the exclusive end offset.
func (s Span) End() int { return s.Start + s.Len }

// Highlighter finds literal occurrences of a fixed set of query terms.
// It compiles the terms into one Aho-Corasick automaton so a result page is
// scanned once per text instead of once per term. Safe for concurrent use.
type Highlighter struct {
	automaton aho.AhoCorasick
	patterns  []string
	// mult[i] is how many times patterns[i] occurred in the query
	mult  []int
	built bool
}

// NewHighlighter compiles terms. Duplicate terms are matched once and their
// spans repeated; empty terms are ignored.
func NewHighlighter(terms []string) *Highlighter {
	h := &Highlighter{}
	pos := make(map[string]int, len(terms))
	for _, t := range terms {
		if t == "" {
			continue
		}
		if i, ok := pos[t]; ok {
			h.mult[i]++
			continue
		}
		pos[t] = len(h.patterns)
		h.patterns = append(h.patterns, t)
		h.mult = append(h.mult, 1)
	}
	if len(h.patterns) == 0 {
		return h
	}

	builder := aho.NewAhoCorasickBuilder(aho.Opts{
		DFA: true,
	})
	h.automaton = builder.Build(h.patterns)
	h.built = true
	return h
}

// Spans returns, for each term, its first occurrence in text and every later
// occurrence starting at or after the previous one's end (no self-overlap).
// Spans of different terms may overlap. The result is sorted by start, then
// length.
func (h *Highlighter) Spans(text string) []Span {
	if !h.built || text == "" {
		return nil
	}

	// the overlapping iterator reports every occurrence of every pattern in
	// order of end offset; for one pattern that is also start order
	lastEnd := make([]int, len(h.patterns))
	var spans []Span
	iter := h.automaton.IterOverlappingByte([]byte(text))
	for next := iter.Next(); next != nil; next = iter.Next() {
		m := *next
		p := m.Pattern()
		if m.Start() < lastEnd[p] {
			continue
		}
		lastEnd[p] = m.End()
		for range h.mult[p] {
			spans = append(spans, Span{Start: m.Start(), Len: m.End() - m.Start()})
		}
	}

	slices.SortStableFunc(spans, func(a, b Span) int {
		if a.Start != b.Start {
			return a.Start - b.Start
		}
		return a.Len - b.Len
	})
	return spans
}

// Matches is the one-shot form of NewHighlighter(terms).Spans(text).
func Matches(text string, terms []string) []Span {
	return NewHighlighter(terms).Spans(text)
}
