package index

import "github.com/corey/featdex/internal/ports"

// MatchedItem is one item string with its highlight spans.
type MatchedItem struct {
	Text  string `json:"text"`
	Spans []Span `json:"spans"`
}

// MatchedFeature is the search-result view of a feature: title and flag with
// spans, and only the items that matched at least one term.
type MatchedFeature struct {
	ID         uint16        `json:"id"`
	Score      float64       `json:"score"`
	Slug       string        `json:"slug"`
	Version    string        `json:"version,omitempty"` // empty when unstable
	Title      string        `json:"title"`
	TitleSpans []Span        `json:"title_spans,omitempty"`
	Flag       string        `json:"flag,omitempty"`
	FlagSpans  []Span        `json:"flag_spans,omitempty"`
	Items      []MatchedItem `json:"items,omitempty"`
	// MoreItems is set when some items were hidden because nothing in them
	// matched.
	MoreItems bool `json:"more_items,omitempty"`
}

// MatchFeature builds the matched view of f using the compiled terms in h.
func (h *Highlighter) MatchFeature(f *ports.Feature) MatchedFeature {
	m := MatchedFeature{
		Slug:       f.Slug,
		Title:      f.Title,
		TitleSpans: h.Spans(f.Title),
		Flag:       f.Flag,
		FlagSpans:  h.Spans(f.Flag),
	}
	if f.Version != nil {
		m.Version = f.Version.Number
	}
	for _, item := range f.Items {
		spans := h.Spans(item)
		if len(spans) == 0 {
			m.MoreItems = true
			continue
		}
		m.Items = append(m.Items, MatchedItem{Text: item, Spans: spans})
	}
	return m
}

// MatchFeature is the one-shot form of NewHighlighter(terms).MatchFeature(f).
func MatchFeature(f *ports.Feature, terms []string) MatchedFeature {
	return NewHighlighter(terms).MatchFeature(f)
}
