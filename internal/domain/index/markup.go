package index

// Segment is one renderable run of text. Code marks an inline code region
// (between a pair of backticks, which are not part of any segment); Match
// marks a highlighted search hit. Both may be set.
type Segment struct {
	Text  string `json:"text"`
	Code  bool   `json:"code,omitempty"`
	Match bool   `json:"match,omitempty"`
}

// Markup splits text into code, highlight and plain segments.
//
// Backticks delimit code regions. If the last opening backtick has no
// closing partner, it and everything after it are plain text, backtick
// included; highlights still apply there. A highlight inside a code region
// becomes its own Code+Match segment. Spans must be sorted by start (as
// Matches returns them); a span overlapping an earlier one is clipped to
// the bytes not yet consumed. Empty segments are never emitted.
func Markup(text string, spans []Span) []Segment {
	if text == "" {
		return nil
	}

	// owner[i] is the index of the span that highlights byte i, or -1
	owner := make([]int, len(text))
	for i := range owner {
		owner[i] = -1
	}
	consumed := 0
	for si, s := range spans {
		start := max(s.Start, consumed, 0)
		end := min(s.End(), len(text))
		for i := start; i < end; i++ {
			owner[i] = si
		}
		consumed = max(consumed, end)
	}

	// last backtick that opens a pair; anything from an unpaired opener on
	// is plain
	limit := len(text)
	open := -1
	for i := 0; i < len(text); i++ {
		if text[i] != '`' {
			continue
		}
		if open < 0 {
			open = i
		} else {
			open = -1
		}
	}
	if open >= 0 {
		limit = open
	}

	var segs []Segment
	var cur Segment
	curOwner := -1
	runStart := 0
	flush := func(end int) {
		if end > runStart {
			segs = append(segs, Segment{Text: text[runStart:end], Code: cur.Code, Match: cur.Match})
		}
	}

	inCode := false
	for i := 0; i < len(text); i++ {
		if i < limit && text[i] == '`' {
			flush(i)
			inCode = !inCode
			runStart = i + 1
			cur = Segment{Code: inCode}
			curOwner = -1
			continue
		}
		seg := Segment{Code: inCode, Match: owner[i] >= 0}
		if seg.Code != cur.Code || seg.Match != cur.Match || owner[i] != curOwner {
			flush(i)
			runStart = i
			cur = seg
			curOwner = owner[i]
		}
	}
	flush(len(text))
	return segs
}

// PlainText joins segment texts, dropping code delimiters.
func PlainText(segs []Segment) string {
	n := 0
	for _, s := range segs {
		n += len(s.Text)
	}
	b := make([]byte, 0, n)
	for _, s := range segs {
		b = append(b, s.Text...)
	}
	return string(b)
}
