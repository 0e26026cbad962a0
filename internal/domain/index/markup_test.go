package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkup(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		spans []Span
		want  []Segment
	}{
		{
			name: "plain",
			text: "hello",
			want: []Segment{{Text: "hello"}},
		},
		{
			name: "code",
			text: "use `const fn` here",
			want: []Segment{
				{Text: "use "},
				{Text: "const fn", Code: true},
				{Text: " here"},
			},
		},
		{
			name:  "highlight in plain text",
			text:  "async blocks",
			spans: []Span{{6, 6}},
			want: []Segment{
				{Text: "async "},
				{Text: "blocks", Match: true},
			},
		},
		{
			name:  "highlight inside code",
			text:  "`impl Trait` args",
			spans: []Span{{6, 5}},
			want: []Segment{
				{Text: "impl ", Code: true},
				{Text: "Trait", Code: true, Match: true},
				{Text: " args"},
			},
		},
		{
			name:  "adjacent spans stay separate",
			text:  "testtest",
			spans: []Span{{0, 4}, {4, 4}},
			want: []Segment{
				{Text: "test", Match: true},
				{Text: "test", Match: true},
			},
		},
		{
			name:  "overlapping span clipped",
			text:  "abcd",
			spans: []Span{{0, 2}, {1, 2}},
			want: []Segment{
				{Text: "ab", Match: true},
				{Text: "c", Match: true},
				{Text: "d"},
			},
		},
		{
			name:  "fully covered span dropped",
			text:  "abc",
			spans: []Span{{0, 1}, {0, 3}, {1, 1}},
			want: []Segment{
				{Text: "a", Match: true},
				{Text: "bc", Match: true},
			},
		},
		{
			name:  "unbalanced backtick is literal",
			text:  "a `b c",
			spans: []Span{{3, 1}},
			want: []Segment{
				{Text: "a `"},
				{Text: "b", Match: true},
				{Text: " c"},
			},
		},
		{
			name: "pair then unbalanced",
			text: "`x` and `y",
			want: []Segment{
				{Text: "x", Code: true},
				{Text: " and `y"},
			},
		},
		{
			name: "empty code region",
			text: "a``b",
			want: []Segment{{Text: "a"}, {Text: "b"}},
		},
		{
			name: "empty text",
			text: "",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Markup(tt.text, tt.spans))
		})
	}
}

func TestMarkup_WithMatches(t *testing.T) {
	text := "`Vec::new` is `const`"
	segs := Markup(text, Matches(text, []string{"new", "const"}))

	assert.Equal(t, []Segment{
		{Text: "Vec::", Code: true},
		{Text: "new", Code: true, Match: true},
		{Text: " is "},
		{Text: "const", Code: true, Match: true},
	}, segs)
	assert.Equal(t, "Vec::new is const", PlainText(segs))
}
