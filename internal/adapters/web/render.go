package web

import (
	"html/template"
	"strings"

	"github.com/corey/featdex/internal/domain/index"
)

// RenderMarkup renders text with inline `code` and highlight spans as HTML.
// Code regions become <code>, matches become <mark>. All text is escaped.
func RenderMarkup(text string, spans []index.Span) template.HTML {
	var b strings.Builder
	writeSegments(&b, index.Markup(text, spans), false)
	return template.HTML(b.String())
}

// RenderCode renders text that is code as a whole, such as a feature flag
// or an item, inside one <code> element.
func RenderCode(text string, spans []index.Span) template.HTML {
	var b strings.Builder
	b.WriteString("<code>")
	writeSegments(&b, index.Markup(text, spans), true)
	b.WriteString("</code>")
	return template.HTML(b.String())
}

func writeSegments(b *strings.Builder, segs []index.Segment, inCode bool) {
	open := false
	for _, seg := range segs {
		if !inCode && seg.Code != open {
			if seg.Code {
				b.WriteString("<code>")
			} else {
				b.WriteString("</code>")
			}
			open = seg.Code
		}
		if seg.Match {
			b.WriteString("<mark>")
		}
		b.WriteString(template.HTMLEscapeString(seg.Text))
		if seg.Match {
			b.WriteString("</mark>")
		}
	}
	if open {
		b.WriteString("</code>")
	}
}

// hitView is a search hit with its HTML renderings, as served to the page.
type hitView struct {
	index.MatchedFeature
	TitleHTML template.HTML   `json:"title_html"`
	FlagHTML  template.HTML   `json:"flag_html,omitempty"`
	ItemsHTML []template.HTML `json:"items_html,omitempty"`
}
