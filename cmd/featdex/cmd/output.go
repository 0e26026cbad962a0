package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/corey/featdex/internal/adapters/socket"
	"github.com/corey/featdex/internal/domain/corpus"
	"github.com/corey/featdex/internal/domain/index"
)

// Messages for the two result states that carry no hits.
const (
	msgInvalid = "Invalid search terms."
	msgEmpty   = "Nothing found, sorry."
)

// printer renders results for the terminal. Without color every string is
// printed exactly as stored, backticks included.
type printer struct {
	color bool

	header  lipgloss.Style
	code    lipgloss.Style
	match   lipgloss.Style
	version lipgloss.Style
	slug    lipgloss.Style
	dim     lipgloss.Style
}

func newPrinter(w io.Writer, color bool) *printer {
	r := lipgloss.NewRenderer(w)
	if color {
		// --color=always must survive a pipe
		r.SetColorProfile(termenv.ANSI256)
	}
	return &printer{
		color:   color,
		header:  r.NewStyle().Bold(true),
		code:    r.NewStyle().Foreground(lipgloss.Color("214")),
		match:   r.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("220")),
		version: r.NewStyle().Foreground(lipgloss.Color("86")),
		slug:    r.NewStyle().Foreground(lipgloss.Color("33")),
		dim:     r.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

func (p *printer) style(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

// markup renders a title: `code` regions and search hits get their styles,
// the delimiting backticks are dropped.
func (p *printer) markup(text string, spans []index.Span) string {
	if !p.color {
		return text
	}
	var b strings.Builder
	for _, seg := range index.Markup(text, spans) {
		switch {
		case seg.Code && seg.Match:
			b.WriteString(p.match.Bold(true).Render(seg.Text))
		case seg.Match:
			b.WriteString(p.match.Render(seg.Text))
		case seg.Code:
			b.WriteString(p.code.Render(seg.Text))
		default:
			b.WriteString(seg.Text)
		}
	}
	return b.String()
}

// codeText renders a string that is code as a whole (a flag or an item).
func (p *printer) codeText(text string, spans []index.Span) string {
	if !p.color {
		return text
	}
	var b strings.Builder
	for _, seg := range index.Markup(text, spans) {
		if seg.Match {
			b.WriteString(p.match.Bold(true).Render(seg.Text))
		} else {
			b.WriteString(p.code.Render(seg.Text))
		}
	}
	return b.String()
}

func (p *printer) versionLabel(version string) string {
	if version == "" {
		return p.style(p.dim, "unstable")
	}
	return p.style(p.version, version)
}

// formatSearchResult formats one page of search results.
//
//	⚡ 3 results │ 412µs
//	  `todo!()` macro  1.40  todo_macro
//	    todo!
func (p *printer) formatSearchResult(r *socket.SearchResult) string {
	switch r.Status {
	case index.StatusInvalid:
		return p.style(p.dim, msgInvalid) + "\n"
	case index.StatusEmpty:
		return p.style(p.dim, msgEmpty) + "\n"
	}

	var sb strings.Builder
	if r.Offset > 0 {
		sb.WriteString(p.style(p.header, fmt.Sprintf("⚡ %d results (from %d)", r.Total, r.Offset+1)))
	} else {
		sb.WriteString(p.style(p.header, fmt.Sprintf("⚡ %d results", r.Total)))
	}
	sb.WriteString(fmt.Sprintf(" │ %s\n", r.Elapsed))

	for _, hit := range r.Hits {
		sb.WriteString("  ")
		sb.WriteString(p.markup(hit.Title, hit.TitleSpans))
		if hit.Flag != "" {
			sb.WriteString("  ")
			sb.WriteString(p.codeText(hit.Flag, hit.FlagSpans))
		}
		sb.WriteString("  ")
		sb.WriteString(p.versionLabel(hit.Version))
		sb.WriteString("  ")
		sb.WriteString(p.style(p.slug, hit.Slug))
		sb.WriteString("\n")

		if len(hit.Items) > 0 || hit.MoreItems {
			sb.WriteString("    ")
			for i, item := range hit.Items {
				if i > 0 {
					sb.WriteString("  ")
				}
				sb.WriteString(p.codeText(item.Text, item.Spans))
			}
			if hit.MoreItems {
				if len(hit.Items) > 0 {
					sb.WriteString("  ")
				}
				sb.WriteString(p.style(p.dim, "…"))
			}
			sb.WriteString("\n")
		}
	}

	if r.More {
		next := r.Offset + len(r.Hits)
		sb.WriteString(p.style(p.dim, fmt.Sprintf("  … %d more (--offset %d)", r.Total-next, next)))
		sb.WriteString("\n")
	}
	return sb.String()
}

// formatFeatureList formats a feature list under a heading. more adds a
// hint for the next page starting at next.
func (p *printer) formatFeatureList(heading string, features []corpus.FeatureView, more bool, next int) string {
	var sb strings.Builder
	sb.WriteString(p.style(p.header, "⚡ "+heading))
	sb.WriteString("\n")
	if len(features) == 0 {
		sb.WriteString("  ")
		sb.WriteString(p.style(p.dim, msgEmpty))
		sb.WriteString("\n")
	}
	for _, f := range features {
		sb.WriteString("  ")
		sb.WriteString(p.markup(f.Title, nil))
		if f.Flag != "" {
			sb.WriteString("  ")
			sb.WriteString(p.codeText(f.Flag, nil))
		}
		version := ""
		if f.Version != nil {
			version = *f.Version
		}
		sb.WriteString("  ")
		sb.WriteString(p.versionLabel(version))
		sb.WriteString("  ")
		sb.WriteString(p.style(p.slug, f.Slug))
		sb.WriteString("\n")
	}
	if more {
		sb.WriteString(p.style(p.dim, fmt.Sprintf("  … more (--offset %d)", next)))
		sb.WriteString("\n")
	}
	return sb.String()
}

// formatFeature formats the detail view of one feature.
func (p *printer) formatFeature(r *socket.FeatureResult) string {
	f := r.Feature
	var sb strings.Builder
	sb.WriteString(p.style(p.header, "⚡ "))
	sb.WriteString(p.markup(f.Title, nil))
	sb.WriteString("\n")

	row := func(label, value string) {
		sb.WriteString(fmt.Sprintf("  %-18s %s\n", label+":", value))
	}
	row("slug", p.style(p.slug, f.Slug))
	if f.Flag != "" {
		row("flag", p.codeText(f.Flag, nil))
	}
	if r.Version != nil {
		v := r.Version.Number + " (" + r.Version.Channel
		if r.Version.ReleaseDate != "" {
			v += ", " + r.Version.ReleaseDate
		}
		row("version", p.style(p.version, v+")"))
	} else {
		row("version", p.versionLabel(""))
	}
	if len(f.Items) > 0 {
		items := make([]string, len(f.Items))
		for i, item := range f.Items {
			items[i] = p.codeText(item, nil)
		}
		row("items", strings.Join(items, "  "))
	}

	ids := []struct {
		label string
		id    uint64
	}{
		{"rfc", f.RFCID},
		{"tracking issue", f.TrackingIssueID},
		{"impl pr", f.ImplPRID},
		{"stabilization pr", f.StabilizationPRID},
	}
	for _, e := range ids {
		if e.id != 0 {
			row(e.label, fmt.Sprintf("#%d", e.id))
		}
	}
	for _, e := range []struct{ label, path string }{
		{"docs", f.DocPath},
		{"edition guide", f.EditionGuidePath},
		{"unstable book", f.UnstableBookPath},
	} {
		if e.path != "" {
			row(e.label, e.path)
		}
	}
	return sb.String()
}

// formatVersion formats a version with the features stabilized in it.
func (p *printer) formatVersion(r *socket.VersionResult) string {
	heading := fmt.Sprintf("%s (%s", r.Version.Number, r.Version.Channel)
	if r.Version.ReleaseDate != "" {
		heading += ", " + r.Version.ReleaseDate
	}
	heading += fmt.Sprintf(") │ %d features", len(r.Features))
	return p.formatFeatureList(heading, r.Features, false, 0)
}

// formatHealth formats a HealthResult for terminal display.
func (p *printer) formatHealth(h *socket.HealthResult) string {
	var sb strings.Builder
	sb.WriteString(p.style(p.header, "⚡ featdex daemon"))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  Status:    %s\n", p.style(p.version, h.Status)))
	sb.WriteString(fmt.Sprintf("  Features:  %d\n", h.FeatureCount))
	sb.WriteString(fmt.Sprintf("  Versions:  %d\n", h.VersionCount))
	sb.WriteString(fmt.Sprintf("  N-grams:   %d mono, %d bi, %d tri\n", h.Index.Monograms, h.Index.Bigrams, h.Index.Trigrams))
	sb.WriteString(fmt.Sprintf("  Uptime:    %s\n", h.Uptime))
	if h.HTTPAddr != "" {
		sb.WriteString(fmt.Sprintf("  Web:       http://%s\n", h.HTTPAddr))
	}
	return sb.String()
}
