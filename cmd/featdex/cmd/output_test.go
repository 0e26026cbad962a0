package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/corey/featdex/internal/adapters/socket"
	"github.com/corey/featdex/internal/domain/corpus"
	"github.com/corey/featdex/internal/domain/index"
)

func plainPrinter() *printer {
	return newPrinter(&bytes.Buffer{}, false)
}

func TestFormatSearchResult_States(t *testing.T) {
	p := plainPrinter()

	invalid := &socket.SearchResult{SearchResult: index.SearchResult{Query: "café", Status: index.StatusInvalid}}
	assert.Equal(t, msgInvalid+"\n", p.formatSearchResult(invalid))

	empty := &socket.SearchResult{SearchResult: index.SearchResult{Query: "zzz", Status: index.StatusEmpty}}
	assert.Equal(t, msgEmpty+"\n", p.formatSearchResult(empty))
	assert.NotEqual(t, msgInvalid, msgEmpty)
}

func TestFormatSearchResult_Hits(t *testing.T) {
	p := plainPrinter()
	r := &socket.SearchResult{
		SearchResult: index.SearchResult{
			Query:  "async",
			Status: index.StatusOK,
			Total:  3,
			More:   true,
			Hits: []index.MatchedFeature{
				{
					Slug:       "async_await",
					Version:    "1.39",
					Title:      "`async`/`await`",
					TitleSpans: []index.Span{{Start: 1, Len: 5}},
					Flag:       "async_await",
					Items:      []index.MatchedItem{{Text: "async fn", Spans: []index.Span{{Start: 0, Len: 5}}}},
					MoreItems:  true,
				},
				{Slug: "async_closure", Title: "async closures"},
			},
		},
		Elapsed: "1ms",
	}

	out := p.formatSearchResult(r)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	assert.Equal(t, []string{
		"⚡ 3 results │ 1ms",
		"  `async`/`await`  async_await  1.39  async_await",
		"    async fn  …",
		"  async closures  unstable  async_closure",
		"  … 1 more (--offset 2)",
	}, lines)
}

func TestFormatSearchResult_Offset(t *testing.T) {
	p := plainPrinter()
	r := &socket.SearchResult{
		SearchResult: index.SearchResult{
			Status: index.StatusOK,
			Total:  3,
			Offset: 2,
			Hits:   []index.MatchedFeature{{Slug: "x", Title: "x", Version: "1.40"}},
		},
		Elapsed: "1ms",
	}
	out := p.formatSearchResult(r)
	assert.True(t, strings.HasPrefix(out, "⚡ 3 results (from 3) │ 1ms\n"))
	assert.NotContains(t, out, "more")
}

func TestPrinter_ColorMarkup(t *testing.T) {
	p := newPrinter(&bytes.Buffer{}, true)

	out := p.markup("`todo!()` macro", []index.Span{{Start: 1, Len: 4}})
	assert.Contains(t, out, "\x1b[", "color output carries escape codes")
	assert.NotContains(t, out, "`", "code delimiters are dropped")
	assert.Contains(t, out, "todo")
	assert.Contains(t, out, " macro")

	assert.Equal(t, "`todo!()` macro", plainPrinter().markup("`todo!()` macro", nil))
}

func TestFormatFeature(t *testing.T) {
	p := plainPrinter()
	v := "1.40"
	r := &socket.FeatureResult{
		Feature: corpus.FeatureView{
			Title:           "`todo!()` macro",
			Slug:            "todo_macro",
			Version:         &v,
			Items:           []string{"todo!"},
			TrackingIssueID: 59277,
		},
		Version: &corpus.VersionView{Number: "1.40", Channel: "stable", ReleaseDate: "2019-12-19"},
	}

	out := p.formatFeature(r)
	assert.Contains(t, out, "⚡ `todo!()` macro\n")
	assert.Contains(t, out, "slug:")
	assert.Contains(t, out, "1.40 (stable, 2019-12-19)")
	assert.Contains(t, out, "#59277")
	assert.NotContains(t, out, "flag:")
	assert.NotContains(t, out, "rfc:")
}

func TestFormatFeatureList_Empty(t *testing.T) {
	out := plainPrinter().formatFeatureList("recent │ 0 shown", nil, false, 0)
	assert.Equal(t, "⚡ recent │ 0 shown\n  "+msgEmpty+"\n", out)
}

func TestFormatVersion(t *testing.T) {
	v := "1.39"
	out := plainPrinter().formatVersion(&socket.VersionResult{
		Version:  corpus.VersionView{Number: "1.39", Channel: "stable", ReleaseDate: "2019-11-07"},
		Features: []corpus.FeatureView{{Title: "`async`/`await`", Slug: "async_await", Version: &v}},
	})
	assert.Contains(t, out, "⚡ 1.39 (stable, 2019-11-07) │ 1 features\n")
	assert.Contains(t, out, "  `async`/`await`  1.39  async_await\n")
}

func TestFormatHealth(t *testing.T) {
	out := plainPrinter().formatHealth(&socket.HealthResult{
		Status:       "ok",
		FeatureCount: 3,
		VersionCount: 2,
		Index:        index.Stats{Monograms: 10, Bigrams: 20, Trigrams: 30},
		Uptime:       "5s",
		HTTPAddr:     "127.0.0.1:8080",
	})
	assert.Contains(t, out, "Features:  3")
	assert.Contains(t, out, "10 mono, 20 bi, 30 tri")
	assert.Contains(t, out, "http://127.0.0.1:8080")
}

func TestResolveColor(t *testing.T) {
	assert.False(t, resolveColor("always", true), "--no-color wins")
	assert.True(t, resolveColor("always", false))
	assert.False(t, resolveColor("never", false))
}
