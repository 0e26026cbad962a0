package index

import (
	"sync"
	"time"

	"github.com/corey/featdex/internal/domain/corpus"
)

// Status tells a caller which of the three result states a query ended in.
// Invalid and empty are distinct: the UI shows different messages for them.
type Status string

const (
	StatusOK      Status = "ok"
	StatusEmpty   Status = "empty"
	StatusInvalid Status = "invalid"
)

// SearchObserver is called after every search with the query, result and
// elapsed time. Used by the web layer for metrics.
type SearchObserver func(query string, result *SearchResult, elapsed time.Duration)

// SearchOptions selects a page of the ranked results. Limit <= 0 returns
// everything from Offset on.
type SearchOptions struct {
	Offset int
	Limit  int
}

// SearchResult holds one page of ranked, highlighted features.
type SearchResult struct {
	Query  string           `json:"query"`
	Status Status           `json:"status"`
	Terms  []string         `json:"terms"`
	Total  int              `json:"total"`
	Offset int              `json:"offset"`
	More   bool             `json:"more"`
	Hits   []MatchedFeature `json:"hits"`
}

// SearchEngine owns the corpus, its n-gram index and the single scorer.
// Queries are serialized by mu because the scorer reuses one buffer; the
// corpus and index are immutable and swapped wholesale by Rebuild.
type SearchEngine struct {
	mu     sync.Mutex
	corpus *corpus.Corpus
	idx    *Index
	scorer *Scorer

	observer   SearchObserver
	observerWg sync.WaitGroup
}

// NewSearchEngine indexes c and allocates its scorer.
func NewSearchEngine(c *corpus.Corpus) *SearchEngine {
	idx := Build(c.Features())
	return &SearchEngine{
		corpus: c,
		idx:    idx,
		scorer: NewScorer(idx, c.TitleLens()),
	}
}

// Rebuild indexes a new corpus and swaps it in. The index is built outside
// the lock so queries keep running against the old corpus until the swap.
func (e *SearchEngine) Rebuild(c *corpus.Corpus) {
	idx := Build(c.Features())
	scorer := NewScorer(idx, c.TitleLens())

	e.mu.Lock()
	e.corpus = c
	e.idx = idx
	e.scorer = scorer
	e.mu.Unlock()
}

// Corpus returns the corpus currently being searched.
func (e *SearchEngine) Corpus() *corpus.Corpus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.corpus
}

// Stats returns the current index table sizes.
func (e *SearchEngine) Stats() Stats {
	e.mu.Lock()
	idx := e.idx
	e.mu.Unlock()
	return idx.Stats()
}

// SetObserver registers a callback invoked after each search.
func (e *SearchEngine) SetObserver(obs SearchObserver) {
	e.observer = obs
}

// WaitObservers blocks until all in-flight observer goroutines complete.
func (e *SearchEngine) WaitObservers() {
	e.observerWg.Wait()
}

// Search tokenizes, scores and highlights query. It returns ErrInvalidQuery
// (with a result whose Status is StatusInvalid) when the query holds a byte
// that can never be indexed. A blank query is a valid query with no results.
func (e *SearchEngine) Search(query string, opts SearchOptions) (*SearchResult, error) {
	start := time.Now()
	result := &SearchResult{Query: query, Offset: max(opts.Offset, 0)}

	terms, err := ExtractTerms(query)
	if err != nil {
		result.Status = StatusInvalid
		result.Terms = []string{}
		e.observe(query, result, start)
		return result, err
	}
	result.Terms = terms

	e.mu.Lock()
	c := e.corpus
	ranked := e.scorer.Score(terms)
	result.Total = len(ranked)
	page := pageOf(ranked, result.Offset, opts.Limit)
	// copied out: ranked aliases the scorer buffer
	entries := append([]ScoreEntry(nil), page...)
	e.mu.Unlock()

	result.More = result.Offset+len(entries) < result.Total
	if result.Total == 0 {
		result.Status = StatusEmpty
		result.Hits = []MatchedFeature{}
		e.observe(query, result, start)
		return result, nil
	}

	result.Status = StatusOK
	h := NewHighlighter(terms)
	result.Hits = make([]MatchedFeature, len(entries))
	for i, en := range entries {
		m := h.MatchFeature(c.Feature(en.ID))
		m.ID = en.ID
		m.Score = en.Score
		result.Hits[i] = m
	}

	e.observe(query, result, start)
	return result, nil
}

func (e *SearchEngine) observe(query string, result *SearchResult, start time.Time) {
	if e.observer == nil {
		return
	}
	elapsed := time.Since(start)
	e.observerWg.Add(1)
	go func() {
		defer e.observerWg.Done()
		e.observer(query, result, elapsed)
	}()
}

func pageOf(entries []ScoreEntry, offset, limit int) []ScoreEntry {
	if offset >= len(entries) {
		return nil
	}
	entries = entries[offset:]
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries
}
