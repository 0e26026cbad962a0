package socket

import (
	"errors"
	"fmt"
	"time"

	"github.com/corey/featdex/internal/domain/corpus"
	"github.com/corey/featdex/internal/domain/index"
)

// ErrNotFound is returned for an unknown feature slug or version number.
var ErrNotFound = errors.New("not found")

// Querier answers read queries. The daemon client and an in-process Service
// both implement it, so commands work with or without a running daemon.
type Querier interface {
	Search(query string, offset, limit int) (*SearchResult, error)
	Feature(slug string) (*FeatureResult, error)
	Version(number string) (*VersionResult, error)
	Explore(view string, offset, limit int) (*ExploreResult, error)
}

var (
	_ Querier = (*Service)(nil)
	_ Querier = (*Client)(nil)
)

// Service answers protocol queries against a search engine.
type Service struct {
	engine   *index.SearchEngine
	pageSize int
}

// NewService creates a Service. A limit <= 0 in a query means pageSize.
func NewService(engine *index.SearchEngine, pageSize int) *Service {
	return &Service{engine: engine, pageSize: pageSize}
}

// Engine returns the underlying search engine.
func (s *Service) Engine() *index.SearchEngine { return s.engine }

func (s *Service) limit(requested int) int {
	if requested > 0 {
		return requested
	}
	return s.pageSize
}

// Search runs one query. An invalid query returns the result (status
// "invalid") together with index.ErrInvalidQuery.
func (s *Service) Search(query string, offset, limit int) (*SearchResult, error) {
	start := time.Now()
	result, err := s.engine.Search(query, index.SearchOptions{
		Offset: offset,
		Limit:  s.limit(limit),
	})
	if result == nil {
		return nil, err
	}
	return &SearchResult{
		SearchResult: *result,
		Elapsed:      time.Since(start).String(),
	}, err
}

// Feature looks a feature up by slug.
func (s *Service) Feature(slug string) (*FeatureResult, error) {
	f, ok := s.engine.Corpus().BySlug(slug)
	if !ok {
		return nil, fmt.Errorf("feature %q: %w", slug, ErrNotFound)
	}
	result := &FeatureResult{Feature: corpus.ViewOf(f)}
	if f.Version != nil {
		v := corpus.ViewOfVersion(f.Version)
		result.Version = &v
	}
	return result, nil
}

// Version looks a version up by number, with the features stabilized in it.
func (s *Service) Version(number string) (*VersionResult, error) {
	c := s.engine.Corpus()
	v, ok := c.Version(number)
	if !ok {
		return nil, fmt.Errorf("version %q: %w", number, ErrNotFound)
	}
	return &VersionResult{
		Version:  corpus.ViewOfVersion(v),
		Features: corpus.ViewsOf(c.FeaturesOf(v.Number)),
	}, nil
}

// Explore returns one page of a browse view.
func (s *Service) Explore(view string, offset, limit int) (*ExploreResult, error) {
	v, err := corpus.ParseView(view)
	if err != nil {
		return nil, err
	}
	offset = max(offset, 0)
	features, more := s.engine.Corpus().Page(v, offset, s.limit(limit))
	return &ExploreResult{
		View:     v.String(),
		Offset:   offset,
		More:     more,
		Features: corpus.ViewsOf(features),
	}, nil
}

// Health reports corpus and index sizes. Uptime and HTTPAddr are left to
// the caller.
func (s *Service) Health() HealthResult {
	c := s.engine.Corpus()
	return HealthResult{
		Status:       "ok",
		FeatureCount: c.Len(),
		VersionCount: len(c.Versions()),
		Index:        s.engine.Stats(),
	}
}
