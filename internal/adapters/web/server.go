package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/corey/featdex/internal/adapters/socket"
	"github.com/corey/featdex/internal/domain/index"
	"github.com/corey/featdex/internal/logger"
)

// Server serves the search page, the JSON API and Prometheus metrics over HTTP.
type Server struct {
	svc      *socket.Service
	metrics  *Metrics
	pageSize int
	listener net.Listener
	httpSrv  *http.Server
	started  time.Time
	stopOnce sync.Once
	log      *slog.Logger

	limiter *rate.Limiter // throttles /api/search; nil means unlimited

	portFilePath string // .featdex/run/http.port
}

// NewServer creates an HTTP server for the search page.
// The portFilePath is where the bound port is written for discovery.
func NewServer(engine *index.SearchEngine, metrics *Metrics, pageSize int, portFilePath string) *Server {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Server{
		svc:          socket.NewService(engine, pageSize),
		metrics:      metrics,
		pageSize:     pageSize,
		started:      time.Now(),
		log:          logger.WithComponent("web"),
		portFilePath: portFilePath,
	}
}

// LimitSearches caps /api/search at perSecond queries with the given burst.
// Requests over the limit get 429. Call before Start.
func (s *Server) LimitSearches(perSecond float64, burst int) {
	s.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
}

// Handler returns the routed, instrumented handler.
func (s *Server) Handler() http.Handler {
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}

	mux := http.NewServeMux()
	route := func(pattern string, h http.Handler) {
		mux.Handle(pattern, s.metrics.instrument(h))
	}
	route("GET /", http.FileServerFS(static))
	route("GET /api/search", http.HandlerFunc(s.handleSearch))
	route("GET /api/features/{slug}", http.HandlerFunc(s.handleFeature))
	route("GET /api/versions/{number}", http.HandlerFunc(s.handleVersion))
	route("GET /api/explore/{view}", http.HandlerFunc(s.handleExplore))
	route("GET /api/health", http.HandlerFunc(s.handleHealth))
	mux.Handle("GET /metrics", s.metrics.Handler())
	return mux
}

// Start begins listening on addr. Writes the bound port to the port file.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.listener = ln
	s.started = time.Now()
	s.httpSrv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Write port file for discovery
	if s.portFilePath != "" {
		if err := os.WriteFile(s.portFilePath, []byte(strconv.Itoa(s.Port())), 0644); err != nil {
			s.log.Warn("write port file", "path", s.portFilePath, "err", err)
		}
	}

	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http serve", "err", err)
		}
	}()
	return nil
}

// Stop gracefully shuts down the HTTP server. Idempotent.
func (s *Server) Stop(timeout time.Duration) {
	s.stopOnce.Do(func() {
		if s.httpSrv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if err := s.httpSrv.Shutdown(ctx); err != nil {
				s.log.Warn("http shutdown", "err", err)
			}
		}
		if s.portFilePath != "" {
			os.Remove(s.portFilePath)
		}
	})
}

// Port returns the bound port number, or 0 before Start.
func (s *Server) Port() int {
	if s.listener == nil {
		return 0
	}
	return s.listener.Addr().(*net.TCPAddr).Port
}

// Addr returns the bound host:port, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// URL returns the search page URL.
func (s *Server) URL() string {
	return fmt.Sprintf("http://localhost:%d", s.Port())
}

// searchResponse mirrors index.SearchResult with rendered hits.
type searchResponse struct {
	Query   string       `json:"query"`
	Status  index.Status `json:"status"`
	Terms   []string     `json:"terms"`
	Total   int          `json:"total"`
	Offset  int          `json:"offset"`
	More    bool         `json:"more"`
	Hits    []hitView    `json:"hits"`
	Elapsed string       `json:"elapsed"`
}

// handleSearch answers every query with 200: invalid and empty are result
// states, not HTTP errors.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.limiter != nil && !s.limiter.Allow() {
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusTooManyRequests, "too many requests")
		return
	}
	q := r.URL.Query()
	offset, limit, err := s.paging(q.Get("offset"), q.Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.svc.Search(q.Get("q"), offset, limit)
	if err != nil && !errors.Is(err, index.ErrInvalidQuery) {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := searchResponse{
		Query:   result.Query,
		Status:  result.Status,
		Terms:   result.Terms,
		Total:   result.Total,
		Offset:  result.Offset,
		More:    result.More,
		Hits:    make([]hitView, len(result.Hits)),
		Elapsed: result.Elapsed,
	}
	for i, hit := range result.Hits {
		resp.Hits[i] = renderHit(hit)
	}
	writeJSON(w, http.StatusOK, resp)
}

func renderHit(hit index.MatchedFeature) hitView {
	v := hitView{
		MatchedFeature: hit,
		TitleHTML:      RenderMarkup(hit.Title, hit.TitleSpans),
	}
	if hit.Flag != "" {
		v.FlagHTML = RenderCode(hit.Flag, hit.FlagSpans)
	}
	for _, item := range hit.Items {
		v.ItemsHTML = append(v.ItemsHTML, RenderCode(item.Text, item.Spans))
	}
	return v
}

func (s *Server) handleFeature(w http.ResponseWriter, r *http.Request) {
	result, err := s.svc.Feature(r.PathValue("slug"))
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	result, err := s.svc.Version(r.PathValue("number"))
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleExplore(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	offset, limit, err := s.paging(q.Get("offset"), q.Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := s.svc.Explore(r.PathValue("view"), offset, limit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	result := s.svc.Health()
	result.Uptime = time.Since(s.started).Round(time.Second).String()
	result.HTTPAddr = s.Addr()
	writeJSON(w, http.StatusOK, result)
}

// paging parses the offset and limit query parameters. A missing limit
// means the configured page size.
func (s *Server) paging(offsetStr, limitStr string) (int, int, error) {
	offset, limit := 0, s.pageSize
	if offsetStr != "" {
		n, err := strconv.Atoi(offsetStr)
		if err != nil || n < 0 {
			return 0, 0, fmt.Errorf("invalid offset %q", offsetStr)
		}
		offset = n
	}
	if limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n <= 0 {
			return 0, 0, fmt.Errorf("invalid limit %q", limitStr)
		}
		limit = n
	}
	return offset, limit, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeLookupError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	if errors.Is(err, socket.ErrNotFound) {
		status = http.StatusNotFound
	}
	writeError(w, status, err.Error())
}
