package socket

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/corey/featdex/internal/domain/index"
	"github.com/corey/featdex/internal/logger"
)

// AppQueries provides the app-level operations server handlers need beyond
// the search engine. Thread safety is the implementor's responsibility.
type AppQueries interface {
	Reload() (ReloadResult, error)
	HTTPAddr() string
}

// Server is the daemon that listens on a Unix socket and serves search requests.
type Server struct {
	svc      *Service
	queries  AppQueries
	listener net.Listener
	sockPath string
	started  time.Time
	log      *slog.Logger

	done         chan struct{}
	shutdownCh   chan struct{} // closed when a remote shutdown request is received
	shutdownOnce sync.Once
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

// NewServer creates a daemon server backed by the given search engine.
// The queries parameter may be nil if reload is not needed.
func NewServer(engine *index.SearchEngine, sockPath string, pageSize int, queries AppQueries) *Server {
	return &Server{
		svc:        NewService(engine, pageSize),
		queries:    queries,
		sockPath:   sockPath,
		log:        logger.WithComponent("socket"),
		done:       make(chan struct{}),
		shutdownCh: make(chan struct{}),
	}
}

// Start begins listening on the Unix socket. It handles stale sockets by
// attempting a connection first. If the connection fails, the stale socket
// is removed before binding.
func (s *Server) Start() error {
	if _, err := os.Stat(s.sockPath); err == nil {
		conn, err := net.DialTimeout("unix", s.sockPath, 500*time.Millisecond)
		if err == nil {
			conn.Close()
			return fmt.Errorf("daemon already running at %s", s.sockPath)
		}
		// Stale socket, remove it
		os.Remove(s.sockPath)
	}

	ln, err := net.Listen("unix", s.sockPath)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.listener = ln
	s.started = time.Now()

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Stop gracefully shuts down the server, closing the listener and removing the socket file.
// Idempotent: safe to call multiple times (e.g., after remote shutdown + signal).
func (s *Server) Stop() error {
	s.stopOnce.Do(func() {
		close(s.done)
		if s.listener != nil {
			s.listener.Close()
		}
		s.wg.Wait()
		os.Remove(s.sockPath)
	})
	return nil
}

// ShutdownCh returns a channel that is closed when a remote shutdown request
// is received. The daemon's main goroutine should select on this alongside
// OS signals so the process actually exits after a remote stop.
func (s *Server) ShutdownCh() <-chan struct{} {
	return s.shutdownCh
}

// Addr returns the socket path the server is listening on.
func (s *Server) Addr() string {
	return s.sockPath
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				continue
			}
		}
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024) // 1MB max message

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			s.log.Debug("bad request", "err", err)
			s.writeResponse(conn, Response{Error: "invalid request JSON"})
			continue
		}

		resp := s.handleRequest(req)
		s.writeResponse(conn, resp)

		if req.Method == MethodShutdown {
			s.shutdownOnce.Do(func() { close(s.shutdownCh) })
			return
		}
	}
}

func (s *Server) handleRequest(req Request) Response {
	switch req.Method {
	case MethodSearch:
		return s.handleSearch(req)
	case MethodFeature:
		return s.handleFeature(req)
	case MethodVersion:
		return s.handleVersion(req)
	case MethodExplore:
		return s.handleExplore(req)
	case MethodHealth:
		return s.handleHealth(req)
	case MethodReload:
		return s.handleReload(req)
	case MethodShutdown:
		return Response{ID: req.ID, Result: struct{}{}}
	default:
		return Response{ID: req.ID, Error: fmt.Sprintf("unknown method: %s", req.Method)}
	}
}

// decodeParams re-marshals the generic params into a typed struct.
func decodeParams(req Request, v any) error {
	paramsJSON, err := json.Marshal(req.Params)
	if err != nil {
		return err
	}
	return json.Unmarshal(paramsJSON, v)
}

func (s *Server) handleSearch(req Request) Response {
	var params SearchParams
	if err := decodeParams(req, &params); err != nil {
		return Response{ID: req.ID, Error: "invalid search params"}
	}
	result, err := s.svc.Search(params.Query, params.Offset, params.Limit)
	if err != nil && !errors.Is(err, index.ErrInvalidQuery) {
		return Response{ID: req.ID, Error: err.Error()}
	}
	return Response{ID: req.ID, Result: result}
}

func (s *Server) handleFeature(req Request) Response {
	var params FeatureParams
	if err := decodeParams(req, &params); err != nil {
		return Response{ID: req.ID, Error: "invalid feature params"}
	}
	result, err := s.svc.Feature(params.Slug)
	if err != nil {
		return Response{ID: req.ID, Error: err.Error()}
	}
	return Response{ID: req.ID, Result: result}
}

func (s *Server) handleVersion(req Request) Response {
	var params VersionParams
	if err := decodeParams(req, &params); err != nil {
		return Response{ID: req.ID, Error: "invalid version params"}
	}
	result, err := s.svc.Version(params.Number)
	if err != nil {
		return Response{ID: req.ID, Error: err.Error()}
	}
	return Response{ID: req.ID, Result: result}
}

func (s *Server) handleExplore(req Request) Response {
	var params ExploreParams
	if err := decodeParams(req, &params); err != nil {
		return Response{ID: req.ID, Error: "invalid explore params"}
	}
	result, err := s.svc.Explore(params.View, params.Offset, params.Limit)
	if err != nil {
		return Response{ID: req.ID, Error: err.Error()}
	}
	return Response{ID: req.ID, Result: result}
}

func (s *Server) handleHealth(req Request) Response {
	result := s.svc.Health()
	result.Uptime = time.Since(s.started).Round(time.Second).String()
	if s.queries != nil {
		result.HTTPAddr = s.queries.HTTPAddr()
	}
	return Response{ID: req.ID, Result: result}
}

func (s *Server) handleReload(req Request) Response {
	if s.queries == nil {
		return Response{ID: req.ID, Error: "reload not available"}
	}

	result, err := s.queries.Reload()
	if err != nil {
		return Response{ID: req.ID, Error: err.Error()}
	}
	return Response{ID: req.ID, Result: result}
}

func (s *Server) writeResponse(conn net.Conn, resp Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.log.Error("marshal response", "id", resp.ID, "err", err)
		return
	}
	data = append(data, '\n')
	conn.Write(data)
}
