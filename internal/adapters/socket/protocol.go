// Package socket implements a JSON-over-Unix-socket protocol for the featdex daemon.
// The protocol uses newline-delimited JSON: each message is one JSON object + \n.
package socket

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"

	"github.com/corey/featdex/internal/domain/corpus"
	"github.com/corey/featdex/internal/domain/index"
)

// SocketPath returns the Unix socket path for a given project root.
// Format: {tmp}/featdex-{first12hex}.sock
func SocketPath(projectRoot string) string {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		abs = projectRoot
	}
	h := sha256.Sum256([]byte(abs))
	return filepath.Join(os.TempDir(), fmt.Sprintf("featdex-%x.sock", h[:6]))
}

// Method names for the protocol.
const (
	MethodSearch   = "search"
	MethodFeature  = "feature"
	MethodVersion  = "version"
	MethodExplore  = "explore"
	MethodHealth   = "health"
	MethodReload   = "reload"
	MethodShutdown = "shutdown"
)

// Request is the wire format for client-to-server messages.
type Request struct {
	ID     string      `json:"id"`
	Method string      `json:"method"`
	Params interface{} `json:"params,omitempty"`
}

// Response is the wire format for server-to-client messages.
type Response struct {
	ID     string      `json:"id"`
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// SearchParams is the params for a search request.
type SearchParams struct {
	Query  string `json:"query"`
	Offset int    `json:"offset,omitempty"`
	// Limit overrides the daemon's page size when positive.
	Limit int `json:"limit,omitempty"`
}

// SearchResult is the result of a search request. An invalid query is a
// result with status "invalid", not a protocol error.
type SearchResult struct {
	index.SearchResult
	Elapsed string `json:"elapsed"`
}

// FeatureParams is the params for a feature request.
type FeatureParams struct {
	Slug string `json:"slug"`
}

// FeatureResult is the result of a feature request.
type FeatureResult struct {
	Feature corpus.FeatureView  `json:"feature"`
	Version *corpus.VersionView `json:"version,omitempty"`
}

// VersionParams is the params for a version request.
type VersionParams struct {
	Number string `json:"number"`
}

// VersionResult is the result of a version request.
type VersionResult struct {
	Version  corpus.VersionView   `json:"version"`
	Features []corpus.FeatureView `json:"features"`
}

// ExploreParams is the params for an explore request.
type ExploreParams struct {
	View   string `json:"view"`
	Offset int    `json:"offset,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

// ExploreResult is one page of a browse view.
type ExploreResult struct {
	View     string               `json:"view"`
	Offset   int                  `json:"offset"`
	More     bool                 `json:"more"`
	Features []corpus.FeatureView `json:"features"`
}

// HealthResult is the result of a health request.
type HealthResult struct {
	Status       string      `json:"status"`
	FeatureCount int         `json:"feature_count"`
	VersionCount int         `json:"version_count"`
	Index        index.Stats `json:"index"`
	Uptime       string      `json:"uptime"`
	HTTPAddr     string      `json:"http_addr,omitempty"`
}

// ReloadResult is the result of a reload request.
type ReloadResult struct {
	FeatureCount int   `json:"feature_count"`
	VersionCount int   `json:"version_count"`
	ElapsedMs    int64 `json:"elapsed_ms"`
}
