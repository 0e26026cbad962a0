package socket

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/corey/featdex/internal/domain/index"
)

// Client connects to the featdex daemon over a Unix socket.
type Client struct {
	sockPath string
}

// NewClient creates a client that will connect to the given socket path.
func NewClient(sockPath string) *Client {
	return &Client{sockPath: sockPath}
}

// Search sends a search request and returns the result. An invalid query
// comes back as the result together with index.ErrInvalidQuery.
func (c *Client) Search(query string, offset, limit int) (*SearchResult, error) {
	resp, err := c.call(MethodSearch, SearchParams{Query: query, Offset: offset, Limit: limit})
	if err != nil {
		return nil, err
	}
	result, err := decodeResult[SearchResult](resp)
	if err != nil {
		return nil, err
	}
	if result.Status == index.StatusInvalid {
		return result, index.ErrInvalidQuery
	}
	return result, nil
}

// Feature fetches one feature by slug.
func (c *Client) Feature(slug string) (*FeatureResult, error) {
	resp, err := c.call(MethodFeature, FeatureParams{Slug: slug})
	if err != nil {
		return nil, err
	}
	return decodeResult[FeatureResult](resp)
}

// Version fetches one version and the features stabilized in it.
func (c *Client) Version(number string) (*VersionResult, error) {
	resp, err := c.call(MethodVersion, VersionParams{Number: number})
	if err != nil {
		return nil, err
	}
	return decodeResult[VersionResult](resp)
}

// Explore fetches one page of a browse view.
func (c *Client) Explore(view string, offset, limit int) (*ExploreResult, error) {
	resp, err := c.call(MethodExplore, ExploreParams{View: view, Offset: offset, Limit: limit})
	if err != nil {
		return nil, err
	}
	return decodeResult[ExploreResult](resp)
}

// Health sends a health check request.
func (c *Client) Health() (*HealthResult, error) {
	resp, err := c.call(MethodHealth, nil)
	if err != nil {
		return nil, err
	}
	return decodeResult[HealthResult](resp)
}

// Reload asks the daemon to rebuild the corpus from its data directory,
// with an extended timeout.
func (c *Client) Reload() (*ReloadResult, error) {
	resp, err := c.callWithTimeout(MethodReload, nil, 60*time.Second)
	if err != nil {
		return nil, err
	}
	return decodeResult[ReloadResult](resp)
}

// Shutdown sends a shutdown request to the daemon.
func (c *Client) Shutdown() error {
	_, err := c.call(MethodShutdown, nil)
	return err
}

// Ping checks if the daemon is reachable.
func (c *Client) Ping() bool {
	conn, err := net.DialTimeout("unix", c.sockPath, 500*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

func (c *Client) call(method string, params any) (*Response, error) {
	return c.callWithTimeout(method, params, 5*time.Second)
}

func (c *Client) callWithTimeout(method string, params any, timeout time.Duration) (*Response, error) {
	conn, err := net.DialTimeout("unix", c.sockPath, 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	// Set deadline for the whole request/response
	conn.SetDeadline(time.Now().Add(timeout))

	req := Request{ID: uuid.NewString(), Method: method, Params: params}
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read: %w", err)
		}
		return nil, fmt.Errorf("empty response")
	}

	var resp Response
	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("server error: %s", resp.Error)
	}
	if resp.ID != req.ID {
		return nil, fmt.Errorf("response id %q does not match request %q", resp.ID, req.ID)
	}
	return &resp, nil
}

// decodeResult re-marshals the generic result into a typed struct.
func decodeResult[T any](resp *Response) (*T, error) {
	resultJSON, err := json.Marshal(resp.Result)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	var result T
	if err := json.Unmarshal(resultJSON, &result); err != nil {
		return nil, fmt.Errorf("unmarshal result: %w", err)
	}
	return &result, nil
}
