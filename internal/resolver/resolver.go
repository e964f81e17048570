// Package resolver asks the external viewer-redirect endpoint for the URL of
// the viewer to show a file in.
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds a single resolution.
const DefaultTimeout = 10 * time.Second

// DefaultAuthority is the role code sent for read-only file previews.
const DefaultAuthority = "3"

// UserIDHeader forwards the acting user to the endpoint.
const UserIDHeader = "X-User-ID"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 1 << 20

// ErrMalformedResponse is wrapped by resolution errors whose response body
// could not be used.
var ErrMalformedResponse = errors.New("malformed viewer response")

// Kind classifies a resolution failure.
type Kind int

const (
	// KindNetworkFailure covers transport errors and timeouts.
	KindNetworkFailure Kind = iota + 1
	// KindHostRejected covers non-2xx answers and unusable bodies.
	KindHostRejected
)

func (k Kind) String() string {
	switch k {
	case KindNetworkFailure:
		return "network_failure"
	case KindHostRejected:
		return "host_rejected"
	default:
		return "unknown"
	}
}

// ResolutionError is returned by Resolve for every failure.
type ResolutionError struct {
	Kind   Kind
	Status int
	Cause  error
}

func (e *ResolutionError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("resolving viewer url (%s, status %d): %v", e.Kind, e.Status, e.Cause)
	}
	return fmt.Sprintf("resolving viewer url (%s): %v", e.Kind, e.Cause)
}

func (e *ResolutionError) Unwrap() error { return e.Cause }

// Request is a single file activation to resolve.
type Request struct {
	FileID        string `json:"file_id"`
	FileName      string `json:"file_name"`
	FileExtension string `json:"file_extension"`
	UserID        string `json:"user_id"`
	UserName      string `json:"user_name"`
}

// Result is a resolved viewer target.
type Result struct {
	FinalURL string `json:"finalURL"`
}

// Options configures a Client.
type Options struct {
	Endpoint   string
	Authority  string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client resolves viewer URLs. It never retries on its own.
type Client struct {
	endpoint  *url.URL
	authority string
	timeout   time.Duration
	http      *http.Client
}

// New creates a Client for the given endpoint.
func New(opts Options) (*Client, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("viewer endpoint is required")
	}
	u, err := url.Parse(opts.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing viewer endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("viewer endpoint %q must be http or https", opts.Endpoint)
	}

	c := &Client{
		endpoint:  u,
		authority: opts.Authority,
		timeout:   opts.Timeout,
		http:      opts.HTTPClient,
	}
	if c.authority == "" {
		c.authority = DefaultAuthority
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	return c, nil
}

// Resolve asks the endpoint for the viewer URL of req. Cancelling ctx aborts
// the call; the returned error then wraps ctx's error.
func (c *Client) Resolve(ctx context.Context, req Request) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := *c.endpoint
	q := u.Query()
	q.Set("file_id", req.FileID)
	q.Set("user_id", req.UserID)
	q.Set("user_name", req.UserName)
	q.Set("authority", c.authority)
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Result{}, &ResolutionError{Kind: KindNetworkFailure, Cause: fmt.Errorf("creating request: %w", err)}
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.UserID != "" {
		httpReq.Header.Set(UserIDHeader, req.UserID)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Result{}, &ResolutionError{Kind: KindNetworkFailure, Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Result{}, &ResolutionError{Kind: KindNetworkFailure, Status: resp.StatusCode, Cause: fmt.Errorf("reading response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, &ResolutionError{
			Kind:   KindHostRejected,
			Status: resp.StatusCode,
			Cause:  fmt.Errorf("viewer endpoint answered %s: %s", resp.Status, snippet(body)),
		}
	}

	var res Result
	if err := json.Unmarshal(body, &res); err != nil {
		return Result{}, &ResolutionError{Kind: KindHostRejected, Status: resp.StatusCode, Cause: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	if res.FinalURL == "" {
		return Result{}, &ResolutionError{Kind: KindHostRejected, Status: resp.StatusCode, Cause: fmt.Errorf("%w: missing finalURL", ErrMalformedResponse)}
	}
	if _, err := url.Parse(res.FinalURL); err != nil {
		return Result{}, &ResolutionError{Kind: KindHostRejected, Status: resp.StatusCode, Cause: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	return res, nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}
