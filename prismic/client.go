// Package prismic is a thin client for the Prismic REST API v2 and an
// adapter that exposes a repository as a content.Source.
package prismic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/eringen/spacetraveling/content"
)

// ErrForeignCursor is returned when a pagination cursor points outside the
// configured repository.
var ErrForeignCursor = errors.New("prismic: cursor does not belong to the configured repository")

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("prismic returned status: %d", e.StatusCode)
	}
	return fmt.Sprintf("prismic returned status: %d: %s", e.StatusCode, e.Message)
}

// Client talks to one Prismic repository.
type Client struct {
	endpoint   *url.URL
	token      string
	httpClient *http.Client
	executor   failsafe.Executor[*http.Response]
	limiter    *rate.Limiter
	logger     logrus.FieldLogger

	mu  sync.Mutex
	ref string
}

type Option func(*Client)

// WithHTTPClient replaces the default client (30s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRetry sets the retry policy for 429, 5xx and transport errors.
// maxRetries of 0 disables retries.
func WithRetry(maxRetries int, baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.executor = newExecutor(maxRetries, baseDelay, maxDelay)
	}
}

// WithRateLimit caps outgoing requests per second. Zero or less disables
// the limit.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRef pins the content release ref and skips the master ref lookup.
func WithRef(ref string) Option {
	return func(c *Client) {
		c.ref = ref
	}
}

// NewClient creates a client for the API endpoint, e.g.
// https://my-repo.cdn.prismic.io/api/v2. token may be empty for public
// repositories.
func NewClient(endpoint, token string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(endpoint), "/"))
	if err != nil {
		return nil, fmt.Errorf("prismic: parse endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("prismic: endpoint %q must be an absolute http(s) URL", endpoint)
	}
	c := &Client{
		endpoint:   u,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		executor:   newExecutor(3, 100*time.Millisecond, 5*time.Second),
		logger:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func shouldRetry(_ *http.Response, err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

//nolint:bodyclose // *http.Response is the policy's type parameter, not a live response
func newExecutor(maxRetries int, baseDelay, maxDelay time.Duration) failsafe.Executor[*http.Response] {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	if maxDelay < baseDelay {
		maxDelay = baseDelay
	}
	policy := retrypolicy.NewBuilder[*http.Response]().
		HandleIf(shouldRetry).
		WithBackoff(baseDelay, maxDelay).
		WithMaxRetries(maxRetries).
		WithJitterFactor(0.1).
		Build()
	return failsafe.With(policy)
}

// getJSON performs a GET through the retry executor and decodes the body
// into out. Non-2xx statuses become *APIError.
func (c *Client) getJSON(ctx context.Context, target string, out interface{}) error {
	attempt := 0
	resp, err := c.executor.WithContext(ctx).Get(func() (*http.Response, error) {
		attempt++
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.WithFields(logrus.Fields{"attempt": attempt, "url": redact(target)}).WithError(err).Debug("prismic request failed")
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			defer resp.Body.Close()
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
			c.logger.WithFields(logrus.Fields{"attempt": attempt, "status": resp.StatusCode, "url": redact(target)}).Debug("prismic request rejected")
			return nil, &APIError{StatusCode: resp.StatusCode, Message: apiMessage(body)}
		}
		return resp, nil
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// apiMessage extracts the "message" or "error" member of an error body.
func apiMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(body))
}

// redact hides the access token in logged URLs.
func redact(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	if q.Has("access_token") {
		q.Set("access_token", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (c *Client) withToken(q url.Values) {
	if c.token != "" && q.Get("access_token") == "" {
		q.Set("access_token", c.token)
	}
}

// MasterRef returns the ref of the published content, fetching it once.
func (c *Client) MasterRef(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ref != "" {
		return c.ref, nil
	}

	u := *c.endpoint
	q := url.Values{}
	c.withToken(q)
	u.RawQuery = q.Encode()

	var api apiInfo
	if err := c.getJSON(ctx, u.String(), &api); err != nil {
		return "", fmt.Errorf("prismic: get api: %w", err)
	}
	for _, r := range api.Refs {
		if r.IsMasterRef {
			c.ref = r.Ref
			return c.ref, nil
		}
	}
	return "", errors.New("prismic: repository exposes no master ref")
}

// Query runs a document search.
func (c *Client) Query(ctx context.Context, predicates []Predicate, opts QueryOptions) (*Response, error) {
	ref, err := c.MasterRef(ctx)
	if err != nil {
		return nil, err
	}

	u := *c.endpoint
	u.Path = strings.TrimSuffix(u.Path, "/") + "/documents/search"
	q := url.Values{}
	q.Set("ref", ref)
	if len(predicates) > 0 {
		q.Set("q", JoinPredicates(predicates))
	}
	if opts.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(opts.PageSize))
	}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if len(opts.Orderings) > 0 {
		q.Set("orderings", FormatOrderings(opts.Orderings))
	}
	if opts.After != "" {
		q.Set("after", opts.After)
	}
	if len(opts.Fetch) > 0 {
		q.Set("fetch", strings.Join(opts.Fetch, ","))
	}
	c.withToken(q)
	u.RawQuery = q.Encode()

	var resp Response
	if err := c.getJSON(ctx, u.String(), &resp); err != nil {
		return nil, fmt.Errorf("prismic: query: %w", err)
	}
	return &resp, nil
}

// GetByUID returns the document of docType with the given uid, or
// content.ErrNotFound.
func (c *Client) GetByUID(ctx context.Context, docType, uid string) (*Document, error) {
	resp, err := c.Query(ctx, []Predicate{At("my."+docType+".uid", uid)}, QueryOptions{PageSize: 1})
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		return nil, fmt.Errorf("prismic: %s %q: %w", docType, uid, content.ErrNotFound)
	}
	return &resp.Results[0], nil
}

// FetchURL follows an opaque next_page cursor. The cursor must live on
// the configured endpoint's host.
func (c *Client) FetchURL(ctx context.Context, cursor string) (*Response, error) {
	u, err := url.Parse(cursor)
	if err != nil {
		return nil, fmt.Errorf("prismic: parse cursor: %w", err)
	}
	if !strings.EqualFold(u.Host, c.endpoint.Host) || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, ErrForeignCursor
	}
	q := u.Query()
	c.withToken(q)
	u.RawQuery = q.Encode()

	var resp Response
	if err := c.getJSON(ctx, u.String(), &resp); err != nil {
		return nil, fmt.Errorf("prismic: fetch page: %w", err)
	}
	return &resp, nil
}
