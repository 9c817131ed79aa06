package catalogapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
)

const (
	defaultTimeout              = 15 * time.Second
	defaultPageSize             = 100
	defaultMaxPages             = 20
	responseBodyLimit     int64 = 16 << 20
	errorBodyReadLimit    int64 = 1024
	pageNumberParam             = "pageNumber"
	pageSizeParam               = "pageSize"
	queryParam                  = "q"
	authorizationHeader         = "Authorization"
)

var (
	errBaseURLRequired = errors.New("catalog base url is required")

	endpointByKind = map[enums.CatalogKind]string{
		enums.CatalogKindOceanLeg:  "ocean-legs",
		enums.CatalogKindInlandLeg: "inland-legs",
		enums.CatalogKindService:   "services",
	}
)

// TokenSource supplies bearer tokens for the catalog API. Acquiring and refreshing
// tokens is owned by the caller.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that always returns the same token. An empty token
// sends no Authorization header.
type StaticToken string

// Token implements TokenSource.
func (s StaticToken) Token(context.Context) (string, error) {
	return strings.TrimSpace(string(s)), nil
}

// Client reads raw offer records from the upstream catalog endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
	pageSize   int
	maxPages   int
	bodyLimit  int64
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTokenSource sets the bearer token source.
func WithTokenSource(tokens TokenSource) Option {
	return func(c *Client) {
		if tokens != nil {
			c.tokens = tokens
		}
	}
}

// WithPageSize sets how many records are requested per page.
func WithPageSize(size int) Option {
	return func(c *Client) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

// WithMaxPages bounds how many pages FetchAll walks.
func WithMaxPages(pages int) Option {
	return func(c *Client) {
		if pages > 0 {
			c.maxPages = pages
		}
	}
}

// WithResponseLimit caps how many bytes of a page body are read. Larger bodies
// fail the fetch.
func WithResponseLimit(limit int64) Option {
	return func(c *Client) {
		if limit > 0 {
			c.bodyLimit = limit
		}
	}
}

// NewClient builds the catalog client for the given base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("parse catalog base url: %w", err)
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
		tokens:     StaticToken(""),
		pageSize:   defaultPageSize,
		maxPages:   defaultMaxPages,
		bodyLimit:  responseBodyLimit,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// PageRequest describes one catalog page request.
type PageRequest struct {
	PageNumber int
	PageSize   int
	Query      string
}

// Page is one normalized catalog response.
type Page struct {
	Records []json.RawMessage
	Shape   Shape
}

// Result aggregates every page read by FetchAll.
type Result struct {
	Records []json.RawMessage
	Pages   int
	// Unrecognized is set when any page body matched no known shape.
	Unrecognized bool
	// Repeated is set when the upstream served the previous page again, which
	// happens when it ignores the page number.
	Repeated bool
}

// FetchAll walks pages until a short page, an unrecognized page, a repeated
// page or the page limit.
func (c *Client) FetchAll(ctx context.Context, kind enums.CatalogKind, query string) (Result, error) {
	if c == nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeDependency, "catalog client not configured")
	}
	result := Result{Records: []json.RawMessage{}}
	var previousFirst json.RawMessage
	for page := 1; page <= c.maxPages; page++ {
		resp, err := c.FetchPage(ctx, kind, PageRequest{PageNumber: page, PageSize: c.pageSize, Query: query})
		if err != nil {
			return Result{}, err
		}
		if len(resp.Records) > 0 {
			first := resp.Records[0]
			if previousFirst != nil && bytes.Equal(bytes.TrimSpace(first), bytes.TrimSpace(previousFirst)) {
				result.Repeated = true
				break
			}
			previousFirst = first
		}
		result.Pages++
		result.Records = append(result.Records, resp.Records...)
		if resp.Shape == ShapeUnrecognized {
			result.Unrecognized = true
			break
		}
		if len(resp.Records) < c.pageSize {
			break
		}
	}
	return result, nil
}

// FetchPage requests a single page of one catalog.
func (c *Client) FetchPage(ctx context.Context, kind enums.CatalogKind, req PageRequest) (Page, error) {
	if c == nil {
		return Page{}, pkgerrors.New(pkgerrors.CodeDependency, "catalog client not configured")
	}
	endpoint, ok := endpointByKind[kind]
	if !ok {
		return Page{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown catalog kind").WithDetails(map[string]any{"kind": kind})
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(endpoint, req), nil)
	if err != nil {
		return Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build catalog request")
	}
	httpReq.Header.Set("Accept", "application/json")

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire catalog token")
	}
	if token != "" {
		httpReq.Header.Set(authorizationHeader, "Bearer "+token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute catalog request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "catalog request failed").
			WithDetails(map[string]any{"catalog": kind, "status": resp.StatusCode})
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.bodyLimit+1))
	if err != nil {
		return Page{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read catalog response")
	}
	if int64(len(body)) > c.bodyLimit {
		return Page{}, pkgerrors.Newf(pkgerrors.CodeDependency, "catalog response exceeds %d bytes", c.bodyLimit).
			WithDetails(map[string]any{"catalog": kind, "page": req.PageNumber})
	}

	records, shape := Normalize(body)
	return Page{Records: records, Shape: shape}, nil
}

func (c *Client) buildURL(endpoint string, req PageRequest) string {
	q := url.Values{}
	if req.PageNumber > 0 {
		q.Set(pageNumberParam, strconv.Itoa(req.PageNumber))
	}
	if req.PageSize > 0 {
		q.Set(pageSizeParam, strconv.Itoa(req.PageSize))
	}
	if query := strings.TrimSpace(req.Query); query != "" {
		q.Set(queryParam, query)
	}
	full := fmt.Sprintf("%s/%s", c.baseURL, endpoint)
	if encoded := q.Encode(); encoded != "" {
		full += "?" + encoded
	}
	return full
}
