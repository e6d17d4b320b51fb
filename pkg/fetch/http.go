package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/goliatone/go-nodeform/pkg/fieldvalue"
	"github.com/goliatone/go-nodeform/pkg/schema"
)

const (
	defaultBranch  = "main"
	defaultTimeout = 30 * time.Second

	headerAPIKey    = "X-INFRAHUB-KEY"
	headerRequestID = "X-Request-Id"
)

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithHTTPClient supplies the underlying *http.Client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(c *HTTPClient) {
		if client != nil {
			c.client = client
		}
	}
}

// WithToken authenticates requests with a bearer token.
func WithToken(token string) HTTPOption {
	return func(c *HTTPClient) {
		if token != "" {
			c.headers["Authorization"] = "Bearer " + token
		}
	}
}

// WithAPIKey authenticates requests with an API key header.
func WithAPIKey(key string) HTTPOption {
	return func(c *HTTPClient) {
		if key != "" {
			c.headers[headerAPIKey] = key
		}
	}
}

// WithHeader adds a header to every request.
func WithHeader(name, value string) HTTPOption {
	return func(c *HTTPClient) {
		if name != "" {
			c.headers[name] = value
		}
	}
}

// WithTimeout bounds each request. Zero disables the per-request timeout.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(c *HTTPClient) {
		c.timeout = timeout
	}
}

// WithDefaultBranch sets the branch used when callers pass an empty one.
func WithDefaultBranch(branch string) HTTPOption {
	return func(c *HTTPClient) {
		if branch != "" {
			c.branch = branch
		}
	}
}

// WithRequestID overrides how request correlation ids are generated.
func WithRequestID(fn func() string) HTTPOption {
	return func(c *HTTPClient) {
		if fn != nil {
			c.requestID = fn
		}
	}
}

// HTTPClient implements Fetcher against the REST schema endpoints and the
// per-branch GraphQL endpoint of a server.
type HTTPClient struct {
	base      *url.URL
	client    *http.Client
	headers   map[string]string
	timeout   time.Duration
	branch    string
	requestID func() string
}

var _ Fetcher = (*HTTPClient)(nil)

// NewHTTPClient constructs a client for the server at baseURL.
func NewHTTPClient(baseURL string, options ...HTTPOption) (*HTTPClient, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("fetch: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("fetch: unsupported base url %q", baseURL)
	}

	c := &HTTPClient{
		base:      base,
		client:    http.DefaultClient,
		headers:   map[string]string{},
		timeout:   defaultTimeout,
		branch:    defaultBranch,
		requestID: uuid.NewString,
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// FetchObjectSchema loads the full schema of branch.
func (c *HTTPClient) FetchObjectSchema(ctx context.Context, branch string) (schema.Bundle, error) {
	raw, err := c.do(ctx, http.MethodGet, c.endpoint("/api/schema", c.branchName(branch)), nil)
	if err != nil {
		return schema.Bundle{}, err
	}
	bundle, err := schema.ParseBundle(raw, schema.FormatJSON)
	if err != nil {
		return schema.Bundle{}, fmt.Errorf("fetch: decode schema: %w", err)
	}
	return bundle, nil
}

// FetchSchemaSummaryHash loads the schema revision hash of branch.
func (c *HTTPClient) FetchSchemaSummaryHash(ctx context.Context, branch string) (string, error) {
	raw, err := c.do(ctx, http.MethodGet, c.endpoint("/api/schema/summary", c.branchName(branch)), nil)
	if err != nil {
		return "", err
	}
	var summary struct {
		Main string `json:"main"`
		Hash string `json:"hash"`
	}
	if err := json.Unmarshal(raw, &summary); err != nil {
		return "", fmt.Errorf("fetch: decode schema summary: %w", err)
	}
	if summary.Main != "" {
		return summary.Main, nil
	}
	return summary.Hash, nil
}

// FetchObjectByKindAndID loads one object of s with its attribute cells and
// relationship edges.
func (c *HTTPClient) FetchObjectByKindAndID(ctx context.Context, s schema.ObjectSchema, id, branch string) (fieldvalue.RawObject, error) {
	if s.Kind == "" || id == "" {
		return nil, errors.New("fetch: kind and id are required")
	}
	data, err := c.graphql(ctx, branch, objectQuery(s), map[string]any{"ids": []string{id}})
	if err != nil {
		return nil, err
	}
	nodes, err := edgeNodes(data, s.Kind)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, s.Kind, id)
	}
	return fieldvalue.RawObject(nodes[0]), nil
}

// FetchPeerOptions lists every node of peer.
func (c *HTTPClient) FetchPeerOptions(ctx context.Context, peer, branch string) ([]fieldvalue.Peer, error) {
	if peer == "" {
		return nil, errors.New("fetch: peer is required")
	}
	data, err := c.graphql(ctx, branch, peerQuery(peer), nil)
	if err != nil {
		return nil, err
	}
	nodes, err := edgeNodes(data, peer)
	if err != nil {
		return nil, err
	}
	edges := make([]any, 0, len(nodes))
	for _, node := range nodes {
		edges = append(edges, node)
	}
	return fieldvalue.NormalizeRelationship(edges, schema.CardinalityMany).Peers, nil
}

// GraphQLError carries the error messages of a GraphQL response.
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	return "fetch: graphql: " + strings.Join(e.Messages, "; ")
}

func (c *HTTPClient) graphql(ctx context.Context, branch, query string, variables map[string]any) (map[string]any, error) {
	body, err := json.Marshal(map[string]any{"query": query, "variables": variables})
	if err != nil {
		return nil, fmt.Errorf("fetch: encode query: %w", err)
	}
	endpoint := c.base.JoinPath("graphql", c.branchName(branch)).String()
	raw, err := c.do(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Data   map[string]any `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("fetch: decode graphql response: %w", err)
	}
	if len(resp.Errors) > 0 {
		gqlErr := &GraphQLError{}
		for _, e := range resp.Errors {
			gqlErr.Messages = append(gqlErr.Messages, e.Message)
		}
		return nil, gqlErr
	}
	return resp.Data, nil
}

func (c *HTTPClient) do(ctx context.Context, method, endpoint string, body []byte) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("fetch: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for name, value := range c.headers {
		req.Header.Set(name, value)
	}
	reqID := c.requestID()
	req.Header.Set(headerRequestID, reqID)

	glog.V(2).Infof("[fetch] %s %s id=%s", method, endpoint, reqID)
	resp, err := c.client.Do(req)
	if err != nil {
		glog.Warningf("[fetch] %s %s id=%s: %v", method, endpoint, reqID, err)
		return nil, fmt.Errorf("fetch: %s %s: %w", method, endpoint, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch: read response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, endpoint)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		glog.Warningf("[fetch] %s %s id=%s: status %s", method, endpoint, reqID, resp.Status)
		return nil, fmt.Errorf("fetch: %s %s: unexpected status %s", method, endpoint, resp.Status)
	}
	return raw, nil
}

func (c *HTTPClient) endpoint(path, branch string) string {
	u := c.base.JoinPath(path)
	q := u.Query()
	q.Set("branch", branch)
	u.RawQuery = q.Encode()
	return u.String()
}

func (c *HTTPClient) branchName(branch string) string {
	if branch == "" {
		return c.branch
	}
	return branch
}

// edgeNodes extracts data[root].edges[*].node.
func edgeNodes(data map[string]any, root string) ([]map[string]any, error) {
	container, ok := data[root].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("fetch: response has no %q field", root)
	}
	edges, _ := container["edges"].([]any)
	out := make([]map[string]any, 0, len(edges))
	for _, edge := range edges {
		cell, ok := edge.(map[string]any)
		if !ok {
			continue
		}
		if node, ok := cell["node"].(map[string]any); ok {
			out = append(out, node)
		}
	}
	return out, nil
}
