package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang/glog"
)

// maxSchemaBytes caps the size of a schema bundle read from a server.
const maxSchemaBytes = 64 << 20

// StatusError reports a schema endpoint that answered with a non-2xx status.
// Message carries the server's own error text when the body had one.
type StatusError struct {
	URL     string
	Code    int
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("schema loader: GET %s: %s", e.URL, e.Status)
	}
	return fmt.Sprintf("schema loader: GET %s: %s: %s", e.URL, e.Status, e.Message)
}

// loadHTTP downloads a schema bundle from the server's schema endpoint. url
// already carries the branch query; headers carry the API token and any
// other per-server credentials configured on the loader. The bundle is
// returned raw so the caller can sniff JSON, YAML or an OpenAPI document.
func loadHTTP(ctx context.Context, client *http.Client, url string, timeout time.Duration, headers map[string]string) ([]byte, error) {
	if client == nil {
		return nil, errors.New("schema loader: http client is not configured")
	}
	if url == "" {
		return nil, errors.New("schema loader: schema endpoint url is required")
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("schema loader: build request for %s: %w", url, err)
	}
	req.Header.Set("Accept", "application/json, application/yaml")
	for name, value := range headers {
		req.Header.Set(name, value)
	}

	started := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("schema loader: GET %s: %w", url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSchemaBytes+1))
	if err != nil {
		return nil, fmt.Errorf("schema loader: read schema from %s: %w", url, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{
			URL:     url,
			Code:    resp.StatusCode,
			Status:  resp.Status,
			Message: serverMessage(body),
		}
	}
	if len(body) > maxSchemaBytes {
		return nil, fmt.Errorf("schema loader: schema from %s exceeds %d bytes", url, maxSchemaBytes)
	}

	glog.V(2).Infof("[loader] fetched schema %s (%d bytes, %s)", url, len(body), time.Since(started).Round(time.Millisecond))
	return body, nil
}

// serverMessage extracts the error text of a failed schema request. The API
// reports failures as {"errors":[{"message":...}]}; anything else is used as
// plain text, truncated.
func serverMessage(body []byte) string {
	var payload struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if json.Unmarshal(body, &payload) == nil && len(payload.Errors) > 0 {
		messages := make([]string, 0, len(payload.Errors))
		for _, e := range payload.Errors {
			if e.Message != "" {
				messages = append(messages, e.Message)
			}
		}
		if len(messages) > 0 {
			return strings.Join(messages, "; ")
		}
	}

	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	return text
}
