package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const maxErrorBody = 4 << 10

// endpoint holds the base URL and the client used to reach it
type endpoint struct {
	base *url.URL
	http *http.Client
}

func newEndpoint(baseURL string, httpClient *http.Client) (endpoint, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return endpoint{}, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return endpoint{}, fmt.Errorf("invalid base url %q: scheme and host are required", baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return endpoint{base: base, http: httpClient}, nil
}

// call sends in as JSON (when non-nil) and decodes the response into out (when non-nil)
func (e endpoint) call(ctx context.Context, method, path string, query url.Values, in, out any, header http.Header) error {
	ref := &url.URL{Path: strings.TrimPrefix(path, "/")}
	if len(query) > 0 {
		ref.RawQuery = query.Encode()
	}
	target := e.base.ResolveReference(ref)

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method:     method,
			Path:       target.Path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, target.Path, err)
	}
	return nil
}
