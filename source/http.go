// Package source provides authoritative-source clients for the read-through
// fallback protocol.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout bounds a single fetch so a hung source degrades to
// "unavailable" instead of hanging the caller.
const DefaultTimeout = 30 * time.Second

type Config struct {
	BaseURL  string        // e.g. "https://api.internal.example"
	Resource string        // path segment, e.g. "products"
	Token    string        // bearer token; empty disables the Authorization header
	Timeout  time.Duration // per-fetch bound; 0 => DefaultTimeout
	Client   *http.Client  // optional; a plain client is used when nil
}

// HTTP fetches records from a REST endpoint: GET {base}/{resource}/{id}
// with bearer-token authorization, decoding the JSON body into V. A 404
// answer means the record authoritatively does not exist.
type HTTP[V any] struct {
	base     *url.URL
	resource string
	token    string
	timeout  time.Duration
	client   *http.Client
}

func NewHTTP[V any](cfg Config) (*HTTP[V], error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("source: base URL is required")
	}
	if cfg.Resource == "" {
		return nil, errors.New("source: resource is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("source: parse base URL: %w", err)
	}
	h := &HTTP[V]{
		base:     base,
		resource: cfg.Resource,
		token:    cfg.Token,
		timeout:  cfg.Timeout,
		client:   cfg.Client,
	}
	if h.timeout <= 0 {
		h.timeout = DefaultTimeout
	}
	if h.client == nil {
		h.client = &http.Client{}
	}
	return h, nil
}

func (h *HTTP[V]) FetchByID(ctx context.Context, id string) (V, bool, error) {
	var zero V
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	u := h.base.JoinPath(h.resource, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return zero, false, err
	}
	req.Header.Set("Accept", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return zero, false, err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body) // keep the connection reusable
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return zero, false, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return zero, false, fmt.Errorf("source: GET %s: unexpected status %s", u.Path, resp.Status)
	}

	var v V
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return zero, false, fmt.Errorf("source: decode %s response: %w", u.Path, err)
	}
	return v, true, nil
}
