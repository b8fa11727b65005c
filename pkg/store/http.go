// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-nixstore.
//
// go-nixstore is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultHTTPTimeout bounds every substituter call so an unresponsive
// peer cannot hang a verification run.
const DefaultHTTPTimeout = 30 * time.Second

// HTTPStore queries a remote store over its JSON API. It is read-only
// and safe for concurrent use.
type HTTPStore struct {
	baseURL string
	client  *http.Client
}

// HTTPOptions configures an HTTPStore.
type HTTPOptions struct {
	// Timeout bounds each request. Defaults to DefaultHTTPTimeout.
	Timeout time.Duration

	// Client overrides the HTTP client entirely. Timeout is ignored
	// when set.
	Client *http.Client
}

// OpenHTTP opens a remote store at the given http(s) base URL.
func OpenHTTP(baseURL string, opts *HTTPOptions) (*HTTPStore, error) {
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, baseURL)
	}

	client := &http.Client{Timeout: DefaultHTTPTimeout}
	if opts != nil {
		if opts.Timeout > 0 {
			client.Timeout = opts.Timeout
		}
		if opts.Client != nil {
			client = opts.Client
		}
	}
	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}, nil
}

// URI returns the store's base URL.
func (s *HTTPStore) URI() string {
	return s.baseURL
}

func (s *HTTPStore) entryURL(id string, suffix string) string {
	return s.baseURL + "/api/v1/entries/" + url.PathEscape(id) + suffix
}

func (s *HTTPStore) do(ctx context.Context, method, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("store: request to %s failed: %w", s.baseURL, err)
	}
	return resp, nil
}

// QueryMetadata fetches the entry's metadata record.
func (s *HTTPStore) QueryMetadata(ctx context.Context, id string) (*EntryInfo, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	resp, err := s.do(ctx, http.MethodGet, s.entryURL(id, ""))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("store: %s returned status %d for %q", s.baseURL, resp.StatusCode, id)
	}

	var info EntryInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("store: decoding metadata for %q: %w", id, err)
	}
	return &info, nil
}

// StreamContent opens a streaming read of the entry's content.
func (s *HTTPStore) StreamContent(ctx context.Context, id string) (io.ReadCloser, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	resp, err := s.do(ctx, http.MethodGet, s.entryURL(id, "/content"))
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return resp.Body, nil
	case http.StatusNotFound:
		resp.Body.Close()
		return nil, ErrNotFound
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("store: %s returned status %d for %q", s.baseURL, resp.StatusCode, id)
	}
}

// Exists issues a HEAD request for the entry's metadata.
func (s *HTTPStore) Exists(ctx context.Context, id string) (bool, error) {
	if err := validateID(id); err != nil {
		return false, err
	}

	resp, err := s.do(ctx, http.MethodHead, s.entryURL(id, ""))
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("store: %s returned status %d for %q", s.baseURL, resp.StatusCode, id)
	}
}

// List fetches the ids of all entries in the remote store.
func (s *HTTPStore) List(ctx context.Context) ([]string, error) {
	resp, err := s.do(ctx, http.MethodGet, s.baseURL+"/api/v1/entries")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("store: %s returned status %d listing entries", s.baseURL, resp.StatusCode)
	}

	var ids []string
	if err := json.NewDecoder(resp.Body).Decode(&ids); err != nil {
		return nil, fmt.Errorf("store: decoding entry list: %w", err)
	}
	return ids, nil
}

// Close is a no-op; the HTTP client holds no per-store resources.
func (s *HTTPStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}
