package documents

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// HTTPFetcher downloads documents from a fixed location over HTTP.
type HTTPFetcher struct {
	baseURL string
	client  *http.Client
}

// NewHTTPFetcher returns a fetcher resolving filenames against baseURL.
func NewHTTPFetcher(baseURL string) *HTTPFetcher {
	return &HTTPFetcher{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

func (f *HTTPFetcher) location(doc Document) (string, error) {
	if doc.URL != "" {
		return doc.URL, nil
	}
	if f.baseURL == "" {
		return "", fmt.Errorf("document %s has no url and no base url is configured", doc.ID)
	}
	return url.JoinPath(f.baseURL, doc.Filename)
}

// Fetch GETs the document. Any non-2xx response is an error.
func (f *HTTPFetcher) Fetch(ctx context.Context, doc Document) (*Blob, error) {
	loc, err := f.location(doc)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, loc, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", doc.ID, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", doc.ID, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("fetching %s: upstream returned status %d", doc.ID, resp.StatusCode)
	}
	return &Blob{
		Body:        resp.Body,
		Size:        resp.ContentLength,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}
