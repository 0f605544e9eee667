// Package template fetches view markup fragments and caches them for the
// lifetime of the process; a fragment is requested at most once per URL.
package template

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-resty/resty/v2"
)

// Cache is a fetch-once markup cache keyed by URL.
type Cache struct {
	mu        sync.Mutex
	client    *resty.Client
	fragments map[string]string
}

// New creates an empty cache on top of a configured resty client.
func New(client *resty.Client) *Cache {
	return &Cache{
		client:    client,
		fragments: make(map[string]string),
	}
}

// Get returns the fragment at url, fetching it on first use. Fetch
// failures are not cached; the next Get retries.
func (c *Cache) Get(ctx context.Context, url string) (string, error) {
	c.mu.Lock()
	if fragment, ok := c.fragments[url]; ok {
		c.mu.Unlock()
		return fragment, nil
	}
	c.mu.Unlock()

	resp, err := c.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", fmt.Errorf("fetch template %q: %w", url, err)
	}
	if !resp.IsSuccess() {
		return "", fmt.Errorf("fetch template %q: backend returned %s", url, resp.Status())
	}
	fragment := string(resp.Body())

	c.mu.Lock()
	c.fragments[url] = fragment
	c.mu.Unlock()
	return fragment, nil
}

// Len reports how many fragments are cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.fragments)
}
