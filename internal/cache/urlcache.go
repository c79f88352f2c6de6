// Package cache memoizes resolved render playback URLs. The external
// renderer hands out time-limited URLs, so entries are only trusted for a
// TTL and a stale entry is treated as a plain miss.
package cache

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/videoremix/api/internal/model"
)

// StatusPoller is the slice of the render client the cache needs.
type StatusPoller interface {
	Poll(ctx context.Context, renderID string) (*model.RenderStatus, error)
}

// Resolution sources
const (
	SourceCache    = "cache"
	SourceUpstream = "upstream"
)

// Resolution is a successfully resolved playback URL, tagged with where it
// came from.
type Resolution struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

type entry struct {
	url        string
	observedAt time.Time
}

// RenderURLCache is a read-through, write-on-terminal cache keyed by render
// identifier. It never holds an entry for a render that has not reached
// done. Concurrent resolves for one key may race to populate it; both would
// write an equivalent fresh terminal URL, so last write wins harmlessly.
type RenderURLCache struct {
	poller StatusPoller
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]entry
}

func NewRenderURLCache(poller StatusPoller, ttl time.Duration) *RenderURLCache {
	return &RenderURLCache{
		poller:  poller,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

// Resolve returns a playback URL for a render identifier. A valid cached
// entry is served directly; otherwise the upstream renderer is polled, and
// only a done status with a URL is cached. Anything non-terminal yields
// NotReadyError.
func (c *RenderURLCache) Resolve(ctx context.Context, renderID string) (*Resolution, error) {
	c.mu.Lock()
	cached, ok := c.entries[renderID]
	c.mu.Unlock()

	if ok && c.now().Sub(cached.observedAt) < c.ttl {
		return &Resolution{URL: cached.url, Source: SourceCache}, nil
	}

	status, err := c.poller.Poll(ctx, renderID)
	if err != nil {
		return nil, err
	}

	if status.State == model.RenderDone && status.URL != "" {
		c.mu.Lock()
		c.entries[renderID] = entry{url: status.URL, observedAt: c.now()}
		c.mu.Unlock()

		log.Printf("[URL cache] Fresh URL for render %s", renderID)
		return &Resolution{URL: status.URL, Source: SourceUpstream}, nil
	}

	return nil, &model.NotReadyError{Status: status.State}
}
