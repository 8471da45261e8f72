package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/maxaizer/ipu-notifier/internal/entities"
	"github.com/maxaizer/ipu-notifier/internal/events"
	gocache "github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
)

type noticeFinder interface {
	Find(ctx context.Context, filter entities.NoticeFilter) ([]entities.Notice, error)
}

// CachedNotices keeps query results until the next ingestion commits new notices.
type CachedNotices struct {
	repo  noticeFinder
	cache *gocache.Cache

	// generation changes on every flush, a read started before a flush is not cached after it
	mu         sync.Mutex
	generation uint64
}

func NewCachedNotices(repo noticeFinder, bus EventBus.Bus) (*CachedNotices, error) {
	c := &CachedNotices{repo: repo, cache: gocache.New(10*time.Minute, 20*time.Minute)}
	if bus != nil {
		if err := bus.Subscribe(events.NoticesIngestedTopic, c.onNoticesIngested); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *CachedNotices) Find(ctx context.Context, filter entities.NoticeFilter) ([]entities.Notice, error) {
	key := cacheKey(filter)
	if value, found := c.cache.Get(key); found {
		return value.([]entities.Notice), nil
	}

	c.mu.Lock()
	generation := c.generation
	c.mu.Unlock()

	notices, err := c.repo.Find(ctx, filter)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if generation == c.generation {
		c.cache.Set(key, notices, gocache.DefaultExpiration)
	}
	c.mu.Unlock()
	return notices, nil
}

func (c *CachedNotices) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	c.cache.Flush()
}

func (c *CachedNotices) onNoticesIngested(event events.NoticesIngested) {
	c.Flush()
	log.Debugf("notices cache flushed after %d new notices", len(event.Notices))
}

func cacheKey(filter entities.NoticeFilter) string {
	return fmt.Sprintf("%q|%q|%d|%d", filter.Tags, filter.Text, filter.Limit, filter.Offset)
}
