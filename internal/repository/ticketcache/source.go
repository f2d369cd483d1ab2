// Package ticketcache caches tickets read from the ticket source in a key-value store.
package ticketcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/simdex/internal/db"
	"github.com/kailas-cloud/simdex/internal/domain"
	"github.com/kailas-cloud/simdex/internal/domain/document"
)

var (
	ticketKeyPrefix     = domain.KeyPrefix + "ticket:"
	candidatesKeyPrefix = domain.KeyPrefix + "candidates:"
)

// DefaultTTL bounds how stale a cached ticket may be.
const DefaultTTL = 5 * time.Minute

// store is the consumer interface for the ticket cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// source is the decorated ticket source.
type source interface {
	GetTicket(ctx context.Context, id int) (document.Document, error)
	ListTickets(ctx context.Context, limit int) ([]document.Document, error)
}

// CachedSource serves tickets and candidate lists from the store when fresh,
// falling through to the inner source otherwise. Store failures only cost a miss.
type CachedSource struct {
	inner      source
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with labels "kind" and "result" ("hit"/"miss"), passed explicitly.
func New(
	inner source,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedSource {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedSource{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

type record struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

func toRecord(d *document.Document) record {
	return record{ID: d.ID(), Title: d.Title(), Content: d.Content()}
}

func (r record) toDocument() document.Document {
	return document.New(r.ID, r.Title, r.Content)
}

// GetTicket returns a cached ticket or reads it from the inner source.
func (c *CachedSource) GetTicket(ctx context.Context, id int) (document.Document, error) {
	key := ticketKeyPrefix + strconv.Itoa(id)

	var rec record
	if c.load(ctx, key, &rec) {
		c.incCache("ticket", "hit")
		return rec.toDocument(), nil
	}
	c.incCache("ticket", "miss")

	doc, err := c.inner.GetTicket(ctx, id)
	if err != nil {
		return document.Document{}, fmt.Errorf("get ticket %d: %w", id, err)
	}
	c.save(ctx, key, toRecord(&doc))
	return doc, nil
}

// ListTickets returns a cached candidate list or reads it from the inner source.
func (c *CachedSource) ListTickets(ctx context.Context, limit int) ([]document.Document, error) {
	key := candidatesKeyPrefix + strconv.Itoa(limit)

	var recs []record
	if c.load(ctx, key, &recs) {
		c.incCache("candidates", "hit")
		docs := make([]document.Document, len(recs))
		for i, r := range recs {
			docs[i] = r.toDocument()
		}
		return docs, nil
	}
	c.incCache("candidates", "miss")

	docs, err := c.inner.ListTickets(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	recs = make([]record, len(docs))
	for i := range docs {
		recs[i] = toRecord(&docs[i])
	}
	c.save(ctx, key, recs)
	return docs, nil
}

func (c *CachedSource) incCache(kind, result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(kind, result).Inc()
	}
}

func (c *CachedSource) load(ctx context.Context, key string, dst any) bool {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached tickets", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if len(data) == 0 {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.logger.Warn("Failed to parse cached tickets", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *CachedSource) save(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("Failed to encode tickets for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache tickets", zap.String("key", key), zap.Error(err))
	}
}
