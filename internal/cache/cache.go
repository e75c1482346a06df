// Package cache keeps public catalog pages in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/utsav306/farmconnect-sub000/internal/config"
	"github.com/utsav306/farmconnect-sub000/internal/models"
)

const (
	keyPrefix     = "farmconnect:products"
	generationKey = keyPrefix + ":generation"
)

// ProductCache stores catalog pages. Lookups never fail: a cache problem is
// a miss.
type ProductCache interface {
	GetPage(ctx context.Context, q models.ProductQuery) (*models.ProductPage, bool)
	SetPage(ctx context.Context, q models.ProductQuery, page models.ProductPage)
	// Invalidate makes every cached page unreachable.
	Invalidate(ctx context.Context)
}

// New connects to Redis when an address is configured and falls back to a
// no-op cache otherwise or when Redis cannot be reached.
func New(ctx context.Context, cfg config.Redis, log *zap.Logger) (ProductCache, func() error) {
	if cfg.Addr == "" {
		log.Info("Redis not configured, product cache disabled")
		return Nop{}, func() error { return nil }
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn("Redis unreachable, product cache disabled", zap.String("addr", cfg.Addr), zap.Error(err))
		_ = client.Close()
		return Nop{}, func() error { return nil }
	}

	return NewRedis(client, cfg.TTL, log), client.Close
}

type Redis struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewRedis(client *redis.Client, ttl time.Duration, log *zap.Logger) *Redis {
	return &Redis{client: client, ttl: ttl, log: log}
}

func (c *Redis) GetPage(ctx context.Context, q models.ProductQuery) (*models.ProductPage, bool) {
	gen, err := c.generation(ctx)
	if err != nil {
		c.log.Warn("Product cache generation lookup failed", zap.Error(err))
		return nil, false
	}

	raw, err := c.client.Get(ctx, pageKey(gen, q)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.log.Warn("Product cache read failed", zap.Error(err))
		return nil, false
	}

	var page models.ProductPage
	if err := json.Unmarshal(raw, &page); err != nil {
		c.log.Warn("Product cache entry is corrupt", zap.Error(err))
		return nil, false
	}
	return &page, true
}

func (c *Redis) SetPage(ctx context.Context, q models.ProductQuery, page models.ProductPage) {
	gen, err := c.generation(ctx)
	if err != nil {
		c.log.Warn("Product cache generation lookup failed", zap.Error(err))
		return
	}

	raw, err := json.Marshal(page)
	if err != nil {
		c.log.Warn("Failed to encode product page", zap.Error(err))
		return
	}

	if err := c.client.Set(ctx, pageKey(gen, q), raw, c.ttl).Err(); err != nil {
		c.log.Warn("Product cache write failed", zap.Error(err))
	}
}

// Invalidate bumps the generation counter. Old entries expire on their TTL.
func (c *Redis) Invalidate(ctx context.Context) {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		c.log.Warn("Product cache invalidation failed", zap.Error(err))
	}
}

func (c *Redis) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// pageKey is stable for equal normalized queries.
func pageKey(gen int64, q models.ProductQuery) string {
	q = q.Normalize()
	v := url.Values{}
	v.Set("category", strings.ToLower(q.Category))
	v.Set("search", q.Search)
	v.Set("sort", string(q.Sort))
	v.Set("limit", strconv.Itoa(q.Limit))
	v.Set("page", strconv.Itoa(q.Page))
	return fmt.Sprintf("%s:g%d:%s", keyPrefix, gen, v.Encode())
}

// Nop caches nothing.
type Nop struct{}

func (Nop) GetPage(context.Context, models.ProductQuery) (*models.ProductPage, bool) {
	return nil, false
}

func (Nop) SetPage(context.Context, models.ProductQuery, models.ProductPage) {}

func (Nop) Invalidate(context.Context) {}
