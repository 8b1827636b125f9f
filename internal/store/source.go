package store

import (
	"context"
	"errors"

	"blogfront/internal/model"

	"go.uber.org/zap"
)

// Source is the upstream the cache reads through to.
type Source interface {
	List(ctx context.Context, q model.ListQuery) (*model.ListResponse, error)
	Get(ctx context.Context, id string) (*model.RawArticle, error)
}

// CachingSource serves List and Get from the cache and falls back to the
// upstream on a miss. Cache failures are logged and never fail a request.
// Upstream errors, not-found included, are returned uncached.
type CachingSource struct {
	src    Source
	cache  Cache
	logger *zap.Logger
}

func NewCachingSource(src Source, cache Cache, logger *zap.Logger) *CachingSource {
	return &CachingSource{
		src:    src,
		cache:  cache,
		logger: logger.With(zap.String("component", "cache")),
	}
}

func (c *CachingSource) List(ctx context.Context, q model.ListQuery) (*model.ListResponse, error) {
	resp, err := c.cache.GetPage(ctx, q)
	if err == nil {
		c.logger.Debug("page hit", zap.Int("offset", q.Offset))
		return resp, nil
	}
	c.logMiss(err, zap.Int("offset", q.Offset))

	resp, err = c.src.List(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := c.cache.SavePage(ctx, q, resp); err != nil {
		c.logger.Warn("failed to cache page", zap.Int("offset", q.Offset), zap.Error(err))
	}
	return resp, nil
}

func (c *CachingSource) Get(ctx context.Context, id string) (*model.RawArticle, error) {
	article, err := c.cache.GetArticle(ctx, id)
	if err == nil {
		c.logger.Debug("article hit", zap.String("id", id))
		return article, nil
	}
	c.logMiss(err, zap.String("id", id))

	article, err = c.src.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.cache.SaveArticle(ctx, article); err != nil {
		c.logger.Warn("failed to cache article", zap.String("id", id), zap.Error(err))
	}
	return article, nil
}

func (c *CachingSource) logMiss(err error, field zap.Field) {
	if errors.Is(err, ErrNotFound) {
		c.logger.Debug("cache miss", field)
		return
	}
	c.logger.Warn("cache read failed", field, zap.Error(err))
}
