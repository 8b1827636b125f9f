package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"blogfront/internal/model"

	"github.com/dgraph-io/badger/v4"
	"github.com/redis/go-redis/v9"
)

const (
	generationKey = "cache:gen"
	queueKey      = "queue:invalidate"

	defaultTTL        = 5 * time.Minute
	defaultPopTimeout = 5 * time.Second
)

type Options struct {
	RedisAddr string
	// BadgerPath "" runs in Redis-only mode: bodies stay inline in Redis.
	BadgerPath string
	// InMemory opens Badger without a directory. Ignored when BadgerPath is set.
	InMemory   bool
	TTL        time.Duration
	PopTimeout time.Duration
}

// HybridStore keeps list pages and article metadata in Redis and article
// bodies in Badger.
type HybridStore struct {
	rdb        *redis.Client
	db         *badger.DB
	ttl        time.Duration
	popTimeout time.Duration
}

// page is what Redis holds for one list request. Articles are stored
// separately so a detail lookup can reuse them.
type page struct {
	IDs        []string `json:"ids"`
	TotalCount int      `json:"totalCount"`
	Offset     int      `json:"offset"`
	Limit      int      `json:"limit"`
}

func NewHybridStore(opts Options) (*HybridStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: opts.RedisAddr,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	var db *badger.DB
	if opts.BadgerPath != "" || opts.InMemory {
		bopts := badger.DefaultOptions(opts.BadgerPath)
		if opts.BadgerPath == "" {
			bopts = bopts.WithInMemory(true)
		}
		bopts.Logger = nil
		var err error
		db, err = badger.Open(bopts)
		if err != nil {
			rdb.Close()
			return nil, fmt.Errorf("failed to open badger: %w", err)
		}
	}

	s := &HybridStore{rdb: rdb, db: db, ttl: opts.TTL, popTimeout: opts.PopTimeout}
	if s.ttl <= 0 {
		s.ttl = defaultTTL
	}
	if s.popTimeout <= 0 {
		s.popTimeout = defaultPopTimeout
	}
	return s, nil
}

func (s *HybridStore) Close() {
	if s.rdb != nil {
		s.rdb.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
}

// Generation returns the current cache generation, 0 before the first
// invalidation.
func (s *HybridStore) Generation(ctx context.Context) (int64, error) {
	gen, err := s.rdb.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Invalidate bumps the generation and returns the new one.
func (s *HybridStore) Invalidate(ctx context.Context) (int64, error) {
	return s.rdb.Incr(ctx, generationKey).Result()
}

func pageKey(gen int64, q model.ListQuery) string {
	return fmt.Sprintf("gen:%d:page:%d:%d:%s", gen, q.Limit, q.Offset, q.Orders)
}

func articleKey(gen int64, id string) string {
	return fmt.Sprintf("gen:%d:article:%s", gen, id)
}

func bodyKey(gen int64, id string) []byte {
	return []byte(fmt.Sprintf("gen:%d:body:%s", gen, id))
}

// SavePage stores every article of resp plus the page record listing their ids.
func (s *HybridStore) SavePage(ctx context.Context, q model.ListQuery, resp *model.ListResponse) error {
	gen, err := s.Generation(ctx)
	if err != nil {
		return err
	}

	p := page{IDs: make([]string, 0, len(resp.Contents)), TotalCount: resp.TotalCount, Offset: resp.Offset, Limit: resp.Limit}
	for i := range resp.Contents {
		if err := s.saveArticle(ctx, gen, &resp.Contents[i]); err != nil {
			return err
		}
		p.IDs = append(p.IDs, resp.Contents[i].ID)
	}

	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, pageKey(gen, q), data, s.ttl).Err()
}

// GetPage rebuilds a cached page. A page whose articles have partly expired
// counts as a miss.
func (s *HybridStore) GetPage(ctx context.Context, q model.ListQuery) (*model.ListResponse, error) {
	gen, err := s.Generation(ctx)
	if err != nil {
		return nil, err
	}

	val, err := s.rdb.Get(ctx, pageKey(gen, q)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}

	var p page
	if err := json.Unmarshal(val, &p); err != nil {
		return nil, err
	}

	resp := &model.ListResponse{
		Contents:   make([]model.RawArticle, 0, len(p.IDs)),
		TotalCount: p.TotalCount,
		Offset:     p.Offset,
		Limit:      p.Limit,
	}
	for _, id := range p.IDs {
		article, err := s.getArticle(ctx, gen, id)
		if err != nil {
			return nil, err
		}
		resp.Contents = append(resp.Contents, *article)
	}
	return resp, nil
}

func (s *HybridStore) SaveArticle(ctx context.Context, article *model.RawArticle) error {
	gen, err := s.Generation(ctx)
	if err != nil {
		return err
	}
	return s.saveArticle(ctx, gen, article)
}

func (s *HybridStore) GetArticle(ctx context.Context, id string) (*model.RawArticle, error) {
	gen, err := s.Generation(ctx)
	if err != nil {
		return nil, err
	}
	return s.getArticle(ctx, gen, id)
}

// saveArticle writes metadata to Redis and the body to Badger. In
// Redis-only mode the body stays in the metadata record.
func (s *HybridStore) saveArticle(ctx context.Context, gen int64, article *model.RawArticle) error {
	meta := *article
	if s.db != nil {
		meta.Content = ""
		err := s.db.Update(func(txn *badger.Txn) error {
			e := badger.NewEntry(bodyKey(gen, article.ID), []byte(article.Content)).WithTTL(s.ttl)
			return txn.SetEntry(e)
		})
		if err != nil {
			return fmt.Errorf("save body %s: %w", article.ID, err)
		}
	}

	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, articleKey(gen, article.ID), data, s.ttl).Err()
}

func (s *HybridStore) getArticle(ctx context.Context, gen int64, id string) (*model.RawArticle, error) {
	val, err := s.rdb.Get(ctx, articleKey(gen, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, err
	}

	var article model.RawArticle
	if err := json.Unmarshal(val, &article); err != nil {
		return nil, err
	}

	if s.db != nil {
		err = s.db.View(func(txn *badger.Txn) error {
			item, err := txn.Get(bodyKey(gen, id))
			if err != nil {
				return err
			}
			return item.Value(func(val []byte) error {
				article.Content = string(val)
				return nil
			})
		})
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNotFound
		} else if err != nil {
			return nil, err
		}
	}

	return &article, nil
}

func (s *HybridStore) Enqueue(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.rdb.LPush(ctx, queueKey, data).Err()
}

// PopQueue blocks up to the pop timeout for the next job and returns
// ErrQueueEmpty if none arrived.
func (s *HybridStore) PopQueue(ctx context.Context) (Job, error) {
	result, err := s.rdb.BRPop(ctx, s.popTimeout, queueKey).Result()
	if errors.Is(err, redis.Nil) {
		return Job{}, ErrQueueEmpty
	} else if err != nil {
		return Job{}, err
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return Job{}, fmt.Errorf("decode job: %w", err)
	}
	return job, nil
}
