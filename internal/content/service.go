// Package content retrieves articles from the CMS and shapes them for the
// listing and detail pages.
package content

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"blogfront/internal/htmlproc"
	"blogfront/internal/model"
	"blogfront/internal/transform"

	"go.uber.org/zap"
)

// ErrIncompleteListing is returned when the CMS hands back an empty page
// before the reported total has been reached.
var ErrIncompleteListing = errors.New("listing ended before reported total")

const (
	defaultPageSize = 100
	orderNewest     = "-publishedAt"
)

type Config struct {
	PageSize int
	Sanitize bool
}

type Service struct {
	source      Source
	transformer transform.Transformer
	pageSize    int
	logger      *zap.Logger
}

// Listing is one walk of the article set with its category counts.
type Listing struct {
	Articles   []model.ListItem
	Categories []model.CategoryFilter
}

func NewService(source Source, cfg Config, logger *zap.Logger) *Service {
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	var tr transform.Transformer
	if cfg.Sanitize {
		tr.Sanitizer = htmlproc.NewSanitizer()
	}

	return &Service{
		source:      source,
		transformer: tr,
		pageSize:    pageSize,
		logger:      logger.With(zap.String("component", "content")),
	}
}

// FetchAll walks the list endpoint page by page, newest first, until the
// cumulative count reaches the total the CMS reports. Any page failure
// aborts the walk.
func (s *Service) FetchAll(ctx context.Context) ([]model.ListItem, error) {
	start := time.Now()

	var raws []model.RawArticle
	pages := 0
	for {
		q := model.ListQuery{Limit: s.pageSize, Offset: len(raws), Orders: orderNewest}

		resp, err := s.source.List(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("fetch page at offset %d: %w", q.Offset, err)
		}
		pages++

		raws = append(raws, resp.Contents...)
		s.logger.Debug("page fetched",
			zap.Int("offset", q.Offset),
			zap.Int("count", len(resp.Contents)),
			zap.Int("total", resp.TotalCount),
		)

		if len(raws) >= resp.TotalCount {
			break
		}
		if len(resp.Contents) == 0 {
			return nil, fmt.Errorf("%w: got %d of %d", ErrIncompleteListing, len(raws), resp.TotalCount)
		}
	}

	items := transform.ToListItems(raws)
	slices.SortStableFunc(items, func(a, b model.ListItem) int {
		return b.PublishedAt.Compare(a.PublishedAt)
	})

	s.logger.Info("listing fetched",
		zap.Int("articles", len(items)),
		zap.Int("pages", pages),
		zap.Duration("took", time.Since(start)),
	)
	return items, nil
}

// FetchOne loads the article identified by slug and attaches its neighbours
// in the newest-first listing. An article missing from the listing, such as
// an unpublished preview, gets no navigation.
func (s *Service) FetchOne(ctx context.Context, slug string) (*model.Detail, error) {
	raw, err := s.source.Get(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("fetch article %q: %w", slug, err)
	}

	items, err := s.FetchAll(ctx)
	if err != nil {
		return nil, err
	}

	index := slices.IndexFunc(items, func(item model.ListItem) bool {
		return item.Slug == slug
	})
	if index < 0 {
		s.logger.Debug("article not in listing", zap.String("slug", slug))
	}

	detail := s.transformer.ToDetail(*raw, transform.NavigationAt(items, index))
	return &detail, nil
}

// FetchCategoryCounts counts, for every category name, the articles that
// carry it.
func (s *Service) FetchCategoryCounts(ctx context.Context) ([]model.CategoryFilter, error) {
	items, err := s.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return CountCategories(items), nil
}

// FetchListing returns articles and category counts from a single walk.
func (s *Service) FetchListing(ctx context.Context) (*Listing, error) {
	items, err := s.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return &Listing{Articles: items, Categories: CountCategories(items)}, nil
}

// CountCategories folds items into per-name article counts. Filters are
// ordered by first appearance and an article naming a category twice is
// counted once.
func CountCategories(items []model.ListItem) []model.CategoryFilter {
	filters := []model.CategoryFilter{}
	index := make(map[string]int)

	for _, item := range items {
		seen := make(map[string]bool, len(item.CategoryNames))
		for _, name := range item.CategoryNames {
			if seen[name] {
				continue
			}
			seen[name] = true

			i, ok := index[name]
			if !ok {
				i = len(filters)
				index[name] = i
				filters = append(filters, model.CategoryFilter{ID: name, Name: name})
			}
			filters[i].Count++
		}
	}
	return filters
}
