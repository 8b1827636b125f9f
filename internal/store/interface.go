package store

import (
	"context"
	"errors"
	"time"

	"blogfront/internal/model"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is a cache miss.
	ErrNotFound = errors.New("cache entry not found")
	// ErrQueueEmpty is returned by PopQueue when no job arrived in time.
	ErrQueueEmpty = errors.New("invalidation queue empty")
)

// Cache holds CMS responses for one generation. Invalidate starts a new
// generation; entries of older ones are never read again and expire on
// their TTL.
type Cache interface {
	GetPage(ctx context.Context, q model.ListQuery) (*model.ListResponse, error)
	SavePage(ctx context.Context, q model.ListQuery, resp *model.ListResponse) error
	GetArticle(ctx context.Context, id string) (*model.RawArticle, error)
	SaveArticle(ctx context.Context, article *model.RawArticle) error
	Invalidate(ctx context.Context) (int64, error)
}

// Queue carries invalidation jobs from the webhook to the worker.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	PopQueue(ctx context.Context) (Job, error)
}

// Job asks the worker to drop the cache. ContentID is the CMS record the
// webhook was about, if any.
type Job struct {
	ID        uuid.UUID `json:"id"`
	Reason    string    `json:"reason"`
	ContentID string    `json:"contentId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewJob(reason, contentID string) Job {
	return Job{
		ID:        uuid.New(),
		Reason:    reason,
		ContentID: contentID,
		CreatedAt: time.Now().UTC(),
	}
}
