package content

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"blogfront/internal/model"
)

// Source is the paginated content API. The CMS client and the caching
// decorator in internal/store both satisfy it.
type Source interface {
	List(ctx context.Context, q model.ListQuery) (*model.ListResponse, error)
	Get(ctx context.Context, id string) (*model.RawArticle, error)
}
