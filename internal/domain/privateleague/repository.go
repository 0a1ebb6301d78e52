package privateleague

import "context"

// Repository persists private leagues and their membership.
type Repository interface {
	GetByID(ctx context.Context, id string) (League, bool, error)
	GetByCode(ctx context.Context, code string) (League, bool, error)
	ListByUser(ctx context.Context, userID string) ([]League, error)
	Insert(ctx context.Context, l League) error
	Replace(ctx context.Context, l League) error
	Delete(ctx context.Context, id string) error
}
