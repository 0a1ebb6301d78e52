package user

import "context"

// Repository persists user aggregates. Lookups return found=false rather than
// an error when the user does not exist.
type Repository interface {
	GetByID(ctx context.Context, id string) (User, bool, error)
	GetByEmail(ctx context.Context, email string) (User, bool, error)
	List(ctx context.Context) ([]User, error)
	Insert(ctx context.Context, u User) error
	UpdateProfile(ctx context.Context, u User) error
	UpdatePredictions(ctx context.Context, id string, predictions Predictions) error
	UpdateSeasonPredictions(ctx context.Context, id string, sp SeasonPredictions) error
	UpdatePoints(ctx context.Context, id string, points Points) error
}
