package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/prediksibola/predictor-league/internal/domain/user"
)

type UserRepository struct {
	mu     sync.RWMutex
	items  map[string]user.User
	orders []string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		items: map[string]user.User{},
	}
}

func (r *UserRepository) GetByID(_ context.Context, id string) (user.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]
	if !ok {
		return user.User{}, false, nil
	}
	return u, true, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (user.User, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, id := range r.orders {
		if strings.EqualFold(r.items[id].Email, email) {
			return r.items[id], true, nil
		}
	}
	return user.User{}, false, nil
}

func (r *UserRepository) List(_ context.Context) ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]user.User, 0, len(r.orders))
	for _, id := range r.orders {
		out = append(out, r.items[id])
	}
	return out, nil
}

func (r *UserRepository) Insert(_ context.Context, u user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[u.ID]; !exists {
		r.orders = append(r.orders, u.ID)
	}
	r.items[u.ID] = u
	return nil
}

func (r *UserRepository) UpdateProfile(_ context.Context, u user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.items[u.ID]
	if !ok {
		return nil
	}
	stored.Name = u.Name
	stored.TeamName = u.TeamName
	stored.Picture = u.Picture
	stored.UpdatedAt = u.UpdatedAt
	r.items[u.ID] = stored
	return nil
}

func (r *UserRepository) UpdatePredictions(_ context.Context, id string, predictions user.Predictions) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.items[id]
	if !ok {
		return nil
	}
	stored.Predictions = predictions
	r.items[id] = stored
	return nil
}

func (r *UserRepository) UpdateSeasonPredictions(_ context.Context, id string, sp user.SeasonPredictions) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.items[id]
	if !ok {
		return nil
	}
	stored.SeasonPredictions = &sp
	r.items[id] = stored
	return nil
}

func (r *UserRepository) UpdatePoints(_ context.Context, id string, points user.Points) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.items[id]
	if !ok {
		return nil
	}
	stored.Points = &points
	r.items[id] = stored
	return nil
}
