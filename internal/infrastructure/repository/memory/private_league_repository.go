package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/prediksibola/predictor-league/internal/domain/privateleague"
)

type PrivateLeagueRepository struct {
	mu     sync.RWMutex
	items  map[string]privateleague.League
	orders []string
}

func NewPrivateLeagueRepository() *PrivateLeagueRepository {
	return &PrivateLeagueRepository{
		items: map[string]privateleague.League{},
	}
}

func (r *PrivateLeagueRepository) GetByID(_ context.Context, id string) (privateleague.League, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.items[id]
	if !ok {
		return privateleague.League{}, false, nil
	}
	return l, true, nil
}

func (r *PrivateLeagueRepository) GetByCode(_ context.Context, code string) (privateleague.League, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	code = strings.ToUpper(strings.TrimSpace(code))
	for _, id := range r.orders {
		if r.items[id].Code == code {
			return r.items[id], true, nil
		}
	}
	return privateleague.League{}, false, nil
}

func (r *PrivateLeagueRepository) ListByUser(_ context.Context, userID string) ([]privateleague.League, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]privateleague.League, 0)
	for _, id := range r.orders {
		if r.items[id].HasManager(userID) {
			out = append(out, r.items[id])
		}
	}
	return out, nil
}

func (r *PrivateLeagueRepository) Insert(_ context.Context, l privateleague.League) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[l.ID]; !exists {
		r.orders = append(r.orders, l.ID)
	}
	r.items[l.ID] = l
	return nil
}

func (r *PrivateLeagueRepository) Replace(_ context.Context, l privateleague.League) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[l.ID]; !exists {
		r.orders = append(r.orders, l.ID)
	}
	r.items[l.ID] = l
	return nil
}

func (r *PrivateLeagueRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[id]; !exists {
		return nil
	}
	delete(r.items, id)
	for i, storedID := range r.orders {
		if storedID == id {
			r.orders = append(r.orders[:i], r.orders[i+1:]...)
			break
		}
	}
	return nil
}
