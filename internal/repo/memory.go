package repo

import (
	"context"
	"sort"
	"sync"
)

type memUser struct {
	id       int
	email    string
	password string
}

// MemoryRepository keeps users and history in process. Used when no database is configured.
type MemoryRepository struct {
	mu     sync.RWMutex
	users  map[string]memUser
	calcs  map[int][]Record
	lastID int
}

func NewMemory() *MemoryRepository {
	return &MemoryRepository{
		users: make(map[string]memUser),
		calcs: make(map[int][]Record),
	}
}

func (r *MemoryRepository) CreateUser(_ context.Context, login, email, password string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[login]; ok {
		return 0, ErrUserExists
	}
	r.lastID++
	r.users[login] = memUser{id: r.lastID, email: email, password: password}
	return r.lastID, nil
}

func (r *MemoryRepository) GetByLogin(_ context.Context, login string) (int, string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[login]
	if !ok {
		return 0, "", ErrNotFound
	}
	return u.id, u.password, nil
}

func (r *MemoryRepository) SaveCalculation(_ context.Context, userID int, rec Record) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastID++
	rec.ID = r.lastID
	r.calcs[userID] = append(r.calcs[userID], rec)
	return rec.ID, nil
}

func (r *MemoryRepository) ListCalculations(_ context.Context, userID, limit int) ([]Record, error) {
	r.mu.RLock()
	src := r.calcs[userID]
	out := make([]Record, len(src))
	copy(out, src)
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
