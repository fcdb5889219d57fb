package memory

import (
	"context"
	"sort"
	"sync"

	"userhub/internal/domain/user"
)

// UsersRepo is the in-process credential store used by tests. It enforces the
// same name-uniqueness invariant the database constraint does.
type UsersRepo struct {
	mu     sync.RWMutex
	items  map[int64]user.User
	nextID int64
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items:  make(map[int64]user.User),
		nextID: 1,
	}
}

func (r *UsersRepo) Create(_ context.Context, u user.User) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.Name == u.Name {
			return user.User{}, user.ErrDuplicateName
		}
	}

	u.ID = r.nextID
	r.nextID++
	r.items[u.ID] = u

	return u, nil
}

func (r *UsersRepo) GetByName(_ context.Context, name string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.items {
		if u.Name == name {
			return u, nil
		}
	}

	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) GetByID(_ context.Context, id int64) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[id]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

func (r *UsersRepo) UpdateByID(_ context.Context, u user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[u.ID]; !ok {
		return user.ErrNotFound
	}

	for id, existing := range r.items {
		if id != u.ID && existing.Name == u.Name {
			return user.ErrDuplicateName
		}
	}

	r.items[u.ID] = u
	return nil
}

func (r *UsersRepo) DeleteByID(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return user.ErrNotFound
	}

	delete(r.items, id)
	return nil
}

func (r *UsersRepo) ListPage(_ context.Context, pageNum, pageSize int) ([]user.User, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]user.User, 0, len(r.items))

	for _, u := range r.items {
		all = append(all, u)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	total := int64(len(all))
	start := (pageNum - 1) * pageSize

	if start >= len(all) {
		return []user.User{}, total, nil
	}

	end := start + pageSize

	if end > len(all) {
		end = len(all)
	}

	return all[start:end], total, nil
}
