// Package memory holds mutex-guarded repositories for local runs and tests.
// They honour the same contracts as the postgres repositories, including
// scope predicates and the conditional validate transition.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"borlette/domain"
)

type PrincipalRepository struct {
	mu     sync.RWMutex
	rows   map[domain.Role]map[uint]domain.Principal
	nextID map[domain.Role]uint
	now    func() time.Time
}

func NewPrincipalRepository() *PrincipalRepository {
	return &PrincipalRepository{
		rows:   make(map[domain.Role]map[uint]domain.Principal),
		nextID: make(map[domain.Role]uint),
		now:    time.Now,
	}
}

func (r *PrincipalRepository) Create(_ context.Context, p *domain.Principal) error {
	if _, err := domain.PrincipalTable(p.Role); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.rows[p.Role] {
		if existing.Username == p.Username {
			return &domain.ConflictError{Message: fmt.Sprintf("%s username %q already exists", p.Role, p.Username)}
		}
	}

	if r.rows[p.Role] == nil {
		r.rows[p.Role] = make(map[uint]domain.Principal)
	}
	r.nextID[p.Role]++
	p.ID = r.nextID[p.Role]
	now := r.now()
	p.CreatedAt, p.UpdatedAt = now, now
	r.rows[p.Role][p.ID] = *p
	return nil
}

func (r *PrincipalRepository) FindByUsername(_ context.Context, role domain.Role, username string) (domain.Principal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.rows[role] {
		if p.Username == username {
			return p, nil
		}
	}
	return domain.Principal{}, &domain.NotFoundError{Entity: role.String(), ID: username}
}

func (r *PrincipalRepository) FindByID(_ context.Context, role domain.Role, id uint) (domain.Principal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.rows[role][id]
	if !ok {
		return domain.Principal{}, &domain.NotFoundError{Entity: role.String(), ID: strconv.FormatUint(uint64(id), 10)}
	}
	return p, nil
}

func (r *PrincipalRepository) UpdateLastLogin(_ context.Context, role domain.Role, id uint, at time.Time) error {
	return r.mutate(role, id, func(p *domain.Principal) {
		p.LastLoginAt = &at
	})
}

func (r *PrincipalRepository) SetActive(_ context.Context, role domain.Role, id uint, active bool) error {
	return r.mutate(role, id, func(p *domain.Principal) {
		p.IsActive = active
		p.UpdatedAt = r.now()
	})
}

func (r *PrincipalRepository) UpdateAncestry(_ context.Context, role domain.Role, id uint, a domain.Ancestry) error {
	return r.mutate(role, id, func(p *domain.Principal) {
		p.Ancestry = a
		p.UpdatedAt = r.now()
	})
}

func (r *PrincipalRepository) mutate(role domain.Role, id uint, fn func(*domain.Principal)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.rows[role][id]
	if !ok {
		return &domain.NotFoundError{Entity: role.String(), ID: strconv.FormatUint(uint64(id), 10)}
	}
	fn(&p)
	r.rows[role][id] = p
	return nil
}

func (r *PrincipalRepository) ListAgents(_ context.Context, scope domain.Predicate) ([]domain.Principal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agents := []domain.Principal{}
	for _, p := range r.rows[domain.RoleAgent] {
		if scope.MatchesAgent(p) {
			agents = append(agents, p)
		}
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i].ID < agents[j].ID })
	return agents, nil
}

func (r *PrincipalRepository) ListSupervisor1IDs(_ context.Context, supervisor2ID uint) ([]uint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []uint
	for _, p := range r.rows[domain.RoleSupervisor1] {
		if p.Supervisor2ID == supervisor2ID {
			ids = append(ids, p.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *PrincipalRepository) Exists(_ context.Context, role domain.Role) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rows[role]) > 0, nil
}
