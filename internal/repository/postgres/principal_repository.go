package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"borlette/domain"

	"gorm.io/gorm"
)

// PrincipalRepository reads and writes the role-partitioned principal tables.
type PrincipalRepository struct {
	DB *gorm.DB
}

func NewPrincipalRepository(db *gorm.DB) *PrincipalRepository {
	return &PrincipalRepository{
		DB: db,
	}
}

func (r *PrincipalRepository) table(ctx context.Context, role domain.Role) (*gorm.DB, error) {
	name, err := domain.PrincipalTable(role)
	if err != nil {
		return nil, err
	}
	return r.DB.WithContext(ctx).Table(name), nil
}

func (r *PrincipalRepository) Create(ctx context.Context, p *domain.Principal) error {
	tx, err := r.table(ctx, p.Role)
	if err != nil {
		return err
	}

	if err := tx.Create(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return &domain.ConflictError{Message: fmt.Sprintf("%s username %q already exists", p.Role, p.Username)}
		}
		return fmt.Errorf("failed to create %s: %w", p.Role, err)
	}

	return nil
}

func (r *PrincipalRepository) FindByUsername(ctx context.Context, role domain.Role, username string) (domain.Principal, error) {
	tx, err := r.table(ctx, role)
	if err != nil {
		return domain.Principal{}, err
	}

	var p domain.Principal
	if err := tx.Where("username = ?", username).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Principal{}, &domain.NotFoundError{Entity: role.String(), ID: username}
		}
		return domain.Principal{}, err
	}

	p.Role = role
	return p, nil
}

func (r *PrincipalRepository) FindByID(ctx context.Context, role domain.Role, id uint) (domain.Principal, error) {
	tx, err := r.table(ctx, role)
	if err != nil {
		return domain.Principal{}, err
	}

	var p domain.Principal
	if err := tx.Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Principal{}, &domain.NotFoundError{Entity: role.String(), ID: strconv.FormatUint(uint64(id), 10)}
		}
		return domain.Principal{}, err
	}

	p.Role = role
	return p, nil
}

func (r *PrincipalRepository) UpdateLastLogin(ctx context.Context, role domain.Role, id uint, at time.Time) error {
	return r.update(ctx, role, id, map[string]any{"last_login_at": at})
}

func (r *PrincipalRepository) SetActive(ctx context.Context, role domain.Role, id uint, active bool) error {
	return r.update(ctx, role, id, map[string]any{"is_active": active, "updated_at": time.Now()})
}

func (r *PrincipalRepository) UpdateAncestry(ctx context.Context, role domain.Role, id uint, a domain.Ancestry) error {
	return r.update(ctx, role, id, map[string]any{
		"supervisor1_id": a.Supervisor1ID,
		"supervisor2_id": a.Supervisor2ID,
		"subsystem_id":   a.SubsystemID,
		"updated_at":     time.Now(),
	})
}

func (r *PrincipalRepository) update(ctx context.Context, role domain.Role, id uint, values map[string]any) error {
	tx, err := r.table(ctx, role)
	if err != nil {
		return err
	}

	result := tx.Where("id = ?", id).Updates(values)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return &domain.NotFoundError{Entity: role.String(), ID: strconv.FormatUint(uint64(id), 10)}
	}

	return nil
}

// ListAgents returns the agent rows matching scope, ordered by id.
func (r *PrincipalRepository) ListAgents(ctx context.Context, scope domain.Predicate) ([]domain.Principal, error) {
	if scope.MatchesNothing() {
		return []domain.Principal{}, nil
	}

	tx, err := r.table(ctx, domain.RoleAgent)
	if err != nil {
		return nil, err
	}

	var agents []domain.Principal
	if err := applyAgentScope(tx, scope).Order("id").Find(&agents).Error; err != nil {
		return nil, err
	}

	for i := range agents {
		agents[i].Role = domain.RoleAgent
	}
	return agents, nil
}

// ListSupervisor1IDs resolves the first stage of a supervisor2's agent scope.
func (r *PrincipalRepository) ListSupervisor1IDs(ctx context.Context, supervisor2ID uint) ([]uint, error) {
	tx, err := r.table(ctx, domain.RoleSupervisor1)
	if err != nil {
		return nil, err
	}

	var ids []uint
	if err := tx.Where("supervisor2_id = ?", supervisor2ID).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}

	return ids, nil
}

func (r *PrincipalRepository) Exists(ctx context.Context, role domain.Role) (bool, error) {
	tx, err := r.table(ctx, role)
	if err != nil {
		return false, err
	}

	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

// applyAgentScope maps a predicate onto an agents query. On agent rows the
// agent_id column is the row's own id.
func applyAgentScope(tx *gorm.DB, scope domain.Predicate) *gorm.DB {
	if scope.Unrestricted() {
		return tx
	}
	column := string(scope.Column())
	if scope.Column() == domain.ScopeAgentID {
		column = "id"
	}
	return tx.Where(column+" IN ?", scope.IDs())
}
