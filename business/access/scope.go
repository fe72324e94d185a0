// Package access resolves what a verified principal may see and act on.
//
// Every decision fails closed: an unknown role, or a principal missing the
// ancestry id its role anchors on, resolves to a predicate matching nothing.
package access

import (
	"context"
	"fmt"

	"borlette/domain"
)

// Supervisor1Lister resolves the supervisor1 ids owned by a supervisor2.
type Supervisor1Lister interface {
	ListSupervisor1IDs(ctx context.Context, supervisor2ID uint) ([]uint, error)
}

type Resolver struct {
	supervisors Supervisor1Lister
}

func NewResolver(supervisors Supervisor1Lister) *Resolver {
	return &Resolver{supervisors: supervisors}
}

// TicketScope returns the ticket rows p may read or act on.
func TicketScope(p domain.Principal) domain.Predicate {
	switch p.Role {
	case domain.RoleMaster:
		return domain.AllRows()
	case domain.RoleSubsystem:
		return domain.ColumnEquals(domain.ScopeSubsystemID, p.SubsystemID)
	case domain.RoleSupervisor2:
		return domain.ColumnEquals(domain.ScopeSupervisor2ID, p.ID)
	case domain.RoleSupervisor1:
		return domain.ColumnEquals(domain.ScopeSupervisor1ID, p.ID)
	case domain.RoleAgent:
		return domain.ColumnEquals(domain.ScopeAgentID, p.ID)
	default:
		return domain.NoRows()
	}
}

// AgentScope returns the agent rows p may list. A supervisor2 resolves its
// supervisor1 ids first and then restricts agents to that set.
func (r *Resolver) AgentScope(ctx context.Context, p domain.Principal) (domain.Predicate, error) {
	switch p.Role {
	case domain.RoleMaster:
		return domain.AllRows(), nil
	case domain.RoleSubsystem:
		return domain.ColumnEquals(domain.ScopeSubsystemID, p.SubsystemID), nil
	case domain.RoleSupervisor2:
		if p.ID == 0 {
			return domain.NoRows(), nil
		}
		ids, err := r.supervisors.ListSupervisor1IDs(ctx, p.ID)
		if err != nil {
			return domain.NoRows(), fmt.Errorf("resolve supervisor1 ids: %w", err)
		}
		return domain.ColumnIn(domain.ScopeSupervisor1ID, ids), nil
	case domain.RoleSupervisor1:
		return domain.ColumnEquals(domain.ScopeSupervisor1ID, p.ID), nil
	case domain.RoleAgent:
		return domain.NoRows(), &domain.PermissionError{Message: "agents cannot list agents"}
	default:
		return domain.NoRows(), nil
	}
}

// CanValidate reports whether p may move t from pending to validated.
// Agents never can, their own tickets included.
func CanValidate(p domain.Principal, t domain.Ticket) bool {
	if !p.Role.IsSupervisor() {
		return false
	}
	return TicketScope(p).MatchesTicket(t)
}

// CanManage reports whether p may administer principals of role target:
// each role manages the role directly below it, master manages all.
func CanManage(p domain.Principal, target domain.Role) bool {
	if !target.Valid() {
		return false
	}
	switch p.Role {
	case domain.RoleMaster:
		return true
	case domain.RoleSubsystem, domain.RoleSupervisor2, domain.RoleSupervisor1:
		return target.Parent() == p.Role
	default:
		return false
	}
}
