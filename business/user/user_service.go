package user

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"borlette/business/access"
	"borlette/domain"
	"borlette/pkg/logger"
	"borlette/pkg/utils"

	"github.com/go-playground/validator/v10"
)

// PrincipalRepository contract interface
type PrincipalRepository interface {
	Create(ctx context.Context, p *domain.Principal) error
	FindByUsername(ctx context.Context, role domain.Role, username string) (domain.Principal, error)
	FindByID(ctx context.Context, role domain.Role, id uint) (domain.Principal, error)
	UpdateLastLogin(ctx context.Context, role domain.Role, id uint, at time.Time) error
	SetActive(ctx context.Context, role domain.Role, id uint, active bool) error
	UpdateAncestry(ctx context.Context, role domain.Role, id uint, a domain.Ancestry) error
	ListAgents(ctx context.Context, scope domain.Predicate) ([]domain.Principal, error)
	ListSupervisor1IDs(ctx context.Context, supervisor2ID uint) ([]uint, error)
	Exists(ctx context.Context, role domain.Role) (bool, error)
}

// TokenIssuer contract interface
type TokenIssuer interface {
	Issue(p domain.Principal) (string, time.Time, error)
	Verify(token string) (domain.Principal, error)
}

type Session struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	User      domain.Principal `json:"user"`
}

type userService struct {
	principals PrincipalRepository
	tokens     TokenIssuer
	resolver   *access.Resolver
	validate   *validator.Validate
	now        func() time.Time
}

// errInvalidCredentials is shared by every login failure so responses do
// not reveal which usernames exist.
const errInvalidCredentials = "invalid username or password"

func NewUserService(principals PrincipalRepository, tokens TokenIssuer, validate *validator.Validate) *userService {
	return &userService{
		principals: principals,
		tokens:     tokens,
		resolver:   access.NewResolver(principals),
		validate:   validate,
		now:        time.Now,
	}
}

func (s *userService) Login(ctx context.Context, username, password, userType string) (Session, error) {
	role, err := domain.ParseRole(userType)
	if err != nil {
		return Session{}, &domain.ValidationError{Field: "userType", Message: "unknown user type"}
	}

	p, err := s.principals.FindByUsername(ctx, role, strings.TrimSpace(username))
	if err != nil {
		var nf *domain.NotFoundError
		if errors.As(err, &nf) {
			logger.Warn("Login for unknown user", "username", username, "role", role.String())
			return Session{}, &domain.AuthError{Message: errInvalidCredentials}
		}
		logger.Error("Failed to look up user", err)
		return Session{}, err
	}

	if !utils.CheckPassword(password, p.Password) {
		logger.Warn("Login with wrong password", "username", username, "role", role.String())
		return Session{}, &domain.AuthError{Message: errInvalidCredentials}
	}

	if !p.IsActive {
		logger.Warn("Login for inactive user", "username", username, "role", role.String())
		return Session{}, &domain.AuthError{Message: errInvalidCredentials}
	}

	token, expiresAt, err := s.tokens.Issue(p)
	if err != nil {
		logger.Error("Failed to issue token", err)
		return Session{}, err
	}

	now := s.now()
	if err := s.principals.UpdateLastLogin(ctx, role, p.ID, now); err != nil {
		logger.Warn("Failed to record last login", "error", err)
	} else {
		p.LastLoginAt = &now
	}

	return Session{Token: token, ExpiresAt: expiresAt, User: sanitize(p)}, nil
}

func (s *userService) Verify(token string) (domain.Principal, error) {
	return s.tokens.Verify(token)
}

// CreatePrincipal creates a principal one level below the actor's reach.
// The parent must be visible to the actor, and the new row copies the
// parent's ancestry.
func (s *userService) CreatePrincipal(ctx context.Context, actor domain.Principal, draft domain.PrincipalDraft) (domain.Principal, error) {
	if !access.CanManage(actor, draft.Role) {
		return domain.Principal{}, &domain.PermissionError{Message: "cannot create " + draft.Role.String() + " accounts"}
	}

	draft.Username = strings.TrimSpace(draft.Username)
	if err := s.validate.Var(draft.Username, "required,alphanum,min=3,max=50"); err != nil {
		return domain.Principal{}, &domain.ValidationError{Field: "username", Message: "must be 3 to 50 letters or digits"}
	}
	if err := s.validate.Var(draft.Password, "required,min=6"); err != nil {
		return domain.Principal{}, &domain.ValidationError{Field: "password", Message: "must be at least 6 characters"}
	}

	ancestry, err := s.resolveAncestry(ctx, actor, draft)
	if err != nil {
		return domain.Principal{}, err
	}

	hash, err := utils.HashPassword(draft.Password)
	if err != nil {
		logger.Error("Failed to hash password", err)
		return domain.Principal{}, err
	}

	p := domain.Principal{
		Role:     draft.Role,
		Username: draft.Username,
		Password: string(hash),
		FullName: draft.FullName,
		Ancestry: ancestry,
		IsActive: true,
	}
	if err := s.principals.Create(ctx, &p); err != nil {
		logger.Error("Failed to create principal", err)
		return domain.Principal{}, err
	}

	logger.Info("Principal created", "role", p.Role.String(), "id", p.ID, "by", actor.ID)
	return sanitize(p), nil
}

func (s *userService) resolveAncestry(ctx context.Context, actor domain.Principal, draft domain.PrincipalDraft) (domain.Ancestry, error) {
	switch draft.Role {
	case domain.RoleMaster:
		return domain.Ancestry{}, nil
	case domain.RoleSubsystem:
		if draft.ParentID == 0 {
			return domain.Ancestry{}, &domain.ValidationError{Field: "parent_id", Message: "subsystem id is required"}
		}
		return domain.Ancestry{SubsystemID: draft.ParentID}, nil
	}

	parentRole := draft.Role.Parent()
	if draft.ParentID == 0 {
		if actor.Role != parentRole {
			return domain.Ancestry{}, &domain.ValidationError{Field: "parent_id", Message: "parent " + parentRole.String() + " is required"}
		}
		draft.ParentID = actor.ID
	}

	parent, err := s.principals.FindByID(ctx, parentRole, draft.ParentID)
	if err != nil {
		return domain.Ancestry{}, err
	}
	if !s.owns(actor, parent) {
		return domain.Ancestry{}, &domain.NotFoundError{Entity: parentRole.String(), ID: idString(draft.ParentID)}
	}
	if !parent.IsActive {
		return domain.Ancestry{}, &domain.ValidationError{Field: "parent_id", Message: "parent account is inactive"}
	}

	return parent.ChildAncestry(), nil
}

// owns reports whether target is actor itself or sits below actor.
func (s *userService) owns(actor, target domain.Principal) bool {
	if actor.Role == target.Role && actor.ID == target.ID {
		return true
	}
	return actor.Owns(target)
}

// ListAgents returns the agents visible to actor.
func (s *userService) ListAgents(ctx context.Context, actor domain.Principal) ([]domain.Principal, error) {
	scope, err := s.resolver.AgentScope(ctx, actor)
	if err != nil {
		return nil, err
	}

	agents, err := s.principals.ListAgents(ctx, scope)
	if err != nil {
		logger.Error("Failed to list agents", err)
		return nil, err
	}

	for i := range agents {
		agents[i] = sanitize(agents[i])
	}
	return agents, nil
}

// Deactivate soft-deletes a principal; rows are never removed so ticket
// provenance stays intact.
func (s *userService) Deactivate(ctx context.Context, actor domain.Principal, role domain.Role, id uint) (domain.Principal, error) {
	if !access.CanManage(actor, role) {
		return domain.Principal{}, &domain.PermissionError{Message: "cannot manage " + role.String() + " accounts"}
	}

	target, err := s.principals.FindByID(ctx, role, id)
	if err != nil {
		return domain.Principal{}, err
	}
	if !actor.Owns(target) {
		return domain.Principal{}, &domain.NotFoundError{Entity: role.String(), ID: idString(id)}
	}
	if role == actor.Role && id == actor.ID {
		return domain.Principal{}, &domain.ValidationError{Field: "id", Message: "cannot deactivate yourself"}
	}

	if err := s.principals.SetActive(ctx, role, id, false); err != nil {
		logger.Error("Failed to deactivate principal", err)
		return domain.Principal{}, err
	}

	target.IsActive = false
	logger.Info("Principal deactivated", "role", role.String(), "id", id, "by", actor.ID)
	return sanitize(target), nil
}

// ReassignAgent moves an agent under another supervisor1. Tickets already
// sold keep the ancestry they were created with.
func (s *userService) ReassignAgent(ctx context.Context, actor domain.Principal, agentID, supervisor1ID uint) (domain.Principal, error) {
	if actor.Role != domain.RoleMaster && actor.Role != domain.RoleSubsystem && actor.Role != domain.RoleSupervisor2 {
		return domain.Principal{}, &domain.PermissionError{Message: "cannot reassign agents"}
	}

	agent, err := s.principals.FindByID(ctx, domain.RoleAgent, agentID)
	if err != nil {
		return domain.Principal{}, err
	}
	if !actor.Owns(agent) {
		return domain.Principal{}, &domain.NotFoundError{Entity: "agent", ID: idString(agentID)}
	}

	sup, err := s.principals.FindByID(ctx, domain.RoleSupervisor1, supervisor1ID)
	if err != nil {
		return domain.Principal{}, err
	}
	if !actor.Owns(sup) {
		return domain.Principal{}, &domain.NotFoundError{Entity: "supervisor1", ID: idString(supervisor1ID)}
	}
	if !sup.IsActive {
		return domain.Principal{}, &domain.ValidationError{Field: "supervisor1_id", Message: "supervisor is inactive"}
	}

	ancestry := sup.ChildAncestry()
	if err := s.principals.UpdateAncestry(ctx, domain.RoleAgent, agentID, ancestry); err != nil {
		logger.Error("Failed to reassign agent", err)
		return domain.Principal{}, err
	}

	agent.Ancestry = ancestry
	logger.Info("Agent reassigned", "agent_id", agentID, "supervisor1_id", supervisor1ID, "by", actor.ID)
	return sanitize(agent), nil
}

// Bootstrap creates the first master account. It does nothing when a
// master already exists.
func (s *userService) Bootstrap(ctx context.Context, username, password string) (bool, error) {
	exists, err := s.principals.Exists(ctx, domain.RoleMaster)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	if err := s.validate.Var(password, "required,min=6"); err != nil {
		return false, &domain.ConfigError{Key: "BOOTSTRAP_MASTER_PASSWORD", Message: "must be at least 6 characters"}
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return false, err
	}

	master := domain.Principal{
		Role:     domain.RoleMaster,
		Username: username,
		Password: string(hash),
		FullName: "Master",
		IsActive: true,
	}
	if err := s.principals.Create(ctx, &master); err != nil {
		return false, err
	}

	logger.Info("Bootstrap master created", "username", username)
	return true, nil
}

func sanitize(p domain.Principal) domain.Principal {
	p.Password = ""
	return p
}

func idString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
