package gate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tair/stockroom/internal/access/domain"
	"github.com/tair/stockroom/pkg/logger"
)

// State of a gate's role resolution
type State int

const (
	StateUnknown State = iota
	StateResolved
	StateError
)

func (s State) String() string {
	switch s {
	case StateResolved:
		return "resolved"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Action is a mutation the gate can authorize
type Action string

const (
	ActionEditStock       Action = "edit_stock"
	ActionAddItem         Action = "add_item"
	ActionRemoveItem      Action = "remove_item"
	ActionManageEmployees Action = "manage_employees"
)

// Gate resolves an actor's role once per session and answers permission
// checks against it. A resolved role never changes; a failed resolution can
// be retried.
type Gate struct {
	source  domain.RoleSource
	timeout time.Duration

	mu      sync.RWMutex
	state   State
	actorID string
	role    domain.Role
	err     error
}

// New creates a gate in the Unknown state
func New(source domain.RoleSource, timeout time.Duration) *Gate {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Gate{source: source, timeout: timeout}
}

// ResolveRole fetches the actor's role. Once resolved, later calls return the
// same role without a fetch.
func (g *Gate) ResolveRole(ctx context.Context, actorID string) (domain.Role, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == StateResolved {
		return g.role, nil
	}

	if actorID == "" {
		return nil, g.failLocked(ctx, actorID, domain.ErrUnauthenticated)
	}

	rctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	role, err := g.source.RoleOf(rctx, actorID)
	if err != nil {
		return nil, g.failLocked(ctx, actorID, domain.Remote("resolve role", err))
	}
	if role == nil {
		return nil, g.failLocked(ctx, actorID, fmt.Errorf("role of %s: %w", actorID, domain.ErrNotFound))
	}

	g.state = StateResolved
	g.actorID = actorID
	g.role = role
	g.err = nil

	logger.Info(ctx).
		Str("actor_id", actorID).
		Str("role", role.RoleName()).
		Msg("Role resolved")

	return role, nil
}

func (g *Gate) failLocked(ctx context.Context, actorID string, err error) error {
	g.state = StateError
	g.err = err
	logger.Warn(ctx).
		Err(err).
		Str("actor_id", actorID).
		Msg("Failed to resolve role")
	return err
}

// State returns the resolution state and, in StateError, the last failure
func (g *Gate) State() (State, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state, g.err
}

// Role returns the resolved role
func (g *Gate) Role() (domain.Role, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.role, g.state == StateResolved
}

// ActorID returns the actor the role was resolved for
func (g *Gate) ActorID() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.actorID
}

// Authorize checks action against the resolved role
func (g *Gate) Authorize(action Action) error {
	role, ok := g.Role()
	if !ok {
		return domain.ErrUnauthenticated
	}
	if !Allows(role, action) {
		return fmt.Errorf("%s may not %s: %w", role.RoleName(), action, domain.ErrPermissionDenied)
	}
	return nil
}

// Allows reports whether role may perform action
func Allows(role domain.Role, action Action) bool {
	switch action {
	case ActionEditStock:
		return CanEditStock(role)
	case ActionAddItem:
		return CanManageItems(role, domain.PermissionAdd)
	case ActionRemoveItem:
		return CanManageItems(role, domain.PermissionDelete)
	case ActionManageEmployees:
		return CanManageEmployees(role)
	}
	return false
}

// CanEditStock is true for employees, and for any role carrying the edit
// permission
func CanEditStock(role domain.Role) bool {
	switch r := role.(type) {
	case domain.SimpleRole:
		return r.Name == domain.RoleEmployee
	case domain.PermissionedRole:
		return r.Name == domain.RoleEmployee || r.Has(domain.PermissionEdit)
	}
	return false
}

// CanManageItems is true for admins and for roles carrying perm
func CanManageItems(role domain.Role, perm domain.Permission) bool {
	switch r := role.(type) {
	case domain.SimpleRole:
		return r.Name == domain.RoleAdmin
	case domain.PermissionedRole:
		return r.Name == domain.RoleAdmin || r.Has(perm)
	}
	return false
}

// CanManageEmployees is true for admins only
func CanManageEmployees(role domain.Role) bool {
	return role != nil && role.RoleName() == domain.RoleAdmin
}
