package auth

import (
	"context"

	"github.com/erazemk/auberge/internal/model"
)

// Checker resolves a bearer token to an identity.
type Checker interface {
	CheckAuth(ctx context.Context, token string) (model.Identity, error)
}

// Reason explains a gate decision.
type Reason string

// Decision reasons.
const (
	ReasonOK              Reason = "ok"
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonForbidden       Reason = "forbidden"
	ReasonCheckFailed     Reason = "check_failed"
)

// Decision is the outcome of a gate check.
type Decision struct {
	Allowed  bool
	Identity model.Identity
	Reason   Reason
	Err      error
}

// Gate admits identities whose role is in Allowed. An empty Allowed admits
// any authenticated identity.
type Gate struct {
	Checker Checker
	Allowed []string
}

// Check asks the checker once. A failing check denies access; there is no retry.
func (g Gate) Check(ctx context.Context, token string) Decision {
	if token == "" {
		return Decision{Reason: ReasonUnauthenticated}
	}
	id, err := g.Checker.CheckAuth(ctx, token)
	if err != nil {
		return Decision{Reason: ReasonCheckFailed, Err: err}
	}
	if !id.Authenticated || id.User == nil {
		return Decision{Identity: id, Reason: ReasonUnauthenticated}
	}
	if len(g.Allowed) > 0 && !model.RoleIn(id.Role(), g.Allowed...) {
		return Decision{Identity: id, Reason: ReasonForbidden}
	}
	return Decision{Allowed: true, Identity: id, Reason: ReasonOK}
}
