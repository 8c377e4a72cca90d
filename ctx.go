package users

import "context"

var actorCtxKey = &contextKey{"actor"}

type contextKey struct {
	name string
}

// SystemActor stamps mutations performed outside a request scope, e.g.
// first-run seeding.
const SystemActor = "SYSTEM"

// Actor identifies who triggered the current mutation. Audit columns are
// populated from it, never from global state.
type Actor struct {
	ID       string
	Username string
}

// WithActor sets the acting identity in the given context
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorCtxKey, actor)
}

// ActorFromContext finds the acting identity from the context.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	raw, ok := ctx.Value(actorCtxKey).(Actor)
	return raw, ok
}

// auditActor resolves the audit stamp for the current unit of work.
func auditActor(ctx context.Context) string {
	if actor, ok := ActorFromContext(ctx); ok && actor.Username != "" {
		return actor.Username
	}
	return SystemActor
}
