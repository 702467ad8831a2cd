package auth

import "context"

const (
	RolePlayer = "player"
	RoleOwner  = "owner"
)

type Identity struct {
	UserID string
	Role   string
}

func (i Identity) IsPlayer() bool { return i.Role == RolePlayer }

func (i Identity) IsOwner() bool { return i.Role == RoleOwner }

func ValidRole(role string) bool {
	return role == RolePlayer || role == RoleOwner
}

type contextKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}
