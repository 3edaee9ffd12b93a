package remote

import "context"

type identityKey struct{}

// WithIdentity returns a context carrying the authenticated user ID. The auth
// middleware attaches it to every request context.
func WithIdentity(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, identityKey{}, userID)
}

// IdentityFrom extracts the user ID placed in the context by WithIdentity.
func IdentityFrom(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(identityKey{}).(string)
	return userID, ok && userID != ""
}
