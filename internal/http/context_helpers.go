package httpx

import (
	"context"

	domainauth "github.com/kec/eventhub/internal/domain/auth"
)

// stateKey is an unexported context key type to avoid collisions across packages.
type stateKey struct{}

// SetStateInContext returns a child context carrying the session snapshot the
// route guard authorized the request against.
func SetStateInContext(ctx context.Context, state domainauth.State) context.Context {
	return context.WithValue(ctx, stateKey{}, state)
}

// StateFromContext returns the snapshot stored by SetStateInContext.
func StateFromContext(ctx context.Context) (domainauth.State, bool) {
	st, ok := ctx.Value(stateKey{}).(domainauth.State)
	return st, ok
}
