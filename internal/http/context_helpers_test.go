package httpx

import (
	"context"
	"testing"

	domainauth "github.com/kec/eventhub/internal/domain/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateFromContext(t *testing.T) {
	_, ok := StateFromContext(context.Background())
	assert.False(t, ok)

	state := activeAs(domainauth.RoleClub)
	got, ok := StateFromContext(SetStateInContext(context.Background(), state))
	require.True(t, ok)
	assert.Equal(t, state.Generation, got.Generation)
	role, _ := got.Role()
	assert.Equal(t, domainauth.RoleClub, role)
}
