package auth

import (
	"context"
	"testing"

	domainauth "github.com/kec/eventhub/internal/domain/auth"
	apperrors "github.com/kec/eventhub/internal/errors"
	"github.com/kec/eventhub/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubAuthenticator_Login(t *testing.T) {
	stub := NewStubAuthenticator()
	ctx := context.Background()

	id, err := stub.Login(ctx, ports.LoginInput{Email: "a@kec.edu", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "token-1", id.CredentialToken)
	assert.Equal(t, domainauth.SourceReal, stub.Source())

	_, err = stub.Login(ctx, ports.LoginInput{Email: "a@kec.edu", Password: "nope"})
	assert.True(t, apperrors.IsInvalidCredentials(err))
	assert.Equal(t, 2, stub.LoginCalls())
}

func TestStubAuthenticator_SignupClub(t *testing.T) {
	stub := NewStubAuthenticator()
	id, err := stub.Signup(context.Background(), ports.SignupInput{Name: "Robotics", Email: "r@kec.edu", ClubName: "robotics"})
	require.NoError(t, err)
	role, ok := domainauth.DeriveRole(&id)
	require.True(t, ok)
	assert.Equal(t, domainauth.RoleClub, role)
}
