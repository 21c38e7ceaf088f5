package devauth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/kec/eventhub/internal/domain/auth"
	"github.com/kec/eventhub/internal/ports"
)

func TestProvider_LoginHeuristics(t *testing.T) {
	tests := []struct {
		email string
		want  domainauth.Role
	}{
		{email: "admin@kec.edu", want: domainauth.RoleAdmin},
		{email: "club@kec.edu", want: domainauth.RoleClub},
		{email: "student@kec.edu", want: domainauth.RoleStudent},
		{email: "clubadmin@kec.edu", want: domainauth.RoleAdmin},
		{email: "ROBOTICS.CLUB@kec.edu", want: domainauth.RoleClub},
	}

	p := NewProvider(Config{})
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			id, err := p.Login(context.Background(), ports.LoginInput{Email: tt.email, Password: "x"})
			require.NoError(t, err)
			require.True(t, id.Valid())

			role, ok := domainauth.DeriveRole(&id)
			require.True(t, ok)
			assert.Equal(t, tt.want, role)
		})
	}
}

func TestProvider_Deterministic(t *testing.T) {
	p := NewProvider(Config{})
	ctx := context.Background()

	a, err := p.Login(ctx, ports.LoginInput{Email: "student@kec.edu", Password: "1"})
	require.NoError(t, err)
	b, err := p.Login(ctx, ports.LoginInput{Email: "Student@kec.edu", Password: "2"})
	require.NoError(t, err)

	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, a.CredentialToken, b.CredentialToken)
	assert.Equal(t, "student", a.Name)

	other, _ := p.Login(ctx, ports.LoginInput{Email: "other@kec.edu", Password: "1"})
	assert.NotEqual(t, a.ID, other.ID)
}

func TestProvider_Placeholder(t *testing.T) {
	p := NewProvider(Config{})
	assert.Equal(t, domainauth.SourceSynthetic, p.Source())

	ph := p.Placeholder()
	require.True(t, ph.Valid())
	role, _ := domainauth.DeriveRole(&ph)
	assert.Equal(t, domainauth.RoleAdmin, role)
	assert.Equal(t, "Dev User", ph.Name)

	custom := NewProvider(Config{Email: "club.lead@kec.edu", Name: "Lead"}).Placeholder()
	role, _ = domainauth.DeriveRole(&custom)
	assert.Equal(t, domainauth.RoleClub, role)
}

func TestProvider_Signup(t *testing.T) {
	p := NewProvider(Config{})
	ctx := context.Background()

	student, err := p.Signup(ctx, ports.SignupInput{
		Name: "Ravi", Email: "ravi@kec.edu", Password: "pw", Department: "ECE", Year: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, "ECE", student.Department)
	assert.Equal(t, 3, student.Year)
	role, _ := domainauth.DeriveRole(&student)
	assert.Equal(t, domainauth.RoleStudent, role)

	club, err := p.Signup(ctx, ports.SignupInput{
		Name: "Robotics", Email: "robo@kec.edu", Password: "pw", ClubName: "Robotics",
	})
	require.NoError(t, err)
	require.NotNil(t, club.ClubRef)
	role, _ = domainauth.DeriveRole(&club)
	assert.Equal(t, domainauth.RoleClub, role)
}
