package httpx

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kec/eventhub/internal/adapters/memstore"
	domainauth "github.com/kec/eventhub/internal/domain/auth"
	mockauth "github.com/kec/eventhub/internal/mocks/auth"
	"github.com/kec/eventhub/internal/ports"
	"github.com/kec/eventhub/internal/service"
)

type fakeSessions struct {
	mu sync.Mutex
	st domainauth.State
}

func (f *fakeSessions) State() domainauth.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.st
}

func (f *fakeSessions) set(st domainauth.State) {
	f.mu.Lock()
	f.st = st
	f.mu.Unlock()
}

func activeAs(role domainauth.Role) domainauth.State {
	id := domainauth.Identity{ID: "u-1", Name: "Asha", Email: "asha@kec.edu", CredentialToken: "tok-1", IsActive: true}
	switch role {
	case domainauth.RoleAdmin:
		id.IsAdmin = true
	case domainauth.RoleClub:
		ref := "club-1"
		id.ClubRef = &ref
	}
	return domainauth.ActiveState(id, domainauth.SourceReal, 3)
}

func newTestRenderer(t *testing.T) *TemplateRenderer {
	t.Helper()
	r, err := NewTemplateRenderer(TemplateRendererConfig{TemplateFS: os.DirFS(TemplatePathFromTest)})
	require.NoError(t, err)
	return r
}

func newTestManager(t *testing.T) *service.SessionManager {
	t.Helper()
	m := service.NewSessionManager(service.SessionManagerOptions{
		Authenticator: mockauth.NewStubAuthenticator(),
		Persistence:   service.NewSessionPersistence(service.SessionPersistenceOptions{Store: memstore.New()}),
	})
	m.Initialize(context.Background())
	return m
}

func loginAs(t *testing.T, m *service.SessionManager, email string) {
	t.Helper()
	_, err := m.Login(context.Background(), ports.LoginInput{Email: email, Password: "secret"})
	require.NoError(t, err)
}

type staticControls struct{}

func (staticControls) Available(domainauth.State) bool { return true }
func (staticControls) Action() string                  { return "/dev/switch-role" }
