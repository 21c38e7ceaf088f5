package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/singleflight"

	domainauth "github.com/kec/eventhub/internal/domain/auth"
	apperrors "github.com/kec/eventhub/internal/errors"
	"github.com/kec/eventhub/internal/observability/metrics"
	"github.com/kec/eventhub/internal/observability/statsd"
	"github.com/kec/eventhub/internal/ports"
)

var errStaleResult = errors.New("stale result")

// SessionManagerOptions groups dependencies for SessionManager.
type SessionManagerOptions struct {
	Authenticator ports.Authenticator
	Persistence   *SessionPersistence
	Logger        *slog.Logger
	Metrics       statsd.Sink // optional

	// AllowedEmailDomains restricts signup to these registrable domains
	// (subdomains included). Empty allows any domain.
	AllowedEmailDomains []string
	// RejectInactive refuses to activate students whose account is blocked.
	RejectInactive bool
}

// SessionManager owns the single authoritative session of the process.
// Readers get immutable snapshots without locking; transitions are
// serialized and each one bumps a monotonic generation.
type SessionManager struct {
	auth           ports.Authenticator
	persistence    *SessionPersistence
	logger         *slog.Logger
	metrics        statsd.Sink
	allowedDomains []string
	rejectInactive bool

	mu    sync.Mutex // serializes transitions and guards gen
	gen   uint64
	state atomic.Pointer[domainauth.State]

	initOnce sync.Once
	inflight singleflight.Group

	listenersMu  sync.Mutex
	listeners    map[int]func(domainauth.State)
	nextListener int
}

// NewSessionManager constructs a SessionManager in the Initializing state.
func NewSessionManager(opts SessionManagerOptions) *SessionManager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	domains := make([]string, 0, len(opts.AllowedEmailDomains))
	for _, d := range opts.AllowedEmailDomains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			domains = append(domains, strings.TrimPrefix(d, "@"))
		}
	}

	m := &SessionManager{
		auth:           opts.Authenticator,
		persistence:    opts.Persistence,
		logger:         logger.With("component", "session"),
		metrics:        opts.Metrics,
		allowedDomains: domains,
		rejectInactive: opts.RejectInactive,
		listeners:      make(map[int]func(domainauth.State)),
	}
	initial := domainauth.InitializingState()
	m.state.Store(&initial)
	return m
}

// State returns the current session snapshot.
func (m *SessionManager) State() domainauth.State {
	return *m.state.Load()
}

// Subscribe registers fn to be called after every transition.
// Listeners run synchronously inside the transition and must not start
// another one. The returned func removes the listener.
func (m *SessionManager) Subscribe(fn func(domainauth.State)) func() {
	m.listenersMu.Lock()
	id := m.nextListener
	m.nextListener++
	m.listeners[id] = fn
	m.listenersMu.Unlock()

	return func() {
		m.listenersMu.Lock()
		delete(m.listeners, id)
		m.listenersMu.Unlock()
	}
}

// Initialize resolves the startup session exactly once. Synthetic
// authenticators provide a placeholder identity without any I/O; otherwise
// the persisted identity, if any, is restored.
func (m *SessionManager) Initialize(ctx context.Context) domainauth.State {
	m.initOnce.Do(func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		if m.State().Status != domainauth.StatusInitializing {
			return
		}

		next := domainauth.AnonymousState(0)
		if pp, ok := m.auth.(ports.PlaceholderProvider); ok && m.auth.Source() == domainauth.SourceSynthetic {
			next = domainauth.ActiveState(pp.Placeholder(), domainauth.SourceSynthetic, 0)
		} else if m.persistence != nil {
			if identity := m.persistence.Load(ctx); identity != nil {
				next = domainauth.ActiveState(*identity, domainauth.SourceReal, 0)
			}
		}
		m.publishLocked(ctx, next, "initialize")
	})
	return m.State()
}

// Login verifies credentials and activates the returned identity.
// On failure the session is left untouched. Synthetic authenticators accept
// any input with an email.
func (m *SessionManager) Login(ctx context.Context, in ports.LoginInput) (domainauth.Identity, error) {
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" {
		return domainauth.Identity{}, apperrors.ValidationField("email", "email is required")
	}
	if in.Password == "" && !m.synthetic() {
		return domainauth.Identity{}, apperrors.ValidationField("password", "password is required")
	}

	return m.coalesce(ctx, "login\x00"+in.Email+"\x00"+in.Password, "login",
		func(ctx context.Context) (domainauth.Identity, error) {
			return m.auth.Login(ctx, in)
		})
}

// Signup registers a new account and activates it.
func (m *SessionManager) Signup(ctx context.Context, in ports.SignupInput) (domainauth.Identity, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Department = strings.TrimSpace(in.Department)
	in.ClubName = strings.TrimSpace(in.ClubName)
	if m.synthetic() {
		if in.Email == "" {
			return domainauth.Identity{}, apperrors.ValidationField("email", "email is required")
		}
	} else if err := m.validateSignup(in); err != nil {
		return domainauth.Identity{}, err
	}

	return m.coalesce(ctx, "signup\x00"+in.Email+"\x00"+in.Password, "signup",
		func(ctx context.Context) (domainauth.Identity, error) {
			return m.auth.Signup(ctx, in)
		})
}

// Logout clears persisted data and makes the session anonymous. Any login
// still waiting on the backend is invalidated.
func (m *SessionManager) Logout(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.persistence != nil {
		if err := m.persistence.Clear(ctx); err != nil {
			m.logger.WarnContext(ctx, "logout: clear persisted session failed", "error", err)
		}
	}
	m.publishLocked(ctx, domainauth.AnonymousState(0), "logout")
}

// coalesce runs call once per key among concurrent callers that started
// under the same generation, and applies the result only if no transition
// happened while it was in flight.
func (m *SessionManager) coalesce(
	ctx context.Context,
	key, op string,
	call func(context.Context) (domainauth.Identity, error),
) (domainauth.Identity, error) {
	gen := m.generation()
	v, err, shared := m.inflight.Do(fmt.Sprintf("%s\x00%d", key, gen), func() (any, error) {
		start := time.Now()
		identity, err := m.attempt(ctx, gen, op, call)
		metrics.EmitAuthAttempt(m.metrics, metrics.AuthAttempt{
			Op:       op,
			Result:   attemptResult(err),
			Duration: time.Since(start),
			Err:      err,
		})
		if err != nil {
			return nil, err
		}
		return identity, nil
	})
	if err != nil {
		return domainauth.Identity{}, err
	}
	if shared {
		m.logger.DebugContext(ctx, "coalesced duplicate submission", "op", op)
	}
	return v.(domainauth.Identity).Clone(), nil
}

func (m *SessionManager) attempt(
	ctx context.Context,
	gen uint64,
	op string,
	call func(context.Context) (domainauth.Identity, error),
) (domainauth.Identity, error) {
	identity, err := call(ctx)
	if err != nil {
		return domainauth.Identity{}, normalizeAuthError(err)
	}
	if err = m.activate(ctx, identity, gen, op); err != nil {
		return domainauth.Identity{}, err
	}
	return identity, nil
}

func attemptResult(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, errStaleResult):
		return metrics.ResultStale
	default:
		return metrics.ResultError
	}
}

func (m *SessionManager) activate(ctx context.Context, identity domainauth.Identity, gen uint64, op string) error {
	if !identity.Valid() {
		return apperrors.Network("server returned no credential token", nil)
	}
	if m.rejectInactive && !identity.IsActive {
		if role, _ := domainauth.DeriveRole(&identity); role == domainauth.RoleStudent {
			m.logger.InfoContext(ctx, "rejected blocked account", "op", op, "user_id", identity.ID)
			return apperrors.InvalidCredentials("this account has been blocked")
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.gen != gen {
		m.logger.InfoContext(ctx, "discarded stale result",
			"op", op,
			"started_at", gen,
			"generation", m.gen,
		)
		return apperrors.Wrap(errStaleResult, apperrors.ErrCodeCanceled, "session changed while the request was in flight")
	}

	if err := m.persistLocked(ctx, identity); err != nil {
		return err
	}
	m.publishLocked(ctx, domainauth.ActiveState(identity, m.auth.Source(), 0), op)
	return nil
}

// persistLocked saves identity. A failed save leaves storage empty, so the
// identity still active in memory is written back to keep both in step.
// Callers hold m.mu.
func (m *SessionManager) persistLocked(ctx context.Context, identity domainauth.Identity) error {
	if m.persistence == nil {
		return nil
	}
	err := m.persistence.Save(ctx, identity)
	if err == nil {
		return nil
	}
	if cur := m.State(); cur.Active() {
		if rerr := m.persistence.Save(ctx, *cur.Identity); rerr != nil {
			m.logger.WarnContext(ctx, "restore persisted session failed", "error", rerr)
		}
	}
	return apperrors.Wrap(err, apperrors.ErrCodeInternal, "could not save session")
}

func (m *SessionManager) synthetic() bool {
	return m.auth.Source() == domainauth.SourceSynthetic
}

func (m *SessionManager) generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gen
}

// publishLocked stores next as the new snapshot. Callers hold m.mu.
func (m *SessionManager) publishLocked(ctx context.Context, next domainauth.State, op string) {
	m.gen++
	next.Generation = m.gen
	m.state.Store(&next)

	attrs := []any{
		"op", op,
		"state", next.Status.String(),
		"generation", next.Generation,
	}
	if role, ok := next.Role(); ok {
		attrs = append(attrs, "role", role.String(), "source", next.Source.String())
	}
	m.logger.InfoContext(ctx, "session transition", attrs...)

	m.listenersMu.Lock()
	fns := make([]func(domainauth.State), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.listenersMu.Unlock()
	for _, fn := range fns {
		fn(next)
	}
}

func (m *SessionManager) validateSignup(in ports.SignupInput) error {
	if in.Name == "" {
		return apperrors.ValidationField("name", "name is required")
	}
	if err := m.validateEmail(in.Email); err != nil {
		return err
	}
	if in.Password == "" {
		return apperrors.ValidationField("password", "password is required")
	}
	if in.IsClub() {
		return nil
	}
	if in.Department == "" {
		return apperrors.ValidationField("department", "department is required")
	}
	if in.Year <= 0 {
		return apperrors.ValidationField("year", "year is required")
	}
	return nil
}

func (m *SessionManager) validateEmail(email string) error {
	if email == "" {
		return apperrors.ValidationField("email", "email is required")
	}
	at := strings.LastIndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return apperrors.ValidationField("email", "email address is malformed")
	}
	domain := strings.ToLower(email[at+1:])
	if _, err := publicsuffix.EffectiveTLDPlusOne(domain); err != nil {
		return apperrors.ValidationField("email", fmt.Sprintf("%q is not a registrable domain", domain))
	}
	if len(m.allowedDomains) == 0 {
		return nil
	}
	for _, allowed := range m.allowedDomains {
		if domain == allowed || strings.HasSuffix(domain, "."+allowed) {
			return nil
		}
	}
	return apperrors.ValidationField("email", "email domain is not allowed")
}

func normalizeAuthError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return apperrors.Wrap(err, apperrors.ErrCodeCanceled, "request canceled")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(err, apperrors.ErrCodeTimeout, "the server took too long to respond")
	}
	return apperrors.Network("", err)
}
