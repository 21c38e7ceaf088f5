package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	domainauth "github.com/kec/eventhub/internal/domain/auth"
	apperrors "github.com/kec/eventhub/internal/errors"
	"github.com/kec/eventhub/internal/observability/metrics"
	"github.com/kec/eventhub/internal/observability/statsd"
	"github.com/kec/eventhub/internal/ports"
)

// DefaultKeyPrefix namespaces the two persisted session records.
const DefaultKeyPrefix = "eventhub:session:"

const (
	profileKey = "profile"
	tokenKey   = "token"
)

// SessionPersistenceOptions groups dependencies for SessionPersistence.
type SessionPersistenceOptions struct {
	Store     ports.KeyValueStore
	KeyPrefix string
	Logger    *slog.Logger
	Metrics   statsd.Sink // optional
}

// SessionPersistence stores an Identity as two coupled records: the profile
// (JSON, without the token) and the bare credential token. Both present or
// both absent is the only valid stored state.
type SessionPersistence struct {
	store      ports.KeyValueStore
	profileKey string
	tokenKey   string
	logger     *slog.Logger
	metrics    statsd.Sink
}

// NewSessionPersistence constructs a SessionPersistence.
func NewSessionPersistence(opts SessionPersistenceOptions) *SessionPersistence {
	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionPersistence{
		store:      opts.Store,
		profileKey: prefix + profileKey,
		tokenKey:   prefix + tokenKey,
		logger:     logger,
		metrics:    opts.Metrics,
	}
}

// Keys returns the profile and token keys.
func (p *SessionPersistence) Keys() (profile, token string) {
	return p.profileKey, p.tokenKey
}

// Save writes both records in one store transaction. If the write fails,
// both records are cleared so no half-written session survives.
func (p *SessionPersistence) Save(ctx context.Context, identity domainauth.Identity) error {
	if !identity.Valid() {
		return apperrors.ValidationField("credentialToken", "identity has no credential token")
	}

	profile, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	entries := map[string]string{
		p.profileKey: string(profile),
		p.tokenKey:   identity.CredentialToken,
	}
	if err = p.store.SetMany(ctx, entries); err != nil {
		if clearErr := p.Clear(ctx); clearErr != nil {
			err = errors.Join(err, clearErr)
		}
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load reads the stored identity. Any partial, empty, or malformed record is
// treated as no session: storage is cleared and nil is returned.
func (p *SessionPersistence) Load(ctx context.Context) *domainauth.Identity {
	profile, hasProfile, err := p.store.Get(ctx, p.profileKey)
	if err != nil {
		return p.discard(ctx, apperrors.StorageCorruption("read profile", err))
	}
	token, hasToken, err := p.store.Get(ctx, p.tokenKey)
	if err != nil {
		return p.discard(ctx, apperrors.StorageCorruption("read token", err))
	}

	if !hasProfile && !hasToken {
		return nil
	}

	switch {
	case !hasProfile:
		return p.discard(ctx, apperrors.StorageCorruption("token stored without profile", nil))
	case !hasToken:
		return p.discard(ctx, apperrors.StorageCorruption("profile stored without token", nil))
	case token == "":
		return p.discard(ctx, apperrors.StorageCorruption("stored token is empty", nil))
	}

	var identity domainauth.Identity
	if err = json.Unmarshal([]byte(profile), &identity); err != nil {
		return p.discard(ctx, apperrors.StorageCorruption("stored profile is malformed", err))
	}
	if identity.ID == "" {
		return p.discard(ctx, apperrors.StorageCorruption("stored profile has no id", nil))
	}

	identity.CredentialToken = token
	return &identity
}

// Clear removes both records. Clearing an empty store is not an error.
func (p *SessionPersistence) Clear(ctx context.Context) error {
	if err := p.store.Delete(ctx, p.profileKey, p.tokenKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (p *SessionPersistence) discard(ctx context.Context, cause *apperrors.AppError) *domainauth.Identity {
	p.logger.WarnContext(ctx, "discarding persisted session",
		"code", cause.Code,
		"reason", cause.Error(),
	)
	metrics.EmitStoredSessionDiscarded(p.metrics, cause)
	if err := p.Clear(ctx); err != nil {
		p.logger.WarnContext(ctx, "clear corrupted session failed", "error", err)
	}
	return nil
}
