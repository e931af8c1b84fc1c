package proxy

//go:generate mockgen -source=resolver.go -destination=mock_resolver_test.go -package=proxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/alexjbarnes/esi-proxy/internal/errors"
	"github.com/alexjbarnes/esi-proxy/internal/models"
	"github.com/alexjbarnes/esi-proxy/internal/sso"
	"golang.org/x/oauth2"
)

// DefaultExpiryWindow is how long before access-token expiry a refresh
// is forced.
const DefaultExpiryWindow = 3 * time.Minute

// KeyStore resolves credentials to access keys and persists refreshed
// tokens. PersistTokens must replace the token triple atomically.
type KeyStore interface {
	ResolveAndVerify(ctx context.Context, keyID int64, hash string) (*models.AccessKey, error)
	PersistTokens(ctx context.Context, keyID int64, ts models.TokenSet) (*models.AccessKey, error)
}

// TokenRefresher performs a refresh-token grant with the configured
// client credentials.
type TokenRefresher interface {
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// Resolver turns a presented credential into an Authorization header
// value, refreshing the stored token when it is close to expiry.
//
// Concurrent requests on the same key may both refresh; the store's
// atomic merge makes the last writer win. Refreshes are not coordinated
// across proxy instances.
type Resolver struct {
	keys      KeyStore
	refresher TokenRefresher
	window    time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// NewResolver returns a Resolver. A non-positive window uses
// DefaultExpiryWindow.
func NewResolver(keys KeyStore, refresher TokenRefresher, window time.Duration, logger *slog.Logger) *Resolver {
	if window <= 0 {
		window = DefaultExpiryWindow
	}

	return &Resolver{
		keys:      keys,
		refresher: refresher,
		window:    window,
		now:       time.Now,
		logger:    logger.With(slog.String("component", "resolver")),
	}
}

// Resolve verifies cred and returns "Bearer <access token>".
func (r *Resolver) Resolve(ctx context.Context, cred Credential) (string, error) {
	key, err := r.keys.ResolveAndVerify(ctx, cred.KeyID, cred.Hash)
	if err != nil {
		return "", err
	}

	now := r.now()

	if key.Expired(now) {
		return "", fmt.Errorf("key %d: %w", key.ID, apperrors.ErrKeyExpired)
	}

	if key.AccessTokenExpiry.Sub(now) < r.window {
		key, err = r.refresh(ctx, key, now)
		if err != nil {
			return "", err
		}
	}

	return "Bearer " + key.AccessToken, nil
}

func (r *Resolver) refresh(ctx context.Context, key *models.AccessKey, now time.Time) (*models.AccessKey, error) {
	if key.RefreshToken == "" {
		return nil, fmt.Errorf("key %d: %w", key.ID, apperrors.ErrMissingRefreshToken)
	}

	tok, err := r.refresher.Refresh(ctx, key.RefreshToken)
	if err == nil && (tok == nil || tok.AccessToken == "") {
		err = errors.New("empty token response")
	}

	if err != nil {
		r.logger.Warn("token refresh failed",
			slog.Int64("key_id", key.ID),
			slog.String("error", err.Error()),
		)

		return nil, fmt.Errorf("key %d: %w: %v", key.ID, apperrors.ErrRefreshFailed, err)
	}

	updated, err := r.keys.PersistTokens(ctx, key.ID, sso.Tokens(tok, now))
	if err != nil {
		r.logger.Error("persisting refreshed token failed",
			slog.Int64("key_id", key.ID),
			slog.String("error", err.Error()),
		)

		return nil, fmt.Errorf("key %d: %w: %v", key.ID, apperrors.ErrRefreshFailed, err)
	}

	r.logger.Debug("refreshed access token",
		slog.Int64("key_id", key.ID),
		slog.Time("expires", updated.AccessTokenExpiry),
	)

	return updated, nil
}
