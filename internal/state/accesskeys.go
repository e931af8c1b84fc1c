package state

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/alexjbarnes/esi-proxy/internal/errors"
	"github.com/alexjbarnes/esi-proxy/internal/keyhash"
	"github.com/alexjbarnes/esi-proxy/internal/models"
)

// AccessKeyStore resolves caller credentials against the access_keys
// bucket and persists refreshed tokens.
type AccessKeyStore struct {
	state  *State
	hasher *keyhash.Hasher
}

// NewAccessKeyStore returns a store over s that verifies hashes with h.
func NewAccessKeyStore(s *State, h *keyhash.Hasher) *AccessKeyStore {
	return &AccessKeyStore{state: s, hasher: h}
}

// ResolveAndVerify loads key keyID and checks the presented hash. It
// returns ErrUnknownKey when no such key exists and ErrHashMismatch when
// the hash is wrong.
func (a *AccessKeyStore) ResolveAndVerify(_ context.Context, keyID int64, hash string) (*models.AccessKey, error) {
	k, err := a.state.GetAccessKey(keyID)
	if err != nil {
		return nil, fmt.Errorf("loading access key %d: %w", keyID, err)
	}

	if k == nil {
		return nil, apperrors.ErrUnknownKey
	}

	if !a.hasher.Verify(k.ID, k.Salt, hash) {
		return nil, apperrors.ErrHashMismatch
	}

	return k, nil
}

// PersistTokens stores the token triple for keyID atomically.
func (a *AccessKeyStore) PersistTokens(_ context.Context, keyID int64, ts models.TokenSet) (*models.AccessKey, error) {
	k, err := a.state.MergeTokens(keyID, ts)
	if errors.Is(err, apperrors.ErrKeyNotFound) {
		return nil, apperrors.ErrUnknownKey
	}

	if err != nil {
		return nil, fmt.Errorf("persisting tokens for key %d: %w", keyID, err)
	}

	return k, nil
}

// Credential returns the hash a caller must present for k.
func (a *AccessKeyStore) Credential(k *models.AccessKey) string {
	return a.hasher.Credential(k.ID, k.Salt)
}

// NewSalt returns salt for a key about to be created.
func (a *AccessKeyStore) NewSalt() ([]byte, error) {
	return a.hasher.NewSalt()
}
