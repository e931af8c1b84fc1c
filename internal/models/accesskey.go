package models

import (
	"fmt"
	"time"

	apperrors "github.com/alexjbarnes/esi-proxy/internal/errors"
)

// ServerType selects which ESI server variant a key was issued for.
type ServerType string

const (
	ServerLatest ServerType = "latest"
	ServerLegacy ServerType = "legacy"
	ServerDev    ServerType = "dev"
)

// ServerTypes lists the valid variants in routing order.
var ServerTypes = []ServerType{ServerLatest, ServerLegacy, ServerDev}

// ParseServerType validates a server variant name.
func ParseServerType(s string) (ServerType, error) {
	for _, st := range ServerTypes {
		if string(st) == s {
			return st, nil
		}
	}

	return "", fmt.Errorf("%w %q", apperrors.ErrUnknownServerType, s)
}

// AccessKey is a persisted proxy key. Callers present ID plus the hash
// derived from Salt; the hash itself is never stored.
type AccessKey struct {
	ID                int64      `json:"id"`
	AccountID         int64      `json:"account_id"`
	Salt              []byte     `json:"salt"`
	ServerType        ServerType `json:"server_type"`
	Scopes            string     `json:"scopes"`
	Expiry            time.Time  `json:"expiry,omitzero"`
	AccessToken       string     `json:"access_token,omitempty"`
	AccessTokenExpiry time.Time  `json:"access_token_expiry,omitzero"`
	RefreshToken      string     `json:"refresh_token,omitempty"`
	CharacterName     string     `json:"character_name"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Expired reports whether the key carries a record-level expiry that has
// passed. A zero Expiry never expires.
func (k *AccessKey) Expired(now time.Time) bool {
	return !k.Expiry.IsZero() && now.After(k.Expiry)
}

// ApplyTokens replaces the access token, its expiry and the refresh token
// in one step. An empty refresh token keeps the current one since
// providers are not required to rotate it.
func (k *AccessKey) ApplyTokens(ts TokenSet) {
	k.AccessToken = ts.AccessToken
	k.AccessTokenExpiry = ts.Expiry

	if ts.RefreshToken != "" {
		k.RefreshToken = ts.RefreshToken
	}
}
