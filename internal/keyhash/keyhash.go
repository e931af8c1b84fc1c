// Package keyhash derives the proxy's secret keys and computes the
// credential hash callers present alongside an access key id.
//
// The hash is an HMAC-SHA256 over the key id and a per-key random salt
// under a key derived from KEY_SECRET. Only the salt is persisted, so a
// copy of the database alone is not enough to forge a credential.
package keyhash

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"

	"golang.org/x/crypto/hkdf"
)

const (
	// SaltLen is the size of the per-key random salt.
	SaltLen = 32

	derivedKeyLen = 32
)

// Keys holds the independent keys derived from the root secret.
type Keys struct {
	Hash          []byte
	CookieAuth    []byte
	CookieEncrypt []byte
}

// Derive expands the root secret into purpose-bound keys with HKDF.
func Derive(secret string) (Keys, error) {
	if secret == "" {
		return Keys{}, fmt.Errorf("empty secret")
	}

	expand := func(purpose string) ([]byte, error) {
		r := hkdf.New(sha256.New, []byte(secret), nil, []byte("esi-proxy "+purpose))
		out := make([]byte, derivedKeyLen)
		if _, err := io.ReadFull(r, out); err != nil {
			return nil, fmt.Errorf("deriving %s key: %w", purpose, err)
		}

		return out, nil
	}

	var (
		k   Keys
		err error
	)

	if k.Hash, err = expand("access key hash"); err != nil {
		return Keys{}, err
	}

	if k.CookieAuth, err = expand("cookie auth"); err != nil {
		return Keys{}, err
	}

	if k.CookieEncrypt, err = expand("cookie encrypt"); err != nil {
		return Keys{}, err
	}

	return k, nil
}

// Hasher computes and checks access key credentials.
type Hasher struct {
	key []byte
}

// NewHasher returns a Hasher keyed with the derived hash key.
func NewHasher(key []byte) *Hasher {
	return &Hasher{key: key}
}

// NewSalt returns fresh random salt for a new access key.
func (h *Hasher) NewSalt() ([]byte, error) {
	salt := make([]byte, SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generating salt: %w", err)
	}

	return salt, nil
}

// Credential returns the hex hash a caller must present for keyID.
func (h *Hasher) Credential(keyID int64, salt []byte) string {
	return hex.EncodeToString(h.mac(keyID, salt))
}

// Verify reports whether presented is the credential for keyID. The
// comparison runs in constant time with respect to the content.
func (h *Hasher) Verify(keyID int64, salt []byte, presented string) bool {
	want := []byte(hex.EncodeToString(h.mac(keyID, salt)))
	return hmac.Equal(want, []byte(presented))
}

func (h *Hasher) mac(keyID int64, salt []byte) []byte {
	m := hmac.New(sha256.New, h.key)
	m.Write([]byte(strconv.FormatInt(keyID, 10)))
	m.Write([]byte{':'})
	m.Write(salt)

	return m.Sum(nil)
}
