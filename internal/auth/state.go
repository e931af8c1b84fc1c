package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"
)

// stateSources is the number of independent random reads mixed into a
// state token.
const stateSources = 4

// NewStateToken returns a hex SHA-256 digest over several independent
// random reads and the current time.
func NewStateToken() (string, error) {
	h := sha256.New()

	buf := make([]byte, 32)
	for range stateSources {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("reading random bytes: %w", err)
		}

		h.Write(buf)
	}

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(time.Now().UnixNano()))
	h.Write(ts[:])

	return hex.EncodeToString(h.Sum(nil)), nil
}
