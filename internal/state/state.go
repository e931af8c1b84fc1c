package state

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	apperrors "github.com/alexjbarnes/esi-proxy/internal/errors"
	"github.com/alexjbarnes/esi-proxy/internal/models"
	bolt "go.etcd.io/bbolt"
)

const (
	// stateDirPerm is the permission mode for the state directory (~/.esi-proxy/).
	stateDirPerm = fs.FileMode(0o700)

	// stateFilePerm is the permission mode for the state database file.
	// The database holds OAuth tokens.
	stateFilePerm = fs.FileMode(0o600)

	// stateOpenTimeout is the maximum time to wait for the bolt database lock.
	stateOpenTimeout = 5 * time.Second
)

var (
	accountsBucket       = []byte("accounts")
	accountSourcesBucket = []byte("account_sources")
	accessKeysBucket     = []byte("access_keys")
)

// itob encodes an id as a big-endian key so bucket iteration follows id order.
func itob(id int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id))

	return b
}

func sourceKey(source, screenName string) []byte {
	return []byte(source + ":" + screenName)
}

// State wraps a bbolt database holding accounts and access keys.
type State struct {
	db *bolt.DB
}

// LoadAt opens a state database at the given path, creating it if it
// does not exist. All buckets are created on open.
func LoadAt(path string) (*State, error) {
	if err := os.MkdirAll(filepath.Dir(path), stateDirPerm); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	db, err := bolt.Open(path, stateFilePerm, &bolt.Options{Timeout: stateOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{accountsBucket, accountSourcesBucket, accessKeysBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing state db: %w", err)
	}

	return &State{db: db}, nil
}

// Close closes the database.
func (s *State) Close() error {
	return s.db.Close()
}

// FindOrCreateAccount returns the account registered for (source,
// screenName), creating it when absent. admin only applies to new
// accounts. The second return value reports whether it was created.
func (s *State) FindOrCreateAccount(source, screenName string, admin bool) (*models.Account, bool, error) {
	var (
		acct    *models.Account
		created bool
	)

	err := s.db.Update(func(tx *bolt.Tx) error {
		sources := tx.Bucket(accountSourcesBucket)
		accounts := tx.Bucket(accountsBucket)

		if id := sources.Get(sourceKey(source, screenName)); id != nil {
			v := accounts.Get(id)
			if v == nil {
				return fmt.Errorf("account index points at missing account %x", id)
			}

			acct = &models.Account{}

			return json.Unmarshal(v, acct)
		}

		seq, err := accounts.NextSequence()
		if err != nil {
			return err
		}

		now := time.Now()
		acct = &models.Account{
			ID:         int64(seq),
			Source:     source,
			ScreenName: screenName,
			Admin:      admin,
			Active:     true,
			CreatedAt:  now,
			LastLogin:  now,
		}
		created = true

		data, err := json.Marshal(acct)
		if err != nil {
			return err
		}

		if err := accounts.Put(itob(acct.ID), data); err != nil {
			return err
		}

		return sources.Put(sourceKey(source, screenName), itob(acct.ID))
	})
	if err != nil {
		return nil, false, fmt.Errorf("finding account %s:%s: %w", source, screenName, err)
	}

	return acct, created, nil
}

// GetAccount returns an account by id, or ErrAccountNotFound.
func (s *State) GetAccount(id int64) (*models.Account, error) {
	var acct *models.Account

	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(accountsBucket).Get(itob(id))
		if v == nil {
			return nil
		}

		acct = &models.Account{}

		return json.Unmarshal(v, acct)
	})
	if err != nil {
		return nil, err
	}

	if acct == nil {
		return nil, apperrors.ErrAccountNotFound
	}

	return acct, nil
}

// TouchAccount records a login time for the account.
func (s *State) TouchAccount(id int64, at time.Time) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(accountsBucket)

		v := b.Get(itob(id))
		if v == nil {
			return apperrors.ErrAccountNotFound
		}

		var acct models.Account
		if err := json.Unmarshal(v, &acct); err != nil {
			return err
		}

		acct.LastLogin = at

		data, err := json.Marshal(acct)
		if err != nil {
			return err
		}

		return b.Put(itob(id), data)
	})
}

// CreateAccessKey assigns the next key id and stores the key. The caller
// provides salt, owner and any initial tokens.
func (s *State) CreateAccessKey(k *models.AccessKey) error {
	if k.AccountID == 0 {
		return fmt.Errorf("access key has no owner")
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(accessKeysBucket)

		seq, err := b.NextSequence()
		if err != nil {
			return err
		}

		k.ID = int64(seq)
		if k.CreatedAt.IsZero() {
			k.CreatedAt = time.Now()
		}

		data, err := json.Marshal(k)
		if err != nil {
			return err
		}

		return b.Put(itob(k.ID), data)
	})
}

// GetAccessKey returns a key by id, or nil if not found.
func (s *State) GetAccessKey(id int64) (*models.AccessKey, error) {
	var k *models.AccessKey

	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(accessKeysBucket).Get(itob(id))
		if v == nil {
			return nil
		}

		k = &models.AccessKey{}

		return json.Unmarshal(v, k)
	})

	return k, err
}

// AccountAccessKeys returns all keys owned by an account in id order.
func (s *State) AccountAccessKeys(accountID int64) ([]models.AccessKey, error) {
	var keys []models.AccessKey

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(accessKeysBucket).ForEach(func(_, v []byte) error {
			var k models.AccessKey
			if err := json.Unmarshal(v, &k); err != nil {
				return err
			}

			if k.AccountID == accountID {
				keys = append(keys, k)
			}

			return nil
		})
	})

	return keys, err
}

// UpdateAccessKeyExpiry changes the record-level expiry of a key owned by
// accountID. A zero expiry removes it.
func (s *State) UpdateAccessKeyExpiry(accountID, keyID int64, expiry time.Time) error {
	return s.updateOwnedKey(accountID, keyID, func(k *models.AccessKey) {
		k.Expiry = expiry
	})
}

// DeleteAccessKey removes a key owned by accountID.
func (s *State) DeleteAccessKey(accountID, keyID int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(accessKeysBucket)

		k, err := ownedKey(b, accountID, keyID)
		if err != nil {
			return err
		}

		return b.Delete(itob(k.ID))
	})
}

// MergeTokens replaces the token triple on a key inside a single write
// transaction and returns the updated record. Concurrent merges on the
// same key serialise; the last writer wins.
func (s *State) MergeTokens(keyID int64, ts models.TokenSet) (*models.AccessKey, error) {
	var updated *models.AccessKey

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(accessKeysBucket)

		v := b.Get(itob(keyID))
		if v == nil {
			return apperrors.ErrKeyNotFound
		}

		k := &models.AccessKey{}
		if err := json.Unmarshal(v, k); err != nil {
			return err
		}

		k.ApplyTokens(ts)

		data, err := json.Marshal(k)
		if err != nil {
			return err
		}

		updated = k

		return b.Put(itob(keyID), data)
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *State) updateOwnedKey(accountID, keyID int64, fn func(*models.AccessKey)) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(accessKeysBucket)

		k, err := ownedKey(b, accountID, keyID)
		if err != nil {
			return err
		}

		fn(k)

		data, err := json.Marshal(k)
		if err != nil {
			return err
		}

		return b.Put(itob(keyID), data)
	})
}

func ownedKey(b *bolt.Bucket, accountID, keyID int64) (*models.AccessKey, error) {
	v := b.Get(itob(keyID))
	if v == nil {
		return nil, apperrors.ErrKeyNotFound
	}

	k := &models.AccessKey{}
	if err := json.Unmarshal(v, k); err != nil {
		return nil, err
	}

	if k.AccountID != accountID {
		return nil, apperrors.ErrKeyNotFound
	}

	return k, nil
}
