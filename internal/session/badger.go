package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// Storage keys. Token and profile live under separate keys (the web clients
// did the same) but every write touches both inside one transaction.
var (
	keyToken = []byte("session/token")
	keyUser  = []byte("session/user")
)

// BadgerStore persists the session in an embedded BadgerDB at a local path.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (or creates) the session database at dir.
func OpenBadger(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(nil).
		WithNumVersionsToKeep(1)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Close releases the underlying database.
func (b *BadgerStore) Close() error {
	return b.db.Close()
}

func (b *BadgerStore) Save(s Session) error {
	profile, err := json.Marshal(s.User)
	if err != nil {
		return fmt.Errorf("marshal user profile: %w", err)
	}
	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(keyToken, []byte(s.Token)); err != nil {
			return err
		}
		return txn.Set(keyUser, profile)
	})
}

func (b *BadgerStore) Load() (Session, bool, error) {
	var s Session
	found := false

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyToken)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		token, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}

		item, err = txn.Get(keyUser)
		if errors.Is(err, badger.ErrKeyNotFound) {
			// Half a session is no session.
			return nil
		}
		if err != nil {
			return err
		}
		profile, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}

		var user User
		if err := json.Unmarshal(profile, &user); err != nil {
			return fmt.Errorf("unmarshal user profile: %w", err)
		}

		s = Session{Token: string(token), User: user}
		found = true
		return nil
	})
	if err != nil {
		return Session{}, false, err
	}
	return s, found, nil
}

func (b *BadgerStore) Clear() error {
	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(keyToken); err != nil {
			return err
		}
		return txn.Delete(keyUser)
	})
}
