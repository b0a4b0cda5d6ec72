package repository

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/noah-isme/study-planner/internal/models"
	"github.com/noah-isme/study-planner/pkg/secret"
)

var (
	sessionBucket = []byte("session")
	currentKey    = []byte("current")
)

// sealedSession is the on-disk form. The token is encrypted, the user is kept readable.
type sealedSession struct {
	Token   []byte      `json:"token"`
	User    models.User `json:"user"`
	SavedAt time.Time   `json:"saved_at"`
}

// SessionRepository persists the current session in a bbolt file.
type SessionRepository struct {
	db  *bbolt.DB
	box *secret.Box
}

// OpenSessionRepository opens or creates the store at path.
func OpenSessionRepository(path string, box *secret.Box) (*SessionRepository, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create session directory: %w", err)
		}
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare session bucket: %w", err)
	}
	return &SessionRepository{db: db, box: box}, nil
}

// Save replaces the stored session.
func (r *SessionRepository) Save(s models.StoredSession) error {
	token, err := r.box.Seal([]byte(s.Token))
	if err != nil {
		return err
	}
	data, err := json.Marshal(sealedSession{Token: token, User: s.User, SavedAt: s.SavedAt})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(sessionBucket).Put(currentKey, data)
	})
}

// Load returns the stored session, or nil when none exists. A session that cannot be
// decrypted is treated as absent.
func (r *SessionRepository) Load() (*models.StoredSession, error) {
	var raw []byte
	err := r.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(sessionBucket).Get(currentKey); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if raw == nil {
		return nil, nil
	}

	var sealed sealedSession
	if err := json.Unmarshal(raw, &sealed); err != nil {
		return nil, nil
	}
	token, err := r.box.Open(sealed.Token)
	if err != nil {
		return nil, nil
	}
	return &models.StoredSession{Token: string(token), User: sealed.User, SavedAt: sealed.SavedAt}, nil
}

// Delete removes the stored session.
func (r *SessionRepository) Delete() error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(sessionBucket).Delete(currentKey)
	})
}

// Close releases the file lock.
func (r *SessionRepository) Close() error {
	return r.db.Close()
}
