// Package memstore provides an in-memory UserProvider for tests and
// single-process embedders. Records live only as long as the process.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/twofactorlab/authcore"
)

// Store is a map-backed implementation of [authcore.UserProvider].
// All methods are safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	byID    map[string]authcore.UserRecord
	byEmail map[string]string
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		byID:    make(map[string]authcore.UserRecord),
		byEmail: make(map[string]string),
	}
}

// GetUserByEmail implements [authcore.UserProvider].
func (s *Store) GetUserByEmail(_ context.Context, email string) (authcore.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return authcore.UserRecord{}, authcore.ErrUserNotFound
	}
	return s.byID[id], nil
}

// GetUserByID implements [authcore.UserProvider].
func (s *Store) GetUserByID(_ context.Context, userID string) (authcore.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byID[userID]
	if !ok {
		return authcore.UserRecord{}, authcore.ErrUserNotFound
	}
	return user, nil
}

// CreateUser implements [authcore.UserProvider].
func (s *Store) CreateUser(_ context.Context, in authcore.CreateUserInput) (authcore.UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[in.Email]; exists {
		return authcore.UserRecord{}, authcore.ErrEmailTaken
	}

	user := authcore.UserRecord{
		UserID:       uuid.NewString(),
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}

	s.byID[user.UserID] = user
	s.byEmail[user.Email] = user.UserID

	return user, nil
}

// EnableTOTP implements [authcore.UserProvider]. The secret and the
// enabled flag flip together under one lock.
func (s *Store) EnableTOTP(_ context.Context, userID, encryptedSecret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byID[userID]
	if !ok {
		return authcore.ErrUserNotFound
	}

	user.TOTPSecretEncrypted = encryptedSecret
	user.TOTPEnabled = true
	s.byID[userID] = user

	return nil
}

// DisableTOTP implements [authcore.UserProvider].
func (s *Store) DisableTOTP(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.byID[userID]
	if !ok {
		return authcore.ErrUserNotFound
	}

	user.TOTPSecretEncrypted = ""
	user.TOTPEnabled = false
	s.byID[userID] = user

	return nil
}
