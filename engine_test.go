package authcore

import (
	"context"
	"encoding/base32"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func testConfig() Config {
	cfg := DefaultConfig()
	// Minimum cost keeps the suite fast; production uses the default 12.
	cfg.Password.Cost = 4
	cfg.Cipher.Passphrase = "test-passphrase"
	cfg.TOTP.Issuer = "authcore-test"
	cfg.TOTP.Skew = 1
	return cfg
}

func newTestEngine(t *testing.T, cfg Config) (*Engine, *fakeUserProvider, func()) {
	t.Helper()

	mr, rdb := newTestRedis(t)
	up := newFakeUserProvider()

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserProvider(up).
		Build()
	if err != nil {
		mr.Close()
		t.Fatalf("Build failed: %v", err)
	}

	return engine, up, func() {
		engine.Close()
		mr.Close()
	}
}

type fakeUserProvider struct {
	mu      sync.Mutex
	nextID  int
	users   map[string]UserRecord
	byEmail map[string]string

	failCreate error
}

func newFakeUserProvider() *fakeUserProvider {
	return &fakeUserProvider{
		users:   map[string]UserRecord{},
		byEmail: map[string]string{},
	}
}

func (f *fakeUserProvider) GetUserByEmail(_ context.Context, email string) (UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id, ok := f.byEmail[email]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return f.users[id], nil
}

func (f *fakeUserProvider) GetUserByID(_ context.Context, userID string) (UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[userID]
	if !ok {
		return UserRecord{}, ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserProvider) CreateUser(_ context.Context, in CreateUserInput) (UserRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failCreate != nil {
		return UserRecord{}, f.failCreate
	}
	if _, exists := f.byEmail[in.Email]; exists {
		return UserRecord{}, ErrEmailTaken
	}

	f.nextID++
	user := UserRecord{
		UserID:       fmt.Sprintf("u%d", f.nextID),
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		CreatedAt:    time.Now().UTC(),
	}
	f.users[user.UserID] = user
	f.byEmail[user.Email] = user.UserID

	return user, nil
}

func (f *fakeUserProvider) EnableTOTP(_ context.Context, userID, encryptedSecret string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	user.TOTPSecretEncrypted = encryptedSecret
	user.TOTPEnabled = true
	f.users[userID] = user
	return nil
}

func (f *fakeUserProvider) DisableTOTP(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[userID]
	if !ok {
		return ErrUserNotFound
	}
	user.TOTPSecretEncrypted = ""
	user.TOTPEnabled = false
	f.users[userID] = user
	return nil
}

func codeForNow(t *testing.T, secret string, cfg TOTPConfig) string {
	t.Helper()
	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(strings.ToUpper(secret))
	if err != nil {
		t.Fatalf("decode secret failed: %v", err)
	}
	counter := time.Now().Unix() / int64(cfg.Period)
	code, err := hotpCode(key, counter, cfg.Digits, cfg.Algorithm)
	if err != nil {
		t.Fatalf("hotpCode failed: %v", err)
	}
	return code
}

func wrongCode(code string) string {
	if code[0] != '0' {
		return "0" + code[1:]
	}
	return "1" + code[1:]
}
