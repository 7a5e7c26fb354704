package authcore

import (
	"context"
	"errors"
	"testing"

	"github.com/twofactorlab/authcore/session"
)

func TestRegisterCreatesVerifiedSession(t *testing.T) {
	engine, up, done := newTestEngine(t, testConfig())
	defer done()

	res, err := engine.Register(context.Background(), "alice@example.com", "hunter22")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if res.SessionID == "" {
		t.Fatal("expected session id from register")
	}
	if res.Requires2FA {
		t.Fatal("expected no second factor on a fresh account")
	}
	if res.Identity.Email != "alice@example.com" {
		t.Fatalf("unexpected identity email %q", res.Identity.Email)
	}

	state, err := engine.SessionState(context.Background(), res.SessionID)
	if err != nil {
		t.Fatalf("SessionState failed: %v", err)
	}
	if state != session.StateVerified {
		t.Fatalf("expected verified state, got %s", state)
	}

	stored := up.users[res.Identity.ID]
	if stored.PasswordHash == "hunter22" {
		t.Fatal("expected password to be stored hashed")
	}
}

func TestRegisterValidation(t *testing.T) {
	engine, _, done := newTestEngine(t, testConfig())
	defer done()

	cases := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"empty email", "", "hunter22", ErrCredentialsRequired},
		{"empty password", "bob@example.com", "", ErrCredentialsRequired},
		{"short password", "bob@example.com", "five5", ErrPasswordTooShort},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.Register(context.Background(), tc.email, tc.password)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation class, got %v", err)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	engine, _, done := newTestEngine(t, testConfig())
	defer done()

	if _, err := engine.Register(context.Background(), "alice@example.com", "hunter22"); err != nil {
		t.Fatalf("first register failed: %v", err)
	}

	_, err := engine.Register(context.Background(), "alice@example.com", "hunter23")
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict class, got %v", err)
	}
}

func TestLoginWrongPasswordAndUnknownEmailLookAlike(t *testing.T) {
	engine, _, done := newTestEngine(t, testConfig())
	defer done()

	if _, err := engine.Register(context.Background(), "alice@example.com", "hunter22"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, errWrongPassword := engine.Login(context.Background(), "alice@example.com", "wrong-password")
	_, errUnknownEmail := engine.Login(context.Background(), "nobody@example.com", "hunter22")

	if !errors.Is(errWrongPassword, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", errWrongPassword)
	}
	if !errors.Is(errUnknownEmail, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", errUnknownEmail)
	}
	if errWrongPassword.Error() != errUnknownEmail.Error() {
		t.Fatal("expected indistinguishable errors for wrong password and unknown email")
	}
}

func TestLoginWithoutTOTPIsVerified(t *testing.T) {
	engine, _, done := newTestEngine(t, testConfig())
	defer done()

	if _, err := engine.Register(context.Background(), "alice@example.com", "hunter22"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	res, err := engine.Login(context.Background(), "alice@example.com", "hunter22")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if res.Requires2FA {
		t.Fatal("expected no second factor")
	}

	state, err := engine.SessionState(context.Background(), res.SessionID)
	if err != nil {
		t.Fatalf("SessionState failed: %v", err)
	}
	if state != session.StateVerified {
		t.Fatalf("expected verified state, got %s", state)
	}
}

func TestLoginNormalizesEmail(t *testing.T) {
	engine, _, done := newTestEngine(t, testConfig())
	defer done()

	if _, err := engine.Register(context.Background(), "Alice@Example.Com", "hunter22"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, err := engine.Login(context.Background(), "  alice@example.com ", "hunter22"); err != nil {
		t.Fatalf("expected normalized email to log in, got %v", err)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	engine, _, done := newTestEngine(t, testConfig())
	defer done()

	res, err := engine.Register(context.Background(), "alice@example.com", "hunter22")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := engine.Logout(context.Background(), res.SessionID); err != nil {
		t.Fatalf("first logout failed: %v", err)
	}
	if err := engine.Logout(context.Background(), res.SessionID); err != nil {
		t.Fatalf("second logout failed: %v", err)
	}
	if err := engine.Logout(context.Background(), ""); err != nil {
		t.Fatalf("empty session logout failed: %v", err)
	}

	state, err := engine.SessionState(context.Background(), res.SessionID)
	if err != nil {
		t.Fatalf("SessionState failed: %v", err)
	}
	if state != session.StateAnonymous {
		t.Fatalf("expected anonymous state after logout, got %s", state)
	}
}

func TestProfileRequiresVerifiedSession(t *testing.T) {
	engine, _, done := newTestEngine(t, testConfig())
	defer done()

	if _, err := engine.Profile(context.Background(), "no-such-session"); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("expected ErrSessionInvalid, got %v", err)
	}

	res, err := engine.Register(context.Background(), "alice@example.com", "hunter22")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	profile, err := engine.Profile(context.Background(), res.SessionID)
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if profile.ID != res.Identity.ID || profile.Email != "alice@example.com" {
		t.Fatalf("unexpected profile %+v", profile)
	}
	if profile.TOTPEnabled {
		t.Fatal("expected TOTP disabled on fresh account")
	}
	if profile.CreatedAt.IsZero() {
		t.Fatal("expected non-zero created timestamp")
	}
}

func TestSessionStateUnknownIsAnonymous(t *testing.T) {
	engine, _, done := newTestEngine(t, testConfig())
	defer done()

	state, err := engine.SessionState(context.Background(), "missing")
	if err != nil {
		t.Fatalf("SessionState failed: %v", err)
	}
	if state != session.StateAnonymous {
		t.Fatalf("expected anonymous, got %s", state)
	}

	state, err = engine.SessionState(context.Background(), "")
	if err != nil || state != session.StateAnonymous {
		t.Fatalf("expected anonymous for empty id, got %s err=%v", state, err)
	}
}

func TestLoginMetrics(t *testing.T) {
	engine, _, done := newTestEngine(t, testConfig())
	defer done()

	if _, err := engine.Register(context.Background(), "alice@example.com", "hunter22"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := engine.Login(context.Background(), "alice@example.com", "hunter22"); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := engine.Login(context.Background(), "alice@example.com", "wrong"); err == nil {
		t.Fatal("expected login failure")
	}

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricLoginSuccess] != 1 {
		t.Fatalf("expected 1 login success, got %d", snap.Counters[MetricLoginSuccess])
	}
	if snap.Counters[MetricLoginFailure] != 1 {
		t.Fatalf("expected 1 login failure, got %d", snap.Counters[MetricLoginFailure])
	}
	if snap.Counters[MetricRegisterSuccess] != 1 {
		t.Fatalf("expected 1 register success, got %d", snap.Counters[MetricRegisterSuccess])
	}
}
