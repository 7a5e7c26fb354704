package authcore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/twofactorlab/authcore/session"
)

const minPasswordLength = 6

// Register creates an account and signs it in immediately. The returned
// session is fully verified; two-factor enrollment happens afterwards via
// BeginTOTPSetup.
//
// Register may return an error when input validation, dependency calls, or security checks fail.
// Register does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Register(ctx context.Context, email, password string) (*LoginResult, error) {
	if e == nil || e.passwordHash == nil {
		return nil, ErrEngineNotReady
	}

	email = normalizeEmail(email)
	if email == "" || password == "" {
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", "", ErrCredentialsRequired, nil)
		return nil, ErrCredentialsRequired
	}
	if len(password) < minPasswordLength {
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", "", ErrPasswordTooShort, nil)
		return nil, ErrPasswordTooShort
	}

	hash, err := e.passwordHash.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	user, err := e.userProvider.CreateUser(ctx, CreateUserInput{
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", "", err, func() map[string]string {
			return map[string]string{"email": email}
		})
		return nil, err
	}

	sess, err := e.createSession(ctx, user, true)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, user.UserID, sess.SessionID, nil, nil)

	return &LoginResult{
		Identity:  identityOf(user),
		SessionID: sess.SessionID,
	}, nil
}

// Login verifies the password factor. Accounts without two-factor enabled
// receive a verified session; accounts with it enabled receive a
// pending session and Requires2FA=true, to be completed by
// VerifySessionTOTP. Unknown emails and wrong passwords return the same
// ErrInvalidCredentials.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if e == nil || e.passwordHash == nil {
		return nil, ErrEngineNotReady
	}

	start := time.Now()
	defer func() {
		e.metricObserve(MetricLoginLatency, time.Since(start))
	}()

	email = normalizeEmail(email)
	if email == "" || password == "" {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", ErrCredentialsRequired, nil)
		return nil, ErrCredentialsRequired
	}

	user, err := e.verifyPassword(ctx, email, password)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", err, func() map[string]string {
			return map[string]string{"email": email}
		})
		return nil, err
	}

	sess, err := e.createSession(ctx, user, !user.TOTPEnabled)
	if err != nil {
		return nil, err
	}

	result := &LoginResult{
		Identity:    identityOf(user),
		SessionID:   sess.SessionID,
		Requires2FA: user.TOTPEnabled,
	}

	if user.TOTPEnabled {
		e.metricInc(MetricTOTPRequired)
		e.emitAudit(ctx, auditEventLoginTOTPRequired, true, user.UserID, sess.SessionID, nil, nil)
		return result, nil
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, user.UserID, sess.SessionID, nil, nil)

	return result, nil
}

// LoginWithTOTP performs both factors in one call: password first, then
// the current code against the committed seed. On success the returned
// session is fully verified.
//
// LoginWithTOTP may return an error when input validation, dependency calls, or security checks fail.
// LoginWithTOTP does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) LoginWithTOTP(ctx context.Context, email, password, code string) (*LoginResult, error) {
	if e == nil || e.passwordHash == nil {
		return nil, ErrEngineNotReady
	}

	email = normalizeEmail(email)
	if email == "" || password == "" {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", ErrCredentialsRequired, nil)
		return nil, ErrCredentialsRequired
	}
	if strings.TrimSpace(code) == "" {
		return nil, ErrCodeRequired
	}

	user, err := e.verifyPassword(ctx, email, password)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", "", err, func() map[string]string {
			return map[string]string{"email": email}
		})
		return nil, err
	}

	if err := e.verifyCommittedCode(ctx, user, code); err != nil {
		e.metricInc(MetricTOTPFailure)
		e.emitAudit(ctx, auditEventTOTPFailure, false, user.UserID, "", err, nil)
		return nil, err
	}

	sess, err := e.createSession(ctx, user, true)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.metricInc(MetricTOTPSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, user.UserID, sess.SessionID, nil, nil)

	return &LoginResult{
		Identity:  identityOf(user),
		SessionID: sess.SessionID,
	}, nil
}

// VerifySessionTOTP completes the second factor on a pending session,
// transitioning it to verified in place. Calling it on an already
// verified session is a no-op.
//
// VerifySessionTOTP may return an error when input validation, dependency calls, or security checks fail.
// VerifySessionTOTP does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) VerifySessionTOTP(ctx context.Context, sessionID, code string) error {
	if e == nil || e.sessionStore == nil {
		return ErrEngineNotReady
	}
	if sessionID == "" {
		return ErrSessionInvalid
	}
	if strings.TrimSpace(code) == "" {
		return ErrCodeRequired
	}

	unlock := e.sessionLocks.Lock(sessionID)
	defer unlock()

	sess, err := e.loadSession(ctx, sessionID)
	if err != nil {
		return err
	}

	switch sess.State() {
	case session.StateAnonymous:
		return ErrSessionInvalid
	case session.StateVerified:
		// Already verified; idempotent.
		return nil
	}

	user, err := e.userProvider.GetUserByID(ctx, sess.UserID)
	if err != nil {
		return err
	}

	if err := e.verifyCommittedCode(ctx, user, code); err != nil {
		e.metricInc(MetricTOTPFailure)
		e.emitAudit(ctx, auditEventTOTPFailure, false, user.UserID, sessionID, err, nil)
		return err
	}

	sess.TwoFactorVerified = true
	if err := e.saveSession(ctx, sess); err != nil {
		return err
	}

	e.metricInc(MetricTOTPSuccess)
	e.emitAudit(ctx, auditEventTOTPSuccess, true, user.UserID, sessionID, nil, nil)

	return nil
}

// Logout destroys the session. Absent and expired sessions are treated
// as already logged out.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
// Logout does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Logout(ctx context.Context, sessionID string) error {
	if e == nil || e.sessionStore == nil {
		return ErrEngineNotReady
	}
	if sessionID == "" {
		return nil
	}

	if err := e.sessionStore.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metricInc(MetricSessionDestroyed)
	e.emitAudit(ctx, auditEventLogout, true, "", sessionID, nil, nil)

	return nil
}

// Profile returns the account payload for a fully verified session.
//
// Profile may return an error when input validation, dependency calls, or security checks fail.
// Profile does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Profile(ctx context.Context, sessionID string) (*Profile, error) {
	if e == nil || e.sessionStore == nil {
		return nil, ErrEngineNotReady
	}

	_, user, err := e.requireVerified(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &Profile{
		ID:          user.UserID,
		Email:       user.Email,
		TOTPEnabled: user.TOTPEnabled,
		CreatedAt:   user.CreatedAt,
	}, nil
}

// verifyPassword resolves the account and checks the password, collapsing
// unknown-email and wrong-password into one error.
func (e *Engine) verifyPassword(ctx context.Context, email, password string) (UserRecord, error) {
	user, err := e.userProvider.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return UserRecord{}, ErrInvalidCredentials
		}
		return UserRecord{}, err
	}

	if !e.passwordHash.Verify(password, user.PasswordHash) {
		return UserRecord{}, ErrInvalidCredentials
	}

	return user, nil
}

// verifyCommittedCode checks code against the account's committed,
// encrypted seed.
func (e *Engine) verifyCommittedCode(ctx context.Context, user UserRecord, code string) error {
	if !user.TOTPEnabled || user.TOTPSecretEncrypted == "" {
		return ErrTOTPNotConfigured
	}

	secretBase32, err := e.secrets.Decrypt(user.TOTPSecretEncrypted)
	if err != nil {
		return ErrSecretUnreadable
	}

	secret, err := decodeTOTPSecret(secretBase32)
	if err != nil {
		return ErrSecretUnreadable
	}

	ok, err := e.totp.VerifyCode(secret, code, time.Now())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if !ok {
		return ErrTOTPInvalid
	}

	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
