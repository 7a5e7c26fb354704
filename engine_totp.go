package authcore

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// BeginTOTPSetup starts two-factor enrollment for the session's account.
// The freshly generated seed is returned once (base32 plus otpauth URI)
// and parked, encrypted, on the session until ConfirmTOTPSetup commits
// it. Repeating the call discards the previous pending seed and issues a
// new one.
//
// BeginTOTPSetup may return an error when input validation, dependency calls, or security checks fail.
// BeginTOTPSetup does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) BeginTOTPSetup(ctx context.Context, sessionID string) (*TOTPSetup, error) {
	if e == nil || e.sessionStore == nil {
		return nil, ErrEngineNotReady
	}

	unlock := e.sessionLocks.Lock(sessionID)
	defer unlock()

	sess, user, err := e.requireVerified(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if user.TOTPEnabled {
		return nil, ErrTOTPAlreadyEnabled
	}

	_, secretBase32, err := e.totp.GenerateSecret()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	encrypted, err := e.secrets.Encrypt(secretBase32)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	sess.PendingSecret = encrypted
	if err := e.saveSession(ctx, sess); err != nil {
		return nil, err
	}

	e.metricInc(MetricEnrollmentStarted)
	e.emitAudit(ctx, auditEventEnrollmentStarted, true, user.UserID, sessionID, nil, nil)

	return &TOTPSetup{
		Secret: secretBase32,
		URI:    e.totp.ProvisionURI(secretBase32, user.Email),
	}, nil
}

// ConfirmTOTPSetup proves possession of the pending seed and commits it
// to the account in a single record write. Every other session belonging
// to the user is destroyed; the confirming session stays alive. A wrong
// code leaves the pending seed in place for retry.
//
// ConfirmTOTPSetup may return an error when input validation, dependency calls, or security checks fail.
// ConfirmTOTPSetup does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ConfirmTOTPSetup(ctx context.Context, sessionID, code string) error {
	if e == nil || e.sessionStore == nil {
		return ErrEngineNotReady
	}
	if strings.TrimSpace(code) == "" {
		return ErrCodeRequired
	}

	unlock := e.sessionLocks.Lock(sessionID)
	defer unlock()

	sess, user, err := e.requireVerified(ctx, sessionID)
	if err != nil {
		return err
	}

	if sess.PendingSecret == "" {
		return ErrNoPendingEnrollment
	}

	secretBase32, err := e.secrets.Decrypt(sess.PendingSecret)
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
		e.metricInc(MetricTOTPFailure)
		e.emitAudit(ctx, auditEventTOTPFailure, false, user.UserID, sessionID, ErrTOTPInvalid, nil)
		return ErrTOTPInvalid
	}

	if err := e.userProvider.EnableTOTP(ctx, user.UserID, sess.PendingSecret); err != nil {
		return err
	}

	// Other sessions predate the second factor; force them to
	// re-authenticate.
	if err := e.sessionStore.DeleteAllForUser(ctx, user.UserID); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	sess.PendingSecret = ""
	sess.TwoFactorVerified = true
	if err := e.saveSession(ctx, sess); err != nil {
		return err
	}

	e.metricInc(MetricEnrollmentConfirmed)
	e.emitAudit(ctx, auditEventEnrollmentConfirmed, true, user.UserID, sessionID, nil, nil)

	return nil
}

// DisableTOTP turns off two-factor authentication after re-proving the
// password. The committed seed is cleared in a single record write and
// every other session for the user is destroyed.
//
// DisableTOTP may return an error when input validation, dependency calls, or security checks fail.
// DisableTOTP does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) DisableTOTP(ctx context.Context, sessionID, password string) error {
	if e == nil || e.sessionStore == nil {
		return ErrEngineNotReady
	}
	if password == "" {
		return ErrCredentialsRequired
	}

	unlock := e.sessionLocks.Lock(sessionID)
	defer unlock()

	sess, user, err := e.requireVerified(ctx, sessionID)
	if err != nil {
		return err
	}

	if !user.TOTPEnabled {
		return ErrTOTPNotConfigured
	}

	if !e.passwordHash.Verify(password, user.PasswordHash) {
		return ErrInvalidCredentials
	}

	if err := e.userProvider.DisableTOTP(ctx, user.UserID); err != nil {
		return err
	}

	if err := e.sessionStore.DeleteAllForUser(ctx, user.UserID); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := e.saveSession(ctx, sess); err != nil {
		return err
	}

	e.metricInc(MetricTOTPDisabled)
	e.emitAudit(ctx, auditEventTOTPDisabled, true, user.UserID, sessionID, nil, nil)

	return nil
}
