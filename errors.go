package authcore

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by the engine wraps exactly one of
// these, so callers can branch on the class with errors.Is without
// matching message text.
var (
	// ErrValidation marks missing or malformed caller input.
	ErrValidation = errors.New("validation failed")
	// ErrAuthentication marks rejected credentials, codes, or sessions.
	// The message is deliberately generic to avoid oracle leaks.
	ErrAuthentication = errors.New("authentication failed")
	// ErrConflict marks operations that collide with existing state.
	ErrConflict = errors.New("conflict")
	// ErrNotFound marks references to records that no longer exist.
	ErrNotFound = errors.New("not found")
	// ErrDecryption marks stored secrets that cannot be recovered.
	// Non-retriable for the operation that hit it; access is denied.
	ErrDecryption = errors.New("decryption failed")
	// ErrInternal marks unexpected collaborator failures.
	ErrInternal = errors.New("internal error")
)

var (
	// ErrCredentialsRequired is returned when email or password is empty.
	ErrCredentialsRequired = fmt.Errorf("%w: email and password are required", ErrValidation)
	// ErrPasswordTooShort is returned on registration with a password
	// under six characters.
	ErrPasswordTooShort = fmt.Errorf("%w: password must be at least 6 characters", ErrValidation)
	// ErrCodeRequired is returned when a TOTP code is expected but empty.
	ErrCodeRequired = fmt.Errorf("%w: verification code is required", ErrValidation)
	// ErrNoPendingEnrollment is returned by ConfirmTOTPSetup when no
	// enrollment is in progress on the session.
	ErrNoPendingEnrollment = fmt.Errorf("%w: no two-factor enrollment in progress", ErrValidation)
	// ErrTOTPNotConfigured is returned when a two-factor operation is
	// attempted against an account without a committed seed.
	ErrTOTPNotConfigured = fmt.Errorf("%w: two-factor authentication not configured", ErrValidation)

	// ErrInvalidCredentials is the single error returned for unknown
	// email and wrong password alike.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid email or password", ErrAuthentication)
	// ErrTOTPInvalid is returned for a code that matches no step in the
	// accepted window.
	ErrTOTPInvalid = fmt.Errorf("%w: invalid two-factor code", ErrAuthentication)
	// ErrSessionInvalid is returned for a missing, expired, or
	// undecodable session.
	ErrSessionInvalid = fmt.Errorf("%w: missing or expired session", ErrAuthentication)
	// ErrTwoFactorPending is returned when a session that has only
	// passed the password check attempts a verified-only operation.
	ErrTwoFactorPending = fmt.Errorf("%w: two-factor verification required", ErrAuthentication)

	// ErrEmailTaken is returned on registration with an email that is
	// already in use.
	ErrEmailTaken = fmt.Errorf("%w: email already registered", ErrConflict)
	// ErrTOTPAlreadyEnabled is returned by BeginTOTPSetup when the
	// account already has a verified seed.
	ErrTOTPAlreadyEnabled = fmt.Errorf("%w: two-factor authentication already enabled", ErrConflict)

	// ErrUserNotFound is returned when a session references a user the
	// record store no longer holds.
	ErrUserNotFound = fmt.Errorf("%w: user not found", ErrNotFound)

	// ErrSecretUnreadable is returned when a stored seed fails to
	// decrypt. The operation fails closed.
	ErrSecretUnreadable = fmt.Errorf("%w: stored two-factor secret unreadable", ErrDecryption)

	// ErrEngineNotReady is returned when a dependency was not wired.
	ErrEngineNotReady = fmt.Errorf("%w: engine not initialized", ErrInternal)
	// ErrStoreUnavailable is returned when the session store or record
	// store fails unexpectedly.
	ErrStoreUnavailable = fmt.Errorf("%w: backend unavailable", ErrInternal)
)
