package authcore

import (
	"context"
	"time"
)

// UserRecord is the account record exchanged with a [UserProvider].
// TOTPSecretEncrypted holds SecretCipher output, never a plaintext seed;
// TOTPEnabled is true only once a seed has been verified and committed.
type UserRecord struct {
	UserID              string
	Email               string
	PasswordHash        string
	TOTPSecretEncrypted string
	TOTPEnabled         bool
	CreatedAt           time.Time
}

// CreateUserInput is the input for [UserProvider.CreateUser].
type CreateUserInput struct {
	Email        string
	PasswordHash string
}

// UserProvider is the interface callers implement to connect the engine
// to their user record store. Implementations must return
// [ErrUserNotFound] for absent records and [ErrEmailTaken] for duplicate
// creation, and must apply EnableTOTP and DisableTOTP as single atomic
// writes (secret and flag together) so concurrent requests never observe
// the flag without the secret.
type UserProvider interface {
	GetUserByEmail(ctx context.Context, email string) (UserRecord, error)
	GetUserByID(ctx context.Context, userID string) (UserRecord, error)
	CreateUser(ctx context.Context, input CreateUserInput) (UserRecord, error)
	EnableTOTP(ctx context.Context, userID, encryptedSecret string) error
	DisableTOTP(ctx context.Context, userID string) error
}

// Identity is the public account payload returned by login and
// registration. It never carries the password hash or any seed material.
type Identity struct {
	ID          string
	Email       string
	TOTPEnabled bool
}

// Profile is the payload returned by [Engine.Profile].
type Profile struct {
	ID          string
	Email       string
	TOTPEnabled bool
	CreatedAt   time.Time
}

// LoginResult is returned by [Engine.Register], [Engine.Login], and
// [Engine.LoginWithTOTP]. When Requires2FA is true the session is in the
// pending state and the caller must present a TOTP code before acting as
// the identity.
type LoginResult struct {
	Identity    Identity
	SessionID   string
	Requires2FA bool
}

// TOTPSetup holds the enrollment material returned once by
// [Engine.BeginTOTPSetup]. Secret is the base32 seed for manual entry;
// URI is the otpauth:// provisioning URI for QR rendering. Neither is
// ever returned again or stored in plaintext.
type TOTPSetup struct {
	Secret string
	URI    string
}

func identityOf(user UserRecord) Identity {
	return Identity{
		ID:          user.UserID,
		Email:       user.Email,
		TOTPEnabled: user.TOTPEnabled,
	}
}
