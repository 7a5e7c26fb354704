package session

// Session defines a public type used by authcore APIs.
//
// Session instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Session struct {
	SessionID string
	UserID    string

	TwoFactorVerified bool

	// PendingSecret holds the encrypted enrollment seed while a TOTP setup
	// is awaiting confirmation. It lives only in the session blob, never in
	// the user record.
	PendingSecret string

	CreatedAt int64
	ExpiresAt int64
}

// State classifies a session for authorization decisions.
type State uint8

const (
	// StateAnonymous means no user is bound to the session.
	StateAnonymous State = iota
	// StatePendingTwoFactor means the password was accepted but a TOTP
	// code is still outstanding.
	StatePendingTwoFactor
	// StateVerified means the session is fully authenticated.
	StateVerified
)

func (st State) String() string {
	switch st {
	case StateAnonymous:
		return "anonymous"
	case StatePendingTwoFactor:
		return "pending_two_factor"
	case StateVerified:
		return "verified"
	default:
		return "unknown"
	}
}

// State derives the session's authentication state from its fields.
func (s *Session) State() State {
	if s == nil || s.UserID == "" {
		return StateAnonymous
	}
	if !s.TwoFactorVerified {
		return StatePendingTwoFactor
	}
	return StateVerified
}
