package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/twofactorlab/authcore/internal"
	"github.com/twofactorlab/authcore/password"
	"github.com/twofactorlab/authcore/secretbox"
	"github.com/twofactorlab/authcore/session"
)

// Engine defines a public type used by authcore APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config       Config
	sessionStore *session.Store
	sessionLocks *internal.KeyedMutex
	passwordHash *password.Hasher
	secrets      *secretbox.Cipher
	totp         *totpManager
	audit        *auditDispatcher
	metrics      *Metrics
	userProvider UserProvider
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped may return an error when input validation, dependency calls, or security checks fail.
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot may return an error when input validation, dependency calls, or security checks fail.
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricObserve(id MetricID, d time.Duration) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Observe(id, d)
}

// SessionState reports the derived authentication state for a session ID.
// Unknown, expired, and corrupt sessions all report StateAnonymous.
func (e *Engine) SessionState(ctx context.Context, sessionID string) (session.State, error) {
	if e == nil || e.sessionStore == nil {
		return session.StateAnonymous, ErrEngineNotReady
	}
	if sessionID == "" {
		return session.StateAnonymous, nil
	}

	sess, err := e.loadSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionInvalid) {
			return session.StateAnonymous, nil
		}
		return session.StateAnonymous, err
	}

	return sess.State(), nil
}

// loadSession maps store-level absence and decode failures to
// ErrSessionInvalid and backend failures to ErrStoreUnavailable.
func (e *Engine) loadSession(ctx context.Context, sessionID string) (*session.Session, error) {
	sess, err := e.sessionStore.Get(ctx, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, redis.Nil):
			return nil, ErrSessionInvalid
		case errors.Is(err, session.ErrRedisUnavailable):
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		default:
			return nil, ErrSessionInvalid
		}
	}
	return sess, nil
}

// requireVerified loads the session and its owning user record, rejecting
// anything below StateVerified.
func (e *Engine) requireVerified(ctx context.Context, sessionID string) (*session.Session, UserRecord, error) {
	var user UserRecord

	if sessionID == "" {
		return nil, user, ErrSessionInvalid
	}

	sess, err := e.loadSession(ctx, sessionID)
	if err != nil {
		return nil, user, err
	}

	switch sess.State() {
	case session.StateVerified:
	case session.StatePendingTwoFactor:
		return nil, user, ErrTwoFactorPending
	default:
		return nil, user, ErrSessionInvalid
	}

	user, err = e.userProvider.GetUserByID(ctx, sess.UserID)
	if err != nil {
		return nil, user, err
	}

	return sess, user, nil
}

// createSession mints a fresh session for user with the configured
// absolute lifetime and persists it.
func (e *Engine) createSession(ctx context.Context, user UserRecord, verified bool) (*session.Session, error) {
	sid, err := internal.NewSessionID()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sess := &session.Session{
		SessionID:         sid.String(),
		UserID:            user.UserID,
		TwoFactorVerified: verified,
		CreatedAt:         now.Unix(),
		ExpiresAt:         now.Add(e.config.Session.Lifetime).Unix(),
	}

	if err := e.sessionStore.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	e.metricInc(MetricSessionCreated)

	return sess, nil
}

func (e *Engine) saveSession(ctx context.Context, sess *session.Session) error {
	if err := e.sessionStore.Save(ctx, sess); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}
