// Package session provides Redis-backed session persistence and compact binary session
// encoding for authentication hot paths.
//
// # Binary encoding
//
// Sessions are stored in Redis as a compact binary format (schema version v1).
// The encoder is append-only: new versions add fields but never reinterpret
// old ones.
//
// # State machine
//
// A session's [State] is derived from its fields, never stored separately:
// anonymous (no user bound), pending two-factor (user bound, code outstanding),
// or verified. Transitions are performed by the Engine; this package only
// reports the state.
//
// # Architecture boundaries
//
// This package owns the [Store] (Redis operations) and the [Session] model.
// It does NOT verify codes or passwords, or enforce authentication policy —
// those responsibilities belong to the Engine.
//
// # What this package must NOT do
//
//   - Import authcore (no upward imports).
//   - Perform application-level authorization decisions.
//   - Store plaintext secrets in [Session] fields.
package session
