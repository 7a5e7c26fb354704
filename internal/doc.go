// Package internal contains helper utilities that are intentionally private
// to authcore: secure session ID generation and the per-key mutex that
// serializes mutating operations on a single session.
//
// # What this package must NOT do
//
//   - Export types that appear in the public authcore API.
//   - Be imported by any package outside the authcore module.
package internal
