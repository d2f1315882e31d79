// Package middleware binds goAccount sessions to net/http requests.
//
// # Guards
//
//   - [Session] resolves the session handle carried by a request (cookie or
//     bearer token) and binds its session ID with session.WithID.
//   - [RequireAccount] rejects requests whose session has no current account
//     and exposes that account through [AccountFromContext].
//
// # Architecture boundaries
//
// This package translates HTTP semantics into session and Manager calls. It
// does NOT decide who may log in; every account decision belongs to the
// Manager.
//
// # What this package must NOT do
//
//   - Issue handles or set cookies (the controller does that on login).
//   - Access Redis or the user database directly.
//   - Make authorization decisions on rank.
package middleware
