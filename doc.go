// Package goAccount provides an embeddable user-account lifecycle engine:
// registration, confirmation, login and logout, password change and reset,
// and account cancellation.
//
// The package owns the security-sensitive rules (salted hashing, control codes,
// reset token expiry, precondition ordering) and reports every outcome as a
// [Result]. Durable storage, email delivery and session persistence are
// delegated to the [UserDatabase], [Notifier] and [SessionStore] collaborators.
//
// Manager methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goAccount is the public surface. It exposes [Manager], [Builder], [Config], the
// collaborator interfaces and value types. Adapters live in sub-packages:
// store/memory and store/sqlstore (storage), notify (email), session (session
// stores), httpapi (HTTP controller).
//
// # What this package must NOT do
//
//   - Cache accounts or tokens across calls. Every operation re-reads storage.
//   - Retry or time out collaborator calls. That is the collaborator's policy.
//   - Return errors for expected business outcomes. Only Build fails with an error.
//   - Import any sub-package that re-imports goAccount (no import cycles).
package goAccount
