// Package session persists the current account of a client session.
//
// # Binary encoding
//
// Sessions are stored as a compact versioned binary blob (schema v1 to v3).
// Older blobs are rewritten in the current schema on read. New versions add
// fields and never reinterpret old ones.
//
// # Architecture boundaries
//
// [Store] keeps sessions in Redis and [Local] keeps them in process memory.
// [Accounts] adapts either one to goAccount.SessionStore, addressing the
// session bound to the request context with [WithID]. Issuing the session ID
// to clients (cookies, tokens) belongs to the transport layer.
//
// # What this package must NOT do
//
//   - Import jwt or httpapi.
//   - Make account lifecycle decisions; it only records what the Manager sets.
//   - Store credentials, control codes or reset keys in [Session] fields.
package session
