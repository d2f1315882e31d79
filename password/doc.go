// Package password implements salted password hashing and verification.
//
// # Output format
//
// A credential is a pair of lowercase hex strings: a random salt and the digest of
// salt||password. The default scheme is SHA-256 over UTF-8 input:
//
//	hash = hex(sha256(salt || password))
//
// [SchemeArgon2id] swaps the digest for argon2id with configurable cost. [EncodingUTF16]
// reproduces hashes stored by older deployments that digested big-endian UTF-16 text.
// Changing either setting invalidates every stored hash; treat it as a migration.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Password policy (minimum length,
// confirmation) is enforced by the Manager.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and receive hashes.
//   - Import any other goAccount package.
//   - Log plaintext passwords or salts.
package password
