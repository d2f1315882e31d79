// Package internal contains helper utilities that are private to goAccount,
// chiefly hex-encoded random tokens for control codes and reset keys.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher + Sink)
//
// # What this package must NOT do
//
//   - Export types that appear in the public goAccount API.
//   - Be imported by any package outside the goAccount module.
package internal
