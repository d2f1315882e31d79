// Package jwt issues and verifies signed session handles: short JWTs that
// name a server-side session. Handles carry no authorization state; the
// session store remains the source of truth.
package jwt
