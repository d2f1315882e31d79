// Package httpapi exposes a goAccount Manager over HTTP with echo.
//
// Requests and responses are JSON. Every Manager outcome is returned as
// {"result": "<RESULT_NAME>"} with the status from [StatusFor]. A successful
// login rotates the session ID, stores a signed handle in a cookie and also
// returns it as "handle" for clients that send bearer tokens.
//
// Routes:
//
//	POST   /register
//	POST   /register/confirm
//	POST   /register/confirm-manual
//	POST   /register/resend
//	POST   /login
//	POST   /logout
//	GET    /me
//	POST   /password/change
//	POST   /password/check
//	POST   /password/reset-token
//	POST   /password/reset-token/check
//	POST   /password/reset
//	DELETE /account
package httpapi
