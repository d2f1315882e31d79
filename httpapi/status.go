package httpapi

import (
	"net/http"

	goAccount "github.com/MrEthical07/goAccount"
)

// StatusFor maps a Manager result to an HTTP status code.
func StatusFor(r goAccount.Result) int {
	switch r {
	case goAccount.ResultOK:
		return http.StatusOK
	case goAccount.ResultNoSuchUser:
		return http.StatusNotFound
	case goAccount.ResultInvalidPassword:
		return http.StatusUnauthorized
	case goAccount.ResultRegistrationNotConfirmed:
		return http.StatusForbidden
	case goAccount.ResultEmailAlreadyRegistered,
		goAccount.ResultUserNameAlreadyRegistered,
		goAccount.ResultRegistrationAlreadyConfirmed:
		return http.StatusConflict
	case goAccount.ResultInvalidRegistrationControlCode,
		goAccount.ResultNoValidPasswordResetToken:
		return http.StatusBadRequest
	case goAccount.ResultFailedToSendEmail:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
