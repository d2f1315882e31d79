package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	goAccount "github.com/MrEthical07/goAccount"
	accountmw "github.com/MrEthical07/goAccount/middleware"
	"github.com/MrEthical07/goAccount/session"
)

type resultResponse struct {
	Result goAccount.Result `json:"result"`
}

type passwordCheckResponse struct {
	Password goAccount.PasswordCheckResult `json:"password"`
}

type loginResponse struct {
	Result goAccount.Result `json:"result"`
	Handle string           `json:"handle,omitempty"`
}

type accountResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	Rank      int    `json:"rank"`
	Confirmed bool   `json:"confirmed"`
}

type registerRequest struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	Password     string `json:"password"`
	Confirmation string `json:"confirmation"`
}

type confirmRequest struct {
	Email        string `json:"email"`
	Code         string `json:"code"`
	Password     string `json:"password"`
	Confirmation string `json:"confirmation"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type changePasswordRequest struct {
	OldPassword  string `json:"old_password"`
	NewPassword  string `json:"new_password"`
	Confirmation string `json:"confirmation"`
}

type passwordRequest struct {
	Password     string `json:"password"`
	Confirmation string `json:"confirmation"`
}

type resetRequest struct {
	Email        string `json:"email"`
	Key          string `json:"key"`
	Password     string `json:"password"`
	Confirmation string `json:"confirmation"`
}

func bind(ec echo.Context, dst any) error {
	if err := ec.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	return nil
}

func respond(ec echo.Context, r goAccount.Result) error {
	return ec.JSON(StatusFor(r), resultResponse{Result: r})
}

// checkNewPassword answers 400 when the password policy rejects password.
func (c *Controller) checkNewPassword(ec echo.Context, password, confirmation string) (bool, error) {
	if pc := c.manager.CheckPassword(password, confirmation); !pc.OK() {
		return false, ec.JSON(http.StatusBadRequest, passwordCheckResponse{Password: pc})
	}
	return true, nil
}

// checkIdentity answers 400 for a malformed email, or a name shaped like an
// email, which LogIn would resolve as an email and never find.
func checkIdentity(email, name string) error {
	if !goAccount.IsEmailValid(email) {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid email")
	}
	if name != "" && goAccount.IsEmailValid(name) {
		return echo.NewHTTPError(http.StatusBadRequest, "name must not be an email address")
	}
	return nil
}

func (c *Controller) register(ec echo.Context) error {
	var req registerRequest
	if err := bind(ec, &req); err != nil {
		return err
	}
	if err := checkIdentity(req.Email, req.Name); err != nil {
		return err
	}
	if ok, err := c.checkNewPassword(ec, req.Password, req.Confirmation); !ok {
		return err
	}
	return respond(ec, c.manager.RegisterUser(ec.Request().Context(), req.Email, req.Name, req.Password, false))
}

func (c *Controller) confirmRegistration(ec echo.Context) error {
	var req confirmRequest
	if err := bind(ec, &req); err != nil {
		return err
	}
	return respond(ec, c.manager.ConfirmRegistration(ec.Request().Context(), req.Email, req.Code))
}

func (c *Controller) confirmManualRegistration(ec echo.Context) error {
	var req confirmRequest
	if err := bind(ec, &req); err != nil {
		return err
	}
	if ok, err := c.checkNewPassword(ec, req.Password, req.Confirmation); !ok {
		return err
	}
	return respond(ec, c.manager.ConfirmManualRegistration(ec.Request().Context(), req.Email, req.Code, req.Password))
}

func (c *Controller) resendRegistrationEmail(ec echo.Context) error {
	var req emailRequest
	if err := bind(ec, &req); err != nil {
		return err
	}
	return respond(ec, c.manager.ResendRegistrationEmail(ec.Request().Context(), req.Email))
}

// logIn always binds a fresh session ID so a handle issued before login is
// never promoted.
func (c *Controller) logIn(ec echo.Context) error {
	var req loginRequest
	if err := bind(ec, &req); err != nil {
		return err
	}

	sid := c.newID()
	ctx := session.WithID(ec.Request().Context(), sid)

	r := c.manager.LogIn(ctx, req.Identifier, req.Password, ec.RealIP())
	if r != goAccount.ResultOK {
		return ec.JSON(StatusFor(r), loginResponse{Result: r})
	}

	var userID int64
	if account := c.manager.CurrentAccount(ctx); account != nil {
		userID = account.ID
	}
	handle, err := c.handles.CreateHandle(sid, userID)
	if err != nil {
		c.logger.LogAttrs(ctx, slog.LevelError, "httpapi: issue session handle",
			slog.Int64("user_id", userID), slog.Any("error", err))
		c.manager.LogOut(ctx)
		return echo.NewHTTPError(http.StatusInternalServerError, "could not issue session")
	}

	c.setHandleCookie(ec, handle)
	return ec.JSON(http.StatusOK, loginResponse{Result: r, Handle: handle})
}

func (c *Controller) logOut(ec echo.Context) error {
	c.manager.LogOut(ec.Request().Context())
	c.clearHandleCookie(ec)
	return respond(ec, goAccount.ResultOK)
}

func (c *Controller) me(ec echo.Context) error {
	account, _ := accountmw.AccountFromContext(ec.Request().Context())
	return ec.JSON(http.StatusOK, accountResponse{
		ID:        account.ID,
		Name:      account.Name,
		Email:     account.Email,
		Rank:      account.Rank,
		Confirmed: account.RegistrationConfirmed,
	})
}

func (c *Controller) changePassword(ec echo.Context) error {
	var req changePasswordRequest
	if err := bind(ec, &req); err != nil {
		return err
	}
	if ok, err := c.checkNewPassword(ec, req.NewPassword, req.Confirmation); !ok {
		return err
	}
	account, _ := accountmw.AccountFromContext(ec.Request().Context())
	return respond(ec, c.manager.ChangePassword(ec.Request().Context(), account.ID, req.OldPassword, req.NewPassword))
}

func (c *Controller) checkPassword(ec echo.Context) error {
	var req passwordRequest
	if err := bind(ec, &req); err != nil {
		return err
	}
	return ec.JSON(http.StatusOK, passwordCheckResponse{Password: c.manager.CheckPassword(req.Password, req.Confirmation)})
}

func (c *Controller) createPasswordResetToken(ec echo.Context) error {
	var req emailRequest
	if err := bind(ec, &req); err != nil {
		return err
	}
	return respond(ec, c.manager.CreatePasswordResetToken(ec.Request().Context(), req.Email))
}

func (c *Controller) checkPasswordResetToken(ec echo.Context) error {
	var req resetRequest
	if err := bind(ec, &req); err != nil {
		return err
	}
	valid := c.manager.IsPasswordResetTokenValid(ec.Request().Context(), req.Email, req.Key)
	return ec.JSON(http.StatusOK, map[string]bool{"valid": valid})
}

func (c *Controller) resetPassword(ec echo.Context) error {
	var req resetRequest
	if err := bind(ec, &req); err != nil {
		return err
	}
	if ok, err := c.checkNewPassword(ec, req.Password, req.Confirmation); !ok {
		return err
	}
	return respond(ec, c.manager.ResetPassword(ec.Request().Context(), req.Email, req.Key, req.Password))
}

// cancelRegistration deletes the logged-in account and ends its session, and
// with a revoker every other session of the account.
func (c *Controller) cancelRegistration(ec echo.Context) error {
	var req passwordRequest
	if err := bind(ec, &req); err != nil {
		return err
	}
	ctx := ec.Request().Context()
	account, _ := accountmw.AccountFromContext(ctx)

	r := c.manager.CancelRegistration(ctx, account.ID, req.Password)
	if r == goAccount.ResultOK {
		c.manager.LogOut(ctx)
		c.clearHandleCookie(ec)
		c.revokeSessions(ctx, account.ID)
	}
	return respond(ec, r)
}

// revokeSessions is best effort: the account is already gone, so a failure
// is logged and the remaining sessions expire on their own.
func (c *Controller) revokeSessions(ctx context.Context, userID int64) {
	if c.revoker == nil {
		return
	}
	if err := c.revoker.DeleteAllForUser(ctx, userID); err != nil {
		c.logger.LogAttrs(ctx, slog.LevelWarn, "httpapi: revoke sessions",
			slog.Int64("user_id", userID), slog.Any("error", err))
	}
}

