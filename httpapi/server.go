package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/jwt"
	accountmw "github.com/MrEthical07/goAccount/middleware"
	"github.com/MrEthical07/goAccount/session"
)

// Config controls the session cookie and request limits.
type Config struct {
	CookieName   string
	CookiePath   string
	CookieSecure bool
	BodyLimit    string
}

func (c Config) withDefaults() Config {
	if c.CookieName == "" {
		c.CookieName = accountmw.DefaultCookieName
	}
	if c.CookiePath == "" {
		c.CookiePath = "/"
	}
	if c.BodyLimit == "" {
		c.BodyLimit = "64K"
	}
	return c
}

// SessionRevoker ends every session of a user. *session.Store and
// *session.Local implement it.
type SessionRevoker interface {
	DeleteAllForUser(ctx context.Context, userID int64) error
}

// Controller serves the account routes.
type Controller struct {
	manager *goAccount.Manager
	handles *jwt.Manager
	revoker SessionRevoker
	cfg     Config
	logger  *slog.Logger
	newID   func() string
}

// New returns a Controller. logger may be nil.
func New(manager *goAccount.Manager, handles *jwt.Manager, cfg Config, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		manager: manager,
		handles: handles,
		cfg:     cfg.withDefaults(),
		logger:  logger,
		newID:   session.NewID,
	}
}

// WithSessionRevoker makes a cancelled account lose its sessions on every
// device, not only the one that cancelled it.
func (c *Controller) WithSessionRevoker(r SessionRevoker) *Controller {
	c.revoker = r
	return c
}

// NewEcho returns an echo instance with the controller's routes and the
// standard middleware stack.
func NewEcho(c *Controller) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.BodyLimit(c.cfg.BodyLimit))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURIPath: true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(ec echo.Context, v echomw.RequestLoggerValues) error {
			c.logger.LogAttrs(ec.Request().Context(), slog.LevelInfo, "http request",
				slog.String("method", v.Method),
				slog.String("path", v.URIPath),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency))
			return nil
		},
	}))

	c.Register(e)
	return e
}

// Register mounts the routes on e.
func (c *Controller) Register(e *echo.Echo) {
	e.Use(echo.WrapMiddleware(accountmw.Session(c.handles, c.cfg.CookieName)))

	authenticated := echo.WrapMiddleware(accountmw.RequireAccount(c.manager))

	e.POST("/register", c.register)
	e.POST("/register/confirm", c.confirmRegistration)
	e.POST("/register/confirm-manual", c.confirmManualRegistration)
	e.POST("/register/resend", c.resendRegistrationEmail)
	e.POST("/login", c.logIn)
	e.POST("/logout", c.logOut)
	e.GET("/me", c.me, authenticated)
	e.POST("/password/change", c.changePassword, authenticated)
	e.POST("/password/check", c.checkPassword)
	e.POST("/password/reset-token", c.createPasswordResetToken)
	e.POST("/password/reset-token/check", c.checkPasswordResetToken)
	e.POST("/password/reset", c.resetPassword)
	e.DELETE("/account", c.cancelRegistration, authenticated)
}

func (c *Controller) setHandleCookie(ec echo.Context, handle string) {
	ec.SetCookie(&http.Cookie{
		Name:     c.cfg.CookieName,
		Value:    handle,
		Path:     c.cfg.CookiePath,
		Expires:  time.Now().Add(c.handles.TTL()),
		MaxAge:   int(c.handles.TTL().Seconds()),
		HttpOnly: true,
		Secure:   c.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c *Controller) clearHandleCookie(ec echo.Context) {
	ec.SetCookie(&http.Cookie{
		Name:     c.cfg.CookieName,
		Value:    "",
		Path:     c.cfg.CookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
