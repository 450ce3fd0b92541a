package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shirin_shop/internal/models"
	"github.com/Skotchmaster/shirin_shop/internal/service"
	"github.com/Skotchmaster/shirin_shop/pkg/logging"
	"github.com/Skotchmaster/shirin_shop/pkg/tokens"
)

var (
	ErrUnauthorized = errors.New("could not validate credentials")
	ErrForbidden    = errors.New("not enough permissions")
)

const userKey = "user"

type UserLookup interface {
	UserByUsername(ctx context.Context, username string) (*models.User, error)
}

// Guard resolves a bearer token to a stored user on every request.
type Guard struct {
	Tokens *tokens.Service
	Users  UserLookup
}

func NewGuard(t *tokens.Service, users UserLookup) *Guard {
	return &Guard{Tokens: t, Users: users}
}

// Authenticate fails with ErrUnauthorized for a bad token and for a token
// whose user no longer exists. Lookup failures are returned as is.
func (g *Guard) Authenticate(ctx context.Context, token string) (*models.User, error) {
	username, err := g.Tokens.Verify(token)
	if err != nil {
		return nil, ErrUnauthorized
	}
	user, err := g.Users.UserByUsername(ctx, username)
	switch {
	case errors.Is(err, service.ErrNotFound):
		return nil, ErrUnauthorized
	case err != nil:
		return nil, fmt.Errorf("user lookup: %w", err)
	case user == nil:
		return nil, ErrUnauthorized
	}
	return user, nil
}

func (g *Guard) AuthorizeAdmin(ctx context.Context, token string) (*models.User, error) {
	user, err := g.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin {
		return nil, ErrForbidden
	}
	return user, nil
}

func bearerToken(c echo.Context) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	scheme, token, ok := strings.Cut(strings.TrimSpace(h), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func unauthorized(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return echo.NewHTTPError(http.StatusUnauthorized, "Could not validate credentials")
}

func (g *Guard) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return g.require(g.Authenticate, next)
}

func (g *Guard) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return g.require(g.AuthorizeAdmin, next)
}

func (g *Guard) require(check func(context.Context, string) (*models.User, error), next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("mw", "auth")

		token := bearerToken(c)
		if token == "" {
			l.Warn("auth_failed", "status", 401, "reason", "missing bearer token")
			return unauthorized(c)
		}

		user, err := check(ctx, token)
		switch {
		case errors.Is(err, ErrForbidden):
			l.Warn("auth_failed", "status", 403, "reason", "admin required")
			return echo.NewHTTPError(http.StatusForbidden, "Not enough permissions")
		case errors.Is(err, ErrUnauthorized):
			l.Warn("auth_failed", "status", 401, "reason", "invalid token or unknown user")
			return unauthorized(c)
		case err != nil:
			l.Error("auth_failed", "status", 500, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}

		c.Set(userKey, user)
		c.SetRequest(c.Request().WithContext(logging.IntoContext(ctx, logging.FromContext(ctx).With("user_id", user.ID))))
		return next(c)
	}
}

// CurrentUser returns the user stored by RequireAuth or RequireAdmin.
func CurrentUser(c echo.Context) (*models.User, bool) {
	u, ok := c.Get(userKey).(*models.User)
	return u, ok && u != nil
}
