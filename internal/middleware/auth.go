package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/campus-market/internal/apperr"
	"github.com/shinyyama/campus-market/internal/identity"
)

const requesterKey = "requester"

// RequesterResolver turns a verified identity into a Requester.
type RequesterResolver interface {
	Resolve(ctx context.Context, id *identity.Identity) (identity.Requester, error)
}

type AuthMiddleware struct {
	verifier identity.Verifier
	resolver RequesterResolver
}

func NewAuthMiddleware(verifier identity.Verifier, resolver RequesterResolver) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, resolver: resolver}
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func deny(c echo.Context, status int, code, message string) error {
	var b errorBody
	b.Error.Code = code
	b.Error.Message = message
	return c.JSON(status, b)
}

// RequireAuth resolves the requester once and stores it on the echo context
// and the request context. Suspended accounts stop here.
func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req, err := m.authenticate(c)
		if err != nil {
			return m.reject(c, err)
		}
		if req.Suspended {
			return deny(c, http.StatusForbidden, "forbidden", "account suspended")
		}
		setRequester(c, req)
		return next(c)
	}
}

// OptionalAuth attaches a requester when a valid token is present and lets
// anonymous calls through. A bad token is still rejected.
func (m *AuthMiddleware) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Request().Header.Get("Authorization") == "" {
			return next(c)
		}
		req, err := m.authenticate(c)
		if err != nil {
			return m.reject(c, err)
		}
		if !req.Suspended {
			setRequester(c, req)
		}
		return next(c)
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := Requester(c)
		if !req.Authenticated() {
			return deny(c, http.StatusUnauthorized, "unauthorized", "missing credentials")
		}
		if !req.IsAdmin {
			return deny(c, http.StatusForbidden, "forbidden", "admin only")
		}
		return next(c)
	}
}

func (m *AuthMiddleware) authenticate(c echo.Context) (identity.Requester, error) {
	authz := c.Request().Header.Get("Authorization")
	if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
		return identity.Requester{}, apperr.ErrUnauthorized
	}
	tokenStr := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	ctx := c.Request().Context()
	id, err := m.verifier.Verify(ctx, tokenStr)
	if err != nil {
		return identity.Requester{}, err
	}
	return m.resolver.Resolve(ctx, id)
}

func (m *AuthMiddleware) reject(c echo.Context, err error) error {
	if errors.Is(err, apperr.ErrUnauthorized) {
		return deny(c, http.StatusUnauthorized, "unauthorized", "invalid_token")
	}
	log.Printf("auth: %v", err)
	return deny(c, http.StatusServiceUnavailable, "dependency_unavailable", "identity check failed")
}

func setRequester(c echo.Context, req identity.Requester) {
	c.Set("uid", req.ID)
	c.Set(requesterKey, req)
	c.SetRequest(c.Request().WithContext(identity.WithRequester(c.Request().Context(), req)))
}

// Requester returns the resolved requester, or the zero value for anonymous
// calls.
func Requester(c echo.Context) identity.Requester {
	if req, ok := c.Get(requesterKey).(identity.Requester); ok {
		return req
	}
	req, _ := identity.RequesterFrom(c.Request().Context())
	return req
}
