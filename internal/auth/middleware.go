package auth

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/floorworks/commerce/internal/domain"
	"github.com/floorworks/commerce/internal/store"
)

type principalKey struct{}

// Principal is the resolved caller identity attached to an echo
// request's context by the role-gate middlewares below.
type Principal struct {
	Kind domain.PrincipalKind
	ID   uuid.UUID
	Role domain.StaffRole // only meaningful when Kind == PrincipalStaff
}

// FromContext retrieves the authenticated principal, or nil if the
// request reached the handler through an optional-auth middleware with
// no valid token presented.
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}

func withPrincipal(c echo.Context, p *Principal) {
	c.SetRequest(c.Request().WithContext(context.WithValue(c.Request().Context(), principalKey{}, p)))
}

// headerFor returns the header name spec.md §6 assigns to each role
// prefix's bearer token.
func headerFor(kind domain.PrincipalKind) string {
	switch kind {
	case domain.PrincipalStaff:
		return "X-Staff-Token"
	case domain.PrincipalRep:
		return "X-Rep-Token"
	case domain.PrincipalTrade:
		return "X-Trade-Token"
	case domain.PrincipalCustomer:
		return "X-Customer-Token"
	default:
		return ""
	}
}

// RequireSession builds echo middleware that resolves the role-specific
// token header into a Principal, failing the request with 401 if absent
// or invalid.
func RequireSession(st *store.Store, kind domain.PrincipalKind) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := c.Request().Header.Get(headerFor(kind))
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing "+headerFor(kind))
			}

			sess, err := st.GetSessionByToken(c.Request().Context(), kind, token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired session")
			}

			p := &Principal{Kind: kind, ID: sess.PrincipalID}
			if kind == domain.PrincipalStaff {
				staff, err := st.GetStaffByID(c.Request().Context(), sess.PrincipalID)
				if err != nil {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid session")
				}
				p.Role = staff.Role
			}

			withPrincipal(c, p)
			return next(c)
		}
	}
}

// optionalSession attaches a Principal if a valid token is present but
// never fails the request, per spec.md §4.2's optionalTradeAuth /
// optionalCustomerAuth.
func optionalSession(st *store.Store, kind domain.PrincipalKind) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := c.Request().Header.Get(headerFor(kind))
			if token == "" {
				return next(c)
			}
			sess, err := st.GetSessionByToken(c.Request().Context(), kind, token)
			if err != nil {
				return next(c)
			}
			withPrincipal(c, &Principal{Kind: kind, ID: sess.PrincipalID})
			return next(c)
		}
	}
}

// OptionalTradeAuth attaches trade identity when present, never failing
// the request.
func OptionalTradeAuth(st *store.Store) echo.MiddlewareFunc {
	return optionalSession(st, domain.PrincipalTrade)
}

// OptionalCustomerAuth attaches customer identity when present, never
// failing the request.
func OptionalCustomerAuth(st *store.Store) echo.MiddlewareFunc {
	return optionalSession(st, domain.PrincipalCustomer)
}

// RequireRole gates a staff route to one or more roles, applied after
// RequireSession(st, domain.PrincipalStaff). Managers (role "ops") are
// never granted the admin-only surface, per spec.md §4.2.
func RequireRole(roles ...domain.StaffRole) echo.MiddlewareFunc {
	allowed := make(map[domain.StaffRole]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := FromContext(c.Request().Context())
			if p == nil || p.Kind != domain.PrincipalStaff {
				return echo.NewHTTPError(http.StatusUnauthorized, "staff session required")
			}
			if !allowed[p.Role] {
				return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
			}
			return next(c)
		}
	}
}
