package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/centriq-hq/centriq/internal/service"
	"github.com/centriq-hq/centriq/internal/store"
	"github.com/centriq-hq/centriq/internal/tenant"
)

// httpError maps service and store errors onto HTTP status codes. Cross-tenant
// access reports not-found so callers can't probe for rows in other
// organizations.
func httpError(err error) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return echo.NewHTTPError(http.StatusBadRequest, verr.Error())
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, tenant.ErrCrossTenantAccess):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrAlreadyExists),
		errors.Is(err, service.ErrHasDependents),
		errors.Is(err, service.ErrIllegalTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, tenant.ErrUnauthenticated):
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthenticated")
	case errors.Is(err, tenant.ErrNoActiveTenant):
		return echo.NewHTTPError(http.StatusForbidden, "no active organization")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
