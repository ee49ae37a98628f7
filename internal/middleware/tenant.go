// Package middleware provides HTTP middleware for the order API.
package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// TenantHeader carries the tenant id on every API request.
const TenantHeader = "X-Tenant-ID"

const tenantContextKey = "tenant_id"

// RequireTenant rejects requests without a tenant id and stores the id on
// the request context for handlers.
func RequireTenant(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tenantID := c.Request().Header.Get(TenantHeader)
		if tenantID == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"code":    "invalid",
				"message": "missing " + TenantHeader + " header",
			})
		}

		c.Set(tenantContextKey, tenantID)
		return next(c)
	}
}

// TenantID returns the tenant id stored by RequireTenant.
func TenantID(c echo.Context) string {
	tenantID, _ := c.Get(tenantContextKey).(string)
	return tenantID
}
