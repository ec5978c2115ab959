package echomw

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/reoring/goskemac"
	"github.com/reoring/goskemac/middleware"
)

// ValidateJSON validates request bodies with p, stores the parsed value in
// the request context on success, or returns 400 with the issues.
func ValidateJSON(p *goskemac.Parser, opts ...goskemac.ParseOpt) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			data, issues, err := middleware.Validate(p, c.Request().Body, opts...)
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]any{"error": err.Error()})
			}
			if issues != nil {
				return c.JSON(http.StatusBadRequest, middleware.ErrorPayload(issues))
			}
			ctx := middleware.ContextWithParsed(c.Request().Context(), data)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// GetParsed fetches the parsed body from echo.Context.
func GetParsed(c echo.Context) (any, bool) {
	return middleware.ParsedFromContext(c.Request().Context())
}
