package ginmw

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reoring/goskemac"
	"github.com/reoring/goskemac/middleware"
)

// ValidateJSON validates request bodies with p, stores the parsed value in
// the request context, and aborts with 400 and the issues on failure.
func ValidateJSON(p *goskemac.Parser, opts ...goskemac.ParseOpt) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, issues, err := middleware.Validate(p, c.Request.Body, opts...)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if issues != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, middleware.ErrorPayload(issues))
			return
		}
		c.Request = c.Request.WithContext(middleware.ContextWithParsed(c.Request.Context(), data))
		c.Next()
	}
}

// GetParsed fetches the parsed body from gin.Context.
func GetParsed(c *gin.Context) (any, bool) {
	return middleware.ParsedFromContext(c.Request.Context())
}
