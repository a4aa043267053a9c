package middleware

import (
	"net/http"
	"strings"

	"github.com/AbdelzaherMuhammed/hypervel/internal/server/resp"
	"github.com/gin-gonic/gin"
)

func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet ||
			c.Request.Method == http.MethodDelete ||
			c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		contentType := c.GetHeader("Content-Type")
		if !strings.Contains(contentType, "application/json") &&
			!strings.Contains(contentType, "application/x-www-form-urlencoded") {
			resp.Error(c, http.StatusUnsupportedMediaType, "", resp.ErrValidation)
			return
		}

		c.Next()
	}
}
