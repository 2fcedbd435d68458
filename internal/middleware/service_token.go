package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-ga/internal/service"
	appErrors "github.com/noah-isme/timetable-ga/pkg/errors"
	"github.com/noah-isme/timetable-ga/pkg/response"
)

// ContextServiceSubjectKey is the gin context key storing the validated
// service token's subject.
const ContextServiceSubjectKey = "serviceSubject"

// ServiceToken protects the GA scheduler routes with a shared bearer token.
// There is no per-user session behind it, just a caller identity.
func ServiceToken(tokens *service.ServiceTokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := tokens.Validate(parts[1])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextServiceSubjectKey, claims.Subject)
		c.Next()
	}
}
