package middleware

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/study-planner/pkg/errors"
	"github.com/noah-isme/study-planner/pkg/response"
)

// ContextUserIDKey is the gin context key storing the session user id.
const ContextUserIDKey = "currentUserID"

type sessionHolder interface {
	Authenticated() bool
	UserID() int
}

// RequireSession rejects requests while no credential is held.
func RequireSession(holder sessionHolder) gin.HandlerFunc {
	return func(c *gin.Context) {
		if holder == nil || !holder.Authenticated() {
			response.Error(c, appErrors.ErrSessionRequired)
			c.Abort()
			return
		}
		c.Set(ContextUserIDKey, holder.UserID())
		c.Next()
	}
}
