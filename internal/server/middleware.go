package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	userdomain "github.com/sanjail3/Influencer-AI-App/internal/user/domain"
)

const ctxUserKey = "current_user"

// UserRequired resolves the identity-provider user id from the
// X-User-ID header. Session issuance lives with the identity provider;
// the API only maps its subject onto a local User row.
func (s *Server) UserRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		externalID := strings.TrimSpace(c.GetHeader("X-User-ID"))
		if externalID == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		user, err := s.userSvc.GetByExternalID(c.Request.Context(), externalID)
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(ctxUserKey, user)
		c.Next()
	}
}

func currentUser(c *gin.Context) (*userdomain.User, bool) {
	value, ok := c.Get(ctxUserKey)
	if !ok {
		return nil, false
	}
	user, ok := value.(*userdomain.User)
	return user, ok
}
