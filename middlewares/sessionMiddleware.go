package middlewares

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mmdatafocus/asset_audit_backend/config"
	"github.com/mmdatafocus/asset_audit_backend/utils"
)

// Session is stored in redis under Session:<token> by the login service.
type Session struct {
	Username   string `json:"username"`
	UserId     int    `json:"userId"`
	UserName   string `json:"userName"`
	BusinessId string `json:"businessId"`
}

var lookupSession = func(token string) (*Session, bool, error) {
	var session Session
	ok, err := config.GetRedisObject("Session:"+token, &session)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &session, true, nil
}

func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Request.Header.Get("token")
		if token == "" {
			c.Next()
			return
		}
		session, exists, err := lookupSession(token)
		if err != nil || !exists || session.BusinessId == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(sessionContext(c.Request.Context(), session))
		c.Next()
	}
}

func sessionContext(ctx context.Context, session *Session) context.Context {
	ctx = utils.SetUsernameInContext(ctx, session.Username)
	ctx = utils.SetUserIdInContext(ctx, session.UserId)
	ctx = utils.SetUserNameInContext(ctx, session.UserName)
	return utils.SetBusinessIdInContext(ctx, session.BusinessId)
}

// CorrelationMiddleware propagates x-correlation-id, generating one when absent.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.Request.Header.Get("x-correlation-id")
		if cid == "" {
			cid = c.Request.Header.Get("x-request-id")
		}
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Writer.Header().Set("x-correlation-id", cid)
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	}
}
