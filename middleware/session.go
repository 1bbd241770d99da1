package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/blog/models"
	"github.com/cppla/blog/store"
	"github.com/cppla/blog/utils"
)

const (
	// ContextSessionKey stores the *utils.Session inside Gin context.
	ContextSessionKey = "session"
	// ContextUserKey stores the resolved *models.User of an authenticated caller.
	ContextUserKey = "current_user"
	contextCodecKey = "session_codec"
)

// UserLoader resolves the account bound to a session.
type UserLoader interface {
	UserByID(ctx context.Context, id uint) (*models.User, error)
}

// Sessions decodes the session cookie, drops revoked sessions and loads the
// bound account. A binding whose account no longer exists is cleared, so the
// caller continues as anonymous.
func Sessions(codec *utils.SessionCodec, blacklist *utils.TokenBlacklist, users UserLoader, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(contextCodecKey, codec)
		ctx := c.Request.Context()

		sess, err := codec.Read(c)
		if err != nil {
			logger.Debug("discarding invalid session cookie", zap.Error(err))
		}
		if sess.IsAuthenticated() && blacklist.IsRevoked(ctx, sess.ID) {
			sess = utils.NewSession()
		}
		c.Set(ContextSessionKey, sess)

		if sess.IsAuthenticated() {
			user, err := users.UserByID(ctx, sess.UserID)
			switch {
			case err == nil:
				c.Set(ContextUserKey, user)
			case errors.Is(err, store.ErrNotFound):
				sess.Logout()
			default:
				logger.Error("load session user failed", zap.Uint("user_id", sess.UserID), zap.Error(err))
				c.HTML(http.StatusInternalServerError, "error.html", gin.H{
					"Code":    http.StatusInternalServerError,
					"Message": "Internal Server Error",
				})
				c.Abort()
				return
			}
		}
		c.Next()
	}
}

// CurrentSession returns the request's session, creating an anonymous one
// when the Sessions middleware did not run.
func CurrentSession(c *gin.Context) *utils.Session {
	if v, ok := c.Get(ContextSessionKey); ok {
		if s, ok := v.(*utils.Session); ok {
			return s
		}
	}
	s := utils.NewSession()
	c.Set(ContextSessionKey, s)
	return s
}

// CurrentUser returns the authenticated account or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(ContextUserKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// SaveSession writes the session cookie when the session changed.
func SaveSession(c *gin.Context) error {
	sess := CurrentSession(c)
	if !sess.Dirty() {
		return nil
	}
	v, ok := c.Get(contextCodecKey)
	if !ok {
		return errors.New("session codec missing from context")
	}
	return v.(*utils.SessionCodec).Write(c, sess)
}

// Flash queues a message on the current session.
func Flash(c *gin.Context, category, message string) {
	CurrentSession(c).AddFlash(category, message)
}

// Redirect persists the session and answers 302 to location.
func Redirect(c *gin.Context, location string) {
	if err := SaveSession(c); err != nil {
		_ = c.Error(err)
	}
	c.Redirect(http.StatusFound, location)
}
