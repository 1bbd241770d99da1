package middleware

import (
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/cppla/blog/utils"
)

// Guard messages.
const (
	MsgLoginRequired    = "Please log in to access this page."
	MsgPermissionDenied = "You do not have permission to access this page."
	MsgApprovalRequired = "Your account needs to be approved by an admin before you can create posts."
)

// RequireAuthenticated sends anonymous callers to the login page, keeping the
// requested URI in ?next= for the redirect back.
func RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) != nil {
			c.Next()
			return
		}
		Flash(c, utils.FlashInfo, MsgLoginRequired)
		Redirect(c, "/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
		c.Abort()
	}
}

// RequireAdmin lets only administrators through. Everybody else, including
// anonymous callers, goes back to the feed rather than to the login page.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if u := CurrentUser(c); u != nil && u.IsAdmin {
			c.Next()
			return
		}
		Flash(c, utils.FlashError, MsgPermissionDenied)
		Redirect(c, "/")
		c.Abort()
	}
}

// RequireApproved lets only approved authors through.
func RequireApproved() gin.HandlerFunc {
	return func(c *gin.Context) {
		if u := CurrentUser(c); u != nil && u.IsApproved {
			c.Next()
			return
		}
		Flash(c, utils.FlashError, MsgApprovalRequired)
		Redirect(c, "/")
		c.Abort()
	}
}

// RequireAnonymous sends authenticated callers to the feed.
func RequireAnonymous() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.Next()
			return
		}
		Redirect(c, "/")
		c.Abort()
	}
}
