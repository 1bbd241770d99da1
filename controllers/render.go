package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/blog/middleware"
	"github.com/cppla/blog/utils"
)

// render pops pending flashes into the page, writes the session cookie and
// executes the named template.
func render(ctx *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["CurrentUser"] = middleware.CurrentUser(ctx)
	data["Flashes"] = middleware.CurrentSession(ctx).PopFlashes()
	if err := middleware.SaveSession(ctx); err != nil {
		_ = ctx.Error(err)
	}
	ctx.HTML(status, name, data)
}

// NotFound renders the 404 page.
func NotFound(ctx *gin.Context) {
	render(ctx, http.StatusNotFound, "error.html", gin.H{
		"Code":    http.StatusNotFound,
		"Message": "Not Found",
	})
}

// MethodNotAllowed renders the 405 page.
func MethodNotAllowed(ctx *gin.Context) {
	render(ctx, http.StatusMethodNotAllowed, "error.html", gin.H{
		"Code":    http.StatusMethodNotAllowed,
		"Message": "Method Not Allowed",
	})
}

// serverError logs a store failure and renders the 500 page.
func serverError(ctx *gin.Context, logger *zap.Logger, msg string, err error) {
	logger.Error(msg,
		zap.Error(err),
		zap.String("path", ctx.Request.URL.Path),
		zap.String("request_id", ctx.GetString(utils.RequestIDKey)),
	)
	_ = ctx.Error(err)
	render(ctx, http.StatusInternalServerError, "error.html", gin.H{
		"Code":    http.StatusInternalServerError,
		"Message": "Internal Server Error",
	})
}

// parseID reads a positive numeric path parameter.
func parseID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
