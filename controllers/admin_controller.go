package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/blog/middleware"
	"github.com/cppla/blog/models"
	"github.com/cppla/blog/store"
	"github.com/cppla/blog/utils"
)

// AdminController serves account moderation.
type AdminController struct {
	store  *store.Store
	logger *zap.Logger
}

// NewAdminController creates an AdminController.
func NewAdminController(s *store.Store, logger *zap.Logger) *AdminController {
	return &AdminController{store: s, logger: logger}
}

// Dashboard lists pending and all accounts.
func (a *AdminController) Dashboard(ctx *gin.Context) {
	rctx := ctx.Request.Context()
	pending, err := a.store.ListUsersByApproval(rctx, false)
	if err != nil {
		serverError(ctx, a.logger, "list pending users failed", err)
		return
	}
	all, err := a.store.ListUsers(rctx)
	if err != nil {
		serverError(ctx, a.logger, "list users failed", err)
		return
	}
	stats, err := a.store.Stats(rctx)
	if err != nil {
		serverError(ctx, a.logger, "load stats failed", err)
		return
	}
	render(ctx, http.StatusOK, "admin.html", gin.H{
		"PendingUsers": pending,
		"AllUsers":     all,
		"Stats":        stats,
	})
}

// Approve lets an account author posts.
func (a *AdminController) Approve(ctx *gin.Context) {
	user, ok := a.loadUser(ctx)
	if !ok {
		return
	}
	if err := a.store.ApproveUser(ctx.Request.Context(), user); err != nil {
		serverError(ctx, a.logger, "approve user failed", err)
		return
	}
	a.logger.Info("user approved", zap.Uint("user_id", user.ID))
	middleware.Flash(ctx, utils.FlashSuccess, fmt.Sprintf("User %s has been approved!", user.Username))
	middleware.Redirect(ctx, "/admin")
}

// Reject deletes a non-admin account and all of its posts.
func (a *AdminController) Reject(ctx *gin.Context) {
	user, ok := a.loadUser(ctx)
	if !ok {
		return
	}
	if user.IsAdmin {
		middleware.Flash(ctx, utils.FlashError, "Cannot reject an admin user!")
		middleware.Redirect(ctx, "/admin")
		return
	}
	if err := a.store.DeleteUser(ctx.Request.Context(), user.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFound(ctx)
			return
		}
		serverError(ctx, a.logger, "delete user failed", err)
		return
	}
	a.logger.Info("user rejected", zap.Uint("user_id", user.ID))
	middleware.Flash(ctx, utils.FlashSuccess, fmt.Sprintf("User %s has been rejected and deleted!", user.Username))
	middleware.Redirect(ctx, "/admin")
}

func (a *AdminController) loadUser(ctx *gin.Context) (*models.User, bool) {
	id, ok := parseID(ctx, "id")
	if !ok {
		NotFound(ctx)
		return nil, false
	}
	user, err := a.store.UserByID(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFound(ctx)
			return nil, false
		}
		serverError(ctx, a.logger, "load user failed", err)
		return nil, false
	}
	return user, true
}
