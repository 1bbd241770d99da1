package controllers

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/blog/middleware"
	"github.com/cppla/blog/models"
	"github.com/cppla/blog/store"
	"github.com/cppla/blog/utils"
)

// MinPasswordLength applies to password changes.
const MinPasswordLength = 6

// AuthController handles registration, login, logout and password changes.
type AuthController struct {
	store     *store.Store
	blacklist *utils.TokenBlacklist
	logger    *zap.Logger
}

// NewAuthController creates an AuthController.
func NewAuthController(s *store.Store, blacklist *utils.TokenBlacklist, logger *zap.Logger) *AuthController {
	return &AuthController{store: s, blacklist: blacklist, logger: logger}
}

// RegisterForm shows the registration page.
func (a *AuthController) RegisterForm(ctx *gin.Context) {
	render(ctx, http.StatusOK, "register.html", nil)
}

// Register creates an unapproved, non-admin account.
func (a *AuthController) Register(ctx *gin.Context) {
	username := strings.TrimSpace(ctx.PostForm("username"))
	email := strings.TrimSpace(ctx.PostForm("email"))
	password := ctx.PostForm("password")

	fail := func(msg string) {
		middleware.Flash(ctx, utils.FlashError, msg)
		middleware.Redirect(ctx, "/register")
	}

	if username == "" || email == "" || password == "" {
		fail("All fields are required!")
		return
	}
	if utf8.RuneCountInString(username) > 80 {
		fail("Username must be at most 80 characters long!")
		return
	}
	if utf8.RuneCountInString(email) > 120 {
		fail("Email must be at most 120 characters long!")
		return
	}

	if _, err := a.store.UserByUsername(ctx.Request.Context(), username); err == nil {
		fail("Username already exists!")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		serverError(ctx, a.logger, "lookup username failed", err)
		return
	}
	if _, err := a.store.UserByEmail(ctx.Request.Context(), email); err == nil {
		fail("Email already registered!")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		serverError(ctx, a.logger, "lookup email failed", err)
		return
	}

	user := models.User{Username: username, Email: email}
	if err := user.SetPassword(password); err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			fail("Password must be at most 72 bytes long!")
			return
		}
		serverError(ctx, a.logger, "hash password failed", err)
		return
	}
	if err := a.store.CreateUser(ctx.Request.Context(), &user); err != nil {
		serverError(ctx, a.logger, "create user failed", err)
		return
	}

	a.logger.Info("user registered", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	middleware.Flash(ctx, utils.FlashSuccess, "Registration successful! Please log in.")
	middleware.Redirect(ctx, "/login")
}

// LoginForm shows the login page.
func (a *AuthController) LoginForm(ctx *gin.Context) {
	render(ctx, http.StatusOK, "login.html", gin.H{"Next": ctx.Query("next")})
}

// Login verifies credentials and binds the session to the account.
func (a *AuthController) Login(ctx *gin.Context) {
	username := ctx.PostForm("username")
	password := ctx.PostForm("password")

	user, err := a.store.UserByUsername(ctx.Request.Context(), username)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		serverError(ctx, a.logger, "lookup user failed", err)
		return
	}
	if user == nil || !user.CheckPassword(password) {
		middleware.Flash(ctx, utils.FlashError, "Invalid username or password")
		render(ctx, http.StatusOK, "login.html", gin.H{"Next": ctx.Query("next"), "Username": username})
		return
	}

	middleware.CurrentSession(ctx).Login(user.ID)
	a.logger.Info("user logged in", zap.Uint("user_id", user.ID))
	middleware.Flash(ctx, utils.FlashSuccess, "Logged in successfully!")
	middleware.Redirect(ctx, safeNext(ctx.Query("next")))
}

// Logout revokes the current session and returns to anonymous.
func (a *AuthController) Logout(ctx *gin.Context) {
	sess := middleware.CurrentSession(ctx)
	if err := a.blacklist.Revoke(ctx.Request.Context(), sess.ID, sess.ExpiresAt); err != nil {
		a.logger.Warn("revoke session failed", zap.Error(err))
	}
	sess.Logout()
	middleware.Flash(ctx, utils.FlashSuccess, "You have been logged out.")
	middleware.Redirect(ctx, "/")
}

// ChangePasswordForm shows the password change page.
func (a *AuthController) ChangePasswordForm(ctx *gin.Context) {
	render(ctx, http.StatusOK, "change_password.html", nil)
}

// ChangePassword replaces the caller's password after verifying the old one.
func (a *AuthController) ChangePassword(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)
	oldPassword := ctx.PostForm("old_password")
	newPassword := ctx.PostForm("new_password")
	confirm := ctx.PostForm("confirm_password")

	fail := func(msg string) {
		middleware.Flash(ctx, utils.FlashError, msg)
		middleware.Redirect(ctx, "/change-password")
	}

	if !user.CheckPassword(oldPassword) {
		fail("Current password is incorrect!")
		return
	}
	if newPassword != confirm {
		fail("New passwords do not match!")
		return
	}
	if utf8.RuneCountInString(newPassword) < MinPasswordLength {
		fail("New password must be at least 6 characters long!")
		return
	}
	if err := user.SetPassword(newPassword); err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			fail("New password must be at most 72 bytes long!")
			return
		}
		serverError(ctx, a.logger, "hash password failed", err)
		return
	}
	if err := a.store.UpdatePassword(ctx.Request.Context(), user); err != nil {
		serverError(ctx, a.logger, "update password failed", err)
		return
	}

	a.logger.Info("password changed", zap.Uint("user_id", user.ID))
	middleware.Flash(ctx, utils.FlashSuccess, "Password changed successfully!")
	middleware.Redirect(ctx, "/")
}
