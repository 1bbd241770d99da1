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

// PostController serves the feed and post create/view/delete.
type PostController struct {
	store  *store.Store
	logger *zap.Logger
}

// NewPostController creates a new PostController instance.
func NewPostController(s *store.Store, logger *zap.Logger) *PostController {
	return &PostController{store: s, logger: logger}
}

// Index renders every post, newest first.
func (p *PostController) Index(ctx *gin.Context) {
	posts, err := p.store.ListPosts(ctx.Request.Context())
	if err != nil {
		serverError(ctx, p.logger, "list posts failed", err)
		return
	}
	render(ctx, http.StatusOK, "index.html", gin.H{"Posts": posts})
}

// Show renders a single post.
func (p *PostController) Show(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}
	render(ctx, http.StatusOK, "post.html", gin.H{"Post": post})
}

// CreateForm shows the new-post page.
func (p *PostController) CreateForm(ctx *gin.Context) {
	render(ctx, http.StatusOK, "create.html", nil)
}

// Create stores a post owned by the caller.
func (p *PostController) Create(ctx *gin.Context) {
	// Stored as typed; pages escape it on output.
	title := strings.TrimSpace(ctx.PostForm("title"))
	content := ctx.PostForm("content")

	if title == "" || strings.TrimSpace(content) == "" {
		middleware.Flash(ctx, utils.FlashError, "Title and content are required!")
		middleware.Redirect(ctx, "/create")
		return
	}
	if utf8.RuneCountInString(title) > 200 {
		middleware.Flash(ctx, utils.FlashError, "Title must be at most 200 characters long!")
		middleware.Redirect(ctx, "/create")
		return
	}

	user := middleware.CurrentUser(ctx)
	post := models.Post{Title: title, Content: content, UserID: user.ID}
	if err := p.store.CreatePost(ctx.Request.Context(), &post); err != nil {
		serverError(ctx, p.logger, "create post failed", err)
		return
	}

	p.logger.Info("post created", zap.Uint("post_id", post.ID), zap.Uint("user_id", user.ID))
	middleware.Flash(ctx, utils.FlashSuccess, "Post created successfully!")
	middleware.Redirect(ctx, "/")
}

// Delete removes a post if the caller owns it.
func (p *PostController) Delete(ctx *gin.Context) {
	post, ok := p.loadPost(ctx)
	if !ok {
		return
	}

	user := middleware.CurrentUser(ctx)
	if post.UserID != user.ID {
		middleware.Flash(ctx, utils.FlashError, "You can only delete your own posts!")
		middleware.Redirect(ctx, "/")
		return
	}
	if err := p.store.DeletePost(ctx.Request.Context(), post); err != nil {
		serverError(ctx, p.logger, "delete post failed", err)
		return
	}

	p.logger.Info("post deleted", zap.Uint("post_id", post.ID), zap.Uint("user_id", user.ID))
	middleware.Flash(ctx, utils.FlashSuccess, "Post deleted successfully!")
	middleware.Redirect(ctx, "/")
}

func (p *PostController) loadPost(ctx *gin.Context) (*models.Post, bool) {
	id, ok := parseID(ctx, "id")
	if !ok {
		NotFound(ctx)
		return nil, false
	}
	post, err := p.store.PostByID(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NotFound(ctx)
			return nil, false
		}
		serverError(ctx, p.logger, "load post failed", err)
		return nil, false
	}
	return post, true
}
