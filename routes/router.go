package routes

import (
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/blog/config"
	"github.com/cppla/blog/controllers"
	"github.com/cppla/blog/middleware"
	"github.com/cppla/blog/store"
	"github.com/cppla/blog/templates"
	"github.com/cppla/blog/utils"
)

// Deps are the shared services handed to controllers.
type Deps struct {
	Config    config.AppConfig
	Store     *store.Store
	Codec     *utils.SessionCodec
	Blacklist *utils.TokenBlacklist
	Logger    *zap.Logger
}

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(deps Deps) *gin.Engine {
	cfg := deps.Config
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.SetHTMLTemplate(template.Must(templates.Load()))

	// Access logs go to their own rolling file when GIN_PATH is set.
	accessLog := deps.Logger
	if cfg.GinPath != "" {
		gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
		if err != nil {
			deps.Logger.Warn("gin access log unavailable, using app logger", zap.String("path", cfg.GinPath), zap.Error(err))
		} else {
			accessLog = gl
		}
	}
	r.Use(middleware.RequestID())
	r.Use(utils.Ginzap(accessLog, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(deps.Logger, false))

	// Cross-origin access is off unless origins are listed explicitly.
	if len(cfg.AllowedOrigins) > 0 {
		corsCfg := cors.Config{
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Content-Type", utils.RequestIDKey},
			ExposeHeaders: []string{"Content-Length", utils.RequestIDKey},
			MaxAge:        12 * time.Hour,
		}
		if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
			corsCfg.AllowAllOrigins = true
		} else {
			corsCfg.AllowOrigins = cfg.AllowedOrigins
			corsCfg.AllowCredentials = true
		}
		r.Use(cors.New(corsCfg))
	}

	r.Use(middleware.Sessions(deps.Codec, deps.Blacklist, deps.Store, deps.Logger))

	r.GET("/health", func(ctx *gin.Context) {
		if err := deps.Store.Ping(ctx.Request.Context()); err != nil {
			deps.Logger.Error("health check failed", zap.Error(err))
			utils.Error(ctx, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		utils.Success(ctx, gin.H{"database": "ok"})
	})

	authController := controllers.NewAuthController(deps.Store, deps.Blacklist, deps.Logger)
	postController := controllers.NewPostController(deps.Store, deps.Logger)
	adminController := controllers.NewAdminController(deps.Store, deps.Logger)

	r.GET("/", postController.Index)
	r.GET("/post/:id", postController.Show)

	anonymous := r.Group("", middleware.RequireAnonymous())
	anonymous.GET("/register", authController.RegisterForm)
	anonymous.POST("/register", authController.Register)
	anonymous.GET("/login", authController.LoginForm)
	anonymous.POST("/login", authController.Login)

	protected := r.Group("", middleware.RequireAuthenticated())
	protected.GET("/logout", authController.Logout)
	protected.GET("/create", middleware.RequireApproved(), postController.CreateForm)
	protected.POST("/create", middleware.RequireApproved(), postController.Create)
	protected.GET("/delete/:id", postController.Delete)
	protected.GET("/change-password", authController.ChangePasswordForm)
	protected.POST("/change-password", authController.ChangePassword)

	admin := r.Group("/admin", middleware.RequireAdmin())
	admin.GET("", adminController.Dashboard)
	admin.GET("/approve/:id", adminController.Approve)
	admin.GET("/reject/:id", adminController.Reject)

	r.NoRoute(controllers.NotFound)
	r.NoMethod(controllers.MethodNotAllowed)

	return r
}
