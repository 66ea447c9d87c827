package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kelaskode/kelaskode-backend/internal/config"
	"github.com/kelaskode/kelaskode-backend/internal/handler"
	"github.com/kelaskode/kelaskode-backend/internal/middleware"
	"github.com/kelaskode/kelaskode-backend/internal/response"
	"github.com/kelaskode/kelaskode-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Account   *handler.AccountHandler
	Classroom *handler.ClassroomHandler
	Exam      *handler.ExamHandler
	Judge     *handler.JudgeHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", authLimiter.Middleware(), handlers.Auth.Login)
		auth.GET("/admin-exists", handlers.Auth.AdminExists)
	}

	// ─── 2. Account Group (Admin Only) ─────────────────────────────────
	accounts := router.Group("/api/v1/accounts")
	accounts.Use(middleware.RequireAdmin(authService))
	{
		accounts.GET("", handlers.Account.List)
		accounts.POST("", handlers.Account.Create)
		accounts.GET("/:id", handlers.Account.Get)
		accounts.PUT("/:id/role", handlers.Account.UpdateRole)
		accounts.DELETE("/:id", handlers.Account.Delete)
	}

	// ─── 3. Classroom Group ────────────────────────────────────────────
	// Reads and the exam session endpoints are public (NPM-scoped); all
	// mutations require an admin token.
	classrooms := router.Group("/api/v1/classrooms")
	{
		classrooms.GET("", handlers.Classroom.List)
		classrooms.GET("/:id", handlers.Classroom.Get)

		// Exam session endpoints used by the student client.
		classrooms.GET("/:id/events", handlers.Exam.Events)
		classrooms.GET("/:id/state", handlers.Exam.State)
		classrooms.POST("/:id/finish", handlers.Exam.Finish)
		classrooms.POST("/:id/autosave", handlers.Exam.Autosave)

		// Admin mutations.
		admin := classrooms.Group("")
		admin.Use(middleware.RequireAdmin(authService))
		{
			admin.POST("", handlers.Classroom.Create)
			admin.PUT("/:id", handlers.Classroom.Update)
			admin.DELETE("/:id", handlers.Classroom.Delete)

			admin.POST("/:id/users", handlers.Classroom.AddUser)
			admin.PUT("/:id/users/status", handlers.Exam.UpdateUsersStatus)
			admin.PUT("/:id/users/:user_id", handlers.Classroom.UpdateUser)
			admin.DELETE("/:id/users/:user_id", handlers.Classroom.RemoveUser)
		}
	}

	// ─── 4. Judge Group ────────────────────────────────────────────────
	judge := router.Group("/api/v1/judge0")
	{
		judge.POST("/submissions", handlers.Judge.Submit)
	}

	return router
}
