package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/schoolrecords/internal/app/controllers"
	"github.com/yigit/schoolrecords/internal/app/models"
	"github.com/yigit/schoolrecords/internal/app/models/dto"
	"github.com/yigit/schoolrecords/internal/app/services"
	"github.com/yigit/schoolrecords/internal/middleware"
	"github.com/yigit/schoolrecords/internal/pkg/metrics"
	"github.com/yigit/schoolrecords/internal/pkg/websocket"
)

// Handlers bundles everything the router dispatches to
type Handlers struct {
	Auth          *controllers.AuthController
	Users         *controllers.UserController
	Students      *controllers.StudentController
	Corrections   *controllers.CorrectionController
	AcademicYears *controllers.AcademicYearController
	Dashboard     *controllers.DashboardController
	WebSocket     *websocket.Handler
}

// HealthCheck reports whether a backing service is reachable
type HealthCheck func(c *gin.Context) error

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	h Handlers,
	authMiddleware *middleware.AuthMiddleware,
	selector *services.YearSelector,
	loginLimiter *middleware.TokenBucket,
	health HealthCheck,
) {
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})
	router.GET("/healthz", func(c *gin.Context) {
		if health != nil {
			if err := health(c); err != nil {
				middleware.HandleAPIError(c, err)
				return
			}
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": "ok"}))
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// API version group
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	v1.POST("/auth/login", loginLimiter.GinMiddleware(), h.Auth.Login)

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	requireYear := middleware.RequireActiveYear(selector)
	adminOnly := authMiddleware.RoleRequired(models.RoleAdmin)

	authenticated.POST("/auth/logout", h.Auth.Logout)
	authenticated.GET("/auth/me", h.Auth.Me)

	// Year catalog and the session's selection
	authenticated.GET("/academic-years", h.AcademicYears.ListYears)
	session := authenticated.Group("/session")
	{
		session.GET("/academic-year", h.AcademicYears.GetActive)
		session.PUT("/academic-year", h.AcademicYears.SetActive)
		session.DELETE("/academic-year", h.AcademicYears.ClearActive)
	}

	// Student records, scoped to the active academic year
	students := authenticated.Group("/students", requireYear)
	{
		students.GET("", h.Students.ListStudents)
		students.POST("", h.Students.CreateStudent)
		students.GET("/fields", h.Students.ListFields)
		students.GET("/export", h.Students.ExportStudents)
		students.GET("/:id", h.Students.GetStudent)
		students.PATCH("/:id", h.Students.UpdateStudent)
		students.GET("/:id/corrections", h.Students.ListCorrections)
		students.DELETE("/:id", adminOnly, h.Students.DeleteStudent)
	}

	// Correction workflow
	corrections := authenticated.Group("/corrections")
	{
		corrections.POST("", h.Corrections.SubmitCorrection)
		corrections.GET("/pending", adminOnly, h.Corrections.ListPending)
		corrections.GET("/:id", h.Corrections.GetCorrection)
		corrections.POST("/:id/approve", adminOnly, h.Corrections.Approve)
		corrections.POST("/:id/reject", adminOnly, h.Corrections.Reject)
	}

	// Administration
	admin := authenticated.Group("/admin", adminOnly)
	{
		admin.GET("/academic-years", h.AcademicYears.ListYears)
		admin.POST("/academic-years", h.AcademicYears.AddYear)
		admin.DELETE("/academic-years/:id", h.AcademicYears.DeleteYear)

		admin.GET("/users", h.Users.ListUsers)
		admin.POST("/users", h.Users.Register)
		admin.PUT("/users/:id/role", h.Users.ChangeRole)

		admin.GET("/dashboard/stats", requireYear, h.Dashboard.Stats)
	}

	// Live streams
	ws := authenticated.Group("/ws")
	{
		ws.GET("/dashboard", adminOnly, requireYear, h.WebSocket.DashboardStream)
		ws.GET("/requests", adminOnly, h.WebSocket.RequestsStream)
		ws.GET("/students/count", requireYear, h.WebSocket.StudentCountStream)
	}
}
