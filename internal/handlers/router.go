package handlers

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/studylink/internal/auth"
	"github.com/justsurfingit/studylink/internal/database"
	"github.com/justsurfingit/studylink/internal/middleware"
	"github.com/justsurfingit/studylink/internal/models"
	"github.com/justsurfingit/studylink/internal/services"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Deps is everything the router needs. LLM and Google are optional.
type Deps struct {
	Ready    database.Pinger
	Log      *zap.Logger
	BaseURL  string
	Sessions *auth.SessionManager
	Google   GoogleSignIn

	Auth            *services.AuthService
	Roles           *services.RoleService
	Domains         *services.DomainService
	Users           *services.UserService
	Profiles        *services.ProfileService
	Schools         *services.SchoolService
	Companies       *services.CompanyService
	Jobs            *services.JobService
	JobRequests     *services.JobRequestService
	Recommendations *services.RecommendationService
	Students        *services.StudentService
	Export          *services.ExportService
	LLM             *services.LLMService
}

// NewRouter builds the gin engine with every route mounted under /api.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(d.Log), middleware.Recovery(d.Log))

	config := cors.DefaultConfig()
	config.AllowOrigins = []string{d.BaseURL}
	config.AllowCredentials = true
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader}
	config.ExposeHeaders = []string{middleware.RequestIDHeader, "Content-Disposition"}
	config.MaxAge = 12 * time.Hour
	r.Use(cors.New(config))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	authH := NewAuthHandler(d.Auth, d.Roles, d.Users, d.Sessions, d.Google, d.BaseURL, d.Log)
	domainH := NewDomainHandler(d.Domains, d.Log)
	schoolH := NewSchoolHandler(d.Schools, d.Export, d.Log)
	companyH := NewCompanyHandler(d.Companies, d.Jobs, d.Log)
	jobH := NewJobHandler(d.LLM, d.Jobs, d.Companies, d.Log)
	requestH := NewJobRequestHandler(d.JobRequests, d.Students, d.Companies, d.Log)
	recH := NewRecommendationHandler(d.Recommendations, d.Students, d.Companies, d.Log)
	profileH := NewProfileHandler(d.Profiles, d.Sessions, d.BaseURL, d.Log)
	userH := NewUserHandler(d.Users, d.Log)

	requireAuth := middleware.RequireAuth(d.Sessions)
	adminOnly := middleware.RequireRole(models.RoleAdmin)
	companySide := middleware.RequireRole(models.RoleAdmin, models.RoleCompanyOwner)
	schoolSide := middleware.RequireRole(models.RoleAdmin, models.RoleSchoolOwner)
	studentOnly := middleware.RequireRole(models.RoleStudent)

	api := r.Group("/api")
	{
		api.GET("/health", HealthCheck)
		api.GET("/ready", ReadyCheck(d.Ready, d.Log))

		a := api.Group("/auth")
		a.POST("/authenticate", authH.Authenticate)
		a.POST("/authenticate-school-owner", authH.AuthenticateSchoolOwner)
		a.POST("/check-school-owner", authH.CheckSchoolOwner)
		a.GET("/callback/email", authH.EmailCallback)
		a.POST("/verify", authH.VerifyLink)
		a.GET("/google/login", authH.GoogleLogin)
		a.GET("/google/callback", authH.GoogleCallback)
		a.GET("/session", requireAuth, authH.Session)
		a.POST("/logout", authH.Logout)

		api.POST("/school-domains/check", domainH.Check)
		api.POST("/school-domains/validate-and-create", domainH.ValidateAndCreate)

		api.POST("/schools/create-with-domain", schoolH.CreateWithDomain)
		api.GET("/schools", schoolH.List)
		api.GET("/schools/:id", schoolH.Get)
		api.PATCH("/schools/:id", requireAuth, schoolSide, schoolH.Update)
		api.DELETE("/schools/:id", requireAuth, adminOnly, schoolH.Delete)
		api.GET("/schools/:id/students", requireAuth, schoolSide, schoolH.Students)
		api.GET("/schools/:id/students/export", requireAuth, schoolSide, schoolH.ExportStudents)

		api.GET("/companies", companyH.List)
		api.GET("/companies/:id", companyH.Get)
		api.GET("/companies/:id/jobs", companyH.ListJobs)
		api.POST("/companies", requireAuth, companySide, companyH.Create)
		api.PATCH("/companies/:id", requireAuth, companySide, companyH.Update)
		api.DELETE("/companies/:id", requireAuth, companySide, companyH.Delete)
		api.GET("/companies/:id/job-requests", requireAuth, companySide, requestH.ForCompany)

		api.GET("/jobs", jobH.List)
		api.GET("/jobs/:id", jobH.Get)
		api.POST("/jobs/extract", requireAuth, companySide, jobH.ParseJob)
		api.POST("/jobs", requireAuth, companySide, jobH.CreateJob)
		api.PATCH("/jobs/:id", requireAuth, companySide, jobH.Update)
		api.DELETE("/jobs/:id", requireAuth, companySide, jobH.Delete)

		api.POST("/job-requests", requireAuth, studentOnly, requestH.Apply)
		api.GET("/job-requests/me", requireAuth, studentOnly, requestH.Mine)
		api.PATCH("/job-requests/:id/status", requireAuth, companySide, requestH.UpdateStatus)
		api.DELETE("/job-requests/:id", requireAuth, requestH.Withdraw)

		api.POST("/recommendations", requireAuth, companySide, recH.Create)
		api.DELETE("/recommendations/:id", requireAuth, companySide, recH.Delete)
		api.GET("/students/:id", requireAuth, recH.GetStudent)
		api.GET("/students/:id/recommendations", requireAuth, recH.ForStudent)
		api.PUT("/students/:id/primary-recommendation", requireAuth, recH.SetPrimary)

		api.GET("/profile", requireAuth, profileH.Get)
		api.PUT("/profile", requireAuth, profileH.Update)
		api.POST("/profile/select", requireAuth, profileH.Select)

		api.GET("/users", requireAuth, adminOnly, userH.List)
		api.GET("/users/:id", requireAuth, userH.Get)
		api.PATCH("/users/:id", requireAuth, userH.Update)
		api.DELETE("/users/:id", requireAuth, userH.Delete)
	}
	return r
}
