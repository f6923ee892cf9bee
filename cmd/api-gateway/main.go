package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/sguni/academic-api/api/swagger"
	"github.com/sguni/academic-api/internal/handler"
	"github.com/sguni/academic-api/internal/middleware"
	"github.com/sguni/academic-api/internal/models"
	"github.com/sguni/academic-api/internal/repository"
	"github.com/sguni/academic-api/internal/service"
	"github.com/sguni/academic-api/pkg/cache"
	"github.com/sguni/academic-api/pkg/config"
	"github.com/sguni/academic-api/pkg/database"
	"github.com/sguni/academic-api/pkg/logger"
	corsmiddleware "github.com/sguni/academic-api/pkg/middleware/cors"
	reqidmiddleware "github.com/sguni/academic-api/pkg/middleware/requestid"
)

// @title Sguni Academic API
// @version 1.0.0
// @description Academic management gateway spanning the users, academic and profiles databases
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	usersDB, err := database.NewPostgres(cfg.UsersDB)
	if err != nil {
		logr.Sugar().Fatalw("connect users db", "error", err)
	}
	defer usersDB.Close()

	academicDB, err := database.NewPostgres(cfg.AcademicDB)
	if err != nil {
		logr.Sugar().Fatalw("connect academic db", "error", err)
	}
	defer academicDB.Close()

	profilesDB, err := database.NewPostgres(cfg.ProfilesDB)
	if err != nil {
		logr.Sugar().Fatalw("connect profiles db", "error", err)
	}
	defer profilesDB.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, report caching disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(usersDB)
	catalogRepo := repository.NewCatalogRepository(academicDB)
	referenceRepo := repository.NewReferenceRepository(profilesDB)
	studentRepo := repository.NewStudentRepository(profilesDB)
	teacherRepo := repository.NewTeacherRepository(profilesDB)
	enrollmentRepo := repository.NewEnrollmentRepository(profilesDB)
	cacheRepo := repository.NewCacheRepository(redisClient)

	authSvc := service.NewAuthService(userRepo, validate, logr, cfg.JWT)
	userSvc := service.NewUserService(userRepo, validate, logr)
	catalogSvc := service.NewCatalogService(catalogRepo, validate, logr)
	syncSvc := service.NewSyncService(userRepo, catalogRepo, referenceRepo, metrics, cfg.Sync.SourceReadTimeout, logr)
	studentSvc := service.NewStudentService(studentRepo, referenceRepo, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, referenceRepo, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, studentRepo, referenceRepo, metrics, validate, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Reports.CacheTTL, logr, redisClient != nil)
	reportSvc := service.NewReportService(enrollmentRepo, cacheSvc, metrics, cfg.Reports.CacheTTL, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	catalogHandler := handler.NewCatalogHandler(catalogSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc, reportSvc)
	syncHandler := handler.NewSyncHandler(syncSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metrics))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	users := api.Group("/users", middleware.JWT(authSvc))
	users.GET("", middleware.RBAC(models.RoleAdmin), userHandler.List)
	users.POST("", middleware.RBAC(models.RoleAdmin), userHandler.Register)
	users.GET("/:id", middleware.RBAC(models.RoleAdmin, "SELF"), userHandler.Get)
	users.PUT("/:id", middleware.RBAC(models.RoleAdmin, "SELF"), userHandler.Update)
	users.DELETE("/:id", middleware.RBAC(models.RoleAdmin), userHandler.Delete)

	catalog := api.Group("", middleware.JWT(authSvc))
	catalog.GET("/specialities", catalogHandler.ListSpecialities)
	catalog.POST("/specialities", middleware.RBAC(models.RoleAdmin), catalogHandler.CreateSpeciality)
	catalog.GET("/careers", catalogHandler.ListCareers)
	catalog.POST("/careers", middleware.RBAC(models.RoleAdmin), catalogHandler.CreateCareer)
	catalog.GET("/cycles", catalogHandler.ListCycles)
	catalog.POST("/cycles", middleware.RBAC(models.RoleAdmin), catalogHandler.CreateCycle)
	catalog.GET("/subjects", catalogHandler.ListSubjects)
	catalog.GET("/subjects/:id", catalogHandler.GetSubject)
	catalog.POST("/subjects", middleware.RBAC(models.RoleAdmin), catalogHandler.CreateSubject)
	catalog.PUT("/subjects/:id", middleware.RBAC(models.RoleAdmin), catalogHandler.UpdateSubject)
	catalog.DELETE("/subjects/:id", middleware.RBAC(models.RoleAdmin), catalogHandler.DeleteSubject)

	students := api.Group("/students", middleware.JWT(authSvc))
	students.GET("", middleware.RBAC(models.RoleAdmin, models.RoleTeacher), studentHandler.List)
	students.POST("", middleware.RBAC(models.RoleAdmin), studentHandler.Create)
	students.GET("/:id", studentHandler.Get)
	students.PUT("/:id", middleware.RBAC(models.RoleAdmin), studentHandler.Update)
	students.DELETE("/:id", middleware.RBAC(models.RoleAdmin), studentHandler.Delete)
	students.GET("/:id/enrollments", enrollmentHandler.ListForStudent)

	teachers := api.Group("/teachers", middleware.JWT(authSvc))
	teachers.GET("", middleware.RBAC(models.RoleAdmin, models.RoleTeacher), teacherHandler.List)
	teachers.POST("", middleware.RBAC(models.RoleAdmin), teacherHandler.Create)
	teachers.GET("/:id", teacherHandler.Get)
	teachers.PUT("/:id", middleware.RBAC(models.RoleAdmin), teacherHandler.Update)
	teachers.DELETE("/:id", middleware.RBAC(models.RoleAdmin), teacherHandler.Delete)
	teachers.POST("/:id/subjects", middleware.RBAC(models.RoleAdmin), teacherHandler.AssignSubject)

	enrollments := api.Group("/enrollments", middleware.JWT(authSvc))
	enrollments.POST("", middleware.RBAC(models.RoleAdmin, models.RoleStudent), enrollmentHandler.Enroll)
	enrollments.PATCH("/:id/grade", middleware.RBAC(models.RoleAdmin, models.RoleTeacher), enrollmentHandler.RecordGrade)

	api.POST("/sync/references", middleware.JWT(authSvc), middleware.RBAC(models.RoleAdmin), syncHandler.Run)

	api.GET("/reports/performance", middleware.JWT(authSvc), middleware.RBAC(models.RoleAdmin, models.RoleTeacher), reportHandler.Performance)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
