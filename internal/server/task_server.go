package server

import (
	"context"
	"net/http"
	"time"

	"github.com/Lyearn/mgod"
	"github.com/dhanuprys/infrantery-backend-go/internal/adapter/client"
	"github.com/dhanuprys/infrantery-backend-go/internal/adapter/dto"
	"github.com/dhanuprys/infrantery-backend-go/internal/adapter/handler"
	"github.com/dhanuprys/infrantery-backend-go/internal/adapter/middleware"
	"github.com/dhanuprys/infrantery-backend-go/internal/adapter/repository"
	"github.com/dhanuprys/infrantery-backend-go/internal/config"
	"github.com/dhanuprys/infrantery-backend-go/internal/core/service"
	"github.com/dhanuprys/infrantery-backend-go/pkg/logger"
	"github.com/dhanuprys/infrantery-backend-go/pkg/validation"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TaskServer is the Task domain's composition root (spec §4.2). It never
// owns membership data: every dependency it wires either persists tasks
// directly or reaches across to the Project service through the
// permission bridge (spec §4.4).
type TaskServer struct {
	cfg         *config.Config
	mongoClient *mongo.Client
	router      *gin.Engine
}

func NewTaskServer(cfg *config.Config) (*TaskServer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoDBURI))
	if err != nil {
		return nil, err
	}
	if err := mongoClient.Ping(ctx, nil); err != nil {
		return nil, err
	}
	logger.Info().Str("database", cfg.MongoDBDatabase).Msg("task service connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDBDatabase)
	mgod.SetDefaultConnection(db)

	s := &TaskServer{cfg: cfg, mongoClient: mongoClient, router: gin.New()}
	if err := s.setupDependencies(db); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *TaskServer) setupDependencies(db *mongo.Database) error {
	taskRepo, err := repository.NewTaskRepository(db, "tasks")
	if err != nil {
		return err
	}
	activityRepo, err := repository.NewActivityRepository(db, "task_activities")
	if err != nil {
		return err
	}

	bridge := client.NewPermissionBridge(s.cfg.ProjectServiceURL, s.cfg.PermissionCacheTTL, s.cfg.InternalAuthSecret)
	profiles := client.NewProfileResolver(s.cfg.UserServiceURL, s.cfg.InternalAuthSecret)
	counts := client.NewTaskCountReporter(s.cfg.ProjectServiceURL, s.cfg.InternalAuthSecret)

	taskService := service.NewTaskService(taskRepo, activityRepo, bridge, profiles, counts)
	jwtService := service.NewJWTService(s.cfg.JWTSecret)
	validator := validation.NewValidationEngine()

	taskHandler := handler.NewTaskHandler(taskService, profiles, validator)
	internalHandler := handler.NewTaskInternalHandler(taskService)
	authMiddleware := middleware.NewAuthMiddleware(jwtService)

	s.setupRoutes(authMiddleware, taskHandler, internalHandler)
	return nil
}

func (s *TaskServer) setupRoutes(
	authMiddleware *middleware.AuthMiddleware,
	taskHandler *handler.TaskHandler,
	internalHandler *handler.TaskInternalHandler,
) {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.LoggerMiddleware())

	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorEnvelopeForCode(dto.ErrCodePageNotFound, nil))
	})

	api := s.router.Group("/api/projects/:id/tasks")
	api.Use(authMiddleware.RequireAuth())
	{
		api.POST("", taskHandler.CreateTask)
		api.GET("", taskHandler.ListTasks)
		api.GET("/:taskId", taskHandler.GetTask)
		api.PATCH("/:taskId", taskHandler.UpdateTask)
		api.DELETE("/:taskId", taskHandler.DeleteTask)
		api.PATCH("/:taskId/status", taskHandler.ChangeTaskStatus)
		api.PATCH("/:taskId/assignee", taskHandler.AssignTask)
		api.GET("/:taskId/activity", taskHandler.ListTaskActivity)
	}

	internal := s.router.Group("/internal")
	internal.Use(middleware.InternalAuth(s.cfg.InternalAuthSecret))
	{
		internal.POST("/projects/:id/archive-tasks", internalHandler.ArchiveProjectTasks)
	}
}

func (s *TaskServer) Run() error {
	logger.Info().Str("port", s.cfg.TaskServicePort).Msg("task service starting")
	return s.router.Run(":" + s.cfg.TaskServicePort)
}

func (s *TaskServer) Shutdown(ctx context.Context) error {
	logger.Info().Msg("task service shutting down")
	if err := s.mongoClient.Disconnect(ctx); err != nil {
		return err
	}
	logger.Info().Msg("task service MongoDB connection closed")
	return nil
}
