// Package server holds each binary's composition root, one file per
// service (spec §0), mirroring the teacher's single
// internal/server/server.go setupDependencies/setupRoutes split.
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

// ProjectServer is the Project domain's composition root (spec §4.1).
type ProjectServer struct {
	cfg         *config.Config
	mongoClient *mongo.Client
	router      *gin.Engine
}

func NewProjectServer(cfg *config.Config) (*ProjectServer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoDBURI))
	if err != nil {
		return nil, err
	}
	if err := mongoClient.Ping(ctx, nil); err != nil {
		return nil, err
	}
	logger.Info().Str("database", cfg.MongoDBDatabase).Msg("project service connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDBDatabase)
	mgod.SetDefaultConnection(db)

	s := &ProjectServer{cfg: cfg, mongoClient: mongoClient, router: gin.New()}
	if err := s.setupDependencies(db); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ProjectServer) setupDependencies(db *mongo.Database) error {
	projectRepo, err := repository.NewProjectRepository(db, "projects")
	if err != nil {
		return err
	}

	profiles := client.NewProfileResolver(s.cfg.UserServiceURL, s.cfg.InternalAuthSecret)
	notifier := client.NewWebhookNotifier(s.cfg.NotifierWebhookURL)
	cascader := client.NewArchiveCascadeClient(s.cfg.TaskServiceURL, s.cfg.InternalAuthSecret)

	projectService := service.NewProjectService(projectRepo, profiles, notifier, cascader)
	jwtService := service.NewJWTService(s.cfg.JWTSecret)
	validator := validation.NewValidationEngine()

	projectHandler := handler.NewProjectHandler(projectService, profiles, validator)
	internalHandler := handler.NewProjectInternalHandler(projectService)
	authMiddleware := middleware.NewAuthMiddleware(jwtService)

	s.setupRoutes(authMiddleware, projectHandler, internalHandler)
	return nil
}

func (s *ProjectServer) setupRoutes(
	authMiddleware *middleware.AuthMiddleware,
	projectHandler *handler.ProjectHandler,
	internalHandler *handler.ProjectInternalHandler,
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

	api := s.router.Group("/api")
	api.Use(authMiddleware.RequireAuth())
	{
		projects := api.Group("/projects")
		{
			projects.POST("", projectHandler.CreateProject)
			projects.GET("", projectHandler.ListProjects)
			projects.GET("/:id", projectHandler.GetProject)
			projects.PUT("/:id", projectHandler.UpdateProject)
			projects.DELETE("/:id", projectHandler.DeleteProject)

			projects.POST("/:id/invite", projectHandler.InviteMember)
			projects.POST("/join/:code", projectHandler.JoinByCode)

			projects.GET("/:id/members", projectHandler.ListMembers)
			projects.PUT("/:id/members/:memberId/role", projectHandler.UpdateMemberRole)
			projects.DELETE("/:id/members/:memberId", projectHandler.RemoveMember)
			projects.POST("/:id/leave", projectHandler.LeaveProject)
		}
	}

	// Internal service-to-service surface (spec §4.4), guarded by the
	// shared secret instead of the public bearer-token chain.
	internal := s.router.Group("/internal")
	internal.Use(middleware.InternalAuth(s.cfg.InternalAuthSecret))
	{
		internal.GET("/projects/:id/members/:userId", internalHandler.GetMemberRole)
		internal.POST("/projects/:id/task-counts", internalHandler.ReportTaskCounts)
	}
}

func (s *ProjectServer) Run() error {
	logger.Info().Str("port", s.cfg.ProjectServicePort).Msg("project service starting")
	return s.router.Run(":" + s.cfg.ProjectServicePort)
}

func (s *ProjectServer) Shutdown(ctx context.Context) error {
	logger.Info().Msg("project service shutting down")
	if err := s.mongoClient.Disconnect(ctx); err != nil {
		return err
	}
	logger.Info().Msg("project service MongoDB connection closed")
	return nil
}
