package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/vibenotes-server/internal/api/http/cookie"
	"github.com/dtroode/vibenotes-server/internal/api/http/handler"
	"github.com/dtroode/vibenotes-server/internal/api/http/middleware"
	"github.com/dtroode/vibenotes-server/internal/logger"
	"github.com/dtroode/vibenotes-server/internal/model"
)

// SessionService opens, resolves and closes browser sessions.
type SessionService interface {
	handler.SessionService
	middleware.SessionResolver
}

// Services groups the application services served over HTTP.
type Services struct {
	Auth        handler.AuthService
	Sessions    SessionService
	Profiles    handler.ProfileService
	Notes       handler.NoteService
	Attachments handler.AttachmentService
	Database    model.Pinger
}

// Router represents the HTTP router of the notes application.
// It wires handlers to routes and sets up the middleware chain.
type Router struct {
	services       Services
	cookie         *cookie.Session
	contextManager model.ContextManager
	maxBodyBytes   int64
	logger         *logger.Logger
}

// New creates new HTTP Router instance.
//
// Parameters:
//   - services: The application services
//   - cookie: The session cookie helper
//   - contextManager: Stores the caller identity in request contexts
//   - maxBodyBytes: The request body limit
//   - logger: The logger for request logging
//
// Returns a pointer to the newly created Router instance.
func New(
	services Services,
	cookie *cookie.Session,
	contextManager model.ContextManager,
	maxBodyBytes int64,
	logger *logger.Logger,
) *Router {
	return &Router{
		services:       services,
		cookie:         cookie,
		contextManager: contextManager,
		maxBodyBytes:   maxBodyBytes,
		logger:         logger,
	}
}

// Register registers all routes and middleware.
//
// Returns the configured gin engine.
func (r *Router) Register() *gin.Engine {
	logging := middleware.NewLogging(r.logger)
	authenticate := middleware.NewAuthenticate(r.services.Sessions, r.cookie, r.contextManager, r.logger)

	engine := gin.New()
	engine.Use(
		logging.Handle,
		gin.Recovery(),
		middleware.BodyLimit(r.maxBodyBytes),
	)
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})

	r.registerAuthRoutes(engine, authenticate)
	r.registerProfileRoutes(engine, authenticate)
	r.registerNoteRoutes(engine, authenticate)
	r.registerAttachmentRoutes(engine, authenticate)

	return engine
}

func (r *Router) registerAuthRoutes(engine *gin.Engine, authenticate *middleware.Authenticate) {
	authHandler := handler.NewAuth(r.services.Auth, r.services.Sessions, r.cookie, r.contextManager, r.logger)
	healthHandler := handler.NewHealth(r.services.Database, r.logger)

	engine.GET("/healthz", healthHandler.Check)
	engine.POST("/register", authHandler.Register)
	engine.GET(middleware.LoginPath, authHandler.LoginForm)
	engine.POST(middleware.LoginPath, authHandler.Login)
	engine.GET("/logout", authHandler.Logout)
	engine.POST("/logout", authHandler.Logout)
	engine.GET("/", authenticate.Require, authHandler.Home)
}

func (r *Router) registerProfileRoutes(engine *gin.Engine, authenticate *middleware.Authenticate) {
	profileHandler := handler.NewProfile(r.services.Profiles, r.contextManager, r.logger)

	engine.GET("/profile", authenticate.Require, profileHandler.Get)
	engine.POST("/profile", authenticate.Require, profileHandler.Update)
	engine.GET("/avatars/:userID", authenticate.Require, profileHandler.Avatar)
}

func (r *Router) registerNoteRoutes(engine *gin.Engine, authenticate *middleware.Authenticate) {
	noteHandler := handler.NewNote(r.services.Notes, r.contextManager, r.logger)

	notes := engine.Group("/notes", authenticate.Require)
	notes.GET("", noteHandler.List)
	notes.POST("", noteHandler.Create)
	notes.GET("/:id", noteHandler.Get)
	notes.POST("/:id", noteHandler.Update)
	notes.PUT("/:id", noteHandler.Update)
	notes.POST("/:id/delete", noteHandler.Delete)
	notes.DELETE("/:id", noteHandler.Delete)
}

func (r *Router) registerAttachmentRoutes(engine *gin.Engine, authenticate *middleware.Authenticate) {
	attachmentHandler := handler.NewAttachment(r.services.Attachments, r.contextManager, r.logger)

	engine.POST("/notes/:id/attachments", authenticate.Require, attachmentHandler.Upload)

	attachments := engine.Group("/attachments", authenticate.Require)
	attachments.GET("/:id", attachmentHandler.Download)
	attachments.POST("/:id/delete", attachmentHandler.Delete)
	attachments.DELETE("/:id", attachmentHandler.Delete)
}
