package handler

import (
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/johnquangdev/medical-scribe/internal/infrastructure/http/middleware"
	recordingUsecase "github.com/johnquangdev/medical-scribe/internal/usecase/recording"
	scope "github.com/johnquangdev/medical-scribe/pkg/middleware"
)

// Router holds all handlers
type Router struct {
	verifier         middleware.TokenVerifier
	recordings       recordingUsecase.Service
	recordingHandler *Recording
	noteHandler      *Note
	healthHandler    *Health
	enableSwagger    bool
}

// NewRouter creates a new router with all handlers
func NewRouter(
	verifier middleware.TokenVerifier,
	recordings recordingUsecase.Service,
	recordingHandler *Recording,
	noteHandler *Note,
	healthHandler *Health,
	enableSwagger bool,
) *Router {
	return &Router{
		verifier:         verifier,
		recordings:       recordings,
		recordingHandler: recordingHandler,
		noteHandler:      noteHandler,
		healthHandler:    healthHandler,
		enableSwagger:    enableSwagger,
	}
}

// Setup configures all application routes
func (rt *Router) Setup(e *echo.Echo) {
	e.GET("/health", rt.healthHandler.Check)

	if rt.enableSwagger {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	// API v1 group
	v1 := e.Group("/v1", middleware.EchoAuth(rt.verifier))

	rt.setupRecordingRoutes(v1)
	rt.setupNoteRoutes(v1)
}

// setupRecordingRoutes configures upload and pipeline routes
func (rt *Router) setupRecordingRoutes(g *echo.Group) {
	recordings := g.Group("/recordings")
	recordings.POST("", rt.recordingHandler.Upload)
	recordings.GET("", rt.recordingHandler.List)

	owned := recordings.Group("/:id", scope.RequireRecordingOwner(rt.recordings))
	owned.GET("", rt.recordingHandler.Get)
	owned.DELETE("", rt.recordingHandler.Delete)
	owned.POST("/process", rt.recordingHandler.Process)
}

// setupNoteRoutes configures note and letter routes
func (rt *Router) setupNoteRoutes(g *echo.Group) {
	owned := g.Group("/recordings/:id", scope.RequireRecordingOwner(rt.recordings))
	owned.GET("/note", rt.noteHandler.GetNote)
	owned.POST("/regenerate", rt.noteHandler.Regenerate)
	owned.POST("/letter", rt.noteHandler.GenerateLetter)
}
