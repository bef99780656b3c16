// Package httpapi exposes the minting pipeline over HTTP. Every response uses
// the success/error envelope; raw prompt content appears only in request
// bodies and is never logged or echoed back.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	promptmint "github.com/promptmint/promptmint"
	"github.com/promptmint/promptmint/mint"
)

// Config assembles the API server.
type Config struct {
	Service *mint.Service

	// AdminKey gates the operator mint endpoint. Empty disables the
	// endpoint entirely rather than leaving it open.
	AdminKey string

	Log *slog.Logger
}

// Server wires the mint service into a gin router.
type Server struct {
	service  *mint.Service
	adminKey string
	log      *slog.Logger
}

// NewServer builds the router.
func NewServer(config Config) *Server {
	log := config.Log
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		service:  config.Service,
		adminKey: config.AdminKey,
		log:      log.With("component", "httpapi"),
	}
}

// Handler returns the configured gin engine.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1")
	{
		v1.POST("/authorize", s.handleAuthorize)
		v1.POST("/mint", s.handleMintDirect)
		v1.POST("/mint/operator", s.requireAdminKey(), s.handleMintOperator)
		v1.POST("/metatx/prepare", s.handlePrepareMetaTx)
		v1.POST("/metatx/relay", s.handleRelayMetaTx)
		v1.GET("/status/:digest", s.handleMintStatus)
		v1.GET("/balance/:address", s.handleBalance)
		v1.GET("/quota", s.handleQuota)
	}
	return router
}

// requestLogger attaches a request ID and logs method, path, status, and
// latency. Request bodies are never logged; they may carry prompt content.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.NewString()
		c.Header("X-Request-Id", requestID)
		start := time.Now()

		c.Next()

		s.log.Info("request",
			"requestId", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// requireAdminKey guards operator minting. A missing server-side key closes
// the endpoint; a mismatched client key is rejected before the handler runs.
func (s *Server) requireAdminKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.adminKey == "" || c.GetHeader("X-Admin-Key") != s.adminKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, envelope{
				Success: false,
				Error: promptmint.NewMintError(promptmint.ErrCodeInvalidCredentials,
					"admin key required", nil),
			})
		}
	}
}
