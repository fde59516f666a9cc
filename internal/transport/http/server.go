package http

import (
	"context"
	stdhttp "net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/lobbychat/internal/config"
	"github.com/vovakirdan/lobbychat/internal/core"
	"github.com/vovakirdan/lobbychat/internal/service/identity"
)

// Hub is the part of the core hub the transport drives.
type Hub interface {
	RegisterClient(c *core.Client)
	UnregisterClient(c *core.Client)
}

// IdentityChecker answers pre-connection identity checks.
type IdentityChecker interface {
	Check(ctx context.Context, username, sessionID string) (*identity.Result, error)
}

// NewServer builds the HTTP server: health check, identity check and the chat socket.
func NewServer(hub Hub, ident IdentityChecker, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(logger))
	r.Use(cors.New(corsConfig(cfg.AllowedOrigins)))

	r.GET("/health", healthHandler)

	api := NewAPIHandlers(ident, logger)
	r.POST("/api/check-user", api.CheckUser)

	r.GET("/ws", gin.WrapH(NewWSHandler(hub, cfg, logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type"}
	if allowsAnyOrigin(origins) {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOriginFunc = func(origin string) bool {
		return originAllowed(origin, origins)
	}
	return cfg
}
