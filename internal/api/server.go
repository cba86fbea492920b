// Package api hosts the webhook server that turns GitHub pull request
// events into review runs.
package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
)

// Server wraps the echo instance and its webhook handler.
type Server struct {
	echo *echo.Echo
	host string
	port int
}

// NewServer creates the API server with its routes wired.
func NewServer(host string, port int, handler *WebhookHandler) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	server := &Server{
		echo: e,
		host: host,
		port: port,
	}
	server.setupRoutes(handler)
	return server
}

func (s *Server) setupRoutes(handler *WebhookHandler) {
	s.echo.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"service": "pyreview",
			"purpose": "automated Python code review for pull requests",
		})
	})

	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status": "healthy",
		})
	})

	s.echo.POST("/webhook", handler.Handle)
}

// Handler exposes the underlying http.Handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start runs the server until interrupted, then shuts down gracefully.
func (s *Server) Start() error {
	go func() {
		addr := fmt.Sprintf("%s:%d", s.host, s.port)
		log.Info().Str("addr", addr).Msg("starting webhook server")
		if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	log.Info().Msg("shutting down webhook server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.echo.Shutdown(ctx)
}
