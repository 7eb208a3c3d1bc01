package toolserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/walterra/eddo-core/internal/obslog"
)

// ServerConfig configures the HTTP transport's single /mcp endpoint. Each
// POST to /mcp gets one JSON response; the handler does not stream
// (no chunked or SSE output).
type ServerConfig struct {
	Port            int
	CORSOrigin      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DefaultServerConfig mirrors the teacher's sensible defaults, adjusted to
// the timeouts §5 names for the tool transport.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:            8080,
		CORSOrigin:      "*",
		ReadTimeout:     120 * time.Second,
		WriteTimeout:    120 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// request is the body POSTed to /mcp: a tool name plus its arguments.
type request struct {
	Tool      string                 `json:"tool"`
	Arguments map[string]interface{} `json:"arguments"`
}

// NewEchoServer builds an Echo instance exposing the /mcp endpoint over
// cfg, logging every request via log.
func NewEchoServer(cfg ServerConfig, deps *Deps, log *obslog.Context) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.CORSOrigin},
		AllowMethods: []string{http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderContentType, echo.HeaderAccept,
			"X-User-ID", "X-Database-Name", "X-Telegram-ID",
			"traceparent", "tracestate",
		},
	}))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			started := time.Now()
			err := next(c)
			log.WithFields(map[string]interface{}{
				"method":  c.Request().Method,
				"path":    c.Path(),
				"status":  c.Response().Status,
				"latency": time.Since(started).String(),
			}).Info("request handled")
			return err
		}
	})

	e.GET("/health", healthHandler)
	e.POST("/mcp", mcpHandler(deps))

	return e
}

func healthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy", "service": "eddo-toolserver"})
}

func mcpHandler(deps *Deps) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req request
		if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
			return c.JSON(http.StatusBadRequest, newError("mcp.decode", ErrorTypeValidation,
				fmt.Errorf("malformed request body: %w", err)))
		}

		sess, err := deps.Gate.Authenticate(c.Request().Context(), c.Request().Header)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, newError(req.Tool, ErrorTypeAuth, err))
		}

		envelope := deps.Dispatch(sess, req.Tool, req.Arguments)
		return c.JSON(http.StatusOK, envelope)
	}
}

// StartServer runs e on cfg.Port until the process receives a shutdown
// signal, then drains in-flight requests up to cfg.ShutdownTimeout.
func StartServer(ctx context.Context, e *echo.Echo, cfg ServerConfig) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.StartServer(srv)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	}
}
