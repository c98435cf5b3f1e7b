// Package httpapi exposes the voice pipelines over HTTP with gin.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"voice-agent/internal/domain"
	"voice-agent/internal/usecase/agent"
)

// Agent is the pipeline surface the handlers drive. *agent.Service
// implements it.
type Agent interface {
	Status() agent.Status
	Echo(ctx context.Context, audio agent.Audio, voice string) domain.Result
	VoiceQuery(ctx context.Context, audio agent.Audio, voice string) domain.Result
	Chat(ctx context.Context, sessionID string, audio agent.Audio, voice string) domain.Result
	Transcribe(ctx context.Context, audio agent.Audio) domain.Result
	Speak(ctx context.Context, text, voice string) domain.Result
	Ask(ctx context.Context, text string) (string, error)
	NewSession(ctx context.Context) (string, error)
	History(ctx context.Context, sessionID string) (domain.History, error)
}

var _ Agent = (*agent.Service)(nil)

// Options configures the router.
type Options struct {
	Agent Agent
	// Credentials maps provider names to key previews, nil when unset.
	Credentials map[string]*string
	// AudioDir is served under /audio. Empty disables the route.
	AudioDir string
	Logger   *slog.Logger
}

// StartOpts holds configuration for the HTTP server.
type StartOpts struct {
	Options
	Addr string
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(opts Options) (*gin.Engine, error) {
	if opts.Agent == nil {
		return nil, errors.New("httpapi: agent is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(opts.Logger), cors())
	registerRoutes(router, opts)
	return router, nil
}

// Start serves HTTP on opts.Addr until ctx is cancelled, then shuts down
// gracefully. A listen failure is returned immediately.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Addr == "" {
		opts.Addr = ":8000"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	router, err := NewRouter(opts.Options)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		opts.Logger.Info("http server listening", "addr", opts.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("httpapi: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("httpapi: shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("httpapi: %w", err)
	}
	return nil
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// cors allows any origin, echoing it so credentialed requests work.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			origin = "*"
		} else {
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		if h := c.GetHeader("Access-Control-Request-Headers"); h != "" {
			c.Header("Access-Control-Allow-Headers", h)
		} else {
			c.Header("Access-Control-Allow-Headers", "*")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
