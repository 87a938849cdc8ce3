// Package httpapi exposes the analysis service over HTTP.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/lexhaven/lexrag/internal/logging"
	"github.com/lexhaven/lexrag/internal/parser"
	"github.com/lexhaven/lexrag/internal/rag"
)

// Config holds HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// Server serves the analysis API.
type Server struct {
	echo         *echo.Echo
	orchestrator *rag.Orchestrator
	logger       *logging.Logger
	config       Config
}

// NewServer creates the HTTP server and registers its routes.
func NewServer(orchestrator *rag.Orchestrator, logger *logging.Logger, cfg Config) (*Server, error) {
	if orchestrator == nil {
		return nil, fmt.Errorf("orchestrator is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestContextMiddleware())
	if len(cfg.AllowedOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowCredentials: true,
		}))
	}
	e.Use(requestLogMiddleware(logger))

	metrics := NewMetrics()
	e.Use(metrics.Middleware())

	s := &Server{
		echo:         e,
		orchestrator: orchestrator,
		logger:       logger,
		config:       cfg,
	}

	e.GET("/health", s.handleHealth)
	e.GET("/metrics", metrics.Handler())
	e.POST("/analyze", s.handleAnalyze)
	e.POST("/analyze/", s.handleAnalyze)

	return s, nil
}

// requestContextMiddleware copies the request ID into the request context
// so downstream log lines carry it.
func requestContextMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Response().Header().Get(echo.HeaderXRequestID)
			ctx := logging.WithRequestID(c.Request().Context(), id)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func requestLogMiddleware(logger *logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			logger.Info(c.Request().Context(), "http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
			)
			return err
		}
	}
}

// AnalyzeResponse is the response body for POST /analyze.
type AnalyzeResponse struct {
	Answer                string `json:"answer"`
	RetrievedSourcesCount int    `json:"retrieved_sources_count"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleAnalyze answers a question from the multipart form field
// `user_query`, optionally grounded in an uploaded `file`.
func (s *Server) handleAnalyze(c echo.Context) error {
	ctx := c.Request().Context()
	userQuery := c.FormValue("user_query")

	var upload *rag.Upload
	fileHeader, err := c.FormFile("file")
	switch {
	case err == nil:
		src, openErr := fileHeader.Open()
		if openErr != nil {
			s.logger.Warn(ctx, "opening uploaded file failed", zap.Error(openErr))
			return echo.NewHTTPError(http.StatusBadRequest, "could not read uploaded file")
		}
		defer src.Close()
		upload = &rag.Upload{
			Filename:  fileHeader.Filename,
			MediaType: fileHeader.Header.Get(echo.HeaderContentType),
			Reader:    src,
		}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// No file uploaded; proceed with the question only.
	default:
		s.logger.Warn(ctx, "invalid multipart form", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid multipart form")
	}

	answer, err := s.orchestrator.Analyze(ctx, userQuery, upload)
	if err != nil {
		return s.analyzeError(ctx, err)
	}

	return c.JSON(http.StatusOK, AnalyzeResponse{
		Answer:                answer.Text,
		RetrievedSourcesCount: answer.RetrievedCount,
	})
}

// analyzeError maps request-level failures to client status codes. Internal
// causes are logged but never leaked to the response.
func (s *Server) analyzeError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, rag.ErrEmptyQuery):
		return echo.NewHTTPError(http.StatusBadRequest, "user_query is required")
	case errors.Is(err, rag.ErrUnsupportedMediaType):
		return echo.NewHTTPError(http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, rag.ErrFileTooLarge):
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, rag.ErrEmptyParse):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, parser.ErrParseFailed):
		return echo.NewHTTPError(http.StatusBadRequest, "failed to parse document")
	default:
		s.logger.Error(ctx, "analysis failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

// Start begins serving. Blocks until the server stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "http server starting", zap.String("addr", addr))

	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
