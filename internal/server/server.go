// Package server exposes the routing pipeline over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/evault-labs/swap-router/internal/contracts"
	"github.com/evault-labs/swap-router/internal/swap/strategies"
	"github.com/evault-labs/swap-router/internal/tokens"
)

type Server struct {
	port      int64
	echo      *echo.Echo
	runner    *strategies.Runner
	tokens    *tokens.Cache
	book      *contracts.Book
	logger    *logrus.Entry
	metrics   *statsd.Client
	validator *validator.Validate
}

func NewServer(
	port int64,
	runner *strategies.Runner,
	tokenCache *tokens.Cache,
	book *contracts.Book,
	logger *logrus.Logger,
	metrics *statsd.Client,
) *Server {
	return &Server{
		port:      port,
		runner:    runner,
		tokens:    tokenCache,
		book:      book,
		logger:    logger.WithField("service", "server"),
		metrics:   metrics,
		validator: validator.New(),
	}
}

func (s *Server) StartServer() error {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("2M"))
	e.Use(s.statsdMiddleware)
	e.Use(middleware.RequestID())

	e.GET("/healthz", s.Healthz)
	e.GET("/swap", s.Swap)
	e.GET("/swaps", s.Swaps)

	s.echo = e
	return e.Start(fmt.Sprintf(":%d", s.port))
}

func (s *Server) Stop(ctx context.Context) error {
	if s.echo == nil {
		return nil
	}
	return s.echo.Shutdown(ctx)
}

func (s *Server) Healthz(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (s *Server) statsdMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.metrics == nil {
			return next(c)
		}
		start := time.Now()
		err := next(c)
		if mErr := s.metrics.Timing("http.request.latency", time.Since(start), []string{
			"path:" + c.Path(),
			fmt.Sprintf("status:%d", c.Response().Status),
		}, 1); mErr != nil {
			s.logger.Errorf("fail to measure time metric, err: %v", mErr)
		}
		return err
	}
}
