package httpserver

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"wholesale-catalog/internal/domain"
	"wholesale-catalog/internal/metrics"
	"wholesale-catalog/internal/service/importrun"
)

type RunService interface {
	Start(ctx context.Context, req importrun.Request) (*domain.ImportRun, error)
	Get(ctx context.Context, id string) (*domain.ImportRun, error)
	List(ctx context.Context, limit int) ([]domain.ImportRun, error)
	Errors(ctx context.Context, id string) ([]domain.ItemError, []domain.ItemError, error)
}

type ProductService interface {
	GetByBarcode(ctx context.Context, barcode string) (*domain.CatalogProduct, error)
}

type CategoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
}

type Deps struct {
	RunSvc      RunService
	ProductSvc  ProductService
	CategorySvc CategoryService
	Checks      []Check
	// FeedDir is the only directory POST /runs reads feeds from.
	FeedDir     string
	CORSOrigins []string
}

// buildRouter wires routes for the API.
func buildRouter(logger *zerolog.Logger, deps Deps) (*gin.Engine, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	feedDir, err := filepath.Abs(deps.FeedDir)
	if err != nil {
		return nil, fmt.Errorf("resolve feed dir: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery(), corsMiddleware(deps.CORSOrigins))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Checks))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	h := &handlers{deps: deps, feedDir: feedDir, log: logger}
	router.GET("/runs", h.listRuns)
	router.POST("/runs", h.startRun)
	router.GET("/runs/:id", h.getRun)
	router.GET("/runs/:id/errors", h.runErrors)
	router.GET("/products/:barcode", h.getProduct)
	router.GET("/categories", h.listCategories)

	return router, nil
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

// requestLogger logs each request and counts it by route template.
func requestLogger(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.Request(c.Request.Method, route, status)
		logger.Info().
			Str("method", c.Request.Method).
			Str("route", route).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("http request")
	}
}
