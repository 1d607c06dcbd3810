// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"challanbook/internal/domain/catalogs/masterdata"
	"challanbook/internal/infrastructure/http/v1/dto"
	"challanbook/internal/infrastructure/http/v1/handlers"
	"challanbook/internal/infrastructure/http/v1/middleware"
	"challanbook/pkg/logger"
)

// RouterConfig holds the dependencies of the API.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// DB backs the readiness and info probes
	DB handlers.DB

	// Challans serves documents, numbering, weights and labels
	Challans handlers.ChallanService

	// Catalogs backs the read-only pick lists
	Catalogs masterdata.Repository

	// Idempotency, when set, guards the number-allocating POSTs
	Idempotency middleware.IdempotencyStore

	// Version is reported by /health/info
	Version string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	if err := dto.RegisterValidators(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	if cfg.DB != nil {
		registerHealthRoutes(router.Group("/health"), handlers.NewHealthHandler(cfg.DB, cfg.Version))
	}

	v1 := router.Group("/api/v1")
	base := handlers.NewBaseHandler()

	var allocating []gin.HandlerFunc
	if cfg.Idempotency != nil {
		allocating = append(allocating, middleware.Idempotency(cfg.Idempotency))
	}

	registerChallanRoutes(v1.Group("/challans"), handlers.NewChallanHandler(base, cfg.Challans), allocating...)
	registerSequenceRoutes(v1.Group("/sequences/challan"), handlers.NewSequenceHandler(base, cfg.Challans), allocating...)
	registerWeightRoutes(v1.Group("/weights"), handlers.NewWeightHandler(base, cfg.Challans))
	if cfg.Catalogs != nil {
		registerCatalogRoutes(v1.Group("/catalogs"), handlers.NewCatalogHandler(base, cfg.Catalogs))
	}

	return router, nil
}
