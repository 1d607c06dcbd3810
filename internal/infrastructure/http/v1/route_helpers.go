package v1

import (
	"github.com/gin-gonic/gin"

	"challanbook/internal/infrastructure/http/v1/handlers"
)

func registerHealthRoutes(group *gin.RouterGroup, h *handlers.HealthHandler) {
	group.GET("/live", h.Live)
	group.GET("/ready", h.Ready)
	group.GET("/info", h.Info)
}

// withHandler appends h to the route-level middleware chain.
func withHandler(chain []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(chain)+1)
	return append(append(out, chain...), h)
}

// registerChallanRoutes registers CRUD, PDF, history and label routes.
// allocating runs in front of creation, which may take a number.
func registerChallanRoutes(group *gin.RouterGroup, h *handlers.ChallanHandler, allocating ...gin.HandlerFunc) {
	group.GET("", h.List)
	group.POST("", withHandler(allocating, h.Create)...)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
	group.GET("/:id/history", h.History)

	group.GET("/:id/pdf", h.DownloadPDF)
	group.POST("/:id/pdf", h.RegeneratePDF)

	group.GET("/:id/lines/:index/label", h.Label)
	group.POST("/:id/lines/:index/label/print", h.PrintLabel)
}

func registerSequenceRoutes(group *gin.RouterGroup, h *handlers.SequenceHandler, allocating ...gin.HandlerFunc) {
	group.GET("/next", h.Preview)
	group.POST("/reservations", withHandler(allocating, h.Reserve)...)
	group.PUT("", h.Set)
}

func registerWeightRoutes(group *gin.RouterGroup, h *handlers.WeightHandler) {
	group.POST("/compute", h.Compute)
}

func registerCatalogRoutes(group *gin.RouterGroup, h *handlers.CatalogHandler) {
	group.GET("/:kind", h.List)
}
