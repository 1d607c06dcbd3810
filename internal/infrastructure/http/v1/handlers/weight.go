package handlers

import (
	"github.com/gin-gonic/gin"

	"challanbook/internal/infrastructure/http/v1/dto"
)

// WeightHandler serves the live weight preview.
type WeightHandler struct {
	*BaseHandler
	service ChallanService
}

// NewWeightHandler creates a new weight handler.
func NewWeightHandler(base *BaseHandler, service ChallanService) *WeightHandler {
	return &WeightHandler{BaseHandler: base, service: service}
}

// Compute handles POST /weights/compute
func (h *WeightHandler) Compute(c *gin.Context) {
	var req dto.ComputeWeightRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}
	b, err := h.service.ComputeWeights(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromBreakdown(b))
}
