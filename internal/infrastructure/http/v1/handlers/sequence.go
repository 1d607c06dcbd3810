package handlers

import (
	"github.com/gin-gonic/gin"

	"challanbook/internal/infrastructure/http/v1/dto"
)

// SequenceHandler serves /sequences/challan.
type SequenceHandler struct {
	*BaseHandler
	service ChallanService
}

// NewSequenceHandler creates a new sequence handler.
func NewSequenceHandler(base *BaseHandler, service ChallanService) *SequenceHandler {
	return &SequenceHandler{BaseHandler: base, service: service}
}

// Preview handles GET /sequences/challan/next
// Peek only: the returned next value is not held for the caller.
func (h *SequenceHandler) Preview(c *gin.Context) {
	p, err := h.service.PreviewNumber(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromPreview(p))
}

// Reserve handles POST /sequences/challan/reservations
func (h *SequenceHandler) Reserve(c *gin.Context) {
	n, err := h.service.ReserveNumber(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.ReservationResponse{ChallanNo: n})
}

// Set handles PUT /sequences/challan
func (h *SequenceHandler) Set(c *gin.Context) {
	var req dto.SetSequenceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()
	if err := h.service.SetCounter(ctx, *req.Value); err != nil {
		h.Error(c, err)
		return
	}
	p, err := h.service.PreviewNumber(ctx)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromPreview(p))
}
