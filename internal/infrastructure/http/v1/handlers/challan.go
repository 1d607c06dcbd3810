package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"challanbook/internal/core/id"
	"challanbook/internal/core/numerator"
	"challanbook/internal/core/weight"
	"challanbook/internal/domain"
	"challanbook/internal/domain/audit"
	"challanbook/internal/domain/documents/challan"
	"challanbook/internal/infrastructure/http/v1/dto"
)

// ChallanService is the part of challan.Service the HTTP layer calls.
type ChallanService interface {
	PreviewNumber(ctx context.Context) (numerator.Preview, error)
	ReserveNumber(ctx context.Context) (int64, error)
	SetCounter(ctx context.Context, value int64) error
	ComputeWeights(ctx context.Context, in challan.WeightInput) (weight.Breakdown, error)

	Create(ctx context.Context, in challan.CreateInput) (*challan.Challan, error)
	Update(ctx context.Context, docID id.ID, in challan.UpdateInput) (*challan.Challan, error)
	Delete(ctx context.Context, docID id.ID, reason string) error
	Get(ctx context.Context, docID id.ID) (*challan.Challan, error)
	List(ctx context.Context, filter challan.ListFilter) (domain.ListResult[*challan.ListItem], error)
	History(ctx context.Context, docID id.ID, limit int) ([]audit.Entry, error)

	RegeneratePDF(ctx context.Context, docID id.ID) (*challan.Challan, error)
	PDFFile(ctx context.Context, docID id.ID) (string, string, error)
	RenderLabel(ctx context.Context, docID id.ID, itemIndex int, format string) ([]byte, string, error)
	PrintLabel(ctx context.Context, docID id.ID, itemIndex int, printer string, copies int) error
}

var _ ChallanService = (*challan.Service)(nil)

// ChallanHandler serves /challans.
type ChallanHandler struct {
	*BaseHandler
	service ChallanService
}

// NewChallanHandler creates a new challan handler.
func NewChallanHandler(base *BaseHandler, service ChallanService) *ChallanHandler {
	return &ChallanHandler{BaseHandler: base, service: service}
}

// List handles GET /challans
func (h *ChallanHandler) List(c *gin.Context) {
	var q dto.ChallanListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	res, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.ChallanListItemResponse, len(res.Items))
	for i, it := range res.Items {
		items[i] = dto.FromChallanListItem(it)
	}
	h.OK(c, dto.ListResponse[dto.ChallanListItemResponse]{
		Items:      items,
		TotalCount: res.TotalCount,
		Limit:      res.Limit,
		Offset:     res.Offset,
	})
}

// Create handles POST /challans
//
// The challan is committed before the PDF is rendered. A render failure is
// reported as PDF_RENDER_FAILED with the challan id in details; the client
// retries with POST /challans/:id/pdf.
func (h *ChallanHandler) Create(c *gin.Context) {
	var req dto.CreateChallanRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromChallan(doc))
}

// Get handles GET /challans/:id
func (h *ChallanHandler) Get(c *gin.Context) {
	docID, ok := h.ParamID(c)
	if !ok {
		return
	}
	doc, err := h.service.Get(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromChallan(doc))
}

// Update handles PUT /challans/:id
func (h *ChallanHandler) Update(c *gin.Context) {
	docID, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req dto.UpdateChallanRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.Update(c.Request.Context(), docID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromChallan(doc))
}

// Delete handles DELETE /challans/:id
func (h *ChallanHandler) Delete(c *gin.Context) {
	docID, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req dto.DeleteChallanRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.service.Delete(c.Request.Context(), docID, req.Reason); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// History handles GET /challans/:id/history
func (h *ChallanHandler) History(c *gin.Context) {
	docID, ok := h.ParamID(c)
	if !ok {
		return
	}
	entries, err := h.service.History(c.Request.Context(), docID, h.ParseIntQuery(c, "limit", 0))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": entries})
}

// RegeneratePDF handles POST /challans/:id/pdf
func (h *ChallanHandler) RegeneratePDF(c *gin.Context) {
	docID, ok := h.ParamID(c)
	if !ok {
		return
	}
	doc, err := h.service.RegeneratePDF(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromChallan(doc))
}

// DownloadPDF handles GET /challans/:id/pdf
func (h *ChallanHandler) DownloadPDF(c *gin.Context) {
	docID, ok := h.ParamID(c)
	if !ok {
		return
	}
	abs, name, err := h.service.PDFFile(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.FileAttachment(abs, name)
}

// Label handles GET /challans/:id/lines/:index/label?format=pdf|html
func (h *ChallanHandler) Label(c *gin.Context) {
	docID, ok := h.ParamID(c)
	if !ok {
		return
	}
	idx, ok := h.ParamInt(c, "index")
	if !ok {
		return
	}
	data, contentType, err := h.service.RenderLabel(c.Request.Context(), docID, idx, c.DefaultQuery("format", challan.FormatPDF))
	if err != nil {
		h.Error(c, err)
		return
	}
	c.Data(http.StatusOK, contentType, data)
}

// PrintLabel handles POST /challans/:id/lines/:index/label/print
func (h *ChallanHandler) PrintLabel(c *gin.Context) {
	docID, ok := h.ParamID(c)
	if !ok {
		return
	}
	idx, ok := h.ParamInt(c, "index")
	if !ok {
		return
	}
	var req dto.PrintLabelRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := h.service.PrintLabel(c.Request.Context(), docID, idx, req.Printer, req.Copies); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "label sent to printer")
}
