package handlers

import (
	"github.com/gin-gonic/gin"

	"challanbook/internal/domain/catalogs/masterdata"
	"challanbook/internal/infrastructure/http/v1/dto"
)

// CatalogHandler serves read-only master-data pick lists.
type CatalogHandler struct {
	*BaseHandler
	repo masterdata.Repository
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(base *BaseHandler, repo masterdata.Repository) *CatalogHandler {
	return &CatalogHandler{BaseHandler: base, repo: repo}
}

// List handles GET /catalogs/:kind?includeDeleted=true
func (h *CatalogHandler) List(c *gin.Context) {
	kind, err := masterdata.ParseKind(c.Param("kind"))
	if err != nil {
		h.Error(c, err)
		return
	}
	records, err := h.repo.List(c.Request.Context(), kind, c.Query("includeDeleted") == "true")
	if err != nil {
		h.Error(c, err)
		return
	}
	items := make([]dto.CatalogRecordResponse, len(records))
	for i, r := range records {
		items[i] = dto.FromRecord(kind, r)
	}
	h.OK(c, gin.H{"items": items})
}
