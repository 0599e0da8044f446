package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/hermes-backend/internal/http/response"
	"github.com/yungbote/hermes-backend/internal/services"
)

type CatalogHandler struct {
	catalog services.CatalogService
}

func NewCatalogHandler(catalog services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// GET /api/disciplines/search?q=&limit=
func (h *CatalogHandler) Search(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	hits, err := h.catalog.Search(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		response.RespondErr(c, err, "search_failed")
		return
	}
	response.RespondOK(c, gin.H{"disciplines": hits})
}

// GET /api/disciplines/browse?path=a&path=b
func (h *CatalogHandler) Browse(c *gin.Context) {
	nodes, err := h.catalog.Browse(c.Request.Context(), c.QueryArray("path"))
	if err != nil {
		response.RespondErr(c, err, "browse_failed")
		return
	}
	response.RespondOK(c, gin.H{"nodes": nodes})
}

// GET /api/disciplines/:id
func (h *CatalogHandler) Get(c *gin.Context) {
	id, err := uuidParam(c, "id", "invalid_discipline_id")
	if err != nil {
		response.RespondErr(c, err, "invalid_discipline_id")
		return
	}
	d, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, err, "get_discipline_failed")
		return
	}
	response.RespondOK(c, gin.H{"discipline": d})
}
