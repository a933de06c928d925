package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mira-santoso/salonbook-api/internal/service"
	"github.com/mira-santoso/salonbook-api/pkg/response"
)

// CatalogHandler exposes the bookable service catalog.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler builds a catalog handler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// List godoc
// @Summary List active services
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /services [get]
func (h *CatalogHandler) List(c *gin.Context) {
	services, err := h.catalog.ListActive(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, services, nil)
}

// Get godoc
// @Summary Fetch one service
// @Tags Catalog
// @Produce json
// @Param id path string true "Service id"
// @Success 200 {object} response.Envelope
// @Router /services/{id} [get]
func (h *CatalogHandler) Get(c *gin.Context) {
	svc, err := h.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, svc, nil)
}
