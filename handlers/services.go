package handlers

import (
	"net/http"

	"driftwell/database/repository/catalog"
	"driftwell/utils"

	"github.com/gin-gonic/gin"
)

// CatalogHandler serves the public service catalog and the health probe.
type CatalogHandler struct {
	Catalog catalog.Repository
}

func NewCatalogHandler(repo catalog.Repository) *CatalogHandler {
	return &CatalogHandler{Catalog: repo}
}

func (h *CatalogHandler) ListServices(c *gin.Context) {
	services, err := h.Catalog.ListServices(c.Request.Context())
	if err != nil {
		utils.JSONError(c, http.StatusServiceUnavailable, "failed to list services", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"services": services})
}

// Healthz reports the latest dependency health snapshot.
func Healthz(c *gin.Context) {
	status := utils.GetHealthStatus()
	httpStatus := http.StatusOK
	if !status.Mongo {
		httpStatus = http.StatusServiceUnavailable
	}
	c.JSON(httpStatus, status)
}
