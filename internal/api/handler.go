// Package api is the HTTP surface: workbook upload with streamed progress,
// import reports and the read-side reports.
package api

import (
	"github.com/gin-gonic/gin"

	"pulseboard/internal/importer"
	"pulseboard/internal/report"
	"pulseboard/internal/store"
)

// Handler API handler.
type Handler struct {
	store   *store.Store
	coord   *importer.Coordinator
	reports *report.Service
}

// NewHandler creates the API handler.
func NewHandler(st *store.Store, coord *importer.Coordinator, reports *report.Service) *Handler {
	return &Handler{
		store:   st,
		coord:   coord,
		reports: reports,
	}
}

// RegisterRoutes registers all API routes.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/import", h.Import)
	router.GET("/imports/:id", h.GetImportReport)
	router.GET("/imports/:id/export", h.DownloadImportReport)

	router.GET("/fy-options", h.FYOptions)
	router.GET("/reports/utilization", h.Utilization)
	router.GET("/reports/projects", h.ProjectSummaries)
}
