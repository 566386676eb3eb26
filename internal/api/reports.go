package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// FYOptions lists the selectable fiscal years.
// GET /api/fy-options
func (h *Handler) FYOptions(c *gin.Context) {
	options, err := h.reports.FYOptions(time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"options": options})
}

// Utilization per-employee utilization for one fiscal year.
// GET /api/reports/utilization?fy=24/25
func (h *Handler) Utilization(c *gin.Context) {
	fy := c.Query("fy")
	if fy == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing fy parameter"})
		return
	}
	rep, err := h.reports.Utilization(fy, time.Now())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rep)
}

// ProjectSummaries project financial summaries for one fiscal year.
// GET /api/reports/projects?fy=24/25
func (h *Handler) ProjectSummaries(c *gin.Context) {
	fy := c.Query("fy")
	if fy == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing fy parameter"})
		return
	}
	rows, err := h.reports.ProjectSummaries(fy)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"fiscalYear": fy, "projects": rows})
}
