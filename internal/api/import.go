package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"pulseboard/internal/exporter"
	"pulseboard/internal/importer"
)

// Import runs one import batch for an uploaded workbook, streaming progress
// as SSE. A concurrent batch is refused with 409.
// POST /api/import
func (h *Handler) Import(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no workbook uploaded"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read upload"})
		return
	}
	defer src.Close()

	events, err := h.coord.Import(src, file.Filename)
	if err == importer.ErrBusy {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	for event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			continue
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", payload)
		flusher.Flush()
	}
}

// GetImportReport returns the stored report of a past batch.
// GET /api/imports/:id
func (h *Handler) GetImportReport(c *gin.Context) {
	rep, err := h.store.ImportLog(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if rep == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown import batch"})
		return
	}
	c.JSON(http.StatusOK, rep)
}

// DownloadImportReport renders a past batch's report as a workbook.
// GET /api/imports/:id/export
func (h *Handler) DownloadImportReport(c *gin.Context) {
	rep, err := h.store.ImportLog(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if rep == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown import batch"})
		return
	}

	buf, err := exporter.WriteReport(rep)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	filename := fmt.Sprintf("import-report-%s.xlsx", rep.BatchID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}
