package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"movierank/internal/models"
	"movierank/internal/services"
)

type DataHandler struct {
	transfer   *services.TransferService
	logger     *logrus.Logger
	production bool
}

func NewDataHandler(transfer *services.TransferService, logger *logrus.Logger, production bool) *DataHandler {
	return &DataHandler{transfer: transfer, logger: logger, production: production}
}

// Export dumps the requested entities as a downloadable JSON file.
func (h *DataHandler) Export(c *gin.Context) {
	filter := models.ExportFilter{}
	year, ok := queryInt(c, "year")
	if !ok {
		return
	}
	filter.Year = year
	if raw := c.Query("entities"); raw != "" {
		for _, e := range strings.Split(raw, ",") {
			if e = strings.TrimSpace(e); e != "" {
				filter.Entities = append(filter.Entities, e)
			}
		}
	}

	export, err := h.transfer.Export(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, h.production, err)
		return
	}

	filename := fmt.Sprintf("movierank-export-%s.json", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.JSON(http.StatusOK, export)
}

// Import loads a previously exported dump. The response is always a 200
// with per-entity imported/skipped/error tallies; single bad records never
// fail the request.
func (h *DataHandler) Import(c *gin.Context) {
	var req models.ImportRequest
	if !bindJSON(c, &req) {
		return
	}
	report := h.transfer.Import(c.Request.Context(), &req)
	c.JSON(http.StatusOK, report)
}

func (h *DataHandler) Stats(c *gin.Context) {
	dataStats, err := h.transfer.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, h.production, err)
		return
	}
	c.JSON(http.StatusOK, dataStats)
}
