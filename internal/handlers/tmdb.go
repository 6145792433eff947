package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"movierank/internal/models"
	"movierank/internal/services"
)

// TMDBHandler exposes metadata lookups. None of these endpoints persist
// anything; import only shapes a record the caller can POST to /movies.
type TMDBHandler struct {
	tmdb       *services.TMDBClient
	logger     *logrus.Logger
	production bool
}

func NewTMDBHandler(tmdb *services.TMDBClient, logger *logrus.Logger, production bool) *TMDBHandler {
	return &TMDBHandler{tmdb: tmdb, logger: logger, production: production}
}

func (h *TMDBHandler) Search(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation failed",
			"details": []models.FieldError{{Path: "query", Message: "is required"}},
		})
		return
	}
	year, ok := queryInt(c, "year")
	if !ok {
		return
	}
	yearValue := 0
	if year != nil {
		yearValue = *year
	}

	result, err := h.tmdb.SearchMovies(c.Request.Context(), query, yearValue)
	if err != nil {
		respondError(c, h.logger, h.production, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *TMDBHandler) Movie(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation failed",
			"details": []models.FieldError{{Path: "id", Message: "must be an integer TMDB id"}},
		})
		return
	}

	detail, err := h.tmdb.GetMovie(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, h.production, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *TMDBHandler) Match(c *gin.Context) {
	title := c.Query("title")
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation failed",
			"details": []models.FieldError{{Path: "title", Message: "is required"}},
		})
		return
	}
	year, ok := queryInt(c, "year")
	if !ok {
		return
	}
	yearValue := 0
	if year != nil {
		yearValue = *year
	}

	match, err := h.tmdb.Match(c.Request.Context(), title, yearValue)
	if err != nil {
		respondError(c, h.logger, h.production, err)
		return
	}
	c.JSON(http.StatusOK, match)
}

func (h *TMDBHandler) Import(c *gin.Context) {
	var req models.TMDBImportRequest
	if !bindJSON(c, &req) {
		return
	}

	detail, err := h.tmdb.GetMovie(c.Request.Context(), req.TMDBID)
	if err != nil {
		respondError(c, h.logger, h.production, err)
		return
	}
	c.JSON(http.StatusOK, h.tmdb.FormatImport(detail, req.WatchedYear, req.AddedBy))
}
