package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"movierank/internal/models"
	"movierank/internal/repository"
	"movierank/internal/services"
	"movierank/internal/stats"
)

// movieStatsTopN is the shorter top list used by the movies stats view;
// the rankings stats view uses ten.
const movieStatsTopN = 5

type MovieHandler struct {
	movies     repository.Movies
	rankings   repository.Rankings
	service    *services.MovieService
	logger     *logrus.Logger
	production bool
}

func NewMovieHandler(movies repository.Movies, rankings repository.Rankings, service *services.MovieService, logger *logrus.Logger, production bool) *MovieHandler {
	return &MovieHandler{movies: movies, rankings: rankings, service: service, logger: logger, production: production}
}

func (h *MovieHandler) List(c *gin.Context) {
	page := parsePage(c)
	filter := models.MovieFilter{Search: queryString(c, "search")}

	year, ok := queryInt(c, "year")
	if !ok {
		return
	}
	filter.Year = year
	watchedYear, ok := queryInt(c, "watchedYear")
	if !ok {
		return
	}
	filter.WatchedYear = watchedYear

	movies, total, err := h.movies.List(c.Request.Context(), filter, c.DefaultQuery("sort", "title"), page)
	if err != nil {
		respondError(c, h.logger, h.production, err)
		return
	}
	c.JSON(http.StatusOK, models.ListResponse[models.Movie]{
		Data:       movies,
		Pagination: models.NewPagination(page, total),
	})
}

func (h *MovieHandler) Get(c *gin.Context) {
	movie, err := h.movies.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, h.production, err)
		return
	}
	c.JSON(http.StatusOK, movie)
}

func (h *MovieHandler) Create(c *gin.Context) {
	var req models.CreateMovieRequest
	if !bindJSON(c, &req) {
		return
	}

	movie := models.Movie{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Year:        req.Year,
		Description: req.Description,
		PosterURL:   req.PosterURL,
		WatchedYear: req.WatchedYear,
		AddedBy:     req.AddedBy,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.movies.Create(c.Request.Context(), &movie); err != nil {
		respondError(c, h.logger, h.production, err)
		return
	}
	c.JSON(http.StatusCreated, movie)
}

func (h *MovieHandler) Update(c *gin.Context) {
	var req models.UpdateMovieRequest
	if !bindJSON(c, &req) {
		return
	}

	movie, err := h.movies.Update(c.Request.Context(), c.Param("id"), models.MovieUpdate{
		Title:       req.Title,
		Year:        req.Year,
		Description: req.Description,
		PosterURL:   req.PosterURL,
		WatchedYear: req.WatchedYear,
		AddedBy:     req.AddedBy,
	})
	if err != nil {
		respondError(c, h.logger, h.production, err)
		return
	}
	c.JSON(http.StatusOK, movie)
}

// Delete refuses to remove a movie that rankings still reference.
func (h *MovieHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	if _, err := h.movies.GetByID(ctx, id); err != nil {
		respondError(c, h.logger, h.production, err)
		return
	}
	count, err := h.rankings.CountByMovie(ctx, id)
	if err != nil {
		respondError(c, h.logger, h.production, err)
		return
	}
	if count > 0 {
		respondError(c, h.logger, h.production, models.NewReferenceError("movie", count))
		return
	}

	if err := h.movies.Delete(ctx, id); err != nil {
		respondError(c, h.logger, h.production, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Stats serves the overall movie report: per-year rollups grouped on the
// movies' watched years plus one overall average and distribution.
func (h *MovieHandler) Stats(c *gin.Context) {
	rankings, err := h.rankings.ListAll(c.Request.Context(), models.RankingFilter{})
	if err != nil {
		respondError(c, h.logger, h.production, err)
		return
	}
	c.JSON(http.StatusOK, stats.Overall(rankings, stats.ByWatchedYear, movieStatsTopN))
}

// Unrated lists the movies of a watched year the calling user has not yet
// rated for that year. Without an X-User-Id header the full year's list
// comes back; see DESIGN.md for the fallback choice.
func (h *MovieHandler) Unrated(c *gin.Context) {
	year, ok := paramYear(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	movies, err := h.movies.ListByWatchedYear(ctx, year)
	if err != nil {
		respondError(c, h.logger, h.production, err)
		return
	}

	userID := c.GetHeader(HeaderUserID)
	if userID == "" {
		c.JSON(http.StatusOK, gin.H{"year": year, "movies": movies})
		return
	}

	joined, err := h.rankings.ListAll(ctx, models.RankingFilter{UserID: &userID})
	if err != nil {
		respondError(c, h.logger, h.production, err)
		return
	}
	userRankings := make([]models.Ranking, 0, len(joined))
	for _, r := range joined {
		userRankings = append(userRankings, r.Ranking)
	}
	c.JSON(http.StatusOK, gin.H{
		"year":   year,
		"userId": userID,
		"movies": stats.Unrated(movies, userRankings, year),
	})
}

func (h *MovieHandler) BulkUpdate(c *gin.Context) {
	var req models.BulkUpdateRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Description == nil && req.PosterURL == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation failed",
			"details": []models.FieldError{{Path: "body", Message: "at least one of description or posterUrl must be set"}},
		})
		return
	}

	report := h.service.BulkUpdate(c.Request.Context(), req.MovieIDs, models.MovieUpdate{
		Description: req.Description,
		PosterURL:   req.PosterURL,
	})
	c.JSON(http.StatusOK, report)
}
