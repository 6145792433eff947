package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"movierank/internal/models"
	"movierank/internal/repository"
	"movierank/internal/stats"
)

const rankingStatsTopN = 10

type RankingHandler struct {
	rankings   repository.Rankings
	users      repository.Users
	movies     repository.Movies
	logger     *logrus.Logger
	production bool
}

func NewRankingHandler(rankings repository.Rankings, users repository.Users, movies repository.Movies, logger *logrus.Logger, production bool) *RankingHandler {
	return &RankingHandler{rankings: rankings, users: users, movies: movies, logger: logger, production: production}
}

func (h *RankingHandler) List(c *gin.Context) {
	page := parsePage(c)
	filter := models.RankingFilter{
		UserID:  queryString(c, "userId"),
		MovieID: queryString(c, "movieId"),
	}
	rankingYear, ok := queryInt(c, "rankingYear")
	if !ok {
		return
	}
	filter.RankingYear = rankingYear
	watchedYear, ok := queryInt(c, "watchedYear")
	if !ok {
		return
	}
	filter.WatchedYear = watchedYear

	rankings, total, err := h.rankings.List(c.Request.Context(), filter, page)
	if err != nil {
		respondError(c, h.logger, h.production, err)
		return
	}
	c.JSON(http.StatusOK, models.ListResponse[models.RankingWithContext]{
		Data:       rankings,
		Pagination: models.NewPagination(page, total),
	})
}

func (h *RankingHandler) Get(c *gin.Context) {
	ranking, err := h.rankings.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, h.production, err)
		return
	}
	c.JSON(http.StatusOK, ranking)
}

// Create rejects a second ranking for the same (user, movie, year) triple
// with a 409 that echoes the existing record; re-rating goes through PUT.
func (h *RankingHandler) Create(c *gin.Context) {
	var req models.CreateRankingRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	// Existence checks give a clean 404 instead of a raw FK violation.
	// The check-then-create race is benign at this tool's concurrency; the
	// unique constraint still backstops duplicates.
	if _, err := h.users.GetByID(ctx, req.UserID); err != nil {
		respondError(c, h.logger, h.production, err)
		return
	}
	if _, err := h.movies.GetByID(ctx, req.MovieID); err != nil {
		respondError(c, h.logger, h.production, err)
		return
	}

	ranking := models.Ranking{
		ID:          uuid.NewString(),
		UserID:      req.UserID,
		MovieID:     req.MovieID,
		Rating:      req.Rating,
		RankingYear: req.RankingYear,
		Description: req.Description,
		RankedAt:    time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := h.rankings.Create(ctx, &ranking); err != nil {
		respondError(c, h.logger, h.production, err)
		return
	}
	c.JSON(http.StatusCreated, ranking)
}

func (h *RankingHandler) Update(c *gin.Context) {
	var req models.UpdateRankingRequest
	if !bindJSON(c, &req) {
		return
	}

	ranking, err := h.rankings.Update(c.Request.Context(), c.Param("id"), models.RankingUpdate{
		Rating:      req.Rating,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, h.logger, h.production, err)
		return
	}
	c.JSON(http.StatusOK, ranking)
}

func (h *RankingHandler) Delete(c *gin.Context) {
	if err := h.rankings.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, h.production, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ByYear reports one year's rankings grouped on the movies' watched year,
// with the rollup figures for that view.
func (h *RankingHandler) ByYear(c *gin.Context) {
	year, ok := paramYear(c)
	if !ok {
		return
	}

	rankings, err := h.rankings.ListAll(c.Request.Context(), models.RankingFilter{WatchedYear: &year})
	if err != nil {
		respondError(c, h.logger, h.production, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"stats":    stats.Rollup(year, rankings, rankingStatsTopN),
		"rankings": rankings,
	})
}

// StatsYears reports the overall rollup across every ranking year.
func (h *RankingHandler) StatsYears(c *gin.Context) {
	rankings, err := h.rankings.ListAll(c.Request.Context(), models.RankingFilter{})
	if err != nil {
		respondError(c, h.logger, h.production, err)
		return
	}
	c.JSON(http.StatusOK, stats.Overall(rankings, stats.ByRankingYear, rankingStatsTopN))
}

// ByUserMovie fetches one user's ranking(s) of one movie, optionally
// narrowed to a single ranking year.
func (h *RankingHandler) ByUserMovie(c *gin.Context) {
	userID := c.Param("userId")
	movieID := c.Param("movieId")
	ctx := c.Request.Context()

	if rawYear := c.Param("year"); rawYear != "" {
		year, err := strconv.Atoi(rawYear)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation failed",
				"details": []models.FieldError{{Path: "year", Message: "must be an integer"}},
			})
			return
		}
		ranking, err := h.rankings.GetByTriple(ctx, userID, movieID, year)
		if err != nil {
			respondError(c, h.logger, h.production, err)
			return
		}
		c.JSON(http.StatusOK, ranking)
		return
	}

	rankings, err := h.rankings.ListAll(ctx, models.RankingFilter{UserID: &userID, MovieID: &movieID})
	if err != nil {
		respondError(c, h.logger, h.production, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rankings})
}

// MovieStats serves one movie's figures with a per-ranking-year breakdown.
func (h *RankingHandler) MovieStats(c *gin.Context) {
	id := c.Param("id")
	ctx := c.Request.Context()

	if _, err := h.movies.GetByID(ctx, id); err != nil {
		respondError(c, h.logger, h.production, err)
		return
	}
	rankings, err := h.rankings.ListAll(ctx, models.RankingFilter{MovieID: &id})
	if err != nil {
		respondError(c, h.logger, h.production, err)
		return
	}
	c.JSON(http.StatusOK, stats.ForMovie(id, rankings))
}
