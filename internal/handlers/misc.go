package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// dbPinger is the slice of pgxpool.Pool the health check needs.
type dbPinger interface {
	Ping(ctx context.Context) error
}

type MiscHandler struct {
	db    dbPinger
	redis *redis.Client
}

func NewMiscHandler(db dbPinger, redis *redis.Client) *MiscHandler {
	return &MiscHandler{db: db, redis: redis}
}

// Health reports per-dependency status. Redis being down degrades the
// TMDB cache but not the API, so it is reported without failing the check.
func (h *MiscHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()
	overall := "ok"
	status := http.StatusOK
	dbStatus := "ok"
	if err := h.db.Ping(ctx); err != nil {
		dbStatus = "unreachable"
		overall = "unavailable"
		status = http.StatusServiceUnavailable
	}
	redisStatus := "ok"
	if h.redis == nil {
		redisStatus = "disabled"
	} else if err := h.redis.Ping(ctx).Err(); err != nil {
		redisStatus = "unreachable"
		if overall == "ok" {
			overall = "degraded"
		}
	}

	c.JSON(status, gin.H{
		"status":   overall,
		"database": dbStatus,
		"redis":    redisStatus,
	})
}

// Index is the self-describing endpoint listing.
func (h *MiscHandler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "movierank",
		"version": "1.0",
		"endpoints": gin.H{
			"users": []string{
				"GET /api/users", "GET /api/users/:id", "POST /api/users",
				"PUT /api/users/:id", "DELETE /api/users/:id", "GET /api/users/:id/stats",
			},
			"movies": []string{
				"GET /api/movies", "GET /api/movies/:id", "POST /api/movies",
				"PUT /api/movies/:id", "DELETE /api/movies/:id", "GET /api/movies/stats",
				"GET /api/movies/:id/stats", "GET /api/movies/unrated/:year",
				"POST /api/movies/bulk-update",
			},
			"rankings": []string{
				"GET /api/rankings", "GET /api/rankings/:id", "POST /api/rankings",
				"PUT /api/rankings/:id", "DELETE /api/rankings/:id",
				"GET /api/rankings/year/:year", "GET /api/rankings/stats/years",
				"GET /api/rankings/user/:userId/movie/:movieId",
				"GET /api/rankings/user/:userId/movie/:movieId/year/:year",
			},
			"data": []string{
				"GET /api/data/export", "POST /api/data/import", "GET /api/data/stats",
			},
			"tmdb": []string{
				"GET /api/tmdb/search", "GET /api/tmdb/movie/:id",
				"GET /api/tmdb/match", "POST /api/tmdb/import",
			},
			"misc": []string{"GET /health", "GET /api"},
		},
	})
}
