package handlers

import (
	"github.com/gin-gonic/gin"

	"movierank/internal/container"
	"movierank/internal/middleware"
)

// NewRouter builds the full route tree from the container's dependencies.
func NewRouter(c *container.Container) *gin.Engine {
	if c.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	RegisterValidators()

	production := c.Config.IsProduction()
	userHandler := NewUserHandler(c.Users, c.Rankings, c.Logger, production)
	movieHandler := NewMovieHandler(c.Movies, c.Rankings, c.MovieService, c.Logger, production)
	rankingHandler := NewRankingHandler(c.Rankings, c.Users, c.Movies, c.Logger, production)
	dataHandler := NewDataHandler(c.TransferService, c.Logger, production)
	tmdbHandler := NewTMDBHandler(c.TMDB, c.Logger, production)
	miscHandler := NewMiscHandler(c.DB, c.Redis)

	limiter := middleware.NewRateLimiter(c.Config.RateLimitRPS, c.Config.RateLimitBurst)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.RequestLogger(c.Logger))
	r.Use(limiter.Middleware())

	r.GET("/health", miscHandler.Health)

	api := r.Group("/api")
	{
		api.GET("", miscHandler.Index)

		users := api.Group("/users")
		{
			users.GET("", userHandler.List)
			users.POST("", userHandler.Create)
			users.GET("/:id", userHandler.Get)
			users.PUT("/:id", userHandler.Update)
			users.DELETE("/:id", userHandler.Delete)
			users.GET("/:id/stats", userHandler.Stats)
		}

		movies := api.Group("/movies")
		{
			movies.GET("", movieHandler.List)
			movies.POST("", movieHandler.Create)
			movies.GET("/stats", movieHandler.Stats)
			movies.GET("/unrated/:year", movieHandler.Unrated)
			movies.POST("/bulk-update", movieHandler.BulkUpdate)
			movies.GET("/:id", movieHandler.Get)
			movies.PUT("/:id", movieHandler.Update)
			movies.DELETE("/:id", movieHandler.Delete)
			movies.GET("/:id/stats", rankingHandler.MovieStats)
		}

		rankings := api.Group("/rankings")
		{
			rankings.GET("", rankingHandler.List)
			rankings.POST("", rankingHandler.Create)
			rankings.GET("/year/:year", rankingHandler.ByYear)
			rankings.GET("/stats/years", rankingHandler.StatsYears)
			rankings.GET("/user/:userId/movie/:movieId", rankingHandler.ByUserMovie)
			rankings.GET("/user/:userId/movie/:movieId/year/:year", rankingHandler.ByUserMovie)
			rankings.GET("/:id", rankingHandler.Get)
			rankings.PUT("/:id", rankingHandler.Update)
			rankings.DELETE("/:id", rankingHandler.Delete)
		}

		data := api.Group("/data")
		{
			data.GET("/export", dataHandler.Export)
			data.POST("/import", dataHandler.Import)
			data.GET("/stats", dataHandler.Stats)
		}

		tmdb := api.Group("/tmdb")
		{
			tmdb.GET("/search", tmdbHandler.Search)
			tmdb.GET("/movie/:id", tmdbHandler.Movie)
			tmdb.GET("/match", tmdbHandler.Match)
			tmdb.POST("/import", tmdbHandler.Import)
		}
	}

	return r
}
