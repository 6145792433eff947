package models

// Wire shapes for the TMDB v3 API. Only the fields the service consumes.

type TMDBSearchResponse struct {
	Page         int          `json:"page"`
	Results      []TMDBResult `json:"results"`
	TotalPages   int          `json:"total_pages"`
	TotalResults int          `json:"total_results"`
}

type TMDBResult struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	VoteAverage float64 `json:"vote_average"`
}

type TMDBMovieDetail struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	Runtime     int     `json:"runtime"`
	VoteAverage float64 `json:"vote_average"`
	Tagline     string  `json:"tagline"`
}

// TMDBImportRequest asks the service to shape a TMDB record into a movie
// create payload. Nothing is persisted by this path.
type TMDBImportRequest struct {
	TMDBID      int    `json:"tmdbId" binding:"required"`
	WatchedYear int    `json:"watchedYear" binding:"required,min=2000"`
	AddedBy     string `json:"addedBy" binding:"omitempty,max=100"`
}

// MovieImport is the ready-to-create movie payload produced from a TMDB
// record.
type MovieImport struct {
	Title       string  `json:"title"`
	Year        int     `json:"year"`
	Description *string `json:"description"`
	PosterURL   *string `json:"posterUrl"`
	WatchedYear int     `json:"watchedYear"`
	AddedBy     string  `json:"addedBy"`
	TMDBID      int     `json:"tmdbId"`
}
