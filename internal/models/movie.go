package models

import "time"

type Movie struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Year        int       `json:"year" db:"year"`
	Description *string   `json:"description" db:"description"`
	PosterURL   *string   `json:"posterUrl" db:"poster_url"`
	WatchedYear int       `json:"watchedYear" db:"watched_year"`
	AddedBy     string    `json:"addedBy" db:"added_by"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

type CreateMovieRequest struct {
	Title       string  `json:"title" binding:"required,min=1,max=255"`
	Year        int     `json:"year" binding:"required,min=1888,max=2100"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	PosterURL   *string `json:"posterUrl" binding:"omitempty,url"`
	WatchedYear int     `json:"watchedYear" binding:"required,min=2000"`
	AddedBy     string  `json:"addedBy" binding:"omitempty,max=100"`
}

type UpdateMovieRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=255"`
	Year        *int    `json:"year" binding:"omitempty,min=1888,max=2100"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	PosterURL   *string `json:"posterUrl" binding:"omitempty,url"`
	WatchedYear *int    `json:"watchedYear" binding:"omitempty,min=2000"`
	AddedBy     *string `json:"addedBy" binding:"omitempty,max=100"`
}

// BulkUpdateRequest updates the same metadata fields on a batch of movies.
type BulkUpdateRequest struct {
	MovieIDs    []string `json:"movieIds" binding:"required,min=1,dive,required"`
	Description *string  `json:"description" binding:"omitempty,max=2000"`
	PosterURL   *string  `json:"posterUrl" binding:"omitempty,url"`
}

type MovieFilter struct {
	Year        *int
	WatchedYear *int
	Search      *string
}

type MovieUpdate struct {
	Title       *string
	Year        *int
	Description *string
	PosterURL   *string
	WatchedYear *int
	AddedBy     *string
}

// BatchResult reports the outcome of one bulk-update batch. A failed or
// partially-failed batch never fails the request, it just carries Errors.
type BatchResult struct {
	Batch   int      `json:"batch"`
	Updated int      `json:"updated"`
	Errors  []string `json:"errors,omitempty"`
}

type BulkUpdateReport struct {
	Total   int           `json:"total"`
	Updated int           `json:"updated"`
	Failed  int           `json:"failed"`
	Batches []BatchResult `json:"batches"`
}
