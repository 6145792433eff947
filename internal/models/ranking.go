package models

import "time"

// Ranking is one user's rating of one movie, counted toward a specific
// ranking year. The ranking year may differ from the movie's watched year.
type Ranking struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"userId" db:"user_id"`
	MovieID     string    `json:"movieId" db:"movie_id"`
	Rating      int       `json:"rating" db:"rating"`
	RankingYear int       `json:"rankingYear" db:"ranking_year"`
	Description *string   `json:"description" db:"description"`
	RankedAt    time.Time `json:"rankedAt" db:"ranked_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// RankingWithContext is a ranking joined with the movie and user columns
// the statistics engine and list views need.
type RankingWithContext struct {
	Ranking
	MovieTitle  string `json:"movieTitle" db:"movie_title"`
	MovieYear   int    `json:"movieYear" db:"movie_year"`
	WatchedYear int    `json:"watchedYear" db:"watched_year"`
	Username    string `json:"username" db:"username"`
	DisplayName string `json:"displayName" db:"display_name"`
}

type CreateRankingRequest struct {
	UserID      string  `json:"userId" binding:"required"`
	MovieID     string  `json:"movieId" binding:"required"`
	Rating      int     `json:"rating" binding:"required,min=1,max=10"`
	RankingYear int     `json:"rankingYear" binding:"required,min=2000"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
}

type UpdateRankingRequest struct {
	Rating      *int    `json:"rating" binding:"omitempty,min=1,max=10"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
}

type RankingFilter struct {
	UserID      *string
	MovieID     *string
	RankingYear *int
	WatchedYear *int
}

type RankingUpdate struct {
	Rating      *int
	Description *string
}
