package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movierank/internal/logger"
	"movierank/internal/models"
)

func (f *fakeMovies) ListByWatchedYear(ctx context.Context, year int) ([]models.Movie, error) {
	var out []models.Movie
	for _, m := range f.byID {
		if m.WatchedYear == year {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeRankings) ListAll(ctx context.Context, filter models.RankingFilter) ([]models.RankingWithContext, error) {
	var out []models.RankingWithContext
	for _, r := range f.byID {
		if filter.UserID != nil && r.UserID != *filter.UserID {
			continue
		}
		if filter.MovieID != nil && r.MovieID != *filter.MovieID {
			continue
		}
		out = append(out, models.RankingWithContext{Ranking: r})
	}
	return out, nil
}

func movieFixture() (*gin.Engine, *fakeMovies, *fakeRankings) {
	movies := &fakeMovies{byID: map[string]models.Movie{
		"m1": {ID: "m1", Title: "Heat", Year: 1995, WatchedYear: 2023},
		"m2": {ID: "m2", Title: "Ran", Year: 1985, WatchedYear: 2023},
		"m3": {ID: "m3", Title: "Alien", Year: 1979, WatchedYear: 2023},
	}}
	rankings := &fakeRankings{byID: map[string]models.Ranking{
		"r1": {ID: "r1", UserID: "u1", MovieID: "m1", Rating: 9, RankingYear: 2023},
	}}

	h := NewMovieHandler(movies, rankings, nil, logger.Get(), false)
	r := gin.New()
	r.DELETE("/api/movies/:id", h.Delete)
	r.GET("/api/movies/unrated/:year", h.Unrated)
	r.POST("/api/movies/bulk-update", h.BulkUpdate)
	return r, movies, rankings
}

func TestBulkUpdateWithoutFieldsIsRejected(t *testing.T) {
	r, _, _ := movieFixture()

	w := doJSON(t, r, http.MethodPost, "/api/movies/bulk-update", `{"movieIds":["m1","m2"]}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Error   string              `json:"error"`
		Details []models.FieldError `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Details)
	assert.Contains(t, resp.Details[0].Message, "at least one")
}

func TestDeleteMovieWithRankingsIsRejected(t *testing.T) {
	r, movies, rankings := movieFixture()

	req := httptest.NewRequest(http.MethodDelete, "/api/movies/m1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "deactivate or archive")

	// Movie and its rankings are untouched.
	_, ok := movies.byID["m1"]
	assert.True(t, ok)
	assert.Len(t, rankings.byID, 1)
}

func TestDeleteMovieWithoutRankingsSucceeds(t *testing.T) {
	r, movies, _ := movieFixture()

	req := httptest.NewRequest(http.MethodDelete, "/api/movies/m2", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	_, ok := movies.byID["m2"]
	assert.False(t, ok)
}

func TestDeleteUnknownMovieIs404(t *testing.T) {
	r, _, _ := movieFixture()

	req := httptest.NewRequest(http.MethodDelete, "/api/movies/ghost", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnratedMoviesForUser(t *testing.T) {
	r, _, _ := movieFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/movies/unrated/2023", nil)
	req.Header.Set(HeaderUserID, "u1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Year   int            `json:"year"`
		UserID string         `json:"userId"`
		Movies []models.Movie `json:"movies"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Movies, 2)
	for _, m := range resp.Movies {
		assert.NotEqual(t, "m1", m.ID)
	}
}

func TestUnratedMoviesWithoutUserReturnsFullList(t *testing.T) {
	r, _, _ := movieFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/movies/unrated/2023", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Movies []models.Movie `json:"movies"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Movies, 3)
}

func TestUnratedMoviesBadYear(t *testing.T) {
	r, _, _ := movieFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/movies/unrated/1990", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
