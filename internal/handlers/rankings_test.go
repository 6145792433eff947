package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movierank/internal/logger"
	"movierank/internal/models"
	"movierank/internal/repository"
)

func init() {
	gin.SetMode(gin.TestMode)
	RegisterValidators()
}

type fakeUsers struct {
	repository.Users
	byID map[string]models.User
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &u, nil
}

type fakeMovies struct {
	repository.Movies
	byID    map[string]models.Movie
	deleted []string
}

func (f *fakeMovies) GetByID(ctx context.Context, id string) (*models.Movie, error) {
	m, ok := f.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &m, nil
}

func (f *fakeMovies) Delete(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return models.ErrNotFound
	}
	delete(f.byID, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeRankings struct {
	repository.Rankings
	byID map[string]models.Ranking
}

func (f *fakeRankings) GetByID(ctx context.Context, id string) (*models.Ranking, error) {
	r, ok := f.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &r, nil
}

func (f *fakeRankings) GetByTriple(ctx context.Context, userID, movieID string, year int) (*models.Ranking, error) {
	for _, r := range f.byID {
		if r.UserID == userID && r.MovieID == movieID && r.RankingYear == year {
			copied := r
			return &copied, nil
		}
	}
	return nil, models.ErrNotFound
}

func (f *fakeRankings) Create(ctx context.Context, ranking *models.Ranking) error {
	if existing, err := f.GetByTriple(ctx, ranking.UserID, ranking.MovieID, ranking.RankingYear); err == nil {
		return &models.ConflictError{
			Resource: "ranking",
			Message:  fmt.Sprintf("user already rated this movie for %d; update the existing ranking instead", ranking.RankingYear),
			Existing: existing,
		}
	}
	f.byID[ranking.ID] = *ranking
	return nil
}

func (f *fakeRankings) Update(ctx context.Context, id string, upd models.RankingUpdate) (*models.Ranking, error) {
	r, ok := f.byID[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if upd.Rating != nil {
		r.Rating = *upd.Rating
	}
	if upd.Description != nil {
		r.Description = upd.Description
	}
	f.byID[id] = r
	return &r, nil
}

func (f *fakeRankings) CountByUser(ctx context.Context, userID string) (int, error) {
	n := 0
	for _, r := range f.byID {
		if r.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeRankings) CountByMovie(ctx context.Context, movieID string) (int, error) {
	n := 0
	for _, r := range f.byID {
		if r.MovieID == movieID {
			n++
		}
	}
	return n, nil
}

func rankingFixture() (*gin.Engine, *fakeRankings) {
	users := &fakeUsers{byID: map[string]models.User{
		"u1": {ID: "u1", Username: "alice"},
	}}
	movies := &fakeMovies{byID: map[string]models.Movie{
		"m1": {ID: "m1", Title: "Heat", Year: 1995, WatchedYear: 2023},
	}}
	rankings := &fakeRankings{byID: map[string]models.Ranking{}}

	h := NewRankingHandler(rankings, users, movies, logger.Get(), false)
	r := gin.New()
	r.POST("/api/rankings", h.Create)
	r.PUT("/api/rankings/:id", h.Update)
	r.DELETE("/api/rankings/:id", h.Delete)
	return r, rankings
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateRankingDuplicateTripleConflicts(t *testing.T) {
	r, rankings := rankingFixture()
	body := `{"userId":"u1","movieId":"m1","rating":8,"rankingYear":2023}`

	w := doJSON(t, r, http.MethodPost, "/api/rankings", body)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, rankings.byID, 1)

	// Same (user, movie, year) again: 409, no second row, existing echoed.
	w = doJSON(t, r, http.MethodPost, "/api/rankings", `{"userId":"u1","movieId":"m1","rating":3,"rankingYear":2023}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Len(t, rankings.byID, 1)

	var resp map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp, "error")
	assert.Contains(t, resp, "existingRanking")
}

func TestCreateRankingDifferentYearAllowed(t *testing.T) {
	r, rankings := rankingFixture()

	w := doJSON(t, r, http.MethodPost, "/api/rankings", `{"userId":"u1","movieId":"m1","rating":8,"rankingYear":2023}`)
	require.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(t, r, http.MethodPost, "/api/rankings", `{"userId":"u1","movieId":"m1","rating":6,"rankingYear":2024}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Len(t, rankings.byID, 2)
}

func TestUpdateRankingViaPut(t *testing.T) {
	r, rankings := rankingFixture()

	w := doJSON(t, r, http.MethodPost, "/api/rankings", `{"userId":"u1","movieId":"m1","rating":8,"rankingYear":2023}`)
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.Ranking
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(t, r, http.MethodPut, "/api/rankings/"+created.ID, `{"rating":5}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, rankings.byID[created.ID].Rating)
	assert.Len(t, rankings.byID, 1)
}

func TestCreateRankingUnknownUserIs404(t *testing.T) {
	r, _ := rankingFixture()
	w := doJSON(t, r, http.MethodPost, "/api/rankings", `{"userId":"ghost","movieId":"m1","rating":8,"rankingYear":2023}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateRankingValidation(t *testing.T) {
	r, _ := rankingFixture()

	// rating outside 1..10
	w := doJSON(t, r, http.MethodPost, "/api/rankings", `{"userId":"u1","movieId":"m1","rating":11,"rankingYear":2023}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Error   string              `json:"error"`
		Details []models.FieldError `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Details)
	assert.Equal(t, "Rating", resp.Details[0].Path)
}
