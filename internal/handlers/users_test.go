package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"movierank/internal/logger"
	"movierank/internal/models"
)

func (f *fakeUsers) Delete(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return models.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func userFixture() (*gin.Engine, *fakeUsers, *fakeRankings) {
	users := &fakeUsers{byID: map[string]models.User{
		"u1": {ID: "u1", Username: "alice"},
		"u2": {ID: "u2", Username: "bob"},
	}}
	rankings := &fakeRankings{byID: map[string]models.Ranking{
		"r1": {ID: "r1", UserID: "u1", MovieID: "m1", Rating: 9, RankingYear: 2023},
	}}

	h := NewUserHandler(users, rankings, logger.Get(), false)
	r := gin.New()
	r.DELETE("/api/users/:id", h.Delete)
	return r, users, rankings
}

func TestDeleteUserWithRankingsIsRejected(t *testing.T) {
	r, users, rankings := userFixture()

	req := httptest.NewRequest(http.MethodDelete, "/api/users/u1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "deactivate or archive")

	// User and their rankings survive the attempt.
	_, ok := users.byID["u1"]
	assert.True(t, ok)
	assert.Len(t, rankings.byID, 1)
}

func TestDeleteUserWithoutRankingsSucceeds(t *testing.T) {
	r, users, _ := userFixture()

	req := httptest.NewRequest(http.MethodDelete, "/api/users/u2", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	_, ok := users.byID["u2"]
	assert.False(t, ok)
}

func TestDeleteUnknownUserIs404(t *testing.T) {
	r, _, _ := userFixture()

	req := httptest.NewRequest(http.MethodDelete, "/api/users/ghost", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
