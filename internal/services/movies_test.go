package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movierank/internal/logger"
	"movierank/internal/models"
	"movierank/internal/repository"
)

type fakeBulkMovies struct {
	repository.Movies
	existing map[string]bool
	batches  [][]string
	failOn   int // 1-based batch index that errors wholesale; 0 disables
}

func (f *fakeBulkMovies) BulkUpdate(ctx context.Context, ids []string, upd models.MovieUpdate) ([]string, error) {
	f.batches = append(f.batches, ids)
	if f.failOn > 0 && len(f.batches) == f.failOn {
		return nil, errors.New("connection reset")
	}
	var updated []string
	for _, id := range ids {
		if f.existing[id] {
			updated = append(updated, id)
		}
	}
	return updated, nil
}

func newBulkService(repo repository.Movies) *MovieService {
	return NewMovieService(repo, logger.Get())
}

func TestBulkUpdatePartialFailure(t *testing.T) {
	repo := &fakeBulkMovies{existing: map[string]bool{}}
	var ids []string
	for i := 0; i < 25; i++ {
		id := fmt.Sprintf("movie-%02d", i)
		ids = append(ids, id)
		repo.existing[id] = true
	}
	// One unknown id in the middle batch.
	ids[13] = "does-not-exist"
	delete(repo.existing, "movie-13")

	desc := "updated"
	report := newBulkService(repo).BulkUpdate(context.Background(), ids, models.MovieUpdate{Description: &desc})

	require.Len(t, report.Batches, 3)
	assert.Equal(t, []int{10, 10, 5}, []int{len(repo.batches[0]), len(repo.batches[1]), len(repo.batches[2])})
	assert.Equal(t, 25, report.Total)
	assert.Equal(t, 24, report.Updated)
	assert.Equal(t, 1, report.Failed)

	assert.Empty(t, report.Batches[0].Errors)
	require.Len(t, report.Batches[1].Errors, 1)
	assert.Contains(t, report.Batches[1].Errors[0], "does-not-exist")
	assert.Empty(t, report.Batches[2].Errors)
}

func TestBulkUpdateBatchErrorDoesNotAbort(t *testing.T) {
	repo := &fakeBulkMovies{existing: map[string]bool{}, failOn: 1}
	var ids []string
	for i := 0; i < 15; i++ {
		id := fmt.Sprintf("movie-%02d", i)
		ids = append(ids, id)
		repo.existing[id] = true
	}

	desc := "updated"
	report := newBulkService(repo).BulkUpdate(context.Background(), ids, models.MovieUpdate{Description: &desc})

	// First batch failed wholesale, second still ran.
	require.Len(t, report.Batches, 2)
	require.Len(t, report.Batches[0].Errors, 1)
	assert.Equal(t, 10, report.Failed)
	assert.Equal(t, 5, report.Updated)
}

func TestBulkUpdateEmptyInput(t *testing.T) {
	repo := &fakeBulkMovies{existing: map[string]bool{}}
	report := newBulkService(repo).BulkUpdate(context.Background(), nil, models.MovieUpdate{})
	assert.Equal(t, 0, report.Total)
	assert.Empty(t, report.Batches)
}
