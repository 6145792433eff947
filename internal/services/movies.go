package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"movierank/internal/models"
	"movierank/internal/repository"
)

const (
	bulkBatchSize  = 10
	bulkBatchPause = 100 * time.Millisecond
)

// MovieService carries the movie operations with more logic than a plain
// repository call.
type MovieService struct {
	movies repository.Movies
	logger *logrus.Logger
}

func NewMovieService(movies repository.Movies, logger *logrus.Logger) *MovieService {
	return &MovieService{movies: movies, logger: logger}
}

// BulkUpdate applies the same metadata change to a list of movies in
// batches of ten, sequentially, pausing briefly between batches. A batch
// failure is recorded and does not abort later batches; the report always
// comes back, never an error for the whole run.
func (s *MovieService) BulkUpdate(ctx context.Context, ids []string, upd models.MovieUpdate) *models.BulkUpdateReport {
	report := &models.BulkUpdateReport{Total: len(ids)}

	for start := 0; start < len(ids); start += bulkBatchSize {
		end := start + bulkBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]
		result := models.BatchResult{Batch: len(report.Batches) + 1}

		updated, err := s.movies.BulkUpdate(ctx, batch, upd)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			report.Failed += len(batch)
			s.logger.WithFields(logrus.Fields{
				"batch": result.Batch,
				"size":  len(batch),
			}).WithError(err).Error("Bulk update batch failed")
		} else {
			result.Updated = len(updated)
			report.Updated += len(updated)
			for _, missing := range missingIDs(batch, updated) {
				result.Errors = append(result.Errors, fmt.Sprintf("movie not found: %s", missing))
				report.Failed++
			}
		}
		report.Batches = append(report.Batches, result)

		if end < len(ids) {
			time.Sleep(bulkBatchPause)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"total":   report.Total,
		"updated": report.Updated,
		"failed":  report.Failed,
		"batches": len(report.Batches),
	}).Info("Bulk update finished")
	return report
}

func missingIDs(requested, updated []string) []string {
	seen := make(map[string]struct{}, len(updated))
	for _, id := range updated {
		seen[id] = struct{}{}
	}
	var missing []string
	for _, id := range requested {
		if _, ok := seen[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
