package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"movierank/internal/models"
	"movierank/internal/repository"
)

// TransferService handles the JSON export/import paths. Imports run one
// record at a time with per-record error capture; a bad record is tallied
// and the rest of the batch continues. Partially-applied imports are
// accepted, there is no rollback.
type TransferService struct {
	users    repository.Users
	movies   repository.Movies
	rankings repository.Rankings
	logger   *logrus.Logger
}

func NewTransferService(users repository.Users, movies repository.Movies, rankings repository.Rankings, logger *logrus.Logger) *TransferService {
	return &TransferService{users: users, movies: movies, rankings: rankings, logger: logger}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func (s *TransferService) Export(ctx context.Context, filter models.ExportFilter) (*models.ExportFile, error) {
	entities := filter.Entities
	if len(entities) == 0 {
		entities = []string{"users", "movies", "rankings"}
	}

	out := &models.ExportFile{
		ExportDate: time.Now().UTC(),
		Version:    models.ExportVersion,
	}

	if contains(entities, "users") {
		total, err := s.users.Count(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to export users: %w", err)
		}
		if total > 0 {
			users, _, err := s.users.List(ctx, models.UserFilter{}, models.Page{Page: 1, Limit: total})
			if err != nil {
				return nil, fmt.Errorf("failed to export users: %w", err)
			}
			out.Users = users
		} else {
			out.Users = []models.User{}
		}
	}

	if contains(entities, "movies") {
		if filter.Year != nil {
			movies, err := s.movies.ListByWatchedYear(ctx, *filter.Year)
			if err != nil {
				return nil, fmt.Errorf("failed to export movies: %w", err)
			}
			out.Movies = movies
		} else {
			total, err := s.movies.Count(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to export movies: %w", err)
			}
			movies, _, err := s.movies.List(ctx, models.MovieFilter{}, "title", models.Page{Page: 1, Limit: max(total, 1)})
			if err != nil {
				return nil, fmt.Errorf("failed to export movies: %w", err)
			}
			out.Movies = movies
		}
	}

	if contains(entities, "rankings") {
		rankingFilter := models.RankingFilter{RankingYear: filter.Year}
		joined, err := s.rankings.ListAll(ctx, rankingFilter)
		if err != nil {
			return nil, fmt.Errorf("failed to export rankings: %w", err)
		}
		rankings := make([]models.Ranking, 0, len(joined))
		for _, r := range joined {
			rankings = append(rankings, r.Ranking)
		}
		out.Rankings = rankings
	}

	out.Metadata = models.ExportMetadata{
		Users:    len(out.Users),
		Movies:   len(out.Movies),
		Rankings: len(out.Rankings),
		Year:     filter.Year,
	}
	return out, nil
}

// Import upserts the dump's records. Identity is username for users, title
// plus release year for movies and the (user, movie, ranking year) triple
// for rankings. With overwrite off an existing record is skipped; with it
// on, the mutable fields are updated in place.
func (s *TransferService) Import(ctx context.Context, req *models.ImportRequest) *models.ImportReport {
	report := &models.ImportReport{
		Users:    models.ImportTally{Errors: []string{}},
		Movies:   models.ImportTally{Errors: []string{}},
		Rankings: models.ImportTally{Errors: []string{}},
	}

	// Dump-local ids may collide with existing rows, so rankings are
	// rewired through these maps to whatever id the record ended up with.
	userIDs := make(map[string]string)
	movieIDs := make(map[string]string)

	for _, u := range req.Users {
		s.importUser(ctx, u, req.Overwrite, userIDs, &report.Users)
	}
	for _, m := range req.Movies {
		s.importMovie(ctx, m, req.Overwrite, movieIDs, &report.Movies)
	}
	for _, r := range req.Rankings {
		s.importRanking(ctx, r, req.Overwrite, userIDs, movieIDs, &report.Rankings)
	}

	s.logger.WithFields(logrus.Fields{
		"users":    report.Users.Imported,
		"movies":   report.Movies.Imported,
		"rankings": report.Rankings.Imported,
	}).Info("Import finished")
	return report
}

func (s *TransferService) importUser(ctx context.Context, u models.User, overwrite bool, ids map[string]string, tally *models.ImportTally) {
	if u.Username == "" {
		tally.Errors = append(tally.Errors, "user with empty username skipped")
		return
	}

	existing, err := s.users.GetByUsername(ctx, u.Username)
	if err == nil {
		ids[u.ID] = existing.ID
		if !overwrite {
			tally.Skipped++
			return
		}
		_, err = s.users.Update(ctx, existing.ID, models.UserUpdate{
			DisplayName: &u.DisplayName,
			AvatarURL:   u.AvatarURL,
			IsActive:    &u.IsActive,
		})
		if err != nil {
			tally.Errors = append(tally.Errors, fmt.Sprintf("user %s: %v", u.Username, err))
			return
		}
		tally.Imported++
		return
	}
	if !errors.Is(err, models.ErrNotFound) {
		tally.Errors = append(tally.Errors, fmt.Sprintf("user %s: %v", u.Username, err))
		return
	}

	created := u
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}
	if err := s.users.Create(ctx, &created); err != nil {
		tally.Errors = append(tally.Errors, fmt.Sprintf("user %s: %v", u.Username, err))
		return
	}
	ids[u.ID] = created.ID
	tally.Imported++
}

func (s *TransferService) importMovie(ctx context.Context, m models.Movie, overwrite bool, ids map[string]string, tally *models.ImportTally) {
	if m.Title == "" {
		tally.Errors = append(tally.Errors, "movie with empty title skipped")
		return
	}

	existing, err := s.movies.GetByTitleYear(ctx, m.Title, m.Year)
	if err == nil {
		ids[m.ID] = existing.ID
		if !overwrite {
			tally.Skipped++
			return
		}
		_, err = s.movies.Update(ctx, existing.ID, models.MovieUpdate{
			Description: m.Description,
			PosterURL:   m.PosterURL,
			WatchedYear: &m.WatchedYear,
			AddedBy:     &m.AddedBy,
		})
		if err != nil {
			tally.Errors = append(tally.Errors, fmt.Sprintf("movie %s (%d): %v", m.Title, m.Year, err))
			return
		}
		tally.Imported++
		return
	}
	if !errors.Is(err, models.ErrNotFound) {
		tally.Errors = append(tally.Errors, fmt.Sprintf("movie %s (%d): %v", m.Title, m.Year, err))
		return
	}

	created := m
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}
	if err := s.movies.Create(ctx, &created); err != nil {
		tally.Errors = append(tally.Errors, fmt.Sprintf("movie %s (%d): %v", m.Title, m.Year, err))
		return
	}
	ids[m.ID] = created.ID
	tally.Imported++
}

func (s *TransferService) importRanking(ctx context.Context, r models.Ranking, overwrite bool, userIDs, movieIDs map[string]string, tally *models.ImportTally) {
	if r.Rating < 1 || r.Rating > 10 {
		tally.Errors = append(tally.Errors, fmt.Sprintf("ranking %s: rating %d out of range", r.ID, r.Rating))
		return
	}

	userID := r.UserID
	if mapped, ok := userIDs[r.UserID]; ok {
		userID = mapped
	}
	movieID := r.MovieID
	if mapped, ok := movieIDs[r.MovieID]; ok {
		movieID = mapped
	}

	existing, err := s.rankings.GetByTriple(ctx, userID, movieID, r.RankingYear)
	if err == nil {
		if !overwrite {
			tally.Skipped++
			return
		}
		_, err = s.rankings.Update(ctx, existing.ID, models.RankingUpdate{
			Rating:      &r.Rating,
			Description: r.Description,
		})
		if err != nil {
			tally.Errors = append(tally.Errors, fmt.Sprintf("ranking %s: %v", r.ID, err))
			return
		}
		tally.Imported++
		return
	}
	if !errors.Is(err, models.ErrNotFound) {
		tally.Errors = append(tally.Errors, fmt.Sprintf("ranking %s: %v", r.ID, err))
		return
	}

	created := r
	created.UserID = userID
	created.MovieID = movieID
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	if created.RankedAt.IsZero() {
		created.RankedAt = time.Now().UTC()
	}
	if err := s.rankings.Create(ctx, &created); err != nil {
		tally.Errors = append(tally.Errors, fmt.Sprintf("ranking %s: %v", r.ID, err))
		return
	}
	tally.Imported++
}

// Stats returns the record counts behind GET /data/stats.
func (s *TransferService) Stats(ctx context.Context) (*models.DataStats, error) {
	users, err := s.users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	movies, err := s.movies.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count movies: %w", err)
	}
	rankings, err := s.rankings.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count rankings: %w", err)
	}
	return &models.DataStats{Users: users, Movies: movies, Rankings: rankings}, nil
}
