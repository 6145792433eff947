package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"movierank/internal/models"
)

type Movies interface {
	List(ctx context.Context, filter models.MovieFilter, sort string, page models.Page) ([]models.Movie, int, error)
	ListByWatchedYear(ctx context.Context, year int) ([]models.Movie, error)
	GetByID(ctx context.Context, id string) (*models.Movie, error)
	GetByTitleYear(ctx context.Context, title string, year int) (*models.Movie, error)
	Create(ctx context.Context, movie *models.Movie) error
	Update(ctx context.Context, id string, upd models.MovieUpdate) (*models.Movie, error)
	// BulkUpdate applies the same field changes to every listed movie and
	// returns the ids that were actually updated.
	BulkUpdate(ctx context.Context, ids []string, upd models.MovieUpdate) ([]string, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type movieRepository struct {
	db *pgxpool.Pool
}

func NewMovieRepository(db *pgxpool.Pool) Movies {
	return &movieRepository{db: db}
}

const movieColumns = "id, title, year, description, poster_url, watched_year, added_by, created_at"

// movieSortColumns is the allow-list for the sort query param. Anything
// else falls back to title.
var movieSortColumns = map[string]string{
	"title":       "title ASC",
	"year":        "year DESC, title ASC",
	"watchedYear": "watched_year DESC, title ASC",
	"createdAt":   "created_at DESC",
}

func scanMovie(row interface{ Scan(...any) error }) (*models.Movie, error) {
	var m models.Movie
	err := row.Scan(&m.ID, &m.Title, &m.Year, &m.Description, &m.PosterURL, &m.WatchedYear, &m.AddedBy, &m.CreatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &m, nil
}

func movieWhere(filter models.MovieFilter) (string, []any) {
	var conds []string
	var args []any
	if filter.Year != nil {
		args = append(args, *filter.Year)
		conds = append(conds, fmt.Sprintf("year = $%d", len(args)))
	}
	if filter.WatchedYear != nil {
		args = append(args, *filter.WatchedYear)
		conds = append(conds, fmt.Sprintf("watched_year = $%d", len(args)))
	}
	if filter.Search != nil && *filter.Search != "" {
		args = append(args, "%"+*filter.Search+"%")
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *movieRepository) List(ctx context.Context, filter models.MovieFilter, sort string, page models.Page) ([]models.Movie, int, error) {
	where, args := movieWhere(filter)

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM movies"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count movies: %w", err)
	}

	orderBy, ok := movieSortColumns[sort]
	if !ok {
		orderBy = movieSortColumns["title"]
	}
	query := fmt.Sprintf("SELECT %s FROM movies%s ORDER BY %s LIMIT $%d OFFSET $%d",
		movieColumns, where, orderBy, len(args)+1, len(args)+2)
	rows, err := r.db.Query(ctx, query, append(args, page.Limit, page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list movies: %w", err)
	}
	defer rows.Close()

	movies := make([]models.Movie, 0)
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, 0, err
		}
		movies = append(movies, *m)
	}
	return movies, total, rows.Err()
}

func (r *movieRepository) ListByWatchedYear(ctx context.Context, year int) ([]models.Movie, error) {
	rows, err := r.db.Query(ctx,
		"SELECT "+movieColumns+" FROM movies WHERE watched_year = $1 ORDER BY title ASC", year)
	if err != nil {
		return nil, fmt.Errorf("failed to list movies for year %d: %w", year, err)
	}
	defer rows.Close()

	movies := make([]models.Movie, 0)
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, *m)
	}
	return movies, rows.Err()
}

func (r *movieRepository) GetByID(ctx context.Context, id string) (*models.Movie, error) {
	row := r.db.QueryRow(ctx, "SELECT "+movieColumns+" FROM movies WHERE id = $1", id)
	return scanMovie(row)
}

func (r *movieRepository) GetByTitleYear(ctx context.Context, title string, year int) (*models.Movie, error) {
	row := r.db.QueryRow(ctx,
		"SELECT "+movieColumns+" FROM movies WHERE LOWER(title) = LOWER($1) AND year = $2", title, year)
	return scanMovie(row)
}

func (r *movieRepository) Create(ctx context.Context, movie *models.Movie) error {
	query := `
	INSERT INTO movies (id, title, year, description, poster_url, watched_year, added_by, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		movie.ID, movie.Title, movie.Year, movie.Description, movie.PosterURL,
		movie.WatchedYear, movie.AddedBy, movie.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			existing, lookupErr := r.GetByTitleYear(ctx, movie.Title, movie.Year)
			if lookupErr != nil {
				existing = nil
			}
			return &models.ConflictError{
				Resource: "movie",
				Message:  fmt.Sprintf("movie %q (%d) already exists", movie.Title, movie.Year),
				Existing: existing,
			}
		}
		return fmt.Errorf("failed to create movie: %w", err)
	}
	return nil
}

func movieSets(upd models.MovieUpdate, args *[]any) []string {
	var sets []string
	add := func(column string, value any) {
		*args = append(*args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(*args)))
	}
	if upd.Title != nil {
		add("title", *upd.Title)
	}
	if upd.Year != nil {
		add("year", *upd.Year)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.PosterURL != nil {
		add("poster_url", *upd.PosterURL)
	}
	if upd.WatchedYear != nil {
		add("watched_year", *upd.WatchedYear)
	}
	if upd.AddedBy != nil {
		add("added_by", *upd.AddedBy)
	}
	return sets
}

func (r *movieRepository) Update(ctx context.Context, id string, upd models.MovieUpdate) (*models.Movie, error) {
	var args []any
	sets := movieSets(upd, &args)
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE movies SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), movieColumns)
	row := r.db.QueryRow(ctx, query, args...)
	m, err := scanMovie(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, &models.ConflictError{
				Resource: "movie",
				Message:  "another movie already has this title and year",
			}
		}
		return nil, err
	}
	return m, nil
}

func (r *movieRepository) BulkUpdate(ctx context.Context, ids []string, upd models.MovieUpdate) ([]string, error) {
	var args []any
	sets := movieSets(upd, &args)
	if len(sets) == 0 {
		return nil, nil
	}

	args = append(args, ids)
	query := fmt.Sprintf("UPDATE movies SET %s WHERE id = ANY($%d) RETURNING id",
		strings.Join(sets, ", "), len(args))
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to bulk update movies: %w", err)
	}
	defer rows.Close()

	var updated []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		updated = append(updated, id)
	}
	return updated, rows.Err()
}

func (r *movieRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM movies WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete movie: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *movieRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM movies").Scan(&n)
	return n, err
}
