package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"movierank/internal/models"
)

type Rankings interface {
	List(ctx context.Context, filter models.RankingFilter, page models.Page) ([]models.RankingWithContext, int, error)
	// ListAll returns every ranking matching the filter in insertion order,
	// joined with movie and user context. This is the feed for the
	// statistics engine; tie-breaks in top-N lists depend on the stable
	// ordering here.
	ListAll(ctx context.Context, filter models.RankingFilter) ([]models.RankingWithContext, error)
	GetByID(ctx context.Context, id string) (*models.Ranking, error)
	GetByTriple(ctx context.Context, userID, movieID string, rankingYear int) (*models.Ranking, error)
	Create(ctx context.Context, ranking *models.Ranking) error
	Update(ctx context.Context, id string, upd models.RankingUpdate) (*models.Ranking, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	CountByUser(ctx context.Context, userID string) (int, error)
	CountByMovie(ctx context.Context, movieID string) (int, error)
}

type rankingRepository struct {
	db *pgxpool.Pool
}

func NewRankingRepository(db *pgxpool.Pool) Rankings {
	return &rankingRepository{db: db}
}

const rankingColumns = "id, user_id, movie_id, rating, ranking_year, description, ranked_at, updated_at"

const rankingJoinQuery = `
SELECT r.id, r.user_id, r.movie_id, r.rating, r.ranking_year, r.description, r.ranked_at, r.updated_at,
       m.title, m.year, m.watched_year, u.username, u.display_name
FROM rankings r
JOIN movies m ON m.id = r.movie_id
JOIN users u ON u.id = r.user_id`

func scanRanking(row interface{ Scan(...any) error }) (*models.Ranking, error) {
	var rk models.Ranking
	err := row.Scan(&rk.ID, &rk.UserID, &rk.MovieID, &rk.Rating, &rk.RankingYear,
		&rk.Description, &rk.RankedAt, &rk.UpdatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &rk, nil
}

func scanRankingWithContext(row interface{ Scan(...any) error }) (*models.RankingWithContext, error) {
	var rk models.RankingWithContext
	err := row.Scan(&rk.ID, &rk.UserID, &rk.MovieID, &rk.Rating, &rk.RankingYear,
		&rk.Description, &rk.RankedAt, &rk.UpdatedAt,
		&rk.MovieTitle, &rk.MovieYear, &rk.WatchedYear, &rk.Username, &rk.DisplayName)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &rk, nil
}

func rankingWhere(filter models.RankingFilter) (string, []any) {
	var conds []string
	var args []any
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		conds = append(conds, fmt.Sprintf("r.user_id = $%d", len(args)))
	}
	if filter.MovieID != nil {
		args = append(args, *filter.MovieID)
		conds = append(conds, fmt.Sprintf("r.movie_id = $%d", len(args)))
	}
	if filter.RankingYear != nil {
		args = append(args, *filter.RankingYear)
		conds = append(conds, fmt.Sprintf("r.ranking_year = $%d", len(args)))
	}
	if filter.WatchedYear != nil {
		args = append(args, *filter.WatchedYear)
		conds = append(conds, fmt.Sprintf("m.watched_year = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *rankingRepository) List(ctx context.Context, filter models.RankingFilter, page models.Page) ([]models.RankingWithContext, int, error) {
	where, args := rankingWhere(filter)

	var total int
	countQuery := "SELECT COUNT(*) FROM rankings r JOIN movies m ON m.id = r.movie_id" + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count rankings: %w", err)
	}

	query := fmt.Sprintf("%s%s ORDER BY r.ranked_at DESC, r.id DESC LIMIT $%d OFFSET $%d",
		rankingJoinQuery, where, len(args)+1, len(args)+2)
	rows, err := r.db.Query(ctx, query, append(args, page.Limit, page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list rankings: %w", err)
	}
	defer rows.Close()

	rankings := make([]models.RankingWithContext, 0)
	for rows.Next() {
		rk, err := scanRankingWithContext(rows)
		if err != nil {
			return nil, 0, err
		}
		rankings = append(rankings, *rk)
	}
	return rankings, total, rows.Err()
}

func (r *rankingRepository) ListAll(ctx context.Context, filter models.RankingFilter) ([]models.RankingWithContext, error) {
	where, args := rankingWhere(filter)
	query := rankingJoinQuery + where + " ORDER BY r.ranked_at ASC, r.id ASC"
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rankings: %w", err)
	}
	defer rows.Close()

	rankings := make([]models.RankingWithContext, 0)
	for rows.Next() {
		rk, err := scanRankingWithContext(rows)
		if err != nil {
			return nil, err
		}
		rankings = append(rankings, *rk)
	}
	return rankings, rows.Err()
}

func (r *rankingRepository) GetByID(ctx context.Context, id string) (*models.Ranking, error) {
	row := r.db.QueryRow(ctx, "SELECT "+rankingColumns+" FROM rankings WHERE id = $1", id)
	return scanRanking(row)
}

func (r *rankingRepository) GetByTriple(ctx context.Context, userID, movieID string, rankingYear int) (*models.Ranking, error) {
	row := r.db.QueryRow(ctx,
		"SELECT "+rankingColumns+" FROM rankings WHERE user_id = $1 AND movie_id = $2 AND ranking_year = $3",
		userID, movieID, rankingYear)
	return scanRanking(row)
}

func (r *rankingRepository) Create(ctx context.Context, ranking *models.Ranking) error {
	query := `
	INSERT INTO rankings (id, user_id, movie_id, rating, ranking_year, description, ranked_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`
	_, err := r.db.Exec(ctx, query,
		ranking.ID, ranking.UserID, ranking.MovieID, ranking.Rating,
		ranking.RankingYear, ranking.Description, ranking.RankedAt)
	if err != nil {
		if isUniqueViolation(err) {
			existing, lookupErr := r.GetByTriple(ctx, ranking.UserID, ranking.MovieID, ranking.RankingYear)
			if lookupErr != nil {
				existing = nil
			}
			return &models.ConflictError{
				Resource: "ranking",
				Message:  fmt.Sprintf("user already rated this movie for %d; update the existing ranking instead", ranking.RankingYear),
				Existing: existing,
			}
		}
		return fmt.Errorf("failed to create ranking: %w", err)
	}
	return nil
}

func (r *rankingRepository) Update(ctx context.Context, id string, upd models.RankingUpdate) (*models.Ranking, error) {
	var sets []string
	var args []any
	if upd.Rating != nil {
		args = append(args, *upd.Rating)
		sets = append(sets, fmt.Sprintf("rating = $%d", len(args)))
	}
	if upd.Description != nil {
		args = append(args, *upd.Description)
		sets = append(sets, fmt.Sprintf("description = $%d", len(args)))
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}
	sets = append(sets, "updated_at = NOW()")

	args = append(args, id)
	query := fmt.Sprintf("UPDATE rankings SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), rankingColumns)
	row := r.db.QueryRow(ctx, query, args...)
	return scanRanking(row)
}

func (r *rankingRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM rankings WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete ranking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *rankingRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM rankings").Scan(&n)
	return n, err
}

func (r *rankingRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM rankings WHERE user_id = $1", userID).Scan(&n)
	return n, err
}

func (r *rankingRepository) CountByMovie(ctx context.Context, movieID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM rankings WHERE movie_id = $1", movieID).Scan(&n)
	return n, err
}
