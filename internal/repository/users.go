package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"movierank/internal/models"
)

type Users interface {
	List(ctx context.Context, filter models.UserFilter, page models.Page) ([]models.User, int, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type userRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) Users {
	return &userRepository{db: db}
}

const userColumns = "id, username, display_name, avatar_url, is_active, created_at"

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.DisplayName, &u.AvatarURL, &u.IsActive, &u.CreatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &u, nil
}

// userWhere translates the filter struct into a WHERE clause. Filters are
// explicit fields, never caller-supplied SQL.
func userWhere(filter models.UserFilter) (string, []any) {
	var conds []string
	var args []any
	if filter.Search != nil && *filter.Search != "" {
		args = append(args, "%"+*filter.Search+"%")
		conds = append(conds, fmt.Sprintf("(username ILIKE $%d OR display_name ILIKE $%d)", len(args), len(args)))
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		conds = append(conds, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *userRepository) List(ctx context.Context, filter models.UserFilter, page models.Page) ([]models.User, int, error) {
	where, args := userWhere(filter)

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM users"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM users%s ORDER BY username ASC LIMIT $%d OFFSET $%d",
		userColumns, where, len(args)+1, len(args)+2)
	rows, err := r.db.Query(ctx, query, append(args, page.Limit, page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *u)
	}
	return users, total, rows.Err()
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	row := r.db.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	return scanUser(row)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	row := r.db.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE LOWER(username) = LOWER($1)", username)
	return scanUser(row)
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
	INSERT INTO users (id, username, display_name, avatar_url, is_active, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.Username, user.DisplayName, user.AvatarURL, user.IsActive, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			existing, lookupErr := r.GetByUsername(ctx, user.Username)
			if lookupErr != nil {
				existing = nil
			}
			return &models.ConflictError{
				Resource: "user",
				Message:  fmt.Sprintf("username %q is already taken", user.Username),
				Existing: existing,
			}
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	var sets []string
	var args []any
	if upd.Username != nil {
		args = append(args, *upd.Username)
		sets = append(sets, fmt.Sprintf("username = $%d", len(args)))
	}
	if upd.DisplayName != nil {
		args = append(args, *upd.DisplayName)
		sets = append(sets, fmt.Sprintf("display_name = $%d", len(args)))
	}
	if upd.AvatarURL != nil {
		args = append(args, *upd.AvatarURL)
		sets = append(sets, fmt.Sprintf("avatar_url = $%d", len(args)))
	}
	if upd.IsActive != nil {
		args = append(args, *upd.IsActive)
		sets = append(sets, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE users SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), userColumns)
	row := r.db.QueryRow(ctx, query, args...)
	u, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) && upd.Username != nil {
			existing, lookupErr := r.GetByUsername(ctx, *upd.Username)
			if lookupErr != nil {
				existing = nil
			}
			return nil, &models.ConflictError{
				Resource: "user",
				Message:  fmt.Sprintf("username %q is already taken", *upd.Username),
				Existing: existing,
			}
		}
		return nil, err
	}
	return u, nil
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *userRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}
