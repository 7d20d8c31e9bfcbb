package db

import (
	"context"
	"strings"

	"kanmind/internal/domain/errors"
	"kanmind/internal/domain/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id::text, email, fullname, password_hash, created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	if err := row.Scan(&user.ID, &user.Email, &user.Fullname, &user.PasswordHash, &user.CreatedAt); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (id, email, fullname, password_hash) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		user.ID, strings.ToLower(user.Email), user.Fullname, user.PasswordHash,
	).Scan(&user.CreatedAt)
	if err != nil {
		if isDuplicate(err) {
			return errors.ErrUserAlreadyExists
		}
		s.logger.Error("create user failed", "email", user.Email, "error", err)
		return err
	}
	return nil
}

func (s *Storage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if !validID(id) {
		return nil, errors.ErrUserNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	user, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, errors.ErrUserNotFound
		}
		s.logger.Error("get user failed", "user_id", id, "error", err)
		return nil, err
	}
	return user, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	user, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if err != nil {
		if isNoRows(err) {
			return nil, errors.ErrUserNotFound
		}
		s.logger.Error("get user by email failed", "error", err)
		return nil, err
	}
	return user, nil
}

func (s *Storage) GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if validID(id) {
			valid = append(valid, id)
		}
	}
	if len(valid) == 0 {
		return []models.User{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ANY($1::text[]::uuid[]) ORDER BY created_at, id`, valid)
	if err != nil {
		s.logger.Error("get users failed", "count", len(valid), "error", err)
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// DeleteUser removes the account; the schema cascades owned boards and
// nulls assignee, reviewer, creator and author references.
func (s *Storage) DeleteUser(ctx context.Context, id string) error {
	if !validID(id) {
		return errors.ErrUserNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ct, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		s.logger.Error("delete user failed", "user_id", id, "error", err)
		return err
	}
	if ct.RowsAffected() == 0 {
		return errors.ErrUserNotFound
	}
	return nil
}
