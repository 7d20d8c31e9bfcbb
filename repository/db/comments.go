package db

import (
	"context"

	"kanmind/internal/domain/errors"
	"kanmind/internal/domain/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const commentColumns = `id::text, task_id::text, author_id::text, content, created_at`

func scanComment(row pgx.Row) (*models.Comment, error) {
	comment := &models.Comment{}
	if err := row.Scan(&comment.ID, &comment.TaskID, &comment.AuthorID, &comment.Content, &comment.CreatedAt); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *Storage) CreateComment(ctx context.Context, comment *models.Comment) error {
	if !validID(comment.TaskID) {
		return errors.ErrTaskNotFound
	}
	if !validRef(comment.AuthorID) {
		return errors.ErrUserNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	comment.ID = uuid.New().String()
	err := s.pool.QueryRow(ctx,
		`INSERT INTO comments (id, task_id, author_id, content) VALUES ($1, $2, $3::text::uuid, $4) RETURNING created_at`,
		comment.ID, comment.TaskID, comment.AuthorID, comment.Content,
	).Scan(&comment.CreatedAt)
	if err != nil {
		switch foreignKeyConstraint(err) {
		case "":
		case "comments_task_id_fkey":
			return errors.ErrTaskNotFound
		default:
			return errors.ErrUserNotFound
		}
		s.logger.Error("create comment failed", "task_id", comment.TaskID, "error", err)
		return err
	}
	return nil
}

func (s *Storage) GetCommentByID(ctx context.Context, id string) (*models.Comment, error) {
	if !validID(id) {
		return nil, errors.ErrCommentNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	comment, err := scanComment(s.pool.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, errors.ErrCommentNotFound
		}
		s.logger.Error("get comment failed", "comment_id", id, "error", err)
		return nil, err
	}
	return comment, nil
}

func (s *Storage) ListCommentsByTask(ctx context.Context, taskID string) ([]models.Comment, error) {
	if !validID(taskID) {
		return []models.Comment{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE task_id = $1 ORDER BY created_at, id`, taskID)
	if err != nil {
		s.logger.Error("list comments failed", "task_id", taskID, "error", err)
		return nil, err
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *comment)
	}
	return comments, rows.Err()
}

func (s *Storage) DeleteComment(ctx context.Context, id string) error {
	if !validID(id) {
		return errors.ErrCommentNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ct, err := s.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		s.logger.Error("delete comment failed", "comment_id", id, "error", err)
		return err
	}
	if ct.RowsAffected() == 0 {
		return errors.ErrCommentNotFound
	}
	return nil
}
