package db

import (
	"context"

	"kanmind/internal/domain/errors"
	"kanmind/internal/domain/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const taskColumns = `t.id::text, t.board_id::text, t.title, t.description, t.status, t.priority,
       t.assignee_id::text, t.reviewer_id::text, t.due_date, t.creator_id::text, t.created_at`

const boardFKConstraint = "tasks_board_id_fkey"

func scanTask(row pgx.Row) (*models.Task, error) {
	task := &models.Task{}
	var due pgtype.Date
	err := row.Scan(&task.ID, &task.BoardID, &task.Title, &task.Description, &task.Status, &task.Priority,
		&task.AssigneeID, &task.ReviewerID, &due, &task.CreatorID, &task.CreatedAt)
	if err != nil {
		return nil, err
	}
	if due.Valid {
		task.DueDate = models.DateOf(due.Time)
	}
	return task, nil
}

func dateParam(d models.Date) pgtype.Date {
	return pgtype.Date{Time: d.Time, Valid: !d.IsZero()}
}

func taskRefError(err error) error {
	switch foreignKeyConstraint(err) {
	case "":
		return err
	case boardFKConstraint:
		return errors.ErrBoardNotFound
	default:
		return errors.ErrUserNotFound
	}
}

func (s *Storage) queryTasks(ctx context.Context, where string, args ...any) ([]models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks t `+where+` ORDER BY t.created_at, t.id`, args...)
	if err != nil {
		s.logger.Error("list tasks failed", "filter", where, "error", err)
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (s *Storage) CreateTask(ctx context.Context, task *models.Task) error {
	if !validID(task.BoardID) {
		return errors.ErrBoardNotFound
	}
	if !validRef(task.AssigneeID) || !validRef(task.ReviewerID) || !validRef(task.CreatorID) {
		return errors.ErrUserNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	task.ID = uuid.New().String()
	err := s.pool.QueryRow(ctx, `
INSERT INTO tasks (id, board_id, title, description, status, priority, assignee_id, reviewer_id, due_date, creator_id)
VALUES ($1, $2, $3, $4, $5, $6, $7::text::uuid, $8::text::uuid, $9, $10::text::uuid)
RETURNING created_at`,
		task.ID, task.BoardID, task.Title, task.Description, task.Status, task.Priority,
		task.AssigneeID, task.ReviewerID, dateParam(task.DueDate), task.CreatorID,
	).Scan(&task.CreatedAt)
	if err != nil {
		if mapped := taskRefError(err); mapped != err {
			return mapped
		}
		s.logger.Error("create task failed", "board_id", task.BoardID, "error", err)
		return err
	}
	return nil
}

func (s *Storage) GetTaskByID(ctx context.Context, id string) (*models.Task, error) {
	if !validID(id) {
		return nil, errors.ErrTaskNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	task, err := scanTask(s.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks t WHERE t.id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, errors.ErrTaskNotFound
		}
		s.logger.Error("get task failed", "task_id", id, "error", err)
		return nil, err
	}
	return task, nil
}

func (s *Storage) ListTasksForUser(ctx context.Context, userID string) ([]models.Task, error) {
	if !validID(userID) {
		return []models.Task{}, nil
	}
	return s.queryTasks(ctx, `
JOIN boards b ON b.id = t.board_id
WHERE b.owner_id = $1 OR EXISTS (SELECT 1 FROM board_members m WHERE m.board_id = b.id AND m.user_id = $1)`, userID)
}

func (s *Storage) ListTasksByBoard(ctx context.Context, boardID string) ([]models.Task, error) {
	if !validID(boardID) {
		return []models.Task{}, nil
	}
	return s.queryTasks(ctx, `WHERE t.board_id = $1`, boardID)
}

func (s *Storage) ListTasksByAssignee(ctx context.Context, userID string) ([]models.Task, error) {
	if !validID(userID) {
		return []models.Task{}, nil
	}
	return s.queryTasks(ctx, `WHERE t.assignee_id = $1`, userID)
}

func (s *Storage) ListTasksByReviewer(ctx context.Context, userID string) ([]models.Task, error) {
	if !validID(userID) {
		return []models.Task{}, nil
	}
	return s.queryTasks(ctx, `WHERE t.reviewer_id = $1`, userID)
}

func (s *Storage) UpdateTask(ctx context.Context, task *models.Task) error {
	if !validID(task.ID) {
		return errors.ErrTaskNotFound
	}
	if !validRef(task.AssigneeID) || !validRef(task.ReviewerID) {
		return errors.ErrUserNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := s.pool.QueryRow(ctx, `
UPDATE tasks
SET title = $1, description = $2, status = $3, priority = $4,
    assignee_id = $5::text::uuid, reviewer_id = $6::text::uuid, due_date = $7
WHERE id = $8
RETURNING board_id::text, creator_id::text, created_at`,
		task.Title, task.Description, task.Status, task.Priority,
		task.AssigneeID, task.ReviewerID, dateParam(task.DueDate), task.ID,
	).Scan(&task.BoardID, &task.CreatorID, &task.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return errors.ErrTaskNotFound
		}
		if mapped := taskRefError(err); mapped != err {
			return mapped
		}
		s.logger.Error("update task failed", "task_id", task.ID, "error", err)
		return err
	}
	return nil
}

func (s *Storage) DeleteTask(ctx context.Context, id string) error {
	if !validID(id) {
		return errors.ErrTaskNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ct, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		s.logger.Error("delete task failed", "task_id", id, "error", err)
		return err
	}
	if ct.RowsAffected() == 0 {
		return errors.ErrTaskNotFound
	}
	return nil
}

func (s *Storage) CountComments(ctx context.Context, taskID string) (int, error) {
	if !validID(taskID) {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var count int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM comments WHERE task_id = $1`, taskID).Scan(&count); err != nil {
		s.logger.Error("count comments failed", "task_id", taskID, "error", err)
		return 0, err
	}
	return count, nil
}
