package kanban

import (
	"context"

	"kanmind/internal/domain/models"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// GetUsersByIDs returns the users that exist; unknown IDs are skipped.
	GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error)
}

type BoardRepository interface {
	CreateBoard(ctx context.Context, board *models.Board) error
	GetBoardByID(ctx context.Context, id string) (*models.Board, error)
	// ListBoardsForUser returns boards the user owns or is a member of.
	ListBoardsForUser(ctx context.Context, userID string) ([]models.Board, error)
	// UpdateBoard persists title and member set. OwnerID is never written.
	UpdateBoard(ctx context.Context, board *models.Board) error
	// DeleteBoard removes the board together with its tasks and their comments.
	DeleteBoard(ctx context.Context, id string) error
	GetBoardCounts(ctx context.Context, boardID string) (models.BoardCounts, error)
}

type TaskRepository interface {
	CreateTask(ctx context.Context, task *models.Task) error
	GetTaskByID(ctx context.Context, id string) (*models.Task, error)
	// ListTasksForUser returns tasks on boards the user owns or is a member of.
	ListTasksForUser(ctx context.Context, userID string) ([]models.Task, error)
	ListTasksByBoard(ctx context.Context, boardID string) ([]models.Task, error)
	ListTasksByAssignee(ctx context.Context, userID string) ([]models.Task, error)
	ListTasksByReviewer(ctx context.Context, userID string) ([]models.Task, error)
	// UpdateTask persists the mutable fields. BoardID and CreatorID are never written.
	UpdateTask(ctx context.Context, task *models.Task) error
	// DeleteTask removes the task together with its comments.
	DeleteTask(ctx context.Context, id string) error
	CountComments(ctx context.Context, taskID string) (int, error)
}

type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentByID(ctx context.Context, id string) (*models.Comment, error)
	ListCommentsByTask(ctx context.Context, taskID string) ([]models.Comment, error)
	DeleteComment(ctx context.Context, id string) error
}

// Repository is the full entity store.
type Repository interface {
	UserRepository
	BoardRepository
	TaskRepository
	CommentRepository
}
