// Package kanban implements the board, task and comment operations. Every
// operation receives the acting user's ID explicitly and consults the
// access decision table before touching the store.
package kanban

import (
	"context"
	"fmt"
	"log/slog"

	"kanmind/internal/access"
	"kanmind/internal/domain/errors"
	"kanmind/internal/domain/models"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// authorize turns a decision into an error. NotApplicable is treated as a
// denial since no rule grants the operation.
func (s *Service) authorize(d access.Decision, resource access.Resource, op access.Operation, actor, id string) error {
	if d.Allowed() {
		return nil
	}
	s.logger.Debug("access denied",
		"resource", string(resource),
		"operation", string(op),
		"actor", actor,
		"id", id,
		"decision", d.String(),
	)
	return errors.ErrForbidden
}

func (s *Service) requireActor(actor string) error {
	if actor == "" {
		return errors.ErrUnauthorized
	}
	return nil
}

func (s *Service) loadBoard(ctx context.Context, id string) (*models.Board, error) {
	board, err := s.repo.GetBoardByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load board %s: %w", id, err)
	}
	return board, nil
}

// loadTask returns the task and its board. A task whose board vanished is
// reported as missing.
func (s *Service) loadTask(ctx context.Context, id string) (*models.Task, *models.Board, error) {
	task, err := s.repo.GetTaskByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("load task %s: %w", id, err)
	}
	board, err := s.repo.GetBoardByID(ctx, task.BoardID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, nil, fmt.Errorf("load task %s: %w", id, errors.ErrTaskNotFound)
		}
		return nil, nil, fmt.Errorf("load board of task %s: %w", id, err)
	}
	return task, board, nil
}

// userIndex fetches the given users keyed by ID. Empty IDs are ignored.
func (s *Service) userIndex(ctx context.Context, ids ...string) (map[string]models.User, error) {
	want := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			want = append(want, id)
		}
	}
	index := make(map[string]models.User, len(want))
	if len(want) == 0 {
		return index, nil
	}
	users, err := s.repo.GetUsersByIDs(ctx, want)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	for _, u := range users {
		index[u.ID] = u
	}
	return index, nil
}
