package kanban

import (
	"context"
	"fmt"
	"strings"

	"kanmind/internal/access"
	"kanmind/internal/domain/errors"
	"kanmind/internal/domain/models"
)

type TaskInput struct {
	BoardID     string
	Title       string
	Description string
	Status      string
	Priority    string
	AssigneeID  *string
	ReviewerID  *string
	DueDate     models.Date
}

// Ref is a relation update: untouched when Set is false, cleared when Set
// is true and ID is nil.
type Ref struct {
	Set bool
	ID  *string
}

// TaskPatch lists the mutable task fields; nil pointers leave a field
// unchanged. The board and creator of a task are not patchable.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	Assignee    Ref
	Reviewer    Ref
	DueDate     *models.Date
}

func emptyToNil(p *string) *string {
	if p == nil || *p == "" {
		return nil
	}
	return p
}

// ListTasks returns tasks on every board the actor can access.
func (s *Service) ListTasks(ctx context.Context, actor string) ([]TaskView, error) {
	if err := s.requireActor(actor); err != nil {
		return nil, err
	}
	tasks, err := s.repo.ListTasksForUser(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	visible, err := s.visibleTasks(ctx, actor, tasks)
	if err != nil {
		return nil, err
	}
	return s.taskViews(ctx, visible)
}

// ListAssignedTasks returns the actor's assigned tasks on boards they can
// still access.
func (s *Service) ListAssignedTasks(ctx context.Context, actor string) ([]TaskView, error) {
	if err := s.requireActor(actor); err != nil {
		return nil, err
	}
	tasks, err := s.repo.ListTasksByAssignee(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("list assigned tasks: %w", err)
	}
	visible, err := s.visibleTasks(ctx, actor, tasks)
	if err != nil {
		return nil, err
	}
	return s.taskViews(ctx, visible)
}

// ListReviewingTasks is ListAssignedTasks for the reviewer relation.
func (s *Service) ListReviewingTasks(ctx context.Context, actor string) ([]TaskView, error) {
	if err := s.requireActor(actor); err != nil {
		return nil, err
	}
	tasks, err := s.repo.ListTasksByReviewer(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("list reviewing tasks: %w", err)
	}
	visible, err := s.visibleTasks(ctx, actor, tasks)
	if err != nil {
		return nil, err
	}
	return s.taskViews(ctx, visible)
}

// visibleTasks narrows tasks to those whose board passes the list rule.
func (s *Service) visibleTasks(ctx context.Context, actor string, tasks []models.Task) ([]models.Task, error) {
	boards := make(map[string]*models.Board)
	out := make([]models.Task, 0, len(tasks))
	for i := range tasks {
		board, seen := boards[tasks[i].BoardID]
		if !seen {
			b, err := s.repo.GetBoardByID(ctx, tasks[i].BoardID)
			if err != nil && !errors.Is(err, errors.ErrNotFound) {
				return nil, fmt.Errorf("load board %s: %w", tasks[i].BoardID, err)
			}
			board = b
			boards[tasks[i].BoardID] = b
		}
		if board == nil {
			continue
		}
		if access.DecideTask(actor, access.OpList, board, &tasks[i]).Allowed() {
			out = append(out, tasks[i])
		}
	}
	return out, nil
}

// CreateTask creates a task on the board named in the input. A missing
// board is NotFound, an inaccessible one Forbidden.
func (s *Service) CreateTask(ctx context.Context, actor string, in TaskInput) (*TaskView, error) {
	if err := s.requireActor(actor); err != nil {
		return nil, err
	}
	board, err := s.loadBoard(ctx, in.BoardID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(access.DecideTask(actor, access.OpCreate, board, nil), access.ResourceTask, access.OpCreate, actor, in.BoardID); err != nil {
		return nil, err
	}

	creator := actor
	task := &models.Task{
		BoardID:     board.ID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		AssigneeID:  emptyToNil(in.AssigneeID),
		ReviewerID:  emptyToNil(in.ReviewerID),
		DueDate:     in.DueDate,
		CreatorID:   &creator,
	}
	v := &errors.ValidationError{}
	checkTaskFields(v, task)
	if err := s.checkAssignable(ctx, v, board, task); err != nil {
		return nil, fmt.Errorf("check assignees: %w", err)
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	if err := s.repo.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	s.logger.Info("task created", "task_id", task.ID, "board_id", board.ID, "creator_id", actor)
	return s.taskView(ctx, task)
}

func (s *Service) GetTask(ctx context.Context, actor, id string) (*TaskView, error) {
	if err := s.requireActor(actor); err != nil {
		return nil, err
	}
	task, board, err := s.loadTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(access.DecideTask(actor, access.OpRead, board, task), access.ResourceTask, access.OpRead, actor, id); err != nil {
		return nil, err
	}
	return s.taskView(ctx, task)
}

// UpdateTask applies the patch and re-checks assignee and reviewer
// eligibility against the board's current owner and members.
func (s *Service) UpdateTask(ctx context.Context, actor, id string, patch TaskPatch) (*TaskView, error) {
	if err := s.requireActor(actor); err != nil {
		return nil, err
	}
	task, board, err := s.loadTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(access.DecideTask(actor, access.OpUpdate, board, task), access.ResourceTask, access.OpUpdate, actor, id); err != nil {
		return nil, err
	}

	if patch.Title != nil {
		task.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.DueDate != nil {
		task.DueDate = *patch.DueDate
	}
	if patch.Assignee.Set {
		task.AssigneeID = emptyToNil(patch.Assignee.ID)
	}
	if patch.Reviewer.Set {
		task.ReviewerID = emptyToNil(patch.Reviewer.ID)
	}

	v := &errors.ValidationError{}
	checkTaskFields(v, task)
	if patch.Assignee.Set || patch.Reviewer.Set {
		changed := &models.Task{}
		if patch.Assignee.Set {
			changed.AssigneeID = task.AssigneeID
		}
		if patch.Reviewer.Set {
			changed.ReviewerID = task.ReviewerID
		}
		if err := s.checkAssignable(ctx, v, board, changed); err != nil {
			return nil, fmt.Errorf("check assignees: %w", err)
		}
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("update task %s: %w", id, err)
	}
	return s.taskView(ctx, task)
}

// DeleteTask is allowed for the board owner and the task's creator.
func (s *Service) DeleteTask(ctx context.Context, actor, id string) error {
	if err := s.requireActor(actor); err != nil {
		return err
	}
	task, board, err := s.loadTask(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(access.DecideTask(actor, access.OpDelete, board, task), access.ResourceTask, access.OpDelete, actor, id); err != nil {
		return err
	}
	if err := s.repo.DeleteTask(ctx, id); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	s.logger.Info("task deleted", "task_id", id, "actor", actor)
	return nil
}
