package kanban

import (
	"context"
	"fmt"

	"kanmind/internal/domain/models"
)

// TaskView is a task with its assignee and reviewer resolved.
type TaskView struct {
	Task          models.Task
	Assignee      *models.User
	Reviewer      *models.User
	CommentsCount int
}

// BoardView carries a board with derived data. Owner, Members and Tasks
// are filled only by the operations that return them.
type BoardView struct {
	Board   models.Board
	Counts  models.BoardCounts
	Owner   *models.User
	Members []models.User
	Tasks   []TaskView
}

// CommentView carries the author's display name, nil when the author no
// longer exists.
type CommentView struct {
	Comment    models.Comment
	AuthorName *string
}

func refID(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func lookup(index map[string]models.User, p *string) *models.User {
	if p == nil {
		return nil
	}
	if u, ok := index[*p]; ok {
		return &u
	}
	return nil
}

func (s *Service) taskViews(ctx context.Context, tasks []models.Task) ([]TaskView, error) {
	ids := make([]string, 0, 2*len(tasks))
	for i := range tasks {
		ids = append(ids, refID(tasks[i].AssigneeID), refID(tasks[i].ReviewerID))
	}
	index, err := s.userIndex(ctx, ids...)
	if err != nil {
		return nil, err
	}

	views := make([]TaskView, 0, len(tasks))
	for i := range tasks {
		count, err := s.repo.CountComments(ctx, tasks[i].ID)
		if err != nil {
			return nil, fmt.Errorf("count comments of task %s: %w", tasks[i].ID, err)
		}
		views = append(views, TaskView{
			Task:          tasks[i],
			Assignee:      lookup(index, tasks[i].AssigneeID),
			Reviewer:      lookup(index, tasks[i].ReviewerID),
			CommentsCount: count,
		})
	}
	return views, nil
}

func (s *Service) taskView(ctx context.Context, task *models.Task) (*TaskView, error) {
	views, err := s.taskViews(ctx, []models.Task{*task})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *Service) commentViews(ctx context.Context, comments []models.Comment) ([]CommentView, error) {
	ids := make([]string, 0, len(comments))
	for i := range comments {
		ids = append(ids, refID(comments[i].AuthorID))
	}
	index, err := s.userIndex(ctx, ids...)
	if err != nil {
		return nil, err
	}

	views := make([]CommentView, 0, len(comments))
	for i := range comments {
		view := CommentView{Comment: comments[i]}
		if author := lookup(index, comments[i].AuthorID); author != nil {
			name := author.Fullname
			view.AuthorName = &name
		}
		views = append(views, view)
	}
	return views, nil
}

// boardMembers returns the member users in member-set order.
func (s *Service) boardMembers(ctx context.Context, board *models.Board) ([]models.User, error) {
	index, err := s.userIndex(ctx, board.MemberIDs...)
	if err != nil {
		return nil, err
	}
	members := make([]models.User, 0, len(board.MemberIDs))
	for _, id := range board.MemberIDs {
		if u, ok := index[id]; ok {
			members = append(members, u)
		}
	}
	return members, nil
}
