package kanban

import (
	"context"
	"fmt"
	"strings"

	"kanmind/internal/access"
	"kanmind/internal/domain/errors"
	"kanmind/internal/domain/models"
)

// taskForComments resolves the parent task and checks the comment-level
// rule for op against its board.
func (s *Service) taskForComments(ctx context.Context, actor, taskID string, op access.Operation) (*models.Task, *models.Board, error) {
	if err := s.requireActor(actor); err != nil {
		return nil, nil, err
	}
	task, board, err := s.loadTask(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.authorize(access.DecideComment(actor, op, board, nil), access.ResourceComment, op, actor, taskID); err != nil {
		return nil, nil, err
	}
	return task, board, nil
}

// loadComment returns the comment only if it belongs to taskID.
func (s *Service) loadComment(ctx context.Context, taskID, commentID string) (*models.Comment, error) {
	comment, err := s.repo.GetCommentByID(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("load comment %s: %w", commentID, err)
	}
	if comment.TaskID != taskID {
		return nil, fmt.Errorf("load comment %s: %w", commentID, errors.ErrCommentNotFound)
	}
	return comment, nil
}

func (s *Service) ListComments(ctx context.Context, actor, taskID string) ([]CommentView, error) {
	task, _, err := s.taskForComments(ctx, actor, taskID, access.OpList)
	if err != nil {
		return nil, err
	}
	comments, err := s.repo.ListCommentsByTask(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("list comments of task %s: %w", taskID, err)
	}
	return s.commentViews(ctx, comments)
}

// CreateComment records the actor as author. Content is trimmed and must
// not be empty.
func (s *Service) CreateComment(ctx context.Context, actor, taskID, content string) (*CommentView, error) {
	task, _, err := s.taskForComments(ctx, actor, taskID, access.OpCreate)
	if err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.NewValidationError("content", "Comment content cannot be empty.")
	}

	author := actor
	comment := &models.Comment{TaskID: task.ID, AuthorID: &author, Content: content}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	views, err := s.commentViews(ctx, []models.Comment{*comment})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *Service) GetComment(ctx context.Context, actor, taskID, commentID string) (*CommentView, error) {
	task, board, err := s.taskForComments(ctx, actor, taskID, access.OpRead)
	if err != nil {
		return nil, err
	}
	comment, err := s.loadComment(ctx, task.ID, commentID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(access.DecideComment(actor, access.OpRead, board, comment), access.ResourceComment, access.OpRead, actor, commentID); err != nil {
		return nil, err
	}
	views, err := s.commentViews(ctx, []models.Comment{*comment})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// DeleteComment is allowed only for the comment's author.
func (s *Service) DeleteComment(ctx context.Context, actor, taskID, commentID string) error {
	if err := s.requireActor(actor); err != nil {
		return err
	}
	task, board, err := s.loadTask(ctx, taskID)
	if err != nil {
		return err
	}
	comment, err := s.loadComment(ctx, task.ID, commentID)
	if err != nil {
		return err
	}
	if err := s.authorize(access.DecideComment(actor, access.OpDelete, board, comment), access.ResourceComment, access.OpDelete, actor, commentID); err != nil {
		return err
	}
	if err := s.repo.DeleteComment(ctx, commentID); err != nil {
		return fmt.Errorf("delete comment %s: %w", commentID, err)
	}
	return nil
}
