package kanban

import (
	"context"
	"testing"

	"kanmind/internal/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateComment(t *testing.T) {
	tests := []struct {
		name    string
		actor   string
		content string
		taskID  func(string) string
		want    struct {
			err     error
			content string
		}
	}{
		{
			name:    "member comments",
			actor:   "b",
			content: "  looks good  ",
			want: struct {
				err     error
				content string
			}{content: "looks good"},
		},
		{
			name:    "whitespace only rejected",
			actor:   "a",
			content: " \n\t ",
			want: struct {
				err     error
				content string
			}{err: errors.ErrValidationFailed},
		},
		{
			name:    "stranger forbidden",
			actor:   "c",
			content: "hi",
			want: struct {
				err     error
				content string
			}{err: errors.ErrForbidden},
		},
		{
			name:    "unknown task",
			actor:   "a",
			content: "hi",
			taskID:  func(string) string { return "missing" },
			want: struct {
				err     error
				content string
			}{err: errors.ErrNotFound},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			board := f.board(t, "a", "b")
			task := f.task(t, "a", board.Board.ID)
			taskID := task.Task.ID
			if tt.taskID != nil {
				taskID = tt.taskID(taskID)
			}

			view, err := f.svc.CreateComment(context.Background(), f.id(tt.actor), taskID, tt.content)
			if tt.want.err != nil {
				assert.ErrorIs(t, err, tt.want.err)
				count, _ := f.store.CountComments(context.Background(), task.Task.ID)
				assert.Zero(t, count)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.content, view.Comment.Content)
			require.NotNil(t, view.AuthorName)
			assert.Equal(t, "User "+tt.actor, *view.AuthorName)
			assert.False(t, view.Comment.CreatedAt.IsZero())
		})
	}
}

func TestCommentAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	board := f.board(t, "a", "b")
	task := f.task(t, "a", board.Board.ID)
	other := f.task(t, "a", board.Board.ID)

	comment, err := f.svc.CreateComment(ctx, f.id("b"), task.Task.ID, "first")
	require.NoError(t, err)

	t.Run("list for member", func(t *testing.T) {
		views, err := f.svc.ListComments(ctx, f.id("a"), task.Task.ID)
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, "first", views[0].Comment.Content)

		view, err := f.svc.GetTask(ctx, f.id("a"), task.Task.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, view.CommentsCount)
	})

	t.Run("list forbidden for stranger", func(t *testing.T) {
		_, err := f.svc.ListComments(ctx, f.id("c"), task.Task.ID)
		assert.ErrorIs(t, err, errors.ErrForbidden)
	})

	t.Run("list for missing task", func(t *testing.T) {
		_, err := f.svc.ListComments(ctx, f.id("a"), "missing")
		assert.ErrorIs(t, err, errors.ErrNotFound)
	})

	t.Run("detail", func(t *testing.T) {
		view, err := f.svc.GetComment(ctx, f.id("a"), task.Task.ID, comment.Comment.ID)
		require.NoError(t, err)
		assert.Equal(t, comment.Comment.ID, view.Comment.ID)

		_, err = f.svc.GetComment(ctx, f.id("c"), task.Task.ID, comment.Comment.ID)
		assert.ErrorIs(t, err, errors.ErrForbidden)
	})

	t.Run("comment under another task is not found", func(t *testing.T) {
		_, err := f.svc.GetComment(ctx, f.id("a"), other.Task.ID, comment.Comment.ID)
		assert.ErrorIs(t, err, errors.ErrCommentNotFound)
		assert.ErrorIs(t, f.svc.DeleteComment(ctx, f.id("b"), other.Task.ID, comment.Comment.ID), errors.ErrCommentNotFound)
	})

	t.Run("board owner cannot delete", func(t *testing.T) {
		err := f.svc.DeleteComment(ctx, f.id("a"), task.Task.ID, comment.Comment.ID)
		assert.ErrorIs(t, err, errors.ErrForbidden)
	})

	t.Run("author deletes", func(t *testing.T) {
		require.NoError(t, f.svc.DeleteComment(ctx, f.id("b"), task.Task.ID, comment.Comment.ID))
		_, err := f.svc.GetComment(ctx, f.id("a"), task.Task.ID, comment.Comment.ID)
		assert.ErrorIs(t, err, errors.ErrNotFound)
	})
}

func TestCommentAuthorRemoved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	board := f.board(t, "a", "b")
	task := f.task(t, "a", board.Board.ID)
	comment, err := f.svc.CreateComment(ctx, f.id("b"), task.Task.ID, "bye")
	require.NoError(t, err)

	require.NoError(t, f.store.DeleteUser(ctx, f.id("b")))

	view, err := f.svc.GetComment(ctx, f.id("a"), task.Task.ID, comment.Comment.ID)
	require.NoError(t, err)
	assert.Nil(t, view.AuthorName)
	assert.Equal(t, "bye", view.Comment.Content)

	// no one can delete a comment whose author is gone
	assert.ErrorIs(t, f.svc.DeleteComment(ctx, f.id("a"), task.Task.ID, comment.Comment.ID), errors.ErrForbidden)
}
