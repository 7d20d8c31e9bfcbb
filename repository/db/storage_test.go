package db

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"kanmind/internal/domain/errors"
	"kanmind/internal/domain/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB connects to KANMIND_TEST_DB, migrates it and truncates every
// table. Tests are skipped when the variable is unset.
func setupTestDB(t *testing.T) *Storage {
	t.Helper()
	dsn := os.Getenv("KANMIND_TEST_DB")
	if dsn == "" {
		t.Skip("KANMIND_TEST_DB not set")
	}
	require.NoError(t, Migration(dsn, "../../migrations"))

	storage, err := NewStorage(context.Background(), dsn, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(storage.Close)

	_, err = storage.pool.Exec(context.Background(), `TRUNCATE comments, tasks, board_members, boards, users`)
	require.NoError(t, err)
	return storage
}

func createUser(t *testing.T, s *Storage, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, Fullname: email, PasswordHash: "hash"}
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user
}

func strPtr(s string) *string { return &s }

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want struct {
			duplicate  bool
			constraint string
			noRows     bool
		}
	}{
		{
			name: "unique violation",
			err:  fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}),
			want: struct {
				duplicate  bool
				constraint string
				noRows     bool
			}{duplicate: true},
		},
		{
			name: "foreign key violation",
			err:  &pgconn.PgError{Code: "23503", ConstraintName: boardFKConstraint},
			want: struct {
				duplicate  bool
				constraint string
				noRows     bool
			}{constraint: boardFKConstraint},
		},
		{
			name: "no rows",
			err:  fmt.Errorf("scan: %w", pgx.ErrNoRows),
			want: struct {
				duplicate  bool
				constraint string
				noRows     bool
			}{noRows: true},
		},
		{
			name: "other error",
			err:  errors.New("boom"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want.duplicate, isDuplicate(tt.err))
			assert.Equal(t, tt.want.constraint, foreignKeyConstraint(tt.err))
			assert.Equal(t, tt.want.noRows, isNoRows(tt.err))
		})
	}
}

func TestTaskRefError(t *testing.T) {
	assert.ErrorIs(t, taskRefError(&pgconn.PgError{Code: "23503", ConstraintName: boardFKConstraint}), errors.ErrBoardNotFound)
	assert.ErrorIs(t, taskRefError(&pgconn.PgError{Code: "23503", ConstraintName: "tasks_assignee_id_fkey"}), errors.ErrUserNotFound)

	other := errors.New("boom")
	assert.Equal(t, other, taskRefError(other))
}

func TestValidID(t *testing.T) {
	assert.True(t, validID(uuid.New().String()))
	assert.False(t, validID("42"))
	assert.False(t, validID(""))
	assert.True(t, validRef(nil))
	assert.False(t, validRef(strPtr("nope")))
	assert.False(t, validIDs([]string{uuid.New().String(), "nope"}))
}

func TestNewStorageEmptyDSN(t *testing.T) {
	storage, err := NewStorage(context.Background(), "", nil)
	assert.ErrorIs(t, err, errors.ErrEmptyDSN)
	assert.Nil(t, storage)
}

func TestStorageUsers(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()

	user := createUser(t, storage, "Anna@Example.com")
	assert.NotEmpty(t, user.ID)

	err := storage.CreateUser(ctx, &models.User{Email: "anna@example.com", Fullname: "dup", PasswordHash: "x"})
	assert.ErrorIs(t, err, errors.ErrUserAlreadyExists)

	byEmail, err := storage.GetUserByEmail(ctx, "ANNA@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, "anna@example.com", byEmail.Email)

	_, err = storage.GetUserByID(ctx, uuid.New().String())
	assert.ErrorIs(t, err, errors.ErrUserNotFound)
	_, err = storage.GetUserByID(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, errors.ErrUserNotFound)

	users, err := storage.GetUsersByIDs(ctx, []string{user.ID, uuid.New().String(), "junk"})
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestStorageBoardsAndCounts(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()
	owner := createUser(t, storage, "owner@example.com")
	member := createUser(t, storage, "member@example.com")
	stranger := createUser(t, storage, "stranger@example.com")

	board := &models.Board{Title: "Sprint 1", OwnerID: owner.ID, MemberIDs: []string{member.ID}}
	require.NoError(t, storage.CreateBoard(ctx, board))

	err := storage.CreateBoard(ctx, &models.Board{Title: "x", OwnerID: owner.ID, MemberIDs: []string{uuid.New().String()}})
	assert.ErrorIs(t, err, errors.ErrUserNotFound)

	for _, userID := range []string{owner.ID, member.ID} {
		boards, err := storage.ListBoardsForUser(ctx, userID)
		require.NoError(t, err)
		require.Len(t, boards, 1)
		assert.Equal(t, []string{member.ID}, boards[0].MemberIDs)
	}
	boards, err := storage.ListBoardsForUser(ctx, stranger.ID)
	require.NoError(t, err)
	assert.Empty(t, boards)

	for _, task := range []models.Task{
		{Title: "a", Status: "To-Do", Priority: "high"},
		{Title: "b", Status: "done", Priority: "HIGH"},
	} {
		task.BoardID = board.ID
		require.NoError(t, storage.CreateTask(ctx, &task))
	}
	counts, err := storage.GetBoardCounts(ctx, board.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BoardCounts{MemberCount: 1, TicketCount: 2, TasksToDoCount: 1, TasksHighPrioCount: 2}, counts)

	update := &models.Board{ID: board.ID, Title: "Sprint 2", OwnerID: stranger.ID, MemberIDs: []string{stranger.ID}}
	require.NoError(t, storage.UpdateBoard(ctx, update))
	assert.Equal(t, owner.ID, update.OwnerID)

	stored, err := storage.GetBoardByID(ctx, board.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sprint 2", stored.Title)
	assert.Equal(t, owner.ID, stored.OwnerID)
	assert.Equal(t, []string{stranger.ID}, stored.MemberIDs)
}

func TestStorageCascades(t *testing.T) {
	storage := setupTestDB(t)
	ctx := context.Background()
	owner := createUser(t, storage, "owner@example.com")
	member := createUser(t, storage, "member@example.com")

	board := &models.Board{Title: "Sprint 1", OwnerID: owner.ID, MemberIDs: []string{member.ID}}
	require.NoError(t, storage.CreateBoard(ctx, board))

	task := &models.Task{
		BoardID:    board.ID,
		Title:      "Write docs",
		Status:     "to-do",
		AssigneeID: strPtr(member.ID),
		ReviewerID: strPtr(member.ID),
		CreatorID:  strPtr(member.ID),
		DueDate:    models.NewDate(2026, time.May, 4),
	}
	require.NoError(t, storage.CreateTask(ctx, task))
	comment := &models.Comment{TaskID: task.ID, AuthorID: strPtr(member.ID), Content: "hi"}
	require.NoError(t, storage.CreateComment(ctx, comment))

	err := storage.CreateTask(ctx, &models.Task{BoardID: uuid.New().String(), Title: "x"})
	assert.ErrorIs(t, err, errors.ErrBoardNotFound)

	require.NoError(t, storage.DeleteUser(ctx, member.ID))

	stored, err := storage.GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.AssigneeID)
	assert.Nil(t, stored.ReviewerID)
	assert.Nil(t, stored.CreatorID)
	assert.Equal(t, "2026-05-04", stored.DueDate.String())

	storedComment, err := storage.GetCommentByID(ctx, comment.ID)
	require.NoError(t, err)
	assert.Nil(t, storedComment.AuthorID)

	require.NoError(t, storage.DeleteBoard(ctx, board.ID))
	_, err = storage.GetTaskByID(ctx, task.ID)
	assert.ErrorIs(t, err, errors.ErrTaskNotFound)
	_, err = storage.GetCommentByID(ctx, comment.ID)
	assert.ErrorIs(t, err, errors.ErrCommentNotFound)
}
