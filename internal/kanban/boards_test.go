package kanban

import (
	"context"
	"testing"

	"kanmind/internal/domain/errors"
	"kanmind/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBoard(t *testing.T) {
	tests := []struct {
		name    string
		actor   string
		title   string
		members func(*fixture) []string
		want    struct {
			err     error
			field   string
			members int
		}
	}{
		{
			name:    "owner recorded, member set starts empty",
			actor:   "a",
			title:   "Sprint 1",
			members: func(*fixture) []string { return nil },
		},
		{
			name:    "members added on create",
			actor:   "a",
			title:   "Sprint 1",
			members: func(f *fixture) []string { return []string{f.id("b"), f.id("c"), f.id("b")} },
			want: struct {
				err     error
				field   string
				members int
			}{members: 2},
		},
		{
			name:    "owner inside members is dropped",
			actor:   "a",
			title:   "Sprint 1",
			members: func(f *fixture) []string { return []string{f.id("a"), f.id("b")} },
			want: struct {
				err     error
				field   string
				members int
			}{members: 1},
		},
		{
			name:    "unknown member rejected",
			actor:   "a",
			title:   "Sprint 1",
			members: func(*fixture) []string { return []string{"ghost"} },
			want: struct {
				err     error
				field   string
				members int
			}{err: errors.ErrValidationFailed, field: "members"},
		},
		{
			name:    "blank title rejected",
			actor:   "a",
			title:   "   ",
			members: func(*fixture) []string { return nil },
			want: struct {
				err     error
				field   string
				members int
			}{err: errors.ErrValidationFailed, field: "title"},
		},
		{
			name:    "unauthenticated",
			actor:   "",
			title:   "Sprint 1",
			members: func(*fixture) []string { return nil },
			want: struct {
				err     error
				field   string
				members int
			}{err: errors.ErrUnauthorized},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			actor := ""
			if tt.actor != "" {
				actor = f.id(tt.actor)
			}

			view, err := f.svc.CreateBoard(context.Background(), actor, BoardInput{Title: tt.title, MemberIDs: tt.members(f)})
			if tt.want.err != nil {
				assert.ErrorIs(t, err, tt.want.err)
				if tt.want.field != "" {
					assert.Contains(t, fieldErrors(t, err), tt.want.field)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, actor, view.Board.OwnerID)
			assert.Len(t, view.Board.MemberIDs, tt.want.members)
			assert.NotContains(t, view.Board.MemberIDs, actor)
			assert.Equal(t, tt.want.members, view.Counts.MemberCount)
		})
	}
}

func TestBoardAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	board := f.board(t, "a", "b")

	tests := []struct {
		name  string
		actor string
		want  struct {
			read   error
			update error
			delete error
		}
	}{
		{
			name:  "member reads and updates but cannot delete",
			actor: "b",
			want: struct {
				read   error
				update error
				delete error
			}{delete: errors.ErrForbidden},
		},
		{
			name:  "stranger is forbidden everywhere",
			actor: "c",
			want: struct {
				read   error
				update error
				delete error
			}{read: errors.ErrForbidden, update: errors.ErrForbidden, delete: errors.ErrForbidden},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actor := f.id(tt.actor)

			_, err := f.svc.GetBoard(ctx, actor, board.Board.ID)
			assertErr(t, tt.want.read, err)

			_, err = f.svc.UpdateBoard(ctx, actor, board.Board.ID, BoardPatch{Title: strPtr("Renamed")})
			assertErr(t, tt.want.update, err)

			err = f.svc.DeleteBoard(ctx, actor, board.Board.ID)
			assertErr(t, tt.want.delete, err)
		})
	}

	t.Run("missing board is not found", func(t *testing.T) {
		_, err := f.svc.GetBoard(ctx, f.id("a"), "missing")
		assert.ErrorIs(t, err, errors.ErrNotFound)
		assert.ErrorIs(t, f.svc.DeleteBoard(ctx, f.id("a"), "missing"), errors.ErrNotFound)
	})

	t.Run("owner deletes", func(t *testing.T) {
		require.NoError(t, f.svc.DeleteBoard(ctx, f.id("a"), board.Board.ID))
		_, err := f.svc.GetBoard(ctx, f.id("a"), board.Board.ID)
		assert.ErrorIs(t, err, errors.ErrBoardNotFound)
	})
}

func assertErr(t *testing.T, want, got error) {
	t.Helper()
	if want == nil {
		assert.NoError(t, got)
		return
	}
	assert.ErrorIs(t, got, want)
}

func TestListBoardsNarrowsToAccessible(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shared := f.board(t, "a", "b")
	f.board(t, "c")

	boards, err := f.svc.ListBoards(ctx, f.id("b"))
	require.NoError(t, err)
	require.Len(t, boards, 1)
	assert.Equal(t, shared.Board.ID, boards[0].Board.ID)

	boards, err = f.svc.ListBoards(ctx, f.id("a"))
	require.NoError(t, err)
	assert.Len(t, boards, 1)

	// a fresh account with no boards gets an empty list, not an error
	lonely := &models.User{Email: "lonely@example.com", Fullname: "Lonely"}
	require.NoError(t, f.store.CreateUser(ctx, lonely))
	boards, err = f.svc.ListBoards(ctx, lonely.ID)
	require.NoError(t, err)
	assert.Empty(t, boards)
}

func TestGetBoardDetail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	board := f.board(t, "a", "b")

	for _, in := range []TaskInput{
		{Title: "one", Status: "To-Do", Priority: "HIGH"},
		{Title: "two", Status: "done", Priority: "high"},
		{Title: "three", Status: "to-do", Priority: "low", AssigneeID: strPtr(f.id("b"))},
	} {
		in.BoardID = board.Board.ID
		_, err := f.svc.CreateTask(ctx, f.id("a"), in)
		require.NoError(t, err)
	}

	view, err := f.svc.GetBoard(ctx, f.id("b"), board.Board.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BoardCounts{MemberCount: 1, TicketCount: 3, TasksToDoCount: 2, TasksHighPrioCount: 2}, view.Counts)
	require.Len(t, view.Members, 1)
	assert.Equal(t, "b@example.com", view.Members[0].Email)
	require.Len(t, view.Tasks, 3)
	assert.Equal(t, "one", view.Tasks[0].Task.Title)
	require.NotNil(t, view.Tasks[2].Assignee)
	assert.Equal(t, f.id("b"), view.Tasks[2].Assignee.ID)
}

func TestUpdateBoardKeepsOwner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	board := f.board(t, "a", "b")

	tests := []struct {
		name  string
		actor string
		patch func(*fixture) BoardPatch
		want  struct {
			title   string
			members []string
			field   string
		}
	}{
		{
			name:  "member replaces the member set",
			actor: "b",
			patch: func(f *fixture) BoardPatch {
				return BoardPatch{MemberIDs: &[]string{f.id("c")}}
			},
			want: struct {
				title   string
				members []string
				field   string
			}{title: "Sprint 1", members: []string{"c"}},
		},
		{
			name:  "owner id in members is ignored",
			actor: "a",
			patch: func(f *fixture) BoardPatch {
				return BoardPatch{Title: strPtr("Sprint 2"), MemberIDs: &[]string{f.id("a"), f.id("b")}}
			},
			want: struct {
				title   string
				members []string
				field   string
			}{title: "Sprint 2", members: []string{"b"}},
		},
		{
			name:  "empty member set",
			actor: "a",
			patch: func(f *fixture) BoardPatch {
				return BoardPatch{MemberIDs: &[]string{}}
			},
			want: struct {
				title   string
				members []string
				field   string
			}{title: "Sprint 2", members: []string{}},
		},
		{
			name:  "unknown member rejected",
			actor: "a",
			patch: func(f *fixture) BoardPatch {
				return BoardPatch{MemberIDs: &[]string{"ghost"}}
			},
			want: struct {
				title   string
				members []string
				field   string
			}{field: "members"},
		},
		{
			name:  "blank title rejected",
			actor: "a",
			patch: func(f *fixture) BoardPatch {
				return BoardPatch{Title: strPtr("")}
			},
			want: struct {
				title   string
				members []string
				field   string
			}{field: "title"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := f.svc.UpdateBoard(ctx, f.id(tt.actor), board.Board.ID, tt.patch(f))
			if tt.want.field != "" {
				assert.ErrorIs(t, err, errors.ErrValidationFailed)
				assert.Contains(t, fieldErrors(t, err), tt.want.field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.title, view.Board.Title)
			assert.Equal(t, f.id("a"), view.Board.OwnerID)
			require.NotNil(t, view.Owner)
			assert.Equal(t, f.id("a"), view.Owner.ID)

			want := make([]string, 0, len(tt.want.members))
			for _, m := range tt.want.members {
				want = append(want, f.id(m))
			}
			assert.Equal(t, want, view.Board.MemberIDs)
			assert.Len(t, view.Members, len(want))

			stored, err := f.store.GetBoardByID(ctx, board.Board.ID)
			require.NoError(t, err)
			assert.Equal(t, f.id("a"), stored.OwnerID)
		})
	}
}
