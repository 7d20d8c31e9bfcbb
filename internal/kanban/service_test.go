package kanban

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"kanmind/internal/domain/errors"
	"kanmind/internal/domain/models"
	storage "kanmind/repository/inmemory"

	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc   *Service
	store *storage.Storage
	users map[string]*models.User
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newFixture registers users named a, b and c directly in the store.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := storage.NewStorage()
	f := &fixture{
		svc:   NewService(store, discardLogger()),
		store: store,
		users: make(map[string]*models.User),
	}
	for _, name := range []string{"a", "b", "c"} {
		user := &models.User{Email: name + "@example.com", Fullname: "User " + name, PasswordHash: "x"}
		require.NoError(t, store.CreateUser(context.Background(), user))
		f.users[name] = user
	}
	return f
}

func (f *fixture) id(name string) string { return f.users[name].ID }

func (f *fixture) board(t *testing.T, owner string, members ...string) *BoardView {
	t.Helper()
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, f.id(m))
	}
	view, err := f.svc.CreateBoard(context.Background(), f.id(owner), BoardInput{Title: "Sprint 1", MemberIDs: ids})
	require.NoError(t, err)
	return view
}

func (f *fixture) task(t *testing.T, actor, boardID string) *TaskView {
	t.Helper()
	view, err := f.svc.CreateTask(context.Background(), f.id(actor), TaskInput{
		BoardID:  boardID,
		Title:    "Write docs",
		Status:   "to-do",
		Priority: "medium",
		DueDate:  models.NewDate(2026, 3, 1),
	})
	require.NoError(t, err)
	return view
}

func strPtr(s string) *string { return &s }

func fieldErrors(t *testing.T, err error) map[string][]string {
	t.Helper()
	var verr *errors.ValidationError
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	return verr.Fields
}
