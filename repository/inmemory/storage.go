package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"kanmind/internal/domain/errors"
	"kanmind/internal/domain/models"

	"github.com/google/uuid"
)

// record wraps an entity with its insertion sequence so listings keep
// creation order even when timestamps collide.
type record[T any] struct {
	seq   uint64
	value T
}

// Storage is a process-local entity store. Referential rules match the
// Postgres schema: board delete cascades to tasks and comments, task delete
// cascades to comments, user delete cascades to owned boards and clears
// assignee, reviewer, creator and author references.
type Storage struct {
	mu       sync.RWMutex
	seq      uint64
	users    map[string]record[models.User]
	boards   map[string]record[models.Board]
	tasks    map[string]record[models.Task]
	comments map[string]record[models.Comment]
	now      func() time.Time
}

func NewStorage() *Storage {
	return &Storage{
		users:    make(map[string]record[models.User]),
		boards:   make(map[string]record[models.Board]),
		tasks:    make(map[string]record[models.Task]),
		comments: make(map[string]record[models.Comment]),
		now:      time.Now,
	}
}

func (s *Storage) nextSeq() uint64 {
	s.seq++
	return s.seq
}

// Ping always succeeds.
func (s *Storage) Ping(ctx context.Context) error {
	return ctx.Err()
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneBoard(b models.Board) models.Board {
	b.MemberIDs = cloneStrings(b.MemberIDs)
	return b
}

func cloneTask(t models.Task) models.Task {
	t.AssigneeID = cloneStringPtr(t.AssigneeID)
	t.ReviewerID = cloneStringPtr(t.ReviewerID)
	t.CreatorID = cloneStringPtr(t.CreatorID)
	return t
}

func cloneComment(c models.Comment) models.Comment {
	c.AuthorID = cloneStringPtr(c.AuthorID)
	return c
}

func sorted[T any](recs []record[T]) []T {
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })
	out := make([]T, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.value)
	}
	return out
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func matches(p *string, id string) bool {
	return p != nil && *p == id
}

// Users

func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	for _, existing := range s.users {
		if strings.ToLower(existing.value.Email) == email {
			return errors.ErrUserAlreadyExists
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now().UTC()
	}
	s.users[user.ID] = record[models.User]{seq: s.nextSeq(), value: *user}
	return nil
}

func (s *Storage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.users[id]
	if !exists {
		return nil, errors.ErrUserNotFound
	}
	user := rec.value
	return &user, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = strings.ToLower(email)
	for _, rec := range s.users {
		if strings.ToLower(rec.value.Email) == email {
			user := rec.value
			return &user, nil
		}
	}
	return nil, errors.ErrUserNotFound
}

func (s *Storage) GetUsersByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]record[models.User], 0, len(ids))
	for _, id := range dedupe(ids) {
		if rec, ok := s.users[id]; ok {
			recs = append(recs, rec)
		}
	}
	return sorted(recs), nil
}

// DeleteUser removes the user, cascades to boards they own and clears
// every weak reference to them.
func (s *Storage) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[id]; !exists {
		return errors.ErrUserNotFound
	}
	delete(s.users, id)

	for boardID, rec := range s.boards {
		if rec.value.OwnerID == id {
			s.deleteBoardLocked(boardID)
			continue
		}
		members := rec.value.MemberIDs[:0:0]
		for _, m := range rec.value.MemberIDs {
			if m != id {
				members = append(members, m)
			}
		}
		rec.value.MemberIDs = members
		s.boards[boardID] = rec
	}
	for taskID, rec := range s.tasks {
		if matches(rec.value.AssigneeID, id) {
			rec.value.AssigneeID = nil
		}
		if matches(rec.value.ReviewerID, id) {
			rec.value.ReviewerID = nil
		}
		if matches(rec.value.CreatorID, id) {
			rec.value.CreatorID = nil
		}
		s.tasks[taskID] = rec
	}
	for commentID, rec := range s.comments {
		if matches(rec.value.AuthorID, id) {
			rec.value.AuthorID = nil
			s.comments[commentID] = rec
		}
	}
	return nil
}

// Boards

func (s *Storage) checkUsersLocked(ids ...string) error {
	for _, id := range ids {
		if _, ok := s.users[id]; !ok {
			return errors.ErrUserNotFound
		}
	}
	return nil
}

func (s *Storage) CreateBoard(ctx context.Context, board *models.Board) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	board.MemberIDs = dedupe(board.MemberIDs)
	if err := s.checkUsersLocked(append([]string{board.OwnerID}, board.MemberIDs...)...); err != nil {
		return err
	}
	board.ID = uuid.New().String()
	if board.CreatedAt.IsZero() {
		board.CreatedAt = s.now().UTC()
	}
	s.boards[board.ID] = record[models.Board]{seq: s.nextSeq(), value: cloneBoard(*board)}
	return nil
}

func (s *Storage) GetBoardByID(ctx context.Context, id string) (*models.Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.boards[id]
	if !exists {
		return nil, errors.ErrBoardNotFound
	}
	board := cloneBoard(rec.value)
	return &board, nil
}

func (s *Storage) ListBoardsForUser(ctx context.Context, userID string) ([]models.Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]record[models.Board], 0)
	for _, rec := range s.boards {
		if rec.value.OwnerID == userID || rec.value.HasMember(userID) {
			rec.value = cloneBoard(rec.value)
			recs = append(recs, rec)
		}
	}
	return sorted(recs), nil
}

func (s *Storage) UpdateBoard(ctx context.Context, board *models.Board) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.boards[board.ID]
	if !exists {
		return errors.ErrBoardNotFound
	}
	members := dedupe(board.MemberIDs)
	if err := s.checkUsersLocked(members...); err != nil {
		return err
	}
	rec.value.Title = board.Title
	rec.value.MemberIDs = members
	s.boards[board.ID] = rec

	board.OwnerID = rec.value.OwnerID
	board.CreatedAt = rec.value.CreatedAt
	board.MemberIDs = cloneStrings(members)
	return nil
}

func (s *Storage) DeleteBoard(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.boards[id]; !exists {
		return errors.ErrBoardNotFound
	}
	s.deleteBoardLocked(id)
	return nil
}

func (s *Storage) deleteBoardLocked(id string) {
	delete(s.boards, id)
	for taskID, rec := range s.tasks {
		if rec.value.BoardID == id {
			s.deleteTaskLocked(taskID)
		}
	}
}

func (s *Storage) GetBoardCounts(ctx context.Context, boardID string) (models.BoardCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.boards[boardID]
	if !exists {
		return models.BoardCounts{}, errors.ErrBoardNotFound
	}
	tasks := make([]models.Task, 0)
	for _, t := range s.tasks {
		if t.value.BoardID == boardID {
			tasks = append(tasks, t.value)
		}
	}
	return models.CountTasks(&rec.value, tasks), nil
}

// Tasks

func (s *Storage) checkTaskRefsLocked(task *models.Task) error {
	for _, ref := range []*string{task.AssigneeID, task.ReviewerID} {
		if ref != nil {
			if err := s.checkUsersLocked(*ref); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Storage) CreateTask(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.boards[task.BoardID]; !exists {
		return errors.ErrBoardNotFound
	}
	if err := s.checkTaskRefsLocked(task); err != nil {
		return err
	}
	task.ID = uuid.New().String()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = s.now().UTC()
	}
	s.tasks[task.ID] = record[models.Task]{seq: s.nextSeq(), value: cloneTask(*task)}
	return nil
}

func (s *Storage) GetTaskByID(ctx context.Context, id string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.tasks[id]
	if !exists {
		return nil, errors.ErrTaskNotFound
	}
	task := cloneTask(rec.value)
	return &task, nil
}

func (s *Storage) filterTasks(keep func(*models.Task) bool) []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]record[models.Task], 0)
	for _, rec := range s.tasks {
		if keep(&rec.value) {
			rec.value = cloneTask(rec.value)
			recs = append(recs, rec)
		}
	}
	return sorted(recs)
}

func (s *Storage) ListTasksForUser(ctx context.Context, userID string) ([]models.Task, error) {
	return s.filterTasks(func(t *models.Task) bool {
		board, ok := s.boards[t.BoardID]
		return ok && (board.value.OwnerID == userID || board.value.HasMember(userID))
	}), nil
}

func (s *Storage) ListTasksByBoard(ctx context.Context, boardID string) ([]models.Task, error) {
	return s.filterTasks(func(t *models.Task) bool { return t.BoardID == boardID }), nil
}

func (s *Storage) ListTasksByAssignee(ctx context.Context, userID string) ([]models.Task, error) {
	return s.filterTasks(func(t *models.Task) bool { return matches(t.AssigneeID, userID) }), nil
}

func (s *Storage) ListTasksByReviewer(ctx context.Context, userID string) ([]models.Task, error) {
	return s.filterTasks(func(t *models.Task) bool { return matches(t.ReviewerID, userID) }), nil
}

func (s *Storage) UpdateTask(ctx context.Context, task *models.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.tasks[task.ID]
	if !exists {
		return errors.ErrTaskNotFound
	}
	if err := s.checkTaskRefsLocked(task); err != nil {
		return err
	}
	stored := cloneTask(*task)
	stored.BoardID = rec.value.BoardID
	stored.CreatorID = cloneStringPtr(rec.value.CreatorID)
	stored.CreatedAt = rec.value.CreatedAt
	rec.value = stored
	s.tasks[task.ID] = rec

	task.BoardID = stored.BoardID
	task.CreatorID = cloneStringPtr(stored.CreatorID)
	task.CreatedAt = stored.CreatedAt
	return nil
}

func (s *Storage) DeleteTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[id]; !exists {
		return errors.ErrTaskNotFound
	}
	s.deleteTaskLocked(id)
	return nil
}

func (s *Storage) deleteTaskLocked(id string) {
	delete(s.tasks, id)
	for commentID, rec := range s.comments {
		if rec.value.TaskID == id {
			delete(s.comments, commentID)
		}
	}
}

func (s *Storage) CountComments(ctx context.Context, taskID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, rec := range s.comments {
		if rec.value.TaskID == taskID {
			count++
		}
	}
	return count, nil
}

// Comments

func (s *Storage) CreateComment(ctx context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[comment.TaskID]; !exists {
		return errors.ErrTaskNotFound
	}
	comment.ID = uuid.New().String()
	comment.CreatedAt = s.now().UTC()
	s.comments[comment.ID] = record[models.Comment]{seq: s.nextSeq(), value: cloneComment(*comment)}
	return nil
}

func (s *Storage) GetCommentByID(ctx context.Context, id string) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.comments[id]
	if !exists {
		return nil, errors.ErrCommentNotFound
	}
	comment := cloneComment(rec.value)
	return &comment, nil
}

func (s *Storage) ListCommentsByTask(ctx context.Context, taskID string) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]record[models.Comment], 0)
	for _, rec := range s.comments {
		if rec.value.TaskID == taskID {
			rec.value = cloneComment(rec.value)
			recs = append(recs, rec)
		}
	}
	return sorted(recs), nil
}

func (s *Storage) DeleteComment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.comments[id]; !exists {
		return errors.ErrCommentNotFound
	}
	delete(s.comments, id)
	return nil
}
