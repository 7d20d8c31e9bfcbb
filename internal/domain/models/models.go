package models

import (
	"strings"
	"time"
)

const (
	StatusToDo   = "to-do"
	PriorityHigh = "high"
)

type User struct {
	ID           string
	Email        string
	Fullname     string
	PasswordHash string
	CreatedAt    time.Time
}

// Board is owned by exactly one user. The owner is not part of MemberIDs.
type Board struct {
	ID        string
	Title     string
	OwnerID   string
	MemberIDs []string
	CreatedAt time.Time
}

// HasMember reports whether userID is in the member set.
func (b *Board) HasMember(userID string) bool {
	for _, id := range b.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// BoardCounts are derived from the board's current tasks and members.
type BoardCounts struct {
	MemberCount        int
	TicketCount        int
	TasksToDoCount     int
	TasksHighPrioCount int
}

type Task struct {
	ID          string
	BoardID     string
	Title       string
	Description string
	Status      string
	Priority    string
	AssigneeID  *string
	ReviewerID  *string
	DueDate     Date
	CreatorID   *string
	CreatedAt   time.Time
}

// IsToDo matches the conventional "to-do" status case-insensitively.
func (t *Task) IsToDo() bool {
	return strings.EqualFold(t.Status, StatusToDo)
}

// IsHighPriority matches the conventional "high" priority case-insensitively.
func (t *Task) IsHighPriority() bool {
	return strings.EqualFold(t.Priority, PriorityHigh)
}

type Comment struct {
	ID        string
	TaskID    string
	AuthorID  *string
	Content   string
	CreatedAt time.Time
}

// CountTasks computes the board counters from a task slice.
func CountTasks(board *Board, tasks []Task) BoardCounts {
	counts := BoardCounts{
		MemberCount: len(board.MemberIDs),
		TicketCount: len(tasks),
	}
	for i := range tasks {
		if tasks[i].IsToDo() {
			counts.TasksToDoCount++
		}
		if tasks[i].IsHighPriority() {
			counts.TasksHighPrioCount++
		}
	}
	return counts
}
