package server

import (
	"time"

	"kanmind/internal/domain/models"
	"kanmind/internal/kanban"
)

type userSummary struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Fullname string `json:"fullname"`
}

func toUserSummary(u *models.User) *userSummary {
	if u == nil {
		return nil
	}
	return &userSummary{ID: u.ID, Email: u.Email, Fullname: u.Fullname}
}

func toUserSummaries(users []models.User) []userSummary {
	out := make([]userSummary, 0, len(users))
	for i := range users {
		out = append(out, *toUserSummary(&users[i]))
	}
	return out
}

type authResponse struct {
	Token    string `json:"token"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	UserID   string `json:"user_id"`
}

type boardResponse struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	MemberCount        int    `json:"member_count"`
	TicketCount        int    `json:"ticket_count"`
	TasksToDoCount     int    `json:"tasks_to_do_count"`
	TasksHighPrioCount int    `json:"tasks_high_prio_count"`
	OwnerID            string `json:"owner_id"`
}

type boardDetailResponse struct {
	boardResponse
	Members []userSummary  `json:"members"`
	Tasks   []taskResponse `json:"tasks"`
}

type boardUpdateResponse struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	OwnerData   *userSummary  `json:"owner_data"`
	MembersData []userSummary `json:"members_data"`
}

func toBoardResponse(v *kanban.BoardView) boardResponse {
	return boardResponse{
		ID:                 v.Board.ID,
		Title:              v.Board.Title,
		MemberCount:        v.Counts.MemberCount,
		TicketCount:        v.Counts.TicketCount,
		TasksToDoCount:     v.Counts.TasksToDoCount,
		TasksHighPrioCount: v.Counts.TasksHighPrioCount,
		OwnerID:            v.Board.OwnerID,
	}
}

func toBoardDetailResponse(v *kanban.BoardView) boardDetailResponse {
	return boardDetailResponse{
		boardResponse: toBoardResponse(v),
		Members:       toUserSummaries(v.Members),
		Tasks:         toTaskResponses(v.Tasks),
	}
}

func toBoardUpdateResponse(v *kanban.BoardView) boardUpdateResponse {
	return boardUpdateResponse{
		ID:          v.Board.ID,
		Title:       v.Board.Title,
		OwnerData:   toUserSummary(v.Owner),
		MembersData: toUserSummaries(v.Members),
	}
}

// taskFields is the part of a task shared by every task shape.
type taskFields struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      string       `json:"status"`
	Priority    string       `json:"priority"`
	Assignee    *userSummary `json:"assignee"`
	Reviewer    *userSummary `json:"reviewer"`
	DueDate     models.Date  `json:"due_date"`
}

type taskResponse struct {
	taskFields
	Board         string `json:"board"`
	CommentsCount int    `json:"comments_count"`
}

func toTaskFields(v *kanban.TaskView) taskFields {
	return taskFields{
		ID:          v.Task.ID,
		Title:       v.Task.Title,
		Description: v.Task.Description,
		Status:      v.Task.Status,
		Priority:    v.Task.Priority,
		Assignee:    toUserSummary(v.Assignee),
		Reviewer:    toUserSummary(v.Reviewer),
		DueDate:     v.Task.DueDate,
	}
}

func toTaskResponse(v *kanban.TaskView) taskResponse {
	return taskResponse{
		taskFields:    toTaskFields(v),
		Board:         v.Task.BoardID,
		CommentsCount: v.CommentsCount,
	}
}

func toTaskResponses(views []kanban.TaskView) []taskResponse {
	out := make([]taskResponse, 0, len(views))
	for i := range views {
		out = append(out, toTaskResponse(&views[i]))
	}
	return out
}

type commentResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Author    *string   `json:"author"`
	Content   string    `json:"content"`
}

func toCommentResponse(v *kanban.CommentView) commentResponse {
	return commentResponse{
		ID:        v.Comment.ID,
		CreatedAt: v.Comment.CreatedAt,
		Author:    v.AuthorName,
		Content:   v.Comment.Content,
	}
}

func toCommentResponses(views []kanban.CommentView) []commentResponse {
	out := make([]commentResponse, 0, len(views))
	for i := range views {
		out = append(out, toCommentResponse(&views[i]))
	}
	return out
}
