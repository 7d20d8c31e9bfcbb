package server

import (
	"bytes"
	"encoding/json"

	"kanmind/internal/domain/models"
)

// optional remembers whether a key was present in the payload, so that an
// explicit null can be told apart from an omitted field.
type optional[T any] struct {
	Set   bool
	Value *T
}

func (o *optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Fullname         string `json:"fullname" validate:"required,max=150"`
	Email            string `json:"email" validate:"required,email,max=254"`
	Password         string `json:"password" validate:"required"`
	RepeatedPassword string `json:"repeated_password" validate:"required"`
}

type createBoardRequest struct {
	Title   string   `json:"title" validate:"required,max=100"`
	Members []string `json:"members"`
}

type updateBoardRequest struct {
	Title   *string   `json:"title" validate:"omitempty,max=100"`
	Members *[]string `json:"members"`
}

type createTaskRequest struct {
	Board       string                `json:"board" validate:"required"`
	Title       string                `json:"title" validate:"required,max=100"`
	Description string                `json:"description" validate:"max=500"`
	Status      string                `json:"status" validate:"required,max=100"`
	Priority    string                `json:"priority" validate:"required,max=100"`
	AssigneeID  optional[string]      `json:"assignee_id"`
	ReviewerID  optional[string]      `json:"reviewer_id"`
	DueDate     optional[models.Date] `json:"due_date"`
}

type updateTaskRequest struct {
	Title       *string               `json:"title" validate:"omitempty,max=100"`
	Description *string               `json:"description" validate:"omitempty,max=500"`
	Status      *string               `json:"status" validate:"omitempty,max=100"`
	Priority    *string               `json:"priority" validate:"omitempty,max=100"`
	AssigneeID  optional[string]      `json:"assignee_id"`
	ReviewerID  optional[string]      `json:"reviewer_id"`
	DueDate     optional[models.Date] `json:"due_date"`
}

type createCommentRequest struct {
	Content string `json:"content"`
}
