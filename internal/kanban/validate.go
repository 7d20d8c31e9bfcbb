package kanban

import (
	"context"
	"fmt"
	"strings"

	"kanmind/internal/access"
	"kanmind/internal/domain/errors"
	"kanmind/internal/domain/models"
)

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
	MaxStatusLength      = 100
	MaxPriorityLength    = 100
)

const (
	msgRequired      = "This field is required."
	msgBlank         = "This field may not be blank."
	msgNotAssignable = "User must be the board owner or a board member."
	msgUnknownUser   = "Invalid pk - object does not exist."
)

func checkLength(v *errors.ValidationError, field, value string, limit int) {
	if len([]rune(value)) > limit {
		v.Add(field, fmt.Sprintf("Ensure this field has no more than %d characters.", limit))
	}
}

func checkTitle(v *errors.ValidationError, title string) {
	if strings.TrimSpace(title) == "" {
		v.Add("title", msgBlank)
		return
	}
	checkLength(v, "title", title, MaxTitleLength)
}

func checkTaskFields(v *errors.ValidationError, task *models.Task) {
	checkTitle(v, task.Title)
	checkLength(v, "description", task.Description, MaxDescriptionLength)
	checkLength(v, "status", task.Status, MaxStatusLength)
	checkLength(v, "priority", task.Priority, MaxPriorityLength)
}

// checkAssignable verifies that the assignee and reviewer exist and belong
// to the board at the time of the request.
func (s *Service) checkAssignable(ctx context.Context, v *errors.ValidationError, board *models.Board, task *models.Task) error {
	refs := []struct {
		field string
		id    *string
	}{
		{field: "assignee_id", id: task.AssigneeID},
		{field: "reviewer_id", id: task.ReviewerID},
	}
	for _, ref := range refs {
		if ref.id == nil {
			continue
		}
		if _, err := s.repo.GetUserByID(ctx, *ref.id); err != nil {
			if errors.Is(err, errors.ErrNotFound) {
				v.Add(ref.field, msgUnknownUser)
				continue
			}
			return err
		}
		if !access.CanBeAssigned(board, *ref.id) {
			v.Add(ref.field, msgNotAssignable)
		}
	}
	return nil
}

// checkMembers verifies every member ID names an existing user.
func (s *Service) checkMembers(ctx context.Context, v *errors.ValidationError, ids []string) error {
	index, err := s.userIndex(ctx, ids...)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := index[id]; !ok {
			v.Add("members", msgUnknownUser)
			return nil
		}
	}
	return nil
}

// normalizeMembers drops duplicates and the owner, who holds access by
// ownership and is never part of the member set.
func normalizeMembers(ownerID string, ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == ownerID {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
