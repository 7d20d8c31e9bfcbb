// Package access holds the board membership rules and the per-resource
// authorization decisions layered on top of them.
package access

import "kanmind/internal/domain/models"

// IsOwner reports whether userID owns the board.
func IsOwner(board *models.Board, userID string) bool {
	return board != nil && userID != "" && board.OwnerID == userID
}

// IsMember reports whether userID is in the board's member set.
func IsMember(board *models.Board, userID string) bool {
	return board != nil && userID != "" && board.HasMember(userID)
}

// HasAccess is IsOwner OR IsMember.
func HasAccess(board *models.Board, userID string) bool {
	return IsOwner(board, userID) || IsMember(board, userID)
}

// CanBeAssigned reports whether userID may be set as a task's assignee or
// reviewer on board. It is evaluated at request time only.
func CanBeAssigned(board *models.Board, userID string) bool {
	return HasAccess(board, userID)
}
