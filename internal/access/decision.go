package access

import (
	"kanmind/internal/domain/models"
)

// Decision is the result of an authorization check.
type Decision int

const (
	// NotApplicable means no rule covers the operation for the resource kind.
	NotApplicable Decision = iota
	Allow
	Deny
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	default:
		return "not_applicable"
	}
}

// Allowed is true only for Allow.
func (d Decision) Allowed() bool { return d == Allow }

type Operation string

const (
	OpList   Operation = "list"
	OpCreate Operation = "create"
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

type Resource string

const (
	ResourceBoard   Resource = "board"
	ResourceTask    Resource = "task"
	ResourceComment Resource = "comment"
)

func boolDecision(ok bool) Decision {
	if ok {
		return Allow
	}
	return Deny
}

// DecideBoard evaluates a board operation. For OpList, board is the
// candidate row being filtered; a nil board means "the collection itself",
// which is always allowed because list results are narrowed, never refused.
func DecideBoard(actor string, op Operation, board *models.Board) Decision {
	if actor == "" {
		return Deny
	}
	switch op {
	case OpCreate:
		return Allow
	case OpList:
		if board == nil {
			return Allow
		}
		return boolDecision(HasAccess(board, actor))
	case OpRead, OpUpdate:
		return boolDecision(HasAccess(board, actor))
	case OpDelete:
		return boolDecision(IsOwner(board, actor))
	}
	return NotApplicable
}

// DecideTask evaluates a task operation. board is the task's board (for
// OpCreate, the board named in the payload). task may be nil except for OpDelete.
func DecideTask(actor string, op Operation, board *models.Board, task *models.Task) Decision {
	if actor == "" {
		return Deny
	}
	switch op {
	case OpList:
		if board == nil {
			return Allow
		}
		return boolDecision(HasAccess(board, actor))
	case OpCreate, OpRead, OpUpdate:
		return boolDecision(HasAccess(board, actor))
	case OpDelete:
		if IsOwner(board, actor) {
			return Allow
		}
		return boolDecision(task != nil && task.CreatorID != nil && *task.CreatorID == actor)
	}
	return NotApplicable
}

// DecideComment evaluates a comment operation. board is the board of the
// comment's task. Comments cannot be updated.
func DecideComment(actor string, op Operation, board *models.Board, comment *models.Comment) Decision {
	if actor == "" {
		return Deny
	}
	switch op {
	case OpList, OpCreate, OpRead:
		return boolDecision(HasAccess(board, actor))
	case OpDelete:
		return boolDecision(comment != nil && comment.AuthorID != nil && *comment.AuthorID == actor)
	}
	return NotApplicable
}

// Decide dispatches on resource kind. target is *models.Board, *models.Task
// or *models.Comment according to resource; board is always the owning board.
func Decide(resource Resource, actor string, op Operation, board *models.Board, target any) Decision {
	switch resource {
	case ResourceBoard:
		return DecideBoard(actor, op, board)
	case ResourceTask:
		task, _ := target.(*models.Task)
		return DecideTask(actor, op, board, task)
	case ResourceComment:
		comment, _ := target.(*models.Comment)
		return DecideComment(actor, op, board, comment)
	}
	return NotApplicable
}
