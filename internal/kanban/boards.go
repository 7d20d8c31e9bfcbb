package kanban

import (
	"context"
	"fmt"
	"strings"

	"kanmind/internal/access"
	"kanmind/internal/domain/errors"
	"kanmind/internal/domain/models"
)

type BoardInput struct {
	Title     string
	MemberIDs []string
}

// BoardPatch lists the mutable board fields. Nil means "leave unchanged";
// a non-nil MemberIDs replaces the whole member set.
type BoardPatch struct {
	Title     *string
	MemberIDs *[]string
}

func (s *Service) withCounts(ctx context.Context, board *models.Board) (*BoardView, error) {
	counts, err := s.repo.GetBoardCounts(ctx, board.ID)
	if err != nil {
		return nil, fmt.Errorf("count board %s: %w", board.ID, err)
	}
	return &BoardView{Board: *board, Counts: counts}, nil
}

// ListBoards returns every board the actor owns or is a member of.
func (s *Service) ListBoards(ctx context.Context, actor string) ([]BoardView, error) {
	if err := s.requireActor(actor); err != nil {
		return nil, err
	}
	boards, err := s.repo.ListBoardsForUser(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}

	views := make([]BoardView, 0, len(boards))
	for i := range boards {
		if !access.DecideBoard(actor, access.OpList, &boards[i]).Allowed() {
			continue
		}
		view, err := s.withCounts(ctx, &boards[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

func (s *Service) CreateBoard(ctx context.Context, actor string, in BoardInput) (*BoardView, error) {
	if err := s.requireActor(actor); err != nil {
		return nil, err
	}
	if err := s.authorize(access.DecideBoard(actor, access.OpCreate, nil), access.ResourceBoard, access.OpCreate, actor, ""); err != nil {
		return nil, err
	}

	board := &models.Board{
		Title:     strings.TrimSpace(in.Title),
		OwnerID:   actor,
		MemberIDs: normalizeMembers(actor, in.MemberIDs),
	}
	v := &errors.ValidationError{}
	checkTitle(v, board.Title)
	if err := s.checkMembers(ctx, v, board.MemberIDs); err != nil {
		return nil, err
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	if err := s.repo.CreateBoard(ctx, board); err != nil {
		if errors.Is(err, errors.ErrUserNotFound) {
			return nil, errors.NewValidationError("members", msgUnknownUser)
		}
		return nil, fmt.Errorf("create board: %w", err)
	}
	s.logger.Info("board created", "board_id", board.ID, "owner_id", actor, "members", len(board.MemberIDs))
	return s.withCounts(ctx, board)
}

// GetBoard returns the board with counts, member summaries and task views.
func (s *Service) GetBoard(ctx context.Context, actor, id string) (*BoardView, error) {
	if err := s.requireActor(actor); err != nil {
		return nil, err
	}
	board, err := s.loadBoard(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(access.DecideBoard(actor, access.OpRead, board), access.ResourceBoard, access.OpRead, actor, id); err != nil {
		return nil, err
	}

	view, err := s.withCounts(ctx, board)
	if err != nil {
		return nil, err
	}
	if view.Members, err = s.boardMembers(ctx, board); err != nil {
		return nil, err
	}
	tasks, err := s.repo.ListTasksByBoard(ctx, board.ID)
	if err != nil {
		return nil, fmt.Errorf("list tasks of board %s: %w", id, err)
	}
	if view.Tasks, err = s.taskViews(ctx, tasks); err != nil {
		return nil, err
	}
	return view, nil
}

// UpdateBoard applies the patch. The owner never changes.
func (s *Service) UpdateBoard(ctx context.Context, actor, id string, patch BoardPatch) (*BoardView, error) {
	if err := s.requireActor(actor); err != nil {
		return nil, err
	}
	board, err := s.loadBoard(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(access.DecideBoard(actor, access.OpUpdate, board), access.ResourceBoard, access.OpUpdate, actor, id); err != nil {
		return nil, err
	}

	v := &errors.ValidationError{}
	if patch.Title != nil {
		board.Title = strings.TrimSpace(*patch.Title)
		checkTitle(v, board.Title)
	}
	if patch.MemberIDs != nil {
		board.MemberIDs = normalizeMembers(board.OwnerID, *patch.MemberIDs)
		if err := s.checkMembers(ctx, v, board.MemberIDs); err != nil {
			return nil, err
		}
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateBoard(ctx, board); err != nil {
		if errors.Is(err, errors.ErrUserNotFound) {
			return nil, errors.NewValidationError("members", msgUnknownUser)
		}
		return nil, fmt.Errorf("update board %s: %w", id, err)
	}

	view, err := s.withCounts(ctx, board)
	if err != nil {
		return nil, err
	}
	index, err := s.userIndex(ctx, board.OwnerID)
	if err != nil {
		return nil, err
	}
	if owner, ok := index[board.OwnerID]; ok {
		view.Owner = &owner
	}
	if view.Members, err = s.boardMembers(ctx, board); err != nil {
		return nil, err
	}
	return view, nil
}

func (s *Service) DeleteBoard(ctx context.Context, actor, id string) error {
	if err := s.requireActor(actor); err != nil {
		return err
	}
	board, err := s.loadBoard(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(access.DecideBoard(actor, access.OpDelete, board), access.ResourceBoard, access.OpDelete, actor, id); err != nil {
		return err
	}
	if err := s.repo.DeleteBoard(ctx, id); err != nil {
		return fmt.Errorf("delete board %s: %w", id, err)
	}
	s.logger.Info("board deleted", "board_id", id, "actor", actor)
	return nil
}
