package db

import (
	"context"

	"kanmind/internal/domain/errors"
	"kanmind/internal/domain/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const boardSelect = `
SELECT b.id::text, b.title, b.owner_id::text, b.created_at,
       COALESCE(array_agg(m.user_id::text ORDER BY m.added_at, m.user_id) FILTER (WHERE m.user_id IS NOT NULL), '{}')
FROM boards b
LEFT JOIN board_members m ON m.board_id = b.id`

func scanBoard(row pgx.Row) (*models.Board, error) {
	board := &models.Board{}
	if err := row.Scan(&board.ID, &board.Title, &board.OwnerID, &board.CreatedAt, &board.MemberIDs); err != nil {
		return nil, err
	}
	return board, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func replaceMembers(ctx context.Context, tx pgx.Tx, boardID string, members []string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM board_members WHERE board_id = $1`, boardID); err != nil {
		return err
	}
	if len(members) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx,
		`INSERT INTO board_members (board_id, user_id) SELECT $1, u::uuid FROM unnest($2::text[]) WITH ORDINALITY AS t(u, n) ORDER BY n`,
		boardID, members)
	if foreignKeyConstraint(err) != "" {
		return errors.ErrUserNotFound
	}
	return err
}

func (s *Storage) CreateBoard(ctx context.Context, board *models.Board) error {
	board.MemberIDs = dedupe(board.MemberIDs)
	if !validID(board.OwnerID) || !validIDs(board.MemberIDs) {
		return errors.ErrUserNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	board.ID = uuid.New().String()
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO boards (id, title, owner_id) VALUES ($1, $2, $3) RETURNING created_at`,
			board.ID, board.Title, board.OwnerID,
		).Scan(&board.CreatedAt)
		if foreignKeyConstraint(err) != "" {
			return errors.ErrUserNotFound
		}
		if err != nil {
			return err
		}
		return replaceMembers(ctx, tx, board.ID, board.MemberIDs)
	})
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			s.logger.Error("create board failed", "owner_id", board.OwnerID, "error", err)
		}
		return err
	}
	return nil
}

func (s *Storage) GetBoardByID(ctx context.Context, id string) (*models.Board, error) {
	if !validID(id) {
		return nil, errors.ErrBoardNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	board, err := scanBoard(s.pool.QueryRow(ctx, boardSelect+` WHERE b.id = $1 GROUP BY b.id`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, errors.ErrBoardNotFound
		}
		s.logger.Error("get board failed", "board_id", id, "error", err)
		return nil, err
	}
	return board, nil
}

func (s *Storage) ListBoardsForUser(ctx context.Context, userID string) ([]models.Board, error) {
	if !validID(userID) {
		return []models.Board{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, boardSelect+`
WHERE b.owner_id = $1 OR EXISTS (SELECT 1 FROM board_members bm WHERE bm.board_id = b.id AND bm.user_id = $1)
GROUP BY b.id
ORDER BY b.created_at, b.id`, userID)
	if err != nil {
		s.logger.Error("list boards failed", "user_id", userID, "error", err)
		return nil, err
	}
	defer rows.Close()

	boards := []models.Board{}
	for rows.Next() {
		board, err := scanBoard(rows)
		if err != nil {
			return nil, err
		}
		boards = append(boards, *board)
	}
	return boards, rows.Err()
}

func (s *Storage) UpdateBoard(ctx context.Context, board *models.Board) error {
	if !validID(board.ID) {
		return errors.ErrBoardNotFound
	}
	members := dedupe(board.MemberIDs)
	if !validIDs(members) {
		return errors.ErrUserNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`UPDATE boards SET title = $1 WHERE id = $2 RETURNING owner_id::text, created_at`,
			board.Title, board.ID,
		).Scan(&board.OwnerID, &board.CreatedAt)
		if isNoRows(err) {
			return errors.ErrBoardNotFound
		}
		if err != nil {
			return err
		}
		return replaceMembers(ctx, tx, board.ID, members)
	})
	if err != nil {
		if !errors.Is(err, errors.ErrNotFound) {
			s.logger.Error("update board failed", "board_id", board.ID, "error", err)
		}
		return err
	}
	board.MemberIDs = members
	return nil
}

func (s *Storage) DeleteBoard(ctx context.Context, id string) error {
	if !validID(id) {
		return errors.ErrBoardNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	ct, err := s.pool.Exec(ctx, `DELETE FROM boards WHERE id = $1`, id)
	if err != nil {
		s.logger.Error("delete board failed", "board_id", id, "error", err)
		return err
	}
	if ct.RowsAffected() == 0 {
		return errors.ErrBoardNotFound
	}
	return nil
}

func (s *Storage) GetBoardCounts(ctx context.Context, boardID string) (models.BoardCounts, error) {
	var counts models.BoardCounts
	if !validID(boardID) {
		return counts, errors.ErrBoardNotFound
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	err := s.pool.QueryRow(ctx, `
SELECT (SELECT count(*) FROM board_members m WHERE m.board_id = b.id),
       count(t.id),
       count(t.id) FILTER (WHERE lower(t.status) = $2),
       count(t.id) FILTER (WHERE lower(t.priority) = $3)
FROM boards b
LEFT JOIN tasks t ON t.board_id = b.id
WHERE b.id = $1
GROUP BY b.id`, boardID, models.StatusToDo, models.PriorityHigh,
	).Scan(&counts.MemberCount, &counts.TicketCount, &counts.TasksToDoCount, &counts.TasksHighPrioCount)
	if err != nil {
		if isNoRows(err) {
			return counts, errors.ErrBoardNotFound
		}
		s.logger.Error("board counts failed", "board_id", boardID, "error", err)
		return counts, err
	}
	return counts, nil
}
