package repository

import (
	"context"
	"database/sql"
	"fmt"
	"takurating/internal/database"
	"takurating/internal/domain"
	"time"

	"github.com/rs/zerolog"
)

type RatingHistoryRepository struct {
	q      database.DBTX
	db     *sql.DB
	logger zerolog.Logger
}

func NewRatingHistoryRepository(sqlDB *sql.DB, logger zerolog.Logger) *RatingHistoryRepository {
	return &RatingHistoryRepository{
		q:      sqlDB,
		db:     sqlDB,
		logger: logger,
	}
}

const (
	insertRatingHistoryHead = `INSERT INTO rating_history (id, match_id, player_id, opponent_id, is_winner, rating_before, rating_after, delta, created_at) VALUES`
	insertRatingHistoryTail = `
ON CONFLICT (id) DO NOTHING`
)

// Append writes the records DBBatchSize rows per statement, joining the
// repository's transaction when there is one.
func (r *RatingHistoryRepository) Append(ctx context.Context, records []domain.RatingHistory) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(records))
	for i := range records {
		record := &records[i]
		if err := ensureID(&record.ID); err != nil {
			return err
		}
		if record.CreatedAt.IsZero() {
			record.CreatedAt = time.Now().UTC()
		}
		rows = append(rows, []any{
			record.ID,
			record.MatchID,
			record.PlayerID,
			record.OpponentID,
			record.IsWinner,
			record.RatingBefore,
			record.RatingAfter,
			record.Delta,
			record.CreatedAt.UTC(),
		})
	}

	return runInTx(ctx, r.db, r.q, func(q database.DBTX) error {
		if err := execBatch(ctx, q, insertRatingHistoryHead, insertRatingHistoryTail, rows); err != nil {
			return fmt.Errorf("failed to insert rating history: %w", err)
		}
		return nil
	})
}

// ByPlayer returns up to limit of the player's most recent rating
// changes, oldest first so they can be charted directly.
func (r *RatingHistoryRepository) ByPlayer(ctx context.Context, playerID string, limit int) ([]domain.RatingHistory, error) {
	rows, err := r.q.QueryContext(ctx, `
SELECT id, match_id, player_id, opponent_id, is_winner, rating_before, rating_after, delta, created_at
FROM rating_history
WHERE player_id = $1
ORDER BY created_at DESC, id
LIMIT $2`, playerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.RatingHistory{}
	for rows.Next() {
		var h domain.RatingHistory
		if err := rows.Scan(&h.ID, &h.MatchID, &h.PlayerID, &h.OpponentID, &h.IsWinner, &h.RatingBefore, &h.RatingAfter, &h.Delta, &h.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	return result, nil
}

func (r *RatingHistoryRepository) WithTx(tx *sql.Tx) *RatingHistoryRepository {
	return &RatingHistoryRepository{q: tx, db: r.db, logger: r.logger}
}
