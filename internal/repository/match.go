package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"takurating/internal/database"
	"takurating/internal/domain"
	"time"

	"github.com/rs/zerolog"
)

type MatchRepository struct {
	q      database.DBTX
	db     *sql.DB
	logger zerolog.Logger
}

func NewMatchRepository(sqlDB *sql.DB, logger zerolog.Logger) *MatchRepository {
	return &MatchRepository{
		q:      sqlDB,
		db:     sqlDB,
		logger: logger,
	}
}

const matchColumns = `id, winner_id, loser_id, score, played_at, winner_rating_before, loser_rating_before, delta_winner, delta_loser, created_at, event_id`

func scanMatch(row scanner) (domain.Match, error) {
	var (
		m       domain.Match
		score   string
		eventID sql.NullString
	)
	err := row.Scan(
		&m.ID,
		&m.WinnerID,
		&m.LoserID,
		&score,
		&m.PlayedAt,
		&m.WinnerRatingBefore,
		&m.LoserRatingBefore,
		&m.DeltaWinner,
		&m.DeltaLoser,
		&m.CreatedAt,
		&eventID,
	)
	if err != nil {
		return m, err
	}
	m.EventID = eventID.String

	m.Score, err = domain.ParseScore(score)
	if err != nil {
		return m, fmt.Errorf("match %s: %w", m.ID, err)
	}
	return m, nil
}

const (
	insertMatchHead = `INSERT INTO matches (` + matchColumns + `) VALUES`
	insertMatchTail = `
ON CONFLICT (id) DO NOTHING`
)

func prepareMatch(match *domain.Match) error {
	if match.WinnerID == match.LoserID {
		return domain.ErrSamePlayer
	}
	if err := ensureID(&match.ID); err != nil {
		return err
	}
	if match.CreatedAt.IsZero() {
		match.CreatedAt = time.Now().UTC()
	}
	return nil
}

func matchArgs(m domain.Match) []any {
	return []any{
		m.ID,
		m.WinnerID,
		m.LoserID,
		m.Score.String(),
		m.PlayedAt.UTC(),
		m.WinnerRatingBefore,
		m.LoserRatingBefore,
		m.DeltaWinner,
		m.DeltaLoser,
		m.CreatedAt.UTC(),
		nullString(m.EventID),
	}
}

// Insert appends a match. Matches are immutable: inserting an id that
// already exists is a no-op.
func (r *MatchRepository) Insert(ctx context.Context, match *domain.Match) error {
	if err := prepareMatch(match); err != nil {
		return err
	}
	if err := execBatch(ctx, r.q, insertMatchHead, insertMatchTail, [][]any{matchArgs(*match)}); err != nil {
		return fmt.Errorf("failed to insert match %s: %w", match.ID, err)
	}
	return nil
}

// InsertBatch appends the matches DBBatchSize rows per statement, joining
// the repository's transaction when there is one. Existing ids are left
// untouched.
func (r *MatchRepository) InsertBatch(ctx context.Context, matches []domain.Match) error {
	if len(matches) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(matches))
	for i := range matches {
		if err := prepareMatch(&matches[i]); err != nil {
			return fmt.Errorf("match %s: %w", matches[i].ID, err)
		}
		rows = append(rows, matchArgs(matches[i]))
	}

	return runInTx(ctx, r.db, r.q, func(q database.DBTX) error {
		if err := execBatch(ctx, q, insertMatchHead, insertMatchTail, rows); err != nil {
			return fmt.Errorf("failed to insert matches: %w", err)
		}
		r.logger.Debug().Int("count", len(rows)).Msg("matches inserted")
		return nil
	})
}

func (r *MatchRepository) Get(ctx context.Context, id string) (*domain.Match, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = $1`, id)

	m, err := scanMatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrMatchNotFound, id)
		}
		return nil, err
	}
	return &m, nil
}

// All returns the whole match log, most recent first.
func (r *MatchRepository) All(ctx context.Context) ([]domain.Match, error) {
	return r.list(ctx, `SELECT `+matchColumns+` FROM matches ORDER BY played_at DESC, id`)
}

// ByPlayer pages through the matches a player took part in, most recent
// first.
func (r *MatchRepository) ByPlayer(ctx context.Context, playerID string, limit, offset int) ([]domain.Match, error) {
	return r.list(ctx, `SELECT `+matchColumns+` FROM matches
WHERE winner_id = $1 OR loser_id = $1
ORDER BY played_at DESC, id
LIMIT $2 OFFSET $3`, playerID, limit, offset)
}

// AllForPlayer returns every match the player took part in, most recent
// first.
func (r *MatchRepository) AllForPlayer(ctx context.Context, playerID string) ([]domain.Match, error) {
	return r.list(ctx, `SELECT `+matchColumns+` FROM matches
WHERE winner_id = $1 OR loser_id = $1
ORDER BY played_at DESC, id`, playerID)
}

func (r *MatchRepository) list(ctx context.Context, query string, args ...any) ([]domain.Match, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := []domain.Match{}
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *MatchRepository) WithTx(tx *sql.Tx) *MatchRepository {
	return &MatchRepository{q: tx, db: r.db, logger: r.logger}
}
