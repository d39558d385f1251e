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

type PlayerRepository struct {
	q      database.DBTX
	db     *sql.DB
	logger zerolog.Logger
}

func NewPlayerRepository(sqlDB *sql.DB, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{
		q:      sqlDB,
		db:     sqlDB,
		logger: logger,
	}
}

const playerColumns = `p.id, p.name, p.school_id, p.uni_division, p.club_division, p.rating, p.created_at, p.updated_at`

const statsSelect = `
SELECT ` + playerColumns + `, s.name, s.code
FROM players p
JOIN schools s ON s.id = p.school_id`

type scanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row scanner, extra ...any) (domain.Player, error) {
	var p domain.Player
	dest := append([]any{
		&p.ID, &p.Name, &p.SchoolID, &p.UniDivision, &p.ClubDivision, &p.Rating, &p.CreatedAt, &p.UpdatedAt,
	}, extra...)
	err := row.Scan(dest...)
	return p, err
}

func scanStats(row scanner) (domain.PlayerStats, error) {
	var s domain.PlayerStats
	p, err := scanPlayer(row, &s.SchoolName, &s.SchoolCode)
	s.Player = p
	return s, err
}

func (r *PlayerRepository) Get(ctx context.Context, id string) (*domain.Player, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players p WHERE p.id = $1`, id)

	p, err := scanPlayer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrPlayerNotFound, id)
		}
		r.logger.Error().Err(err).Str("player_id", id).Msg("failed to get player")
		return nil, err
	}
	return &p, nil
}

// GetStats returns the player joined with its school. Match aggregates
// are left zero for the caller to fill.
func (r *PlayerRepository) GetStats(ctx context.Context, id string) (*domain.PlayerStats, error) {
	row := r.q.QueryRowContext(ctx, statsSelect+` WHERE p.id = $1`, id)

	s, err := scanStats(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrPlayerNotFound, id)
		}
		return nil, err
	}
	return &s, nil
}

// ListByRating pages through players ordered by rating, highest first.
func (r *PlayerRepository) ListByRating(ctx context.Context, limit, offset int) ([]domain.PlayerStats, error) {
	return r.listStats(ctx, statsSelect+` ORDER BY p.rating DESC, p.name LIMIT $1 OFFSET $2`, limit, offset)
}

func (r *PlayerRepository) Search(ctx context.Context, query string, limit int) ([]domain.PlayerStats, error) {
	searchPattern := "%" + query + "%"
	return r.listStats(ctx, statsSelect+` WHERE LOWER(p.name) LIKE LOWER($1) ORDER BY p.rating DESC LIMIT $2`, searchPattern, limit)
}

func (r *PlayerRepository) listStats(ctx context.Context, query string, args ...any) ([]domain.PlayerStats, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.PlayerStats{}
	for rows.Next() {
		s, err := scanStats(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// All returns the full roster.
func (r *PlayerRepository) All(ctx context.Context) ([]domain.Player, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+playerColumns+` FROM players p ORDER BY p.rating DESC, p.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := []domain.Player{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

const (
	upsertPlayerHead = `INSERT INTO players (id, name, school_id, uni_division, club_division, rating, created_at, updated_at) VALUES`
	upsertPlayerTail = `
ON CONFLICT (id) DO UPDATE SET
    name = excluded.name,
    school_id = excluded.school_id,
    uni_division = excluded.uni_division,
    club_division = excluded.club_division,
    rating = excluded.rating,
    updated_at = excluded.updated_at`
)

func preparePlayer(player *domain.Player, now time.Time) error {
	if err := ensureID(&player.ID); err != nil {
		return err
	}
	if player.CreatedAt.IsZero() {
		player.CreatedAt = now
	}
	if player.UpdatedAt.IsZero() {
		player.UpdatedAt = now
	}
	return nil
}

func playerArgs(p domain.Player) []any {
	return []any{
		p.ID,
		p.Name,
		p.SchoolID,
		p.UniDivision,
		p.ClubDivision,
		p.Rating,
		p.CreatedAt.UTC(),
		p.UpdatedAt.UTC(),
	}
}

func (r *PlayerRepository) Upsert(ctx context.Context, player *domain.Player) error {
	if err := preparePlayer(player, time.Now().UTC()); err != nil {
		return err
	}
	if err := execBatch(ctx, r.q, upsertPlayerHead, upsertPlayerTail, [][]any{playerArgs(*player)}); err != nil {
		return fmt.Errorf("failed to upsert player %s: %w", player.ID, err)
	}
	return nil
}

// UpsertBatch writes the players DBBatchSize rows per statement. It joins
// the repository's transaction when there is one.
func (r *PlayerRepository) UpsertBatch(ctx context.Context, players []domain.Player) error {
	if len(players) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range players {
		if err := preparePlayer(&players[i], now); err != nil {
			return err
		}
	}

	rows := make([][]any, 0, len(players))
	for _, p := range dedupeByID(players, func(p domain.Player) string { return p.ID }) {
		rows = append(rows, playerArgs(p))
	}

	return runInTx(ctx, r.db, r.q, func(q database.DBTX) error {
		if err := execBatch(ctx, q, upsertPlayerHead, upsertPlayerTail, rows); err != nil {
			r.logger.Error().Err(err).Int("count", len(rows)).Msg("failed to upsert players")
			return fmt.Errorf("failed to upsert players: %w", err)
		}
		r.logger.Debug().Int("count", len(rows)).Msg("players upserted")
		return nil
	})
}

func (r *PlayerRepository) UpdateRating(ctx context.Context, id string, rating int) error {
	res, err := r.q.ExecContext(ctx, `UPDATE players SET rating = $1, updated_at = $2 WHERE id = $3`, rating, time.Now().UTC(), id)
	if err != nil {
		r.logger.Error().Err(err).Str("player_id", id).Msg("failed to update rating")
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrPlayerNotFound, id)
	}

	r.logger.Debug().Str("player_id", id).Int("rating", rating).Msg("rating updated")
	return nil
}

func (r *PlayerRepository) WithTx(tx *sql.Tx) *PlayerRepository {
	return &PlayerRepository{q: tx, db: r.db, logger: r.logger}
}
