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

type TournamentRepository struct {
	q      database.DBTX
	db     *sql.DB
	logger zerolog.Logger
}

func NewTournamentRepository(sqlDB *sql.DB, logger zerolog.Logger) *TournamentRepository {
	return &TournamentRepository{
		q:      sqlDB,
		db:     sqlDB,
		logger: logger,
	}
}

const tournamentColumns = `id, name, location, event_date, total_participants, tournament_type, created_at`

const (
	upsertTournamentHead = `INSERT INTO tournaments (` + tournamentColumns + `) VALUES`
	upsertTournamentTail = `
ON CONFLICT (id) DO UPDATE SET
    name = excluded.name,
    location = excluded.location,
    event_date = excluded.event_date,
    total_participants = excluded.total_participants,
    tournament_type = excluded.tournament_type`

	upsertResultHead = `INSERT INTO tournament_results (id, tournament_id, player_id, result_type, group_rank, created_at) VALUES`
	upsertResultTail = `
ON CONFLICT (id) DO UPDATE SET
    result_type = excluded.result_type,
    group_rank = excluded.group_rank`
)

func scanTournament(row scanner) (domain.Tournament, error) {
	var (
		t   domain.Tournament
		typ string
	)
	err := row.Scan(&t.ID, &t.Name, &t.Location, &t.EventDate, &t.TotalParticipants, &typ, &t.CreatedAt)
	t.Type = domain.TournamentType(typ)
	return t, err
}

// UpsertBatch writes the tournaments, joining the repository's
// transaction when there is one.
func (r *TournamentRepository) UpsertBatch(ctx context.Context, tournaments []domain.Tournament) error {
	if len(tournaments) == 0 {
		return nil
	}

	now := time.Now().UTC()
	for i := range tournaments {
		t := &tournaments[i]
		if !t.Type.Valid() {
			return fmt.Errorf("%w: type %q", domain.ErrInvalidTournament, t.Type)
		}
		if err := ensureID(&t.ID); err != nil {
			return err
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
	}

	rows := make([][]any, 0, len(tournaments))
	for _, t := range dedupeByID(tournaments, func(t domain.Tournament) string { return t.ID }) {
		rows = append(rows, []any{t.ID, t.Name, t.Location, t.EventDate.UTC(), t.TotalParticipants, string(t.Type), t.CreatedAt.UTC()})
	}

	return runInTx(ctx, r.db, r.q, func(q database.DBTX) error {
		if err := execBatch(ctx, q, upsertTournamentHead, upsertTournamentTail, rows); err != nil {
			return fmt.Errorf("failed to upsert tournaments: %w", err)
		}
		r.logger.Debug().Int("count", len(rows)).Msg("tournaments upserted")
		return nil
	})
}

func (r *TournamentRepository) UpsertResults(ctx context.Context, results []domain.TournamentResult) error {
	if len(results) == 0 {
		return nil
	}

	now := time.Now().UTC()
	for i := range results {
		res := &results[i]
		if !res.Result.Valid() {
			return fmt.Errorf("%w: result %q", domain.ErrInvalidTournament, res.Result)
		}
		if err := ensureID(&res.ID); err != nil {
			return err
		}
		if res.CreatedAt.IsZero() {
			res.CreatedAt = now
		}
	}

	rows := make([][]any, 0, len(results))
	for _, res := range dedupeByID(results, func(r domain.TournamentResult) string { return r.ID }) {
		var rank sql.NullInt64
		if res.GroupRank != nil {
			rank = sql.NullInt64{Int64: int64(*res.GroupRank), Valid: true}
		}
		rows = append(rows, []any{res.ID, res.TournamentID, res.PlayerID, string(res.Result), rank, res.CreatedAt.UTC()})
	}

	return runInTx(ctx, r.db, r.q, func(q database.DBTX) error {
		if err := execBatch(ctx, q, upsertResultHead, upsertResultTail, rows); err != nil {
			return fmt.Errorf("failed to upsert tournament results: %w", err)
		}
		r.logger.Debug().Int("count", len(rows)).Msg("tournament results upserted")
		return nil
	})
}

func (r *TournamentRepository) Get(ctx context.Context, id string) (*domain.Tournament, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+tournamentColumns+` FROM tournaments WHERE id = $1`, id)

	t, err := scanTournament(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrTournamentNotFound, id)
		}
		return nil, err
	}
	return &t, nil
}

// List returns every tournament, most recent event first.
func (r *TournamentRepository) List(ctx context.Context) ([]domain.Tournament, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+tournamentColumns+` FROM tournaments ORDER BY event_date DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := []domain.Tournament{}
	for rows.Next() {
		t, err := scanTournament(rows)
		if err != nil {
			return nil, err
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}

// HistoryByPlayer lists the player's tournament finishes, most recent
// event first.
func (r *TournamentRepository) HistoryByPlayer(ctx context.Context, playerID string) ([]domain.TournamentHistoryEntry, error) {
	rows, err := r.q.QueryContext(ctx, `
SELECT t.id, t.name, t.event_date, t.location, t.tournament_type, tr.result_type, tr.group_rank, t.total_participants
FROM tournament_results tr
JOIN tournaments t ON t.id = tr.tournament_id
WHERE tr.player_id = $1
ORDER BY t.event_date DESC, t.id`, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := []domain.TournamentHistoryEntry{}
	for rows.Next() {
		var (
			e        domain.TournamentHistoryEntry
			typ, res string
			rank     sql.NullInt64
		)
		if err := rows.Scan(&e.TournamentID, &e.TournamentName, &e.TournamentDate, &e.Location, &typ, &res, &rank, &e.Participants); err != nil {
			return nil, err
		}
		e.Type = domain.TournamentType(typ)
		e.Result = domain.ResultType(res)
		if rank.Valid {
			v := int(rank.Int64)
			e.GroupRank = &v
		}
		history = append(history, e)
	}
	return history, rows.Err()
}

func (r *TournamentRepository) WithTx(tx *sql.Tx) *TournamentRepository {
	return &TournamentRepository{q: tx, db: r.db, logger: r.logger}
}
