package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/abdurrahman998/tournament/internal/apperrors"
	"github.com/abdurrahman998/tournament/internal/models"
	"github.com/abdurrahman998/tournament/internal/repository"
)

type TournamentRepo struct {
	DB DBTX
}

const tournamentColumns = `t.id, t.created_at, t.title, t.game_name, t.game_cover_image, t.description, t.rules,
t.start_time, t.total_slots, t.entry_fee, t.prize_pool, t.room_id, t.room_password, t.status, t.featured`

const createTournament = `-- name: CreateTournament
INSERT INTO tournaments (id, created_at, title, game_name, game_cover_image, description, rules,
                         start_time, total_slots, entry_fee, prize_pool, room_id, room_password, status, featured)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
RETURNING id, created_at, title, game_name, game_cover_image, description, rules,
          start_time, total_slots, entry_fee, prize_pool, room_id, room_password, status, featured, 0
`

func (r *TournamentRepo) CreateTournament(ctx context.Context, t models.Tournament) (models.Tournament, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	if t.Status == "" {
		t.Status = models.TournamentStatusUpcoming
	}
	if t.Rules == nil {
		t.Rules = []string{}
	}

	rows, _ := r.DB.Query(ctx, createTournament,
		t.ID, t.CreatedAt, t.Title, t.GameName, t.GameCoverImage, t.Description, t.Rules,
		t.StartTime, t.TotalSlots, t.EntryFee, t.PrizePool, t.RoomID, t.RoomPassword, t.Status, t.Featured)
	created, err := pgx.CollectOneRow(rows, rowToTournament)
	if err != nil {
		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

const getTournament = `-- name: GetTournament
SELECT ` + tournamentColumns + `,
       (SELECT count(*) FROM participants p WHERE p.tournament_id = t.id) AS joined_players
FROM tournaments t
WHERE t.id = $1
`

func (r *TournamentRepo) GetTournament(ctx context.Context, id uuid.UUID) (models.Tournament, error) {
	rows, _ := r.DB.Query(ctx, getTournament, id)
	return collectTournament(rows)
}

// Row lock held until the surrounding transaction ends. Joined count is
// intentionally not selected here, capacity is enforced by AddParticipant.
const getTournamentForUpdate = `-- name: GetTournamentForUpdate
SELECT ` + tournamentColumns + `, 0
FROM tournaments t
WHERE t.id = $1
FOR UPDATE
`

func (r *TournamentRepo) GetTournamentForUpdate(ctx context.Context, id uuid.UUID) (models.Tournament, error) {
	rows, _ := r.DB.Query(ctx, getTournamentForUpdate, id)
	return collectTournament(rows)
}

const listTournaments = `-- name: ListTournaments
SELECT ` + tournamentColumns + `,
       (SELECT count(*) FROM participants p WHERE p.tournament_id = t.id) AS joined_players
FROM tournaments t
WHERE ($1::text = '' OR t.game_name = $1)
  AND ($2::numeric IS NULL OR t.entry_fee <= $2)
  AND (NOT $3::boolean OR t.featured)
  AND ($4::text = '' OR t.title ILIKE '%' || $4 || '%' OR t.game_name ILIKE '%' || $4 || '%' OR t.description ILIKE '%' || $4 || '%')
`

func (r *TournamentRepo) ListTournaments(ctx context.Context, opts repository.ListTournamentsOpts) ([]models.Tournament, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	// Sort keys come from a fixed set, never from raw user input
	var orderBy string
	switch opts.SortBy {
	case repository.SortByTimeAsc:
		orderBy = "t.start_time ASC"
	case repository.SortByTimeDesc:
		orderBy = "t.start_time DESC"
	case repository.SortByPrizeAsc:
		orderBy = "t.prize_pool ASC"
	case repository.SortByPrizeDesc:
		orderBy = "t.prize_pool DESC"
	case repository.SortBySlots:
		orderBy = "t.total_slots - (SELECT count(*) FROM participants p WHERE p.tournament_id = t.id) DESC"
	default:
		orderBy = "t.start_time ASC"
	}

	query := fmt.Sprintf("%s ORDER BY %s LIMIT %d", listTournaments, orderBy, limit)

	rows, _ := r.DB.Query(ctx, query, opts.Game, opts.MaxFee, opts.Featured, opts.Search)
	tournaments, err := pgx.CollectRows(rows, rowToTournament)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return tournaments, nil
}

// Capacity check and insert are one statement. Together with the caller's
// lock on the tournament row this makes admission past total_slots impossible.
const addParticipant = `-- name: AddParticipant
INSERT INTO participants (id, joined_at, tournament_id, user_id, transaction_id)
SELECT $1, $2, $3, $4, $5
WHERE (SELECT count(*) FROM participants WHERE tournament_id = $3)
    < (SELECT total_slots FROM tournaments WHERE id = $3)
RETURNING id, joined_at, tournament_id, user_id, transaction_id
`

func (r *TournamentRepo) AddParticipant(ctx context.Context, tournamentID uuid.UUID, userID uuid.UUID, transactionID uuid.UUID) (models.Participant, error) {
	rows, _ := r.DB.Query(ctx, addParticipant, uuid.New(), time.Now(), tournamentID, userID, transactionID)
	participant, err := pgx.CollectOneRow(rows, rowToParticipant)

	switch {
	case err == nil:
		return participant, nil
	case errors.Is(err, pgx.ErrNoRows):
		return participant, apperrors.ErrTournamentFull
	default:
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return participant, apperrors.ErrAlreadyJoined
		}
		return participant, fmt.Errorf("db error: %w", err)
	}
}

const isParticipant = `-- name: IsParticipant
SELECT EXISTS (
    SELECT 1 FROM participants
    WHERE tournament_id = $1 AND user_id = $2
)
`

func (r *TournamentRepo) IsParticipant(ctx context.Context, tournamentID uuid.UUID, userID uuid.UUID) (bool, error) {
	var joined bool
	err := r.DB.QueryRow(ctx, isParticipant, tournamentID, userID).Scan(&joined)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return joined, nil
}

const listJoinedIDs = `-- name: ListJoinedIDs
SELECT tournament_id FROM participants
WHERE user_id = $1
`

func (r *TournamentRepo) ListJoinedIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, _ := r.DB.Query(ctx, listJoinedIDs, userID)
	ids, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (uuid.UUID, error) {
		var id uuid.UUID
		err := row.Scan(&id)
		return id, err
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return ids, nil
}

func collectTournament(rows pgx.Rows) (models.Tournament, error) {
	tournament, err := pgx.CollectOneRow(rows, rowToTournament)

	switch {
	case err == nil:
		return tournament, nil
	case errors.Is(err, pgx.ErrNoRows):
		return tournament, apperrors.ErrTournamentNotFound
	default:
		return tournament, fmt.Errorf("db error: %w", err)
	}
}

func rowToTournament(row pgx.CollectableRow) (models.Tournament, error) {
	var t models.Tournament
	err := row.Scan(
		&t.ID, &t.CreatedAt, &t.Title, &t.GameName, &t.GameCoverImage, &t.Description, &t.Rules,
		&t.StartTime, &t.TotalSlots, &t.EntryFee, &t.PrizePool, &t.RoomID, &t.RoomPassword, &t.Status, &t.Featured,
		&t.JoinedPlayers,
	)
	return t, err
}

func rowToParticipant(row pgx.CollectableRow) (models.Participant, error) {
	var p models.Participant
	err := row.Scan(&p.ID, &p.JoinedAt, &p.TournamentID, &p.UserID, &p.TransactionID)
	return p, err
}
