package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/abdurrahman998/tournament/internal/apperrors"
	"github.com/abdurrahman998/tournament/internal/models"
	"github.com/abdurrahman998/tournament/internal/repository"
)

type ProfileRepo struct {
	DB DBTX
}

const profileColumns = `id, user_id, created_at, updated_at, username, full_name, bio, avatar_url, steam_id, epic_games_id, riot_id`

const createProfile = `-- name: CreateProfile
INSERT INTO profiles (user_id, username)
VALUES ($1, $2)
RETURNING ` + profileColumns + `
`

func (r *ProfileRepo) CreateProfile(ctx context.Context, userID uuid.UUID, username string) (models.Profile, error) {
	rows, _ := r.DB.Query(ctx, createProfile, userID, username)
	profile, err := pgx.CollectOneRow(rows, rowToProfile)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return profile, fmt.Errorf("user profile already exists: %w", err)
		}
		return profile, fmt.Errorf("db error: %w", err)
	}

	return profile, nil
}

const getProfile = `-- name: GetProfile
SELECT ` + profileColumns + ` FROM profiles
WHERE user_id = $1
`

func (r *ProfileRepo) GetProfile(ctx context.Context, userID uuid.UUID) (models.Profile, error) {
	rows, _ := r.DB.Query(ctx, getProfile, userID)
	profile, err := pgx.CollectOneRow(rows, rowToProfile)

	switch {
	case err == nil:
		return profile, nil
	case errors.Is(err, pgx.ErrNoRows):
		return profile, apperrors.ErrProfileNotFound
	default:
		return profile, fmt.Errorf("db error: %w", err)
	}
}

const updateProfile = `-- name: UpdateProfile
UPDATE profiles
SET username = $2, full_name = $3, bio = $4, steam_id = $5, epic_games_id = $6, riot_id = $7, updated_at = now()
WHERE user_id = $1
RETURNING ` + profileColumns + `
`

func (r *ProfileRepo) UpdateProfile(ctx context.Context, userID uuid.UUID, params repository.UpdateProfileParams) (models.Profile, error) {
	rows, _ := r.DB.Query(ctx, updateProfile,
		userID, params.Username, params.FullName, params.Bio, params.SteamID, params.EpicGamesID, params.RiotID)
	profile, err := pgx.CollectOneRow(rows, rowToProfile)

	switch {
	case err == nil:
		return profile, nil
	case errors.Is(err, pgx.ErrNoRows):
		return profile, apperrors.ErrProfileNotFound
	default:
		return profile, fmt.Errorf("db error: %w", err)
	}
}

// Tournaments played come from the participants table, wins and earnings
// from completed prize payouts in the ledger
const getGameStats = `-- name: GetGameStats
SELECT tr.game_name,
       count(p.id) AS tournaments,
       count(tx.id) AS wins,
       coalesce(sum(tx.amount), 0) AS earnings
FROM participants p
JOIN tournaments tr ON tr.id = p.tournament_id
LEFT JOIN transactions tx
       ON tx.tournament_id = p.tournament_id
      AND tx.user_id = p.user_id
      AND tx.kind = 'tournament_prize'
      AND tx.status = 'completed'
WHERE p.user_id = $1
GROUP BY tr.game_name
ORDER BY tournaments DESC
`

func (r *ProfileRepo) GetGameStats(ctx context.Context, userID uuid.UUID) ([]models.GameStat, error) {
	rows, _ := r.DB.Query(ctx, getGameStats, userID)
	stats, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.GameStat, error) {
		var s models.GameStat
		err := row.Scan(&s.Game, &s.Tournaments, &s.Wins, &s.Earnings)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return stats, nil
}

const searchProfiles = `-- name: SearchProfiles
SELECT ` + profileColumns + ` FROM profiles
WHERE username ILIKE '%' || $1 || '%'
ORDER BY username
LIMIT $2
`

func (r *ProfileRepo) SearchProfiles(ctx context.Context, query string, limit int) ([]models.Profile, error) {
	if limit <= 0 {
		limit = 5
	}

	rows, _ := r.DB.Query(ctx, searchProfiles, query, limit)
	profiles, err := pgx.CollectRows(rows, rowToProfile)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return profiles, nil
}

func rowToProfile(row pgx.CollectableRow) (models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.ID, &p.UserID, &p.CreatedAt, &p.UpdatedAt, &p.Username, &p.FullName, &p.Bio, &p.AvatarURL, &p.SteamID, &p.EpicGamesID, &p.RiotID)
	return p, err
}
