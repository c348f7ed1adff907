package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/abdurrahman998/tournament/internal/apperrors"
	"github.com/abdurrahman998/tournament/internal/models"
)

type RefreshTokenRepo struct {
	DB DBTX
}

const saveRefreshToken = `-- name: SaveRefreshToken
INSERT INTO refresh_tokens (id, user_id, token, created_at, expires_at, used_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, user_id, token, created_at, expires_at, used_at
`

func (r *RefreshTokenRepo) Save(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, saveRefreshToken, token.ID, token.UserID, token.Token, token.CreatedAt, token.ExpiresAt, token.UsedAt)
	saved, err := pgx.CollectOneRow(rows, rowToRefreshToken)
	if err != nil {
		return saved, fmt.Errorf("db error: %w", err)
	}

	return saved, nil
}

// Mark used only if not used before, so a replayed token keeps its original 'used_at'
const getAndMarkUsed = `-- name: GetAndMarkUsed
UPDATE refresh_tokens
SET used_at = now()
WHERE token = $1 AND used_at IS NULL
RETURNING id, user_id, token, created_at, expires_at, used_at
`

func (r *RefreshTokenRepo) GetAndMarkUsed(ctx context.Context, tokenString string) (models.RefreshToken, error) {
	rows, _ := r.DB.Query(ctx, getAndMarkUsed, tokenString)
	token, err := pgx.CollectOneRow(rows, rowToRefreshToken)

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, pgx.ErrNoRows):
		// Either unknown or already used, look it up to tell apart
		const getToken = `SELECT id, user_id, token, created_at, expires_at, used_at FROM refresh_tokens WHERE token = $1`
		rows, _ := r.DB.Query(ctx, getToken, tokenString)
		token, err := pgx.CollectOneRow(rows, rowToRefreshToken)

		switch {
		case err == nil:
			return token, apperrors.ErrRefreshTokenIsUsed
		case errors.Is(err, pgx.ErrNoRows):
			return token, apperrors.ErrRefreshTokenNotFound
		default:
			return token, fmt.Errorf("db error: %w", err)
		}
	default:
		return token, fmt.Errorf("db error: %w", err)
	}
}

func rowToRefreshToken(row pgx.CollectableRow) (models.RefreshToken, error) {
	var t models.RefreshToken
	err := row.Scan(&t.ID, &t.UserID, &t.Token, &t.CreatedAt, &t.ExpiresAt, &t.UsedAt)
	return t, err
}
