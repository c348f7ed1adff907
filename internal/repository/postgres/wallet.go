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
	"github.com/shopspring/decimal"

	"github.com/abdurrahman998/tournament/internal/apperrors"
	"github.com/abdurrahman998/tournament/internal/models"
	"github.com/abdurrahman998/tournament/internal/repository"
)

type WalletRepo struct {
	DB DBTX
}

const createWallet = `-- name: CreateWallet
INSERT INTO wallets (user_id, balance)
VALUES ($1, 0)
RETURNING id, user_id, balance
`

func (r *WalletRepo) CreateWallet(ctx context.Context, userID uuid.UUID) (models.Wallet, error) {
	rows, _ := r.DB.Query(ctx, createWallet, userID)
	wallet, err := pgx.CollectOneRow(rows, rowToWallet)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return wallet, fmt.Errorf("user wallet already exists: %w", err)
		}
		return wallet, fmt.Errorf("db error: %w", err)
	}

	return wallet, nil
}

const getWallet = `-- name: GetWallet
SELECT id, user_id, balance FROM wallets
WHERE user_id = $1
`

func (r *WalletRepo) GetWallet(ctx context.Context, userID uuid.UUID) (models.Wallet, error) {
	rows, _ := r.DB.Query(ctx, getWallet, userID)
	wallet, err := pgx.CollectOneRow(rows, rowToWallet)

	switch {
	case err == nil:
		return wallet, nil
	case errors.Is(err, pgx.ErrNoRows):
		return wallet, apperrors.ErrWalletNotFound
	default:
		return wallet, fmt.Errorf("db error: %w", err)
	}
}

// The balance condition sits in the statement itself: either the debit
// happens with the balance staying non negative or no row is touched.
const debitWallet = `-- name: DebitWallet
UPDATE wallets
SET balance = balance - $2
WHERE user_id = $1 AND balance >= $2
RETURNING id, user_id, balance
`

func (r *WalletRepo) Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (models.Wallet, error) {
	rows, _ := r.DB.Query(ctx, debitWallet, userID, amount)
	wallet, err := pgx.CollectOneRow(rows, rowToWallet)

	switch {
	case err == nil:
		return wallet, nil
	case errors.Is(err, pgx.ErrNoRows):
		// No row matched: wallet is missing or balance is short
		if _, getErr := r.GetWallet(ctx, userID); getErr != nil {
			return wallet, getErr
		}
		return wallet, apperrors.ErrInsufficientFunds
	default:
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation {
			return wallet, apperrors.ErrInsufficientFunds
		}
		return wallet, fmt.Errorf("db error: %w", err)
	}
}

const creditWallet = `-- name: CreditWallet
UPDATE wallets
SET balance = balance + $2
WHERE user_id = $1
RETURNING id, user_id, balance
`

func (r *WalletRepo) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (models.Wallet, error) {
	rows, _ := r.DB.Query(ctx, creditWallet, userID, amount)
	wallet, err := pgx.CollectOneRow(rows, rowToWallet)

	switch {
	case err == nil:
		return wallet, nil
	case errors.Is(err, pgx.ErrNoRows):
		return wallet, apperrors.ErrWalletNotFound
	default:
		return wallet, fmt.Errorf("db error: %w", err)
	}
}

const createTransaction = `-- name: CreateTransaction
INSERT INTO transactions (id, created_at, user_id, amount, kind, status, description, tournament_id, reference_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, created_at, user_id, amount, kind, status, description, tournament_id, reference_id
`

func (r *WalletRepo) CreateTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	if t.Status == "" {
		t.Status = models.TransactionStatusPending
	}

	rows, _ := r.DB.Query(ctx, createTransaction,
		t.ID, t.CreatedAt, t.UserID, t.Amount, t.Kind, t.Status, t.Description, t.TournamentID, t.ReferenceID)
	created, err := pgx.CollectOneRow(rows, rowToTransaction)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return created, apperrors.ErrUserNotFound
		}
		return created, fmt.Errorf("db error: %w", err)
	}

	return created, nil
}

// Only pending entries may change status, terminal states are immutable
const setTransactionStatus = `-- name: SetTransactionStatus
UPDATE transactions
SET status = $2
WHERE id = $1 AND status = 'pending'
RETURNING id, created_at, user_id, amount, kind, status, description, tournament_id, reference_id
`

func (r *WalletRepo) SetTransactionStatus(ctx context.Context, id uuid.UUID, status string) (models.Transaction, error) {
	rows, _ := r.DB.Query(ctx, setTransactionStatus, id, status)
	transaction, err := pgx.CollectOneRow(rows, rowToTransaction)

	switch {
	case err == nil:
		return transaction, nil
	case errors.Is(err, pgx.ErrNoRows):
		return transaction, apperrors.ErrTransactionNotFound
	default:
		return transaction, fmt.Errorf("db error: %w", err)
	}
}

const listTransactions = `-- name: ListTransactions
SELECT t.id, t.created_at, t.user_id, t.amount, t.kind, t.status, t.description, t.tournament_id, t.reference_id,
       tr.title, tr.game_name
FROM transactions t
LEFT JOIN tournaments tr ON tr.id = t.tournament_id
WHERE t.user_id = $1
  AND ($2::text[] IS NULL OR t.kind = ANY($2))
  AND ($3::text[] IS NULL OR t.status = ANY($3))
ORDER BY t.created_at DESC
LIMIT $4
`

func (r *WalletRepo) ListTransactions(ctx context.Context, userID uuid.UUID, opts repository.ListTransactionsOpts) ([]repository.TransactionRecord, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, _ := r.DB.Query(ctx, listTransactions, userID, nilIfEmpty(opts.Kinds), nilIfEmpty(opts.Statuses), limit)
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (repository.TransactionRecord, error) {
		var rec repository.TransactionRecord
		err := row.Scan(
			&rec.ID, &rec.CreatedAt, &rec.UserID, &rec.Amount, &rec.Kind, &rec.Status,
			&rec.Description, &rec.TournamentID, &rec.ReferenceID,
			&rec.TournamentTitle, &rec.GameName,
		)
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return records, nil
}

const listStalePending = `-- name: ListStalePending
SELECT id, created_at, user_id, amount, kind, status, description, tournament_id, reference_id
FROM transactions
WHERE status = 'pending' AND created_at < $1
ORDER BY created_at
LIMIT $2
`

func (r *WalletRepo) ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, _ := r.DB.Query(ctx, listStalePending, olderThan, limit)
	transactions, err := pgx.CollectRows(rows, rowToTransaction)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return transactions, nil
}

func rowToWallet(row pgx.CollectableRow) (models.Wallet, error) {
	var w models.Wallet
	err := row.Scan(&w.ID, &w.UserID, &w.Balance)
	return w, err
}

func rowToTransaction(row pgx.CollectableRow) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.CreatedAt, &t.UserID, &t.Amount, &t.Kind, &t.Status, &t.Description, &t.TournamentID, &t.ReferenceID)
	return t, err
}

func nilIfEmpty(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	return values
}
