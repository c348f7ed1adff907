package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction kinds. The ledger is append-only: a row is created pending and
// transitions exactly once to completed, failed or cancelled.
const (
	TransactionDeposit         = "deposit"
	TransactionWithdrawal      = "withdrawal"
	TransactionTournamentEntry = "tournament_entry"
	TransactionTournamentPrize = "tournament_prize"
	TransactionRefund          = "refund"
)

const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
	TransactionStatusCancelled = "cancelled"
)

type Wallet struct {
	ID      uuid.UUID
	UserID  uuid.UUID
	Balance decimal.Decimal
}

type Transaction struct {
	ID           uuid.UUID
	CreatedAt    time.Time
	UserID       uuid.UUID
	Amount       decimal.Decimal
	Kind         string
	Status       string
	Description  string
	TournamentID *uuid.UUID
	ReferenceID  *string
}
