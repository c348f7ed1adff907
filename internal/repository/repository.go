package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/abdurrahman998/tournament/internal/models"
)

// Storage is the single entry point to long term data. Every repo obtained
// from the same Storage shares its connection, so repos acquired inside
// InTx all run in that transaction.
type Storage interface {
	User() UserRepo
	Refresh() RefreshTokenRepo
	Wallet() WalletRepo
	Tournament() TournamentRepo
	Notification() NotificationRepo
	Profile() ProfileRepo

	// InTx runs fn in a database transaction. The transaction commits if fn
	// returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(Storage) error) error
}

// User repository interface
type UserRepo interface {
	// Create user
	// If user with username exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, username string, hashedPassword string) (models.User, error)

	// Get user by it's id or username
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	Save(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error)

	// Return the token and mark it used in one statement
	// If the token is already used, must return apperrors.ErrRefreshTokenIsUsed
	// and must not overwrite the existing 'usedAt'
	GetAndMarkUsed(ctx context.Context, tokenString string) (models.RefreshToken, error)
}

// ListTransactionsOpts filters the user's ledger listing
type ListTransactionsOpts struct {
	Kinds    []string
	Statuses []string
	Limit    int
}

// TransactionRecord is a ledger entry with tournament display data joined in
type TransactionRecord struct {
	models.Transaction
	TournamentTitle *string
	GameName        *string
}

// Wallet and ledger repository interface
type WalletRepo interface {
	// Create zero-balance wallet for the user
	CreateWallet(ctx context.Context, userID uuid.UUID) (models.Wallet, error)

	// Get wallet by owner
	// If wallet not found must return apperrors.ErrWalletNotFound
	GetWallet(ctx context.Context, userID uuid.UUID) (models.Wallet, error)

	// Debit decreases the balance only if it stays non negative, in a single
	// conditional update. Returns apperrors.ErrInsufficientFunds otherwise.
	Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (models.Wallet, error)

	// Credit increases the balance
	Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (models.Wallet, error)

	// Append a ledger entry
	CreateTransaction(ctx context.Context, transaction models.Transaction) (models.Transaction, error)

	// Move a pending ledger entry to a terminal status. Terminal entries are
	// immutable: updating a non pending row returns apperrors.ErrTransactionNotFound.
	SetTransactionStatus(ctx context.Context, id uuid.UUID, status string) (models.Transaction, error)

	// List the user's ledger newest first
	ListTransactions(ctx context.Context, userID uuid.UUID, opts ListTransactionsOpts) ([]TransactionRecord, error)

	// List pending entries created before the deadline, oldest first
	ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]models.Transaction, error)
}

// Sort keys accepted by ListTournaments
const (
	SortByTimeAsc   = "time-asc"
	SortByTimeDesc  = "time-desc"
	SortByPrizeAsc  = "prize-asc"
	SortByPrizeDesc = "prize-desc"
	SortBySlots     = "slots"
)

// ListTournamentsOpts filters and orders the tournament feed
type ListTournamentsOpts struct {
	Game     string
	MaxFee   *decimal.Decimal
	Featured bool
	SortBy   string
	Search   string
	Limit    int
}

// Tournament repository interface
type TournamentRepo interface {
	CreateTournament(ctx context.Context, tournament models.Tournament) (models.Tournament, error)

	// Get tournament with its participant count
	// If not found must return apperrors.ErrTournamentNotFound
	GetTournament(ctx context.Context, id uuid.UUID) (models.Tournament, error)

	// GetTournamentForUpdate locks the tournament row for the rest of the
	// surrounding transaction. Settlement takes this lock first, so joins to
	// the same tournament serialize and the capacity check in AddParticipant
	// cannot race past total_slots.
	GetTournamentForUpdate(ctx context.Context, id uuid.UUID) (models.Tournament, error)

	ListTournaments(ctx context.Context, opts ListTournamentsOpts) ([]models.Tournament, error)

	// AddParticipant admits the user only while the tournament has a free
	// slot: the capacity check and the insert are one statement, so two
	// attempts racing for the last slot cannot both pass.
	// Full tournament: apperrors.ErrTournamentFull
	// Duplicate join: apperrors.ErrAlreadyJoined
	AddParticipant(ctx context.Context, tournamentID uuid.UUID, userID uuid.UUID, transactionID uuid.UUID) (models.Participant, error)

	IsParticipant(ctx context.Context, tournamentID uuid.UUID, userID uuid.UUID) (bool, error)

	// IDs of tournaments the user has joined
	ListJoinedIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// Notification repository interface
type NotificationRepo interface {
	CreateNotification(ctx context.Context, notification models.Notification) (models.Notification, error)
	ListNotifications(ctx context.Context, userID uuid.UUID) ([]models.Notification, error)

	// SetRead updates the flag only for the owner's notification
	// If not found must return apperrors.ErrNotificationNotFound
	SetRead(ctx context.Context, id uuid.UUID, userID uuid.UUID, read bool) (models.Notification, error)
}

type UpdateProfileParams struct {
	Username    string
	FullName    string
	Bio         string
	SteamID     string
	EpicGamesID string
	RiotID      string
}

// Profile repository interface
type ProfileRepo interface {
	CreateProfile(ctx context.Context, userID uuid.UUID, username string) (models.Profile, error)

	// If profile not found must return apperrors.ErrProfileNotFound
	GetProfile(ctx context.Context, userID uuid.UUID) (models.Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, params UpdateProfileParams) (models.Profile, error)

	// Per game aggregates over joined tournaments and completed prize payouts
	GetGameStats(ctx context.Context, userID uuid.UUID) ([]models.GameStat, error)

	SearchProfiles(ctx context.Context, query string, limit int) ([]models.Profile, error)
}
