// Package settlement implements the tournament entry fee settlement flow:
// admission, ledger append, wallet debit and participant registration as a
// single database transaction.
package settlement

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/abdurrahman998/tournament/internal/apperrors"
	"github.com/abdurrahman998/tournament/internal/logger"
	"github.com/abdurrahman998/tournament/internal/models"
	"github.com/abdurrahman998/tournament/internal/repository"
)

type notifier interface {
	Enqueue(ctx context.Context, notification models.Notification) error
}

// Result of a successful settlement
type Result struct {
	TransactionID uuid.UUID
	Tournament    models.Tournament
	Wallet        models.Wallet
}

type Service struct {
	storage  repository.Storage
	notifier notifier
	logger   logger.Logger
}

func NewService(storage repository.Storage, notifier notifier, l logger.Logger) *Service {
	if l == nil {
		l = logger.NewNoOp()
	}

	return &Service{
		storage:  storage,
		notifier: notifier,
		logger:   l,
	}
}

// Join settles the entry fee for one (user, tournament) pair.
//
// Everything runs in one transaction, so a failure at any step leaves no
// partial state: no participant row, no debit, no completed ledger entry.
// Concurrent joins serialize on the tournament row lock, and the unique
// (tournament_id, user_id) constraint plus the conditional participant
// insert make both double-entry and admission past capacity impossible
// regardless of how many requests race.
//
// Known failure modes:
//   - apperrors.ErrTournamentNotFound, ErrTournamentNotJoinable
//   - apperrors.ErrAlreadyJoined (also on every repeated call, so the
//     operation is idempotent per user and tournament)
//   - apperrors.ErrTournamentFull
//   - *apperrors.InsufficientFundsError with the exact shortfall
func (s *Service) Join(ctx context.Context, userID uuid.UUID, tournamentID uuid.UUID) (Result, error) {
	var result Result

	err := s.storage.InTx(ctx, func(store repository.Storage) error {
		// Lock serializes concurrent joins of this tournament
		tournament, err := store.Tournament().GetTournamentForUpdate(ctx, tournamentID)
		if err != nil {
			return err
		}

		if !tournament.Joinable() {
			return apperrors.ErrTournamentNotJoinable
		}

		// Repeated joins must come back as AlreadyJoined even when the
		// tournament has filled up since
		joined, err := store.Tournament().IsParticipant(ctx, tournamentID, userID)
		if err != nil {
			return err
		}
		if joined {
			return apperrors.ErrAlreadyJoined
		}

		entry, err := store.Wallet().CreateTransaction(ctx, models.Transaction{
			UserID:       userID,
			Amount:       tournament.EntryFee,
			Kind:         models.TransactionTournamentEntry,
			Status:       models.TransactionStatusPending,
			Description:  fmt.Sprintf("Entry fee for tournament: %s", tournament.Title),
			TournamentID: &tournament.ID,
		})
		if err != nil {
			return err
		}

		// Admission decision happens inside this insert, not before it
		if _, err := store.Tournament().AddParticipant(ctx, tournament.ID, userID, entry.ID); err != nil {
			return err
		}

		wallet, err := store.Wallet().Debit(ctx, userID, tournament.EntryFee)
		if errors.Is(err, apperrors.ErrInsufficientFunds) {
			current, getErr := store.Wallet().GetWallet(ctx, userID)
			if getErr != nil {
				return getErr
			}
			return &apperrors.InsufficientFundsError{Required: tournament.EntryFee, Current: current.Balance}
		}
		if err != nil {
			return err
		}

		completed, err := store.Wallet().SetTransactionStatus(ctx, entry.ID, models.TransactionStatusCompleted)
		if err != nil {
			return err
		}

		result = Result{
			TransactionID: completed.ID,
			Tournament:    tournament,
			Wallet:        wallet,
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	// Best effort only: the settlement is already committed and a lost
	// notification must not undo it
	notifyErr := s.notifier.Enqueue(ctx, models.Notification{
		UserID:       userID,
		Title:        "Tournament Joined",
		Message:      fmt.Sprintf("You have successfully joined %s. Entry fee of $%s has been deducted from your wallet.", result.Tournament.Title, result.Tournament.EntryFee),
		Type:         models.NotificationTypeTournament,
		TournamentID: &result.Tournament.ID,
	})
	if notifyErr != nil {
		s.logger.Error("Failed to enqueue join notification",
			"error", notifyErr,
			"user_id", userID,
			"tournament_id", tournamentID,
		)
	}

	return result, nil
}
