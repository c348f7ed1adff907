package wallet

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/abdurrahman998/tournament/internal/apperrors"
	"github.com/abdurrahman998/tournament/internal/logger"
	"github.com/abdurrahman998/tournament/internal/models"
	"github.com/abdurrahman998/tournament/internal/repository"
)

type notifier interface {
	Enqueue(ctx context.Context, notification models.Notification) error
}

// Overview is what the wallet page renders: balance plus the ledger
type Overview struct {
	Wallet       models.Wallet
	Transactions []repository.TransactionRecord
}

type WalletService struct {
	storage  repository.Storage
	notifier notifier
	logger   logger.Logger
}

func NewService(storage repository.Storage, notifier notifier, l logger.Logger) *WalletService {
	if l == nil {
		l = logger.NewNoOp()
	}

	return &WalletService{
		storage:  storage,
		notifier: notifier,
		logger:   l,
	}
}

func (s *WalletService) GetOverview(ctx context.Context, userID uuid.UUID) (Overview, error) {
	wallet, err := s.storage.Wallet().GetWallet(ctx, userID)
	if err != nil {
		return Overview{}, err
	}

	transactions, err := s.storage.Wallet().ListTransactions(ctx, userID, repository.ListTransactionsOpts{})
	if err != nil {
		return Overview{}, err
	}

	return Overview{Wallet: wallet, Transactions: transactions}, nil
}

// RequestDeposit records a pending deposit that an external payment flow
// completes later. No balance change happens here.
func (s *WalletService) RequestDeposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, phoneNumber string, referenceID *string) (models.Transaction, error) {
	transaction, err := s.storage.Wallet().CreateTransaction(ctx, models.Transaction{
		UserID:      userID,
		Amount:      amount,
		Kind:        models.TransactionDeposit,
		Status:      models.TransactionStatusPending,
		Description: fmt.Sprintf("Deposit from %s", phoneNumber),
		ReferenceID: referenceID,
	})
	if err != nil {
		return transaction, err
	}

	s.notify(ctx, models.Notification{
		UserID:  userID,
		Title:   "Deposit Request Received",
		Message: fmt.Sprintf("Your deposit request of $%s has been received and is being processed.", amount),
		Type:    models.NotificationTypePayment,
	})

	return transaction, nil
}

// RequestWithdrawal records a pending withdrawal. The balance check here is
// advisory for the user, the actual debit happens when the payout completes.
func (s *WalletService) RequestWithdrawal(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, phoneNumber string) (models.Transaction, error) {
	var transaction models.Transaction

	wallet, err := s.storage.Wallet().GetWallet(ctx, userID)
	if err != nil {
		return transaction, err
	}

	if wallet.Balance.LessThan(amount) {
		return transaction, &apperrors.InsufficientFundsError{Required: amount, Current: wallet.Balance}
	}

	transaction, err = s.storage.Wallet().CreateTransaction(ctx, models.Transaction{
		UserID:      userID,
		Amount:      amount,
		Kind:        models.TransactionWithdrawal,
		Status:      models.TransactionStatusPending,
		Description: fmt.Sprintf("Withdrawal to %s", phoneNumber),
	})
	if err != nil {
		return transaction, err
	}

	s.notify(ctx, models.Notification{
		UserID:  userID,
		Title:   "Withdrawal Request Received",
		Message: fmt.Sprintf("Your withdrawal request of $%s has been received and is being processed.", amount),
		Type:    models.NotificationTypePayment,
	})

	return transaction, nil
}

// Credit appends a completed ledger entry and increases the balance in one
// transaction. Used for prizes, refunds and confirmed deposits.
func (s *WalletService) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, kind string, description string, tournamentID *uuid.UUID) (models.Transaction, error) {
	var transaction models.Transaction

	err := s.storage.InTx(ctx, func(store repository.Storage) error {
		var err error
		transaction, err = store.Wallet().CreateTransaction(ctx, models.Transaction{
			UserID:       userID,
			Amount:       amount,
			Kind:         kind,
			Status:       models.TransactionStatusCompleted,
			Description:  description,
			TournamentID: tournamentID,
		})
		if err != nil {
			return err
		}

		_, err = store.Wallet().Credit(ctx, userID, amount)
		return err
	})
	if err != nil {
		return transaction, err
	}

	return transaction, nil
}

func (s *WalletService) notify(ctx context.Context, notification models.Notification) {
	if err := s.notifier.Enqueue(ctx, notification); err != nil {
		s.logger.Error("Failed to enqueue wallet notification", "error", err, "user_id", notification.UserID)
	}
}
