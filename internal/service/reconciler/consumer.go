package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/abdurrahman998/tournament/internal/apperrors"
	"github.com/abdurrahman998/tournament/internal/logger"
	"github.com/abdurrahman998/tournament/internal/models"
	"github.com/abdurrahman998/tournament/internal/repository"
)

type Consumer struct {
	countWorkers int

	storage  repository.Storage
	notifier notifier
	logger   logger.Logger
}

func (c *Consumer) Consume(ctx context.Context, in <-chan models.Transaction) <-chan struct{} {
	idleStopped := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < c.countWorkers; i++ {
		wg.Add(1)
		go func() {
			c.worker(ctx, in)
			wg.Done()
		}()
	}

	go func() {
		defer close(idleStopped)
		wg.Wait()
		c.logger.Debug("Reconciler consumer stopped")
	}()

	return idleStopped
}

func (c *Consumer) worker(ctx context.Context, in <-chan models.Transaction) {
	for {
		select {
		case <-ctx.Done():
			return

		case transaction, ok := <-in:
			if !ok {
				c.logger.Debug("Reconciler worker stopped, input channel closed")
				return
			}

			c.cancel(ctx, transaction)
		}
	}
}

func (c *Consumer) cancel(ctx context.Context, transaction models.Transaction) {
	_, err := c.storage.Wallet().SetTransactionStatus(ctx, transaction.ID, models.TransactionStatusCancelled)
	switch {
	case errors.Is(err, apperrors.ErrTransactionNotFound):
		// Completed or cancelled by someone else since the sweep listed it
		return

	case err != nil:
		c.logger.Error("Failed to cancel stale transaction", "error", err, "transaction_id", transaction.ID)
		return
	}

	c.logger.Info("Cancelled stale pending transaction",
		"transaction_id", transaction.ID,
		"kind", transaction.Kind,
		"user_id", transaction.UserID,
	)

	err = c.notifier.Enqueue(ctx, models.Notification{
		UserID:  transaction.UserID,
		Title:   "Transaction Cancelled",
		Message: fmt.Sprintf("Your %s of $%s was not confirmed in time and has been cancelled.", transaction.Kind, transaction.Amount),
		Type:    models.NotificationTypePayment,
	})
	if err != nil {
		c.logger.Error("Failed to enqueue cancellation notification", "error", err, "transaction_id", transaction.ID)
	}
}
