package reconciler

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdurrahman998/tournament/internal/logger"
	"github.com/abdurrahman998/tournament/internal/models"
	"github.com/abdurrahman998/tournament/internal/repository"
	"github.com/abdurrahman998/tournament/internal/repository/postgres"
	"github.com/abdurrahman998/tournament/internal/testutil"
)

type recordingNotifier struct {
	notifications []models.Notification
}

func (n *recordingNotifier) Enqueue(_ context.Context, notification models.Notification) error {
	n.notifications = append(n.notifications, notification)
	return nil
}

func TestReconciler(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	newUser := func(t *testing.T, storage repository.Storage) models.User {
		t.Helper()
		user, err := storage.User().CreateUser(t.Context(), "reconciled-user", "hash")
		require.NoError(t, err)
		return user
	}

	newTransaction := func(t *testing.T, storage repository.Storage, user models.User, age time.Duration, status string) models.Transaction {
		t.Helper()
		transaction, err := storage.Wallet().CreateTransaction(t.Context(), models.Transaction{
			UserID:    user.ID,
			CreatedAt: time.Now().Add(-age),
			Amount:    decimal.NewFromInt(25),
			Kind:      models.TransactionDeposit,
			Status:    status,
		})
		require.NoError(t, err)
		return transaction
	}

	t.Run("cancel stale pending", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			notifier := &recordingNotifier{}
			consumer := &Consumer{
				countWorkers: 1,
				storage:      storage,
				notifier:     notifier,
				logger:       logger.NewNoOp(),
			}

			user := newUser(t, storage)
			stale := newTransaction(t, storage, user, 2*time.Hour, models.TransactionStatusPending)

			consumer.cancel(t.Context(), stale)

			records, err := storage.Wallet().ListTransactions(t.Context(), user.ID, repository.ListTransactionsOpts{
				Statuses: []string{models.TransactionStatusCancelled},
			})
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, stale.ID, records[0].ID)

			require.Len(t, notifier.notifications, 1, "user should be told about the cancellation")
			assert.Equal(t, models.NotificationTypePayment, notifier.notifications[0].Type)
		})
	})

	t.Run("completed entry untouched", func(t *testing.T) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			notifier := &recordingNotifier{}
			consumer := &Consumer{
				countWorkers: 1,
				storage:      storage,
				notifier:     notifier,
				logger:       logger.NewNoOp(),
			}

			user := newUser(t, storage)
			completed := newTransaction(t, storage, user, 2*time.Hour, models.TransactionStatusCompleted)

			// Simulates a sweep racing a deposit confirmation: the row was
			// listed as pending but completed before the worker got to it
			consumer.cancel(t.Context(), completed)

			records, err := storage.Wallet().ListTransactions(t.Context(), user.ID, repository.ListTransactionsOpts{})
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, models.TransactionStatusCompleted, records[0].Status, "terminal status must survive the sweep")

			assert.Empty(t, notifier.notifications, "nothing was cancelled, nothing to notify")
		})
	})

	t.Run("full sweep", func(t *testing.T) {
		// Run the whole producer/consumer loop against committed rows
		storage := postgres.NewStorage(pg.Pool)
		notifier := &recordingNotifier{}

		user, err := storage.User().CreateUser(t.Context(), "sweep-user", "hash")
		require.NoError(t, err)

		stale, err := storage.Wallet().CreateTransaction(t.Context(), models.Transaction{
			UserID:    user.ID,
			CreatedAt: time.Now().Add(-time.Hour),
			Amount:    decimal.NewFromInt(25),
			Kind:      models.TransactionWithdrawal,
		})
		require.NoError(t, err)

		fresh, err := storage.Wallet().CreateTransaction(t.Context(), models.Transaction{
			UserID: user.ID,
			Amount: decimal.NewFromInt(25),
			Kind:   models.TransactionWithdrawal,
		})
		require.NoError(t, err)

		r := New(storage, notifier, logger.NewNoOp())
		r.producer.interval = 10 * time.Millisecond

		ctx, cancel := context.WithCancel(t.Context())
		stopped := r.Run(ctx)

		require.Eventually(t, func() bool {
			records, err := storage.Wallet().ListTransactions(ctx, user.ID, repository.ListTransactionsOpts{
				Statuses: []string{models.TransactionStatusCancelled},
			})
			return err == nil && len(records) == 1
		}, 5*time.Second, 50*time.Millisecond, "stale entry should get cancelled")

		cancel()
		<-stopped

		records, err := storage.Wallet().ListTransactions(t.Context(), user.ID, repository.ListTransactionsOpts{})
		require.NoError(t, err)
		require.Len(t, records, 2)

		byID := map[string]string{}
		for _, record := range records {
			byID[record.ID.String()] = record.Status
		}
		assert.Equal(t, models.TransactionStatusCancelled, byID[stale.ID.String()])
		assert.Equal(t, models.TransactionStatusPending, byID[fresh.ID.String()], "fresh pending entry must be left alone")
	})
}
