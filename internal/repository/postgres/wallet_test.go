package postgres

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdurrahman998/tournament/internal/apperrors"
	"github.com/abdurrahman998/tournament/internal/models"
	"github.com/abdurrahman998/tournament/internal/repository"
	"github.com/abdurrahman998/tournament/internal/testutil"
)

func TestWalletRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	inTx := func(t *testing.T, fn func(storage repository.Storage)) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			fn(NewStorage(tx))
		})
	}

	newUserWithWallet := func(t *testing.T, storage repository.Storage, username string, balance int64) models.User {
		t.Helper()

		user, err := storage.User().CreateUser(t.Context(), username, "hash")
		require.NoError(t, err)

		_, err = storage.Wallet().CreateWallet(t.Context(), user.ID)
		require.NoError(t, err)

		if balance != 0 {
			_, err = storage.Wallet().Credit(t.Context(), user.ID, decimal.NewFromInt(balance))
			require.NoError(t, err)
		}

		return user
	}

	t.Run("CreateWallet", func(t *testing.T) {
		t.Run("starts empty", func(t *testing.T) {
			inTx(t, func(storage repository.Storage) {
				user, err := storage.User().CreateUser(t.Context(), "wallet-new", "hash")
				require.NoError(t, err)

				wallet, err := storage.Wallet().CreateWallet(t.Context(), user.ID)

				require.NoError(t, err)
				require.Equal(t, user.ID, wallet.UserID)
				require.True(t, wallet.Balance.IsZero(), "new wallet should have zero balance")
			})
		})

		t.Run("one wallet per user", func(t *testing.T) {
			inTx(t, func(storage repository.Storage) {
				user := newUserWithWallet(t, storage, "wallet-dup", 0)

				_, err := storage.Wallet().CreateWallet(t.Context(), user.ID)

				require.Error(t, err, "second wallet for the same user should fail")
			})
		})
	})

	t.Run("Debit", func(t *testing.T) {
		t.Run("debit ok", func(t *testing.T) {
			inTx(t, func(storage repository.Storage) {
				user := newUserWithWallet(t, storage, "debit-ok", 100)

				wallet, err := storage.Wallet().Debit(t.Context(), user.ID, decimal.NewFromInt(30))

				require.NoError(t, err)
				require.True(t, wallet.Balance.Equal(decimal.NewFromInt(70)), "got %s", wallet.Balance)
			})
		})

		t.Run("exact balance ok", func(t *testing.T) {
			inTx(t, func(storage repository.Storage) {
				user := newUserWithWallet(t, storage, "debit-exact", 100)

				wallet, err := storage.Wallet().Debit(t.Context(), user.ID, decimal.NewFromInt(100))

				require.NoError(t, err)
				require.True(t, wallet.Balance.IsZero())
			})
		})

		t.Run("insufficient funds", func(t *testing.T) {
			inTx(t, func(storage repository.Storage) {
				user := newUserWithWallet(t, storage, "debit-short", 10)

				_, err := storage.Wallet().Debit(t.Context(), user.ID, decimal.NewFromInt(11))

				require.ErrorIs(t, err, apperrors.ErrInsufficientFunds)

				// Balance untouched
				wallet, err := storage.Wallet().GetWallet(t.Context(), user.ID)
				require.NoError(t, err)
				require.True(t, wallet.Balance.Equal(decimal.NewFromInt(10)))
			})
		})

		t.Run("missing wallet", func(t *testing.T) {
			inTx(t, func(storage repository.Storage) {
				_, err := storage.Wallet().Debit(t.Context(), uuid.New(), decimal.NewFromInt(1))

				require.ErrorIs(t, err, apperrors.ErrWalletNotFound)
			})
		})
	})

	t.Run("SetTransactionStatus", func(t *testing.T) {
		t.Run("pending to completed", func(t *testing.T) {
			inTx(t, func(storage repository.Storage) {
				user := newUserWithWallet(t, storage, "status-ok", 0)

				created, err := storage.Wallet().CreateTransaction(t.Context(), models.Transaction{
					UserID: user.ID,
					Amount: decimal.NewFromInt(10),
					Kind:   models.TransactionDeposit,
				})
				require.NoError(t, err)
				require.Equal(t, models.TransactionStatusPending, created.Status, "new transaction should default to pending")

				updated, err := storage.Wallet().SetTransactionStatus(t.Context(), created.ID, models.TransactionStatusCompleted)

				require.NoError(t, err)
				require.Equal(t, models.TransactionStatusCompleted, updated.Status)
			})
		})

		t.Run("terminal status is immutable", func(t *testing.T) {
			inTx(t, func(storage repository.Storage) {
				user := newUserWithWallet(t, storage, "status-final", 0)

				created, err := storage.Wallet().CreateTransaction(t.Context(), models.Transaction{
					UserID: user.ID,
					Amount: decimal.NewFromInt(10),
					Kind:   models.TransactionDeposit,
					Status: models.TransactionStatusCompleted,
				})
				require.NoError(t, err)

				_, err = storage.Wallet().SetTransactionStatus(t.Context(), created.ID, models.TransactionStatusCancelled)

				require.ErrorIs(t, err, apperrors.ErrTransactionNotFound, "completed entries must not change status")
			})
		})
	})

	t.Run("ListTransactions", func(t *testing.T) {
		t.Run("newest first with tournament data", func(t *testing.T) {
			inTx(t, func(storage repository.Storage) {
				user := newUserWithWallet(t, storage, "list-tx", 0)

				tournament, err := storage.Tournament().CreateTournament(t.Context(), models.Tournament{
					Title:      "Apex Cup",
					GameName:   "Apex Legends",
					TotalSlots: 8,
				})
				require.NoError(t, err)

				older, err := storage.Wallet().CreateTransaction(t.Context(), models.Transaction{
					UserID:    user.ID,
					CreatedAt: time.Now().Add(-time.Hour),
					Amount:    decimal.NewFromInt(50),
					Kind:      models.TransactionDeposit,
				})
				require.NoError(t, err)

				newer, err := storage.Wallet().CreateTransaction(t.Context(), models.Transaction{
					UserID:       user.ID,
					Amount:       decimal.NewFromInt(10),
					Kind:         models.TransactionTournamentEntry,
					TournamentID: &tournament.ID,
				})
				require.NoError(t, err)

				records, err := storage.Wallet().ListTransactions(t.Context(), user.ID, repository.ListTransactionsOpts{})

				require.NoError(t, err)
				require.Len(t, records, 2)
				assert.Equal(t, newer.ID, records[0].ID, "newest entry should come first")
				assert.Equal(t, older.ID, records[1].ID)

				require.NotNil(t, records[0].TournamentTitle)
				assert.Equal(t, "Apex Cup", *records[0].TournamentTitle)
				require.NotNil(t, records[0].GameName)
				assert.Equal(t, "Apex Legends", *records[0].GameName)
				assert.Nil(t, records[1].TournamentTitle, "plain deposit has no tournament data")
			})
		})

		t.Run("filter by kind", func(t *testing.T) {
			inTx(t, func(storage repository.Storage) {
				user := newUserWithWallet(t, storage, "list-tx-kind", 0)

				for _, kind := range []string{models.TransactionDeposit, models.TransactionWithdrawal, models.TransactionDeposit} {
					_, err := storage.Wallet().CreateTransaction(t.Context(), models.Transaction{
						UserID: user.ID,
						Amount: decimal.NewFromInt(5),
						Kind:   kind,
					})
					require.NoError(t, err)
				}

				records, err := storage.Wallet().ListTransactions(t.Context(), user.ID, repository.ListTransactionsOpts{
					Kinds: []string{models.TransactionDeposit},
				})

				require.NoError(t, err)
				require.Len(t, records, 2)
				for _, record := range records {
					assert.Equal(t, models.TransactionDeposit, record.Kind)
				}
			})
		})
	})

	t.Run("ListStalePending", func(t *testing.T) {
		inTx(t, func(storage repository.Storage) {
			user := newUserWithWallet(t, storage, "stale-pending", 0)

			stale, err := storage.Wallet().CreateTransaction(t.Context(), models.Transaction{
				UserID:    user.ID,
				CreatedAt: time.Now().Add(-2 * time.Hour),
				Amount:    decimal.NewFromInt(10),
				Kind:      models.TransactionDeposit,
			})
			require.NoError(t, err)

			// Fresh pending and old but completed entries must not be listed
			_, err = storage.Wallet().CreateTransaction(t.Context(), models.Transaction{
				UserID: user.ID,
				Amount: decimal.NewFromInt(10),
				Kind:   models.TransactionDeposit,
			})
			require.NoError(t, err)

			_, err = storage.Wallet().CreateTransaction(t.Context(), models.Transaction{
				UserID:    user.ID,
				CreatedAt: time.Now().Add(-3 * time.Hour),
				Amount:    decimal.NewFromInt(10),
				Kind:      models.TransactionDeposit,
				Status:    models.TransactionStatusCompleted,
			})
			require.NoError(t, err)

			listed, err := storage.Wallet().ListStalePending(t.Context(), time.Now().Add(-time.Hour), 10)

			require.NoError(t, err)
			require.Len(t, listed, 1)
			require.Equal(t, stale.ID, listed[0].ID)
		})
	})
}
