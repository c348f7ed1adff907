package postgres

import (
	"fmt"
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

func TestTournamentRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	inTx := func(t *testing.T, fn func(storage repository.Storage)) {
		testutil.InTx(pg.Pool, t, func(tx pgx.Tx) {
			fn(NewStorage(tx))
		})
	}

	newUser := func(t *testing.T, storage repository.Storage, username string) models.User {
		t.Helper()
		user, err := storage.User().CreateUser(t.Context(), username, "hash")
		require.NoError(t, err)
		return user
	}

	newTournament := func(t *testing.T, storage repository.Storage, mutate func(*models.Tournament)) models.Tournament {
		t.Helper()

		tournament := models.Tournament{
			Title:      "Friday Night Clash",
			GameName:   "Valorant",
			Rules:      []string{"no smurfs", "be on time"},
			StartTime:  time.Now().Add(24 * time.Hour),
			TotalSlots: 16,
			EntryFee:   decimal.NewFromInt(10),
			PrizePool:  decimal.NewFromInt(100),
		}
		if mutate != nil {
			mutate(&tournament)
		}

		created, err := storage.Tournament().CreateTournament(t.Context(), tournament)
		require.NoError(t, err)
		return created
	}

	t.Run("CreateTournament", func(t *testing.T) {
		t.Run("defaults applied", func(t *testing.T) {
			inTx(t, func(storage repository.Storage) {
				created := newTournament(t, storage, nil)

				require.NotEqual(t, uuid.Nil, created.ID)
				require.NotZero(t, created.CreatedAt)
				require.Equal(t, models.TournamentStatusUpcoming, created.Status, "status should default to upcoming")
				require.Zero(t, created.JoinedPlayers, "new tournament has no participants")
			})
		})
	})

	t.Run("GetTournament", func(t *testing.T) {
		t.Run("get ok", func(t *testing.T) {
			inTx(t, func(storage repository.Storage) {
				created := newTournament(t, storage, nil)

				loaded, err := storage.Tournament().GetTournament(t.Context(), created.ID)

				require.NoError(t, err)
				assert.Equal(t, created.ID, loaded.ID)
				assert.Equal(t, created.Title, loaded.Title)
				assert.Equal(t, []string{"no smurfs", "be on time"}, loaded.Rules)
				assert.True(t, loaded.EntryFee.Equal(decimal.NewFromInt(10)))
			})
		})

		t.Run("counts participants", func(t *testing.T) {
			inTx(t, func(storage repository.Storage) {
				created := newTournament(t, storage, nil)

				for i := 0; i < 3; i++ {
					user := newUser(t, storage, fmt.Sprintf("counted-%d", i))
					entry, err := storage.Wallet().CreateTransaction(t.Context(), models.Transaction{
						UserID: user.ID,
						Amount: created.EntryFee,
						Kind:   models.TransactionTournamentEntry,
					})
					require.NoError(t, err)
					_, err = storage.Tournament().AddParticipant(t.Context(), created.ID, user.ID, entry.ID)
					require.NoError(t, err)
				}

				loaded, err := storage.Tournament().GetTournament(t.Context(), created.ID)

				require.NoError(t, err)
				require.Equal(t, 3, loaded.JoinedPlayers)
			})
		})

		t.Run("not found", func(t *testing.T) {
			inTx(t, func(storage repository.Storage) {
				_, err := storage.Tournament().GetTournament(t.Context(), uuid.New())

				require.ErrorIs(t, err, apperrors.ErrTournamentNotFound)
			})
		})
	})

	t.Run("AddParticipant", func(t *testing.T) {
		addEntry := func(t *testing.T, storage repository.Storage, tournament models.Tournament, user models.User) error {
			t.Helper()
			entry, err := storage.Wallet().CreateTransaction(t.Context(), models.Transaction{
				UserID: user.ID,
				Amount: tournament.EntryFee,
				Kind:   models.TransactionTournamentEntry,
			})
			require.NoError(t, err)

			_, err = storage.Tournament().AddParticipant(t.Context(), tournament.ID, user.ID, entry.ID)
			return err
		}

		t.Run("duplicate rejected", func(t *testing.T) {
			inTx(t, func(storage repository.Storage) {
				tournament := newTournament(t, storage, nil)
				user := newUser(t, storage, "dup-user")

				require.NoError(t, addEntry(t, storage, tournament, user))

				err := addEntry(t, storage, tournament, user)
				require.ErrorIs(t, err, apperrors.ErrAlreadyJoined)
			})
		})

		t.Run("capacity enforced", func(t *testing.T) {
			inTx(t, func(storage repository.Storage) {
				tournament := newTournament(t, storage, func(tn *models.Tournament) {
					tn.TotalSlots = 2
				})

				for i := 0; i < 2; i++ {
					user := newUser(t, storage, fmt.Sprintf("cap-user-%d", i))
					require.NoError(t, addEntry(t, storage, tournament, user))
				}

				late := newUser(t, storage, "cap-user-late")
				err := addEntry(t, storage, tournament, late)
				require.ErrorIs(t, err, apperrors.ErrTournamentFull)
			})
		})
	})

	t.Run("ListTournaments", func(t *testing.T) {
		seed := func(t *testing.T, storage repository.Storage) {
			t.Helper()
			newTournament(t, storage, func(tn *models.Tournament) {
				tn.Title = "Valorant Open"
				tn.GameName = "Valorant"
				tn.EntryFee = decimal.NewFromInt(5)
				tn.PrizePool = decimal.NewFromInt(50)
				tn.StartTime = time.Now().Add(1 * time.Hour)
			})
			newTournament(t, storage, func(tn *models.Tournament) {
				tn.Title = "Dota Masters"
				tn.GameName = "Dota 2"
				tn.EntryFee = decimal.NewFromInt(20)
				tn.PrizePool = decimal.NewFromInt(400)
				tn.StartTime = time.Now().Add(2 * time.Hour)
				tn.Featured = true
			})
			newTournament(t, storage, func(tn *models.Tournament) {
				tn.Title = "Free Friday"
				tn.GameName = "Valorant"
				tn.EntryFee = decimal.Zero
				tn.PrizePool = decimal.NewFromInt(10)
				tn.StartTime = time.Now().Add(3 * time.Hour)
			})
		}

		t.Run("filter by game", func(t *testing.T) {
			inTx(t, func(storage repository.Storage) {
				seed(t, storage)

				list, err := storage.Tournament().ListTournaments(t.Context(), repository.ListTournamentsOpts{Game: "Valorant"})

				require.NoError(t, err)
				require.Len(t, list, 2)
				for _, tournament := range list {
					assert.Equal(t, "Valorant", tournament.GameName)
				}
			})
		})

		t.Run("filter free only", func(t *testing.T) {
			inTx(t, func(storage repository.Storage) {
				seed(t, storage)

				maxFee := decimal.Zero
				list, err := storage.Tournament().ListTournaments(t.Context(), repository.ListTournamentsOpts{MaxFee: &maxFee})

				require.NoError(t, err)
				require.Len(t, list, 1)
				assert.Equal(t, "Free Friday", list[0].Title)
			})
		})

		t.Run("filter featured", func(t *testing.T) {
			inTx(t, func(storage repository.Storage) {
				seed(t, storage)

				list, err := storage.Tournament().ListTournaments(t.Context(), repository.ListTournamentsOpts{Featured: true})

				require.NoError(t, err)
				require.Len(t, list, 1)
				assert.Equal(t, "Dota Masters", list[0].Title)
			})
		})

		t.Run("search by title", func(t *testing.T) {
			inTx(t, func(storage repository.Storage) {
				seed(t, storage)

				list, err := storage.Tournament().ListTournaments(t.Context(), repository.ListTournamentsOpts{Search: "masters"})

				require.NoError(t, err)
				require.Len(t, list, 1)
				assert.Equal(t, "Dota Masters", list[0].Title)
			})
		})

		t.Run("sort by prize desc", func(t *testing.T) {
			inTx(t, func(storage repository.Storage) {
				seed(t, storage)

				list, err := storage.Tournament().ListTournaments(t.Context(), repository.ListTournamentsOpts{SortBy: repository.SortByPrizeDesc})

				require.NoError(t, err)
				require.Len(t, list, 3)
				assert.Equal(t, "Dota Masters", list[0].Title)
				assert.Equal(t, "Valorant Open", list[1].Title)
				assert.Equal(t, "Free Friday", list[2].Title)
			})
		})
	})

	t.Run("ListJoinedIDs", func(t *testing.T) {
		inTx(t, func(storage repository.Storage) {
			first := newTournament(t, storage, nil)
			second := newTournament(t, storage, nil)
			newTournament(t, storage, nil) // never joined

			user := newUser(t, storage, "joined-ids")
			for _, tournament := range []models.Tournament{first, second} {
				entry, err := storage.Wallet().CreateTransaction(t.Context(), models.Transaction{
					UserID: user.ID,
					Amount: tournament.EntryFee,
					Kind:   models.TransactionTournamentEntry,
				})
				require.NoError(t, err)
				_, err = storage.Tournament().AddParticipant(t.Context(), tournament.ID, user.ID, entry.ID)
				require.NoError(t, err)
			}

			ids, err := storage.Tournament().ListJoinedIDs(t.Context(), user.ID)

			require.NoError(t, err)
			require.ElementsMatch(t, []uuid.UUID{first.ID, second.ID}, ids)
		})
	})
}
