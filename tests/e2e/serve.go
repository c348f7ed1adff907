package e2e

import (
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stretchr/testify/require"

	"github.com/abdurrahman998/tournament/internal/handlers"
	"github.com/abdurrahman998/tournament/internal/logger"
	"github.com/abdurrahman998/tournament/internal/repository"
	"github.com/abdurrahman998/tournament/internal/repository/postgres"
	"github.com/abdurrahman998/tournament/internal/service/auth"
	"github.com/abdurrahman998/tournament/internal/service/auth/tokenmanager"
	"github.com/abdurrahman998/tournament/internal/service/notification"
	"github.com/abdurrahman998/tournament/internal/service/profile"
	"github.com/abdurrahman998/tournament/internal/service/settlement"
	"github.com/abdurrahman998/tournament/internal/service/tournament"
	"github.com/abdurrahman998/tournament/internal/service/user"
	"github.com/abdurrahman998/tournament/internal/service/wallet"
	"github.com/abdurrahman998/tournament/internal/testutil"
)

type Services struct {
	Storage             repository.Storage
	AuthService         *auth.AuthService
	UserService         *user.UserService
	TournamentService   *tournament.TournamentService
	SettlementService   *settlement.Service
	WalletService       *wallet.WalletService
	ProfileService      *profile.ProfileService
	NotificationService *notification.NotificationService
}

// Create db transaction and run server with that connection (one connection cause one transaction)
// The created transaction passed to inner function: so, you can safely use testutil.InTx with it
func ServeInTx(dbpool *pgxpool.Pool, t *testing.T, fn func(tx pgx.Tx, srvURL string, services Services)) {
	testutil.InTx(dbpool, t, func(tx pgx.Tx) {
		storage := postgres.NewStorage(tx)
		l := logger.NewNoOp()

		tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: "test-secret"}, storage.Refresh())
		require.NoError(t, err, "token manager should be created without errors")

		userService := user.NewService(auth.DefaultHasher, storage)

		authService, err := auth.NewService(auth.Config{}, tokenManager, userService)
		require.NoError(t, err, "auth service starting error", err)

		notificationService := notification.NewService(storage, nil, l)
		tournamentService := tournament.NewService(storage, nil, l)
		settlementService := settlement.NewService(storage, notificationService, l)
		walletService := wallet.NewService(storage, notificationService, l)
		profileService := profile.NewService(storage)

		router := handlers.NewRouter(
			authService,
			tournamentService,
			settlementService,
			walletService,
			profileService,
			notificationService,
			l,
		)

		// Run http server with the router in transaction
		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(tx, srv.URL, Services{
			Storage:             storage,
			AuthService:         authService,
			UserService:         userService,
			TournamentService:   tournamentService,
			SettlementService:   settlementService,
			WalletService:       walletService,
			ProfileService:      profileService,
			NotificationService: notificationService,
		})
	})
}
