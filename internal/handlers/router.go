package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/abdurrahman998/tournament/internal/handlers/middleware"
	"github.com/abdurrahman998/tournament/internal/logger"
	"github.com/abdurrahman998/tournament/internal/models"
	"github.com/abdurrahman998/tournament/internal/repository"
	"github.com/abdurrahman998/tournament/internal/service/profile"
	"github.com/abdurrahman998/tournament/internal/service/settlement"
	"github.com/abdurrahman998/tournament/internal/service/tournament"
	"github.com/abdurrahman998/tournament/internal/service/wallet"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	tournamentService tournamentService,
	settlementService settlementService,
	walletService walletService,
	profileService profileService,
	notificationService notificationService,
	logger logger.Logger,
) http.Handler {
	authMiddleware := middleware.AuthMiddleware(authService)
	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(h)
	}
	optionalAuthMiddleware := middleware.OptionalAuthMiddleware(authService)
	withOptionalAuth := func(h http.Handler) http.Handler {
		return optionalAuthMiddleware(h)
	}

	api := http.NewServeMux()

	api.Handle("POST /auth/register", handleRegister(authService, logger))
	api.Handle("POST /auth/login", handleLogin(authService, logger))
	api.Handle("POST /auth/refresh", handleTokenRefresh(authService, logger))

	api.Handle("GET /tournaments", withOptionalAuth(handleListTournaments(tournamentService, logger)))
	api.Handle("GET /tournaments/{id}", withOptionalAuth(handleGetTournament(tournamentService, logger)))
	api.Handle("POST /tournaments/{id}/join", withAuth(handleJoinTournament(settlementService, logger)))

	api.Handle("GET /wallet", withAuth(handleWalletOverview(walletService, logger)))
	api.Handle("POST /wallet", withAuth(handleWalletAction(walletService, logger)))

	api.Handle("GET /profile", withAuth(handleGetProfile(profileService, logger)))
	api.Handle("PUT /profile", withAuth(handleUpdateProfile(profileService, logger)))

	api.Handle("GET /notifications", withAuth(handleListNotifications(notificationService, logger)))
	api.Handle("PUT /notifications", withAuth(handleMarkNotificationRead(notificationService, logger)))

	api.Handle("GET /search", handleSearch(tournamentService, profileService, logger))
	api.Handle("GET /me", withAuth(handleUserMe()))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

type authService interface {
	// Register user with username and password
	// Has to return apperrors.ErrUserAlreadyExists if user already exists
	Register(ctx context.Context, username string, password string) (models.TokenPair, error)

	// Login user with username and password
	// Has to return apperrors.ErrUserNotFound if user not found
	Login(ctx context.Context, username string, password string) (models.TokenPair, error)

	// Refresh tokens using refresh token
	// If token expired: has to return apperrors.ErrRefreshTokenExpired
	// If token not found: has to return apperrors.ErrRefreshTokenNotFound
	RefreshPair(ctx context.Context, refresh string) (models.TokenPair, error)

	// Set auth tokens (access, refresh) to response
	SetTokenPairToResponse(w http.ResponseWriter, pair models.TokenPair)

	// Get refresh token from request
	GetRefreshString(r *http.Request) (string, error)

	// Get request and return user if it authenticated or error
	GetUserFromRequest(ctx context.Context, r *http.Request) (models.User, error)
}

type tournamentService interface {
	List(ctx context.Context, opts repository.ListTournamentsOpts, viewerID *uuid.UUID) ([]tournament.View, error)
	Get(ctx context.Context, id uuid.UUID, viewerID *uuid.UUID) (tournament.View, error)
	Search(ctx context.Context, query string, limit int) ([]tournament.View, error)
}

type settlementService interface {
	// Join settles the entry fee and admits the user in one transaction
	Join(ctx context.Context, userID uuid.UUID, tournamentID uuid.UUID) (settlement.Result, error)
}

type walletService interface {
	GetOverview(ctx context.Context, userID uuid.UUID) (wallet.Overview, error)
	RequestDeposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, phoneNumber string, referenceID *string) (models.Transaction, error)
	RequestWithdrawal(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, phoneNumber string) (models.Transaction, error)
}

type profileService interface {
	Get(ctx context.Context, user models.User) (profile.Overview, error)
	Update(ctx context.Context, userID uuid.UUID, params repository.UpdateProfileParams) (profile.Overview, error)
	Search(ctx context.Context, query string, limit int) ([]models.Profile, error)
}

type notificationService interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID, userID uuid.UUID, read bool) (models.Notification, error)
}
