package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/abdurrahman998/tournament/internal/apperrors"
	"github.com/abdurrahman998/tournament/internal/handlers/render"
	"github.com/abdurrahman998/tournament/internal/handlers/userctx"
	"github.com/abdurrahman998/tournament/internal/logger"
	"github.com/abdurrahman998/tournament/internal/repository"
	"github.com/abdurrahman998/tournament/internal/service/tournament"
)

type tournamentResponse struct {
	ID             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	GameName       string    `json:"gameName"`
	GameCoverImage string    `json:"gameCoverImage,omitempty"`
	Description    string    `json:"description,omitempty"`
	Rules          []string  `json:"rules,omitempty"`
	StartTime      time.Time `json:"startTime"`
	TotalSlots     int       `json:"totalSlots"`
	JoinedPlayers  int       `json:"joinedPlayers"`
	EntryFee       float64   `json:"entryFee"`
	PrizePool      float64   `json:"prizePool"`
	Status         string    `json:"status"`
	Featured       bool      `json:"featured"`
	Joined         bool      `json:"joined"`
	RoomID         string    `json:"roomId,omitempty"`
	RoomPassword   string    `json:"roomPassword,omitempty"`
}

func newTournamentResponse(v tournament.View) tournamentResponse {
	entryFee, _ := v.EntryFee.Float64()
	prizePool, _ := v.PrizePool.Float64()

	return tournamentResponse{
		ID:             v.ID,
		Title:          v.Title,
		GameName:       v.GameName,
		GameCoverImage: v.GameCoverImage,
		Description:    v.Description,
		Rules:          v.Rules,
		StartTime:      v.StartTime,
		TotalSlots:     v.TotalSlots,
		JoinedPlayers:  v.JoinedPlayers,
		EntryFee:       entryFee,
		PrizePool:      prizePool,
		Status:         v.Status,
		Featured:       v.Featured,
		Joined:         v.Joined,
		RoomID:         v.RoomID,
		RoomPassword:   v.RoomPassword,
	}
}

func handleListTournaments(tournamentService tournamentService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		opts := repository.ListTournamentsOpts{
			Game:     query.Get("game"),
			Featured: query.Get("featured") == "true",
			SortBy:   query.Get("sortBy"),
			Search:   query.Get("search"),
		}

		if raw := query.Get("maxFee"); raw != "" {
			maxFee, err := parseMaxFee(raw)
			if err != nil {
				render.ServiceError(w, "Invalid maxFee value", http.StatusBadRequest)
				return
			}
			opts.MaxFee = &maxFee
		}

		var viewerID *uuid.UUID
		if user, ok := userctx.FromContext(r.Context()); ok {
			viewerID = &user.ID
		}

		views, err := tournamentService.List(r.Context(), opts, viewerID)
		if err != nil {
			l.Error("Failed to list tournaments", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		tournaments := make([]tournamentResponse, 0, len(views))
		for _, v := range views {
			tournaments = append(tournaments, newTournamentResponse(v))
		}
		render.JSON(w, tournaments)
	})
}

func handleGetTournament(tournamentService tournamentService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Tournament not found", http.StatusNotFound)
			return
		}

		var viewerID *uuid.UUID
		if user, ok := userctx.FromContext(r.Context()); ok {
			viewerID = &user.ID
		}

		view, err := tournamentService.Get(r.Context(), id, viewerID)
		switch {
		case err == nil:
			render.JSON(w, newTournamentResponse(view))
		case errors.Is(err, apperrors.ErrTournamentNotFound):
			render.ServiceError(w, "Tournament not found", http.StatusNotFound)
		default:
			l.Error("Failed to get tournament", "error", err, "tournament_id", id)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func handleJoinTournament(settlementService settlementService, l logger.Logger) http.Handler {
	type response struct {
		Success       bool      `json:"success"`
		Message       string    `json:"message"`
		TransactionID uuid.UUID `json:"transactionId"`
		Balance       float64   `json:"balance"`
	}

	// Error body the payment dialog renders a top-up prompt from
	type insufficientFundsResponse struct {
		Error             string  `json:"error"`
		InsufficientFunds bool    `json:"insufficientFunds"`
		RequiredAmount    float64 `json:"requiredAmount"`
		CurrentBalance    float64 `json:"currentBalance"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		id, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Tournament not found", http.StatusNotFound)
			return
		}

		result, err := settlementService.Join(r.Context(), user.ID, id)

		var fundsErr *apperrors.InsufficientFundsError

		switch {
		case err == nil:
			balance, _ := result.Wallet.Balance.Float64()
			render.JSON(w, response{
				Success:       true,
				Message:       "Successfully joined " + result.Tournament.Title,
				TransactionID: result.TransactionID,
				Balance:       balance,
			})
		case errors.Is(err, apperrors.ErrTournamentNotFound):
			render.ServiceError(w, "Tournament not found", http.StatusNotFound)
		case errors.As(err, &fundsErr):
			required, _ := fundsErr.Required.Float64()
			current, _ := fundsErr.Current.Float64()
			render.JSONWithStatus(w, insufficientFundsResponse{
				Error:             "Insufficient funds",
				InsufficientFunds: true,
				RequiredAmount:    required,
				CurrentBalance:    current,
			}, http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrAlreadyJoined):
			render.ServiceError(w, "Already joined this tournament", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrTournamentFull):
			render.ServiceError(w, "Tournament is full", http.StatusBadRequest)
		case errors.Is(err, apperrors.ErrTournamentNotJoinable):
			render.ServiceError(w, "Tournament is not accepting entries", http.StatusBadRequest)
		default:
			l.Error("Failed to join tournament", "error", err, "user_id", user.ID, "tournament_id", id)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

// parseMaxFee accepts a number or the literal "free"
func parseMaxFee(raw string) (decimal.Decimal, error) {
	if raw == "free" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}
