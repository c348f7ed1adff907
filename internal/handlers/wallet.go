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
	"github.com/abdurrahman998/tournament/internal/models"
	"github.com/abdurrahman998/tournament/internal/repository"
)

type transactionResponse struct {
	ID              uuid.UUID `json:"id"`
	CreatedAt       time.Time `json:"createdAt"`
	Amount          float64   `json:"amount"`
	Type            string    `json:"type"`
	Status          string    `json:"status"`
	Description     string    `json:"description,omitempty"`
	TournamentTitle *string   `json:"tournamentTitle,omitempty"`
	GameName        *string   `json:"gameName,omitempty"`
}

func newTransactionResponse(t repository.TransactionRecord) transactionResponse {
	amount, _ := t.Amount.Float64()

	return transactionResponse{
		ID:              t.ID,
		CreatedAt:       t.CreatedAt,
		Amount:          amount,
		Type:            t.Kind,
		Status:          t.Status,
		Description:     t.Description,
		TournamentTitle: t.TournamentTitle,
		GameName:        t.GameName,
	}
}

func handleWalletOverview(walletService walletService, l logger.Logger) http.Handler {
	type response struct {
		Balance      float64               `json:"balance"`
		Transactions []transactionResponse `json:"transactions"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		overview, err := walletService.GetOverview(r.Context(), user.ID)
		if err != nil {
			l.Error("Failed to get wallet overview", "error", err, "user_id", user.ID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		balance, _ := overview.Wallet.Balance.Float64()
		transactions := make([]transactionResponse, 0, len(overview.Transactions))
		for _, t := range overview.Transactions {
			transactions = append(transactions, newTransactionResponse(t))
		}

		render.JSON(w, response{Balance: balance, Transactions: transactions})
	})
}

func handleWalletAction(walletService walletService, l logger.Logger) http.Handler {
	type request struct {
		Action      string          `json:"action" validate:"required,oneof=add withdraw"`
		Amount      decimal.Decimal `json:"amount" validate:"required"`
		PhoneNumber string          `json:"phoneNumber" validate:"required"`
		ReferenceID *string         `json:"referenceId"`
	}

	type response struct {
		Success       bool      `json:"success"`
		Message       string    `json:"message"`
		TransactionID uuid.UUID `json:"transactionId"`
		Status        string    `json:"status"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		if !data.Amount.IsPositive() {
			render.ServiceError(w, "Amount must be positive", http.StatusBadRequest)
			return
		}

		var transaction models.Transaction
		var message string

		switch data.Action {
		case "add":
			transaction, err = walletService.RequestDeposit(r.Context(), user.ID, data.Amount, data.PhoneNumber, data.ReferenceID)
			message = "Deposit request submitted"
		case "withdraw":
			transaction, err = walletService.RequestWithdrawal(r.Context(), user.ID, data.Amount, data.PhoneNumber)
			message = "Withdrawal request submitted"
		}

		var fundsErr *apperrors.InsufficientFundsError

		switch {
		case err == nil:
			render.JSON(w, response{
				Success:       true,
				Message:       message,
				TransactionID: transaction.ID,
				Status:        transaction.Status,
			})
		case errors.As(err, &fundsErr):
			render.ServiceError(w, "Insufficient funds", http.StatusBadRequest)
		default:
			l.Error("Failed to process wallet action", "error", err, "user_id", user.ID, "action", data.Action)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}
