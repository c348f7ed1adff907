package apperrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")
	ErrUnauthorized      = errors.New("authentication required")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenIsUsed   = errors.New("refresh token is used")
	ErrRefreshTokenExpired  = errors.New("refresh token is expired")

	ErrTournamentNotFound    = errors.New("tournament not found")
	ErrTournamentNotJoinable = errors.New("tournament is not joinable")
	ErrTournamentFull        = errors.New("tournament is full")
	ErrAlreadyJoined         = errors.New("already joined this tournament")

	ErrWalletNotFound      = errors.New("wallet not found")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrTransactionNotFound = errors.New("transaction not found")

	ErrNotificationNotFound = errors.New("notification not found")
	ErrProfileNotFound      = errors.New("profile not found")
)

// InsufficientFundsError carries the exact shortfall so clients can prompt
// a top-up of the right amount. Matches ErrInsufficientFunds with errors.Is.
type InsufficientFundsError struct {
	Required decimal.Decimal
	Current  decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: required %s, current balance %s", e.Required, e.Current)
}

func (e *InsufficientFundsError) Unwrap() error {
	return ErrInsufficientFunds
}
