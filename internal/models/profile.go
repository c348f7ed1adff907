package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Profile struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Username    string
	FullName    string
	Bio         string
	AvatarURL   string
	SteamID     string
	EpicGamesID string
	RiotID      string
}

// GameStat aggregates a user's results for a single game.
type GameStat struct {
	Game        string
	Tournaments int
	Wins        int
	Earnings    decimal.Decimal
}
