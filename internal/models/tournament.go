package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TournamentStatusUpcoming  = "upcoming"
	TournamentStatusActive    = "active"
	TournamentStatusCompleted = "completed"
	TournamentStatusCancelled = "cancelled"
)

type Tournament struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Title          string
	GameName       string
	GameCoverImage string
	Description    string
	Rules          []string
	StartTime      time.Time
	TotalSlots     int
	EntryFee       decimal.Decimal
	PrizePool      decimal.Decimal
	RoomID         string
	RoomPassword   string
	Status         string
	Featured       bool

	// Filled by queries that join the participants table
	JoinedPlayers int
}

// Joinable reports whether new entries are still accepted.
// Capacity is checked separately, atomically with the participant insert.
func (t Tournament) Joinable() bool {
	return t.Status == TournamentStatusUpcoming || t.Status == TournamentStatusActive
}

// Participant links a user to a tournament. The (tournament_id, user_id)
// unique constraint is what makes "joined at most once" hold under races.
type Participant struct {
	ID            uuid.UUID
	JoinedAt      time.Time
	TournamentID  uuid.UUID
	UserID        uuid.UUID
	TransactionID uuid.UUID
}
