package profile

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/abdurrahman998/tournament/internal/apperrors"
	"github.com/abdurrahman998/tournament/internal/models"
	"github.com/abdurrahman998/tournament/internal/repository"
)

// Overview is a profile with its aggregated results
type Overview struct {
	Profile           models.Profile
	GameStats         []models.GameStat
	TournamentsPlayed int
	TournamentsWon    int
	TotalEarnings     decimal.Decimal
}

type ProfileService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *ProfileService {
	return &ProfileService{storage: storage}
}

// Get returns the user's profile, creating a default one on first access
func (s *ProfileService) Get(ctx context.Context, user models.User) (Overview, error) {
	profile, err := s.storage.Profile().GetProfile(ctx, user.ID)
	if errors.Is(err, apperrors.ErrProfileNotFound) {
		profile, err = s.storage.Profile().CreateProfile(ctx, user.ID, user.Username)
	}
	if err != nil {
		return Overview{}, err
	}

	return s.overview(ctx, profile)
}

func (s *ProfileService) Update(ctx context.Context, userID uuid.UUID, params repository.UpdateProfileParams) (Overview, error) {
	profile, err := s.storage.Profile().UpdateProfile(ctx, userID, params)
	if err != nil {
		return Overview{}, err
	}

	return s.overview(ctx, profile)
}

func (s *ProfileService) Search(ctx context.Context, query string, limit int) ([]models.Profile, error) {
	return s.storage.Profile().SearchProfiles(ctx, query, limit)
}

func (s *ProfileService) overview(ctx context.Context, profile models.Profile) (Overview, error) {
	stats, err := s.storage.Profile().GetGameStats(ctx, profile.UserID)
	if err != nil {
		return Overview{}, err
	}

	o := Overview{
		Profile:       profile,
		GameStats:     stats,
		TotalEarnings: decimal.Zero,
	}
	for _, stat := range stats {
		o.TournamentsPlayed += stat.Tournaments
		o.TournamentsWon += stat.Wins
		o.TotalEarnings = o.TotalEarnings.Add(stat.Earnings)
	}

	return o, nil
}
