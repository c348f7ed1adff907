package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/abdurrahman998/tournament/internal/apperrors"
	"github.com/abdurrahman998/tournament/internal/handlers/render"
	"github.com/abdurrahman998/tournament/internal/handlers/userctx"
	"github.com/abdurrahman998/tournament/internal/logger"
	"github.com/abdurrahman998/tournament/internal/models"
	"github.com/abdurrahman998/tournament/internal/repository"
	"github.com/abdurrahman998/tournament/internal/service/profile"
)

type gameStatResponse struct {
	Game        string  `json:"game"`
	Tournaments int     `json:"tournaments"`
	Wins        int     `json:"wins"`
	Earnings    float64 `json:"earnings"`
}

type profileResponse struct {
	ID                uuid.UUID          `json:"id"`
	Username          string             `json:"username"`
	FullName          string             `json:"fullName,omitempty"`
	Bio               string             `json:"bio,omitempty"`
	AvatarURL         string             `json:"avatarUrl,omitempty"`
	SteamID           string             `json:"steamId,omitempty"`
	EpicGamesID       string             `json:"epicGamesId,omitempty"`
	RiotID            string             `json:"riotId,omitempty"`
	GameStats         []gameStatResponse `json:"gameStats"`
	TournamentsPlayed int                `json:"tournamentsPlayed"`
	TournamentsWon    int                `json:"tournamentsWon"`
	TotalEarnings     float64            `json:"totalEarnings"`
}

func newProfileResponse(o profile.Overview) profileResponse {
	stats := make([]gameStatResponse, 0, len(o.GameStats))
	for _, s := range o.GameStats {
		earnings, _ := s.Earnings.Float64()
		stats = append(stats, gameStatResponse{
			Game:        s.Game,
			Tournaments: s.Tournaments,
			Wins:        s.Wins,
			Earnings:    earnings,
		})
	}

	totalEarnings, _ := o.TotalEarnings.Float64()

	return profileResponse{
		ID:                o.Profile.UserID,
		Username:          o.Profile.Username,
		FullName:          o.Profile.FullName,
		Bio:               o.Profile.Bio,
		AvatarURL:         o.Profile.AvatarURL,
		SteamID:           o.Profile.SteamID,
		EpicGamesID:       o.Profile.EpicGamesID,
		RiotID:            o.Profile.RiotID,
		GameStats:         stats,
		TournamentsPlayed: o.TournamentsPlayed,
		TournamentsWon:    o.TournamentsWon,
		TotalEarnings:     totalEarnings,
	}
}

func handleGetProfile(profileService profileService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}

		overview, err := profileService.Get(r.Context(), user)
		if err != nil {
			l.Error("Failed to get profile", "error", err, "user_id", user.ID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, newProfileResponse(overview))
	})
}

func handleUpdateProfile(profileService profileService, l logger.Logger) http.Handler {
	type request struct {
		Username    string `json:"username" validate:"required,min=2,max=50"`
		FullName    string `json:"fullName" validate:"max=100"`
		Bio         string `json:"bio" validate:"max=500"`
		SteamID     string `json:"steamId" validate:"max=100"`
		EpicGamesID string `json:"epicGamesId" validate:"max=100"`
		RiotID      string `json:"riotId" validate:"max=100"`
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

		overview, err := profileService.Update(r.Context(), user.ID, repository.UpdateProfileParams{
			Username:    data.Username,
			FullName:    data.FullName,
			Bio:         data.Bio,
			SteamID:     data.SteamID,
			EpicGamesID: data.EpicGamesID,
			RiotID:      data.RiotID,
		})

		switch {
		case err == nil:
			render.JSON(w, newProfileResponse(overview))
		case errors.Is(err, apperrors.ErrProfileNotFound):
			render.ServiceError(w, "Profile not found", http.StatusNotFound)
		default:
			l.Error("Failed to update profile", "error", err, "user_id", user.ID)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	})
}

func newPlayerResponse(p models.Profile) profileResponse {
	return profileResponse{
		ID:        p.UserID,
		Username:  p.Username,
		FullName:  p.FullName,
		AvatarURL: p.AvatarURL,
		GameStats: []gameStatResponse{},
	}
}
