package handlers

import (
	"net/http"

	"github.com/abdurrahman998/tournament/internal/handlers/render"
	"github.com/abdurrahman998/tournament/internal/logger"
)

const searchResultLimit = 20

func handleSearch(tournamentService tournamentService, profileService profileService, l logger.Logger) http.Handler {
	type response struct {
		Tournaments []tournamentResponse `json:"tournaments"`
		Players     []profileResponse    `json:"players"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		if query == "" {
			render.ServiceError(w, "Query parameter 'q' is required", http.StatusBadRequest)
			return
		}
		searchType := r.URL.Query().Get("type")

		result := response{
			Tournaments: []tournamentResponse{},
			Players:     []profileResponse{},
		}

		if searchType == "" || searchType == "tournaments" {
			tournaments, err := tournamentService.Search(r.Context(), query, searchResultLimit)
			if err != nil {
				l.Error("Failed to search tournaments", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			for _, v := range tournaments {
				result.Tournaments = append(result.Tournaments, newTournamentResponse(v))
			}
		}

		if searchType == "" || searchType == "players" {
			players, err := profileService.Search(r.Context(), query, searchResultLimit)
			if err != nil {
				l.Error("Failed to search players", "error", err)
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			for _, p := range players {
				result.Players = append(result.Players, newPlayerResponse(p))
			}
		}

		render.JSON(w, result)
	})
}
