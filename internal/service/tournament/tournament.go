package tournament

import (
	"context"

	"github.com/google/uuid"

	"github.com/abdurrahman998/tournament/internal/logger"
	"github.com/abdurrahman998/tournament/internal/models"
	"github.com/abdurrahman998/tournament/internal/repository"
)

// listCache caches rendered feed pages. Display data only: admission and
// settlement always go to the database, stale counts here can never let
// anyone past capacity.
type listCache interface {
	Get(ctx context.Context, opts repository.ListTournamentsOpts) ([]models.Tournament, bool)
	Set(ctx context.Context, opts repository.ListTournamentsOpts, tournaments []models.Tournament)
}

// View is a tournament as seen by one viewer: joined flag resolved and room
// credentials blanked unless the viewer has joined.
type View struct {
	models.Tournament
	Joined bool
}

type TournamentService struct {
	storage repository.Storage
	cache   listCache
	logger  logger.Logger
}

func NewService(storage repository.Storage, cache listCache, l logger.Logger) *TournamentService {
	if l == nil {
		l = logger.NewNoOp()
	}

	return &TournamentService{
		storage: storage,
		cache:   cache,
		logger:  l,
	}
}

// List returns the tournament feed. viewerID may be nil for anonymous users.
func (s *TournamentService) List(ctx context.Context, opts repository.ListTournamentsOpts, viewerID *uuid.UUID) ([]View, error) {
	tournaments, cached := s.cachedList(ctx, opts)
	if !cached {
		var err error
		tournaments, err = s.storage.Tournament().ListTournaments(ctx, opts)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			s.cache.Set(ctx, opts, tournaments)
		}
	}

	joined := map[uuid.UUID]bool{}
	if viewerID != nil {
		ids, err := s.storage.Tournament().ListJoinedIDs(ctx, *viewerID)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			joined[id] = true
		}
	}

	views := make([]View, 0, len(tournaments))
	for _, t := range tournaments {
		views = append(views, newView(t, joined[t.ID]))
	}

	return views, nil
}

func (s *TournamentService) Get(ctx context.Context, id uuid.UUID, viewerID *uuid.UUID) (View, error) {
	tournament, err := s.storage.Tournament().GetTournament(ctx, id)
	if err != nil {
		return View{}, err
	}

	joined := false
	if viewerID != nil {
		joined, err = s.storage.Tournament().IsParticipant(ctx, id, *viewerID)
		if err != nil {
			return View{}, err
		}
	}

	return newView(tournament, joined), nil
}

func (s *TournamentService) Create(ctx context.Context, tournament models.Tournament) (models.Tournament, error) {
	return s.storage.Tournament().CreateTournament(ctx, tournament)
}

// Search returns anonymous views: room credentials stay hidden
func (s *TournamentService) Search(ctx context.Context, query string, limit int) ([]View, error) {
	tournaments, err := s.storage.Tournament().ListTournaments(ctx, repository.ListTournamentsOpts{Search: query, Limit: limit})
	if err != nil {
		return nil, err
	}

	views := make([]View, 0, len(tournaments))
	for _, t := range tournaments {
		views = append(views, newView(t, false))
	}

	return views, nil
}

func (s *TournamentService) cachedList(ctx context.Context, opts repository.ListTournamentsOpts) ([]models.Tournament, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.Get(ctx, opts)
}

// Room credentials stay hidden until the viewer has paid the entry fee
func newView(t models.Tournament, joined bool) View {
	if !joined {
		t.RoomID = ""
		t.RoomPassword = ""
	}

	return View{Tournament: t, Joined: joined}
}
