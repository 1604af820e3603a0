package service

import (
	"context"
	"errors"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/scorewire/cricket-api/internal/logging"
	"github.com/scorewire/cricket-api/internal/models"
	"github.com/scorewire/cricket-api/internal/repo"
	"github.com/scorewire/cricket-api/internal/search"
)

var ErrPlayerNotFound = errors.New("player not found")

type PlayerService struct {
	Repo *repo.GormRepo

	// ES is optional; search is mounted only when it is configured.
	ES *elasticsearch.Client
}

func (s *PlayerService) Get(ctx context.Context, playerID string) (*models.Player, error) {
	if playerID == "" {
		return nil, ErrPlayerNotFound
	}
	player, err := s.Repo.FindPlayerByPlayerID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return player, nil
}

func (s *PlayerService) Search(ctx context.Context, query string, page, size int) (int64, []models.Player, error) {
	l := logging.FromContext(ctx).With("svc", "player.search", "query", query)

	from, size := search.Pagination(page, size)
	total, players, err := search.Players(ctx, s.ES, query, from, size)
	if err != nil {
		l.Error("player_search_failed", "error", err)
		return 0, nil, err
	}
	return total, players, nil
}
