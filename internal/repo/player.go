package repo

import (
	"context"

	"github.com/scorewire/cricket-api/internal/models"
)

func (r *GormRepo) FindPlayerByPlayerID(ctx context.Context, playerID string) (*models.Player, error) {
	var player models.Player
	if err := r.DB.WithContext(ctx).Where("player_id = ?", playerID).First(&player).Error; err != nil {
		return nil, translate(err)
	}
	return &player, nil
}

func (r *GormRepo) CreatePlayer(ctx context.Context, p *models.Player) error {
	return translate(r.DB.WithContext(ctx).Create(p).Error)
}
