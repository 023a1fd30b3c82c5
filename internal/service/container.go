package service

import (
	"blackjack-service/internal/config"
	"blackjack-service/internal/service/game"
	"blackjack-service/internal/service/history"

	"gorm.io/gorm"
)

type Container struct {
	Game    *game.Service
	History *history.Service
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	historySvc := history.NewService(db)
	return &Container{
		Game:    game.NewService(cfg.Game, historySvc),
		History: historySvc,
	}
}
