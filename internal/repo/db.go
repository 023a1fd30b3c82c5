package repo

import (
	"blackjack-service/internal/config"
	"blackjack-service/internal/model"
	"blackjack-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB() {
	dsn := config.GlobalConfig.Database.DSN
	var err error
	DB, err = gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Log.Fatal("Failed to open database",
			zap.Error(err),
		)
	}

	if err = DB.AutoMigrate(&model.RoundRecord{}); err != nil {
		logger.Log.Fatal("Failed to migrate database",
			zap.Error(err),
		)
	}
}
