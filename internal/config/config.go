package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Game     GameConfig     `mapstructure:"game"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type GameConfig struct {
	// StartingBalance is the bankroll a fresh game starts with. The balance
	// itself lives in memory only; it is not carried across processes.
	StartingBalance int64 `mapstructure:"startingBalance"`
	// DealerStepDelayMs is a pacing hint for front ends animating the
	// dealer's draw sequence. The engine itself never sleeps.
	DealerStepDelayMs int `mapstructure:"dealerStepDelayMs"`
}

var GlobalConfig *Config

func LoadConfig(path string) {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.dsn", "file:blackjack.db?cache=shared")
	viper.SetDefault("game.startingBalance", 1_000_000)
	viper.SetDefault("game.dealerStepDelayMs", 1000)

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file, %s", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
	GlobalConfig = &cfg
}
