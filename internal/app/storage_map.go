package app

import (
	"time"

	"pronote2telegram/internal/config"
	"pronote2telegram/internal/storage"
)

func mapStorageConfig(cfg *config.Config) (storage.Config, error) {
	busy, err := config.ParseDurationOrDefault("history.busy_timeout", cfg.History.BusyTimeout, time.Second)
	if err != nil {
		return storage.Config{}, err
	}
	return storage.Config{
		Driver:      cfg.History.DriverOrDefault(),
		Dir:         cfg.Home,
		Path:        cfg.HistoryPath(),
		BusyTimeout: busy,
	}, nil
}
