package config

import (
	"time"

	"github.com/okeefe/recite-api/internal/domain"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Study    StudyConfig    `mapstructure:"study" validate:"required"`
	Task     TaskConfig     `mapstructure:"task" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout_seconds" validate:"gte=1,lte=300"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url" validate:"required,url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// StudyConfig contains the scheduling defaults applied to newly created
// decks and selects the spaced repetition algorithm used for reviews.
type StudyConfig struct {
	Algorithm         string `mapstructure:"algorithm" validate:"required,oneof=fsrs sm2"`
	NewCardsPerDay    int    `mapstructure:"new_cards_per_day" validate:"gte=0"`
	ReviewCardsPerDay int    `mapstructure:"review_cards_per_day" validate:"gte=0"`
}

// DefaultDeckSettings returns the deck settings configured as server-wide
// defaults, used when a deck is created without explicit settings.
func (c StudyConfig) DefaultDeckSettings() domain.DeckSettings {
	return domain.DeckSettings{
		NewCardsPerDay:    c.NewCardsPerDay,
		ReviewCardsPerDay: c.ReviewCardsPerDay,
	}
}

// TaskConfig contains settings for the background task runner and the
// scheduled deck statistics refresh.
type TaskConfig struct {
	WorkerCount   int    `mapstructure:"worker_count" validate:"gte=1,lte=32"`
	QueueSize     int    `mapstructure:"queue_size" validate:"gte=1"`
	StatsSchedule string `mapstructure:"stats_schedule" validate:"required"`
}
