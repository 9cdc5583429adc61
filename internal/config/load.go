package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envPrefix is prepended to environment variable names, so the key
// "server.port" is read from RECITE_SERVER_PORT.
const envPrefix = "RECITE"

// Load reads configuration from environment variables and an optional config
// file. Environment variables take precedence over values from the file.
// Returns a populated Config struct or an error if loading or validation
// fails.
func Load() (*Config, error) {
	// A .env file in the working directory is optional. Variables already
	// present in the environment are not overridden.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults registers a default for every configuration key. Registering
// the key is also what lets viper pick it up from the environment, so even
// required fields without a usable default appear here with a zero value.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.shutdown_timeout_seconds", 10)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("study.algorithm", "fsrs")
	v.SetDefault("study.new_cards_per_day", 20)
	v.SetDefault("study.review_cards_per_day", 200)

	v.SetDefault("task.worker_count", 2)
	v.SetDefault("task.queue_size", 64)
	v.SetDefault("task.stats_schedule", "0 3 * * *")
}

// validateConfig checks the loaded configuration against the struct
// validation tags and reports every failing field in a single error.
func validateConfig(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("config validation failed: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
