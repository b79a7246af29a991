// Package config loads runtime settings from .env, the environment and CLI flags.
package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/robalobadob/evilhangman/internal/auth"
	"github.com/robalobadob/evilhangman/internal/game"
)

// Config holds every setting the server and CLI read.
type Config struct {
	Port              string
	LogLevel          string
	DBPath            string
	WordsFile         string
	JWTSecret         string
	JWTExpiresDays    int
	CookieName        string
	ClientOrigin      string
	DailySalt         string
	DefaultGuesses    int
	DefaultDifficulty string
	Production        bool
}

var defaults = map[string]any{
	"port":               "5175",
	"log_level":          "info",
	"db_path":            "./data/app.db",
	"words_file":         "",
	"jwt_secret":         "dev_secret_change_me",
	"jwt_expires_days":   14,
	"cookie_name":        "hangman_token",
	"client_origin":      "http://localhost:5173",
	"daily_salt":         "local_dev_salt",
	"default_guesses":    8,
	"default_difficulty": "hard",
	"node_env":           "development",
}

// Init loads .env (if present) and wires viper to the environment. Keys are
// the upper-case env names, e.g. PORT or JWT_SECRET.
func Init(v *viper.Viper) {
	_ = godotenv.Load()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// Load reads the current settings out of v.
func Load(v *viper.Viper) Config {
	return Config{
		Port:              v.GetString("port"),
		LogLevel:          v.GetString("log_level"),
		DBPath:            v.GetString("db_path"),
		WordsFile:         v.GetString("words_file"),
		JWTSecret:         v.GetString("jwt_secret"),
		JWTExpiresDays:    v.GetInt("jwt_expires_days"),
		CookieName:        v.GetString("cookie_name"),
		ClientOrigin:      v.GetString("client_origin"),
		DailySalt:         v.GetString("daily_salt"),
		DefaultGuesses:    v.GetInt("default_guesses"),
		DefaultDifficulty: v.GetString("default_difficulty"),
		Production:        v.GetString("node_env") == "production",
	}
}

// Auth derives token/cookie settings.
func (c Config) Auth() auth.Config {
	return auth.Config{
		Secret:      c.JWTSecret,
		ExpiresDays: c.JWTExpiresDays,
		CookieName:  c.CookieName,
		Production:  c.Production,
	}
}

// Difficulty parses DefaultDifficulty, falling back to Hard.
func (c Config) Difficulty() game.Difficulty {
	d, err := game.ParseDifficulty(c.DefaultDifficulty)
	if err != nil {
		return game.Hard
	}
	return d
}

// ApplyLogLevel sets the global zerolog level; unknown levels are ignored.
func (c Config) ApplyLogLevel() {
	if lvl, err := zerolog.ParseLevel(c.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
}
