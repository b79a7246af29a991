package cmd

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/robalobadob/evilhangman/internal/db"
	"github.com/robalobadob/evilhangman/internal/httpserver"
	"github.com/robalobadob/evilhangman/internal/store"
	"github.com/robalobadob/evilhangman/internal/words"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API on PORT (default 5175).

Settings come from .env and the environment: DB_PATH, JWT_SECRET,
CLIENT_ORIGIN, DAILY_SALT, DEFAULT_GUESSES, DEFAULT_DIFFICULTY and friends.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("port", "", "listen port (overrides PORT)")
	viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))
}

func runServe(cmd *cobra.Command, args []string) error {
	// The server logs JSON; the console writer is for interactive commands.
	log.Logger = zerolog.New(cmd.ErrOrStderr()).With().Timestamp().Logger()
	cfg := settings()

	if err := loadWords(); err != nil {
		log.Fatal().Err(err).Msg("failed to load word list")
	}

	conn, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	defer conn.Close()
	if err := db.Migrate(conn); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	mem := store.NewMemoryStore()
	srv := httpserver.New(mem, conn, httpserver.Options{
		Dict:              words.Dictionary(),
		Auth:              cfg.Auth(),
		ClientOrigin:      cfg.ClientOrigin,
		DailySalt:         cfg.DailySalt,
		DefaultGuesses:    cfg.DefaultGuesses,
		DefaultDifficulty: cfg.Difficulty(),
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	go srv.PruneLoop(ctx, 10*time.Minute, 24*time.Hour)

	log.Info().Str("port", cfg.Port).Int("words", words.Dictionary().Len()).Msg("starting server")
	return srv.Start(":" + cfg.Port)
}
