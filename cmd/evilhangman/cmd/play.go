package cmd

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/evilhangman/internal/console"
	"github.com/robalobadob/evilhangman/internal/game"
	"github.com/robalobadob/evilhangman/internal/words"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a round in the terminal",
	Long: `Play a round of Evil Hangman, one letter per line.

Example:
  evilhangman play --length 6 --guesses 10 --difficulty medium
  evilhangman play --debug`,
	RunE: runPlay,
}

var (
	playLength     int
	playGuesses    int
	playDifficulty string
	playDebug      bool
	playSeed       int64
)

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().IntVarP(&playLength, "length", "l", 0, "word length (default is a random available length)")
	playCmd.Flags().IntVarP(&playGuesses, "guesses", "g", 0, "wrong guesses allowed (default DEFAULT_GUESSES)")
	playCmd.Flags().StringVarP(&playDifficulty, "difficulty", "d", "", "easy, medium or hard (default DEFAULT_DIFFICULTY)")
	playCmd.Flags().BoolVar(&playDebug, "debug", false, "show remaining words and partitions")
	playCmd.Flags().Int64Var(&playSeed, "seed", 0, "random seed (default is time based)")
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg := settings()
	if err := loadWords(); err != nil {
		return fmt.Errorf("loading words: %w", err)
	}
	dict := words.Dictionary()

	seed := playSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	opts := console.PlayOptions{
		Length:     playLength,
		Guesses:    playGuesses,
		Difficulty: cfg.Difficulty(),
		Debug:      playDebug,
		Rand:       rng,
	}
	if opts.Guesses == 0 {
		opts.Guesses = cfg.DefaultGuesses
	}
	if playDifficulty != "" {
		d, err := game.ParseDifficulty(playDifficulty)
		if err != nil {
			return err
		}
		opts.Difficulty = d
	}
	if opts.Length == 0 {
		lengths := dict.Lengths()
		opts.Length = lengths[rng.Intn(len(lengths))]
	}

	eng := game.NewWithDictionary(dict, game.WithLogger(log.Logger))
	res, err := console.Play(cmd.InOrStdin(), cmd.OutOrStdout(), eng, opts)
	if errors.Is(err, console.ErrInputClosed) {
		return nil
	}
	if err != nil {
		return err
	}
	log.Debug().Bool("won", res.Won).Str("secret", res.Secret).Int("guesses", res.Guesses).Msg("round finished")
	return nil
}
