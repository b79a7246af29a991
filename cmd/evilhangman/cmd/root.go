// Package cmd contains the CLI commands for evilhangman.
package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/robalobadob/evilhangman/internal/config"
	"github.com/robalobadob/evilhangman/internal/words"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "evilhangman",
	Short: "Hangman where the computer never commits to a word",
	Long: `Evil Hangman keeps every dictionary word that fits the revealed letters
and, after each guess, keeps whichever family of words helps you least.

Commands:
  serve   run the HTTP API
  play    play a round in the terminal
  words   show how many words the dictionary has per length`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("words", "", "word list file, one word per line (default is the embedded list)")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("words_file", rootCmd.PersistentFlags().Lookup("words"))
}

// initConfig reads .env and environment variables and sets up logging.
func initConfig() {
	config.Init(viper.GetViper())
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	settings().ApplyLogLevel()
}

func settings() config.Config {
	return config.Load(viper.GetViper())
}

// loadWords initialises the shared dictionary from --words or the embedded list.
func loadWords() error {
	return words.Init(settings().WordsFile)
}
