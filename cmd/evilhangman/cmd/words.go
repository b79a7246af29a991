package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/robalobadob/evilhangman/internal/game"
	"github.com/robalobadob/evilhangman/internal/words"
)

var wordsCmd = &cobra.Command{
	Use:   "words",
	Short: "Show how many words the dictionary has per length",
	Args:  cobra.NoArgs,
	RunE:  runWords,
}

func init() {
	rootCmd.AddCommand(wordsCmd)
}

func runWords(cmd *cobra.Command, args []string) error {
	if err := loadWords(); err != nil {
		return fmt.Errorf("loading words: %w", err)
	}
	printHistogram(cmd.OutOrStdout(), words.Dictionary())
	return nil
}

// printHistogram writes one "length  count" row per length, then the total
// number of distinct words.
func printHistogram(out io.Writer, d *game.Dictionary) {
	for _, n := range d.Lengths() {
		fmt.Fprintf(out, "%2d  %d\n", n, d.CountForLength(n))
	}
	fmt.Fprintf(out, "total %d\n", d.Len())
}
