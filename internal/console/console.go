// Package console runs a round of Evil Hangman on a line-oriented terminal.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/robalobadob/evilhangman/internal/game"
)

// PlayOptions is the round the player asked for.
type PlayOptions struct {
	Length     int
	Guesses    int
	Difficulty game.Difficulty
	Debug      bool      // show remaining word count and partitions
	Rand       game.Rand // picks the revealed word on a loss; nil uses math/rand
}

// Result summarises a finished round.
type Result struct {
	Won     bool
	Secret  string
	Guesses int
}

// ErrInputClosed is returned when input ends before the round does.
var ErrInputClosed = errors.New("input closed before the round finished")

type styles struct {
	title, pattern, label, muted, warn, win, lose lipgloss.Style
}

func newStyles(out io.Writer) styles {
	r := lipgloss.NewRenderer(out)
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")),
		pattern: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffe66d")),
		label:   r.NewStyle().Foreground(lipgloss.Color("#a8dadc")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("#666666")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
		win:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("#a8e6cf")),
		lose:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")),
	}
}

// Play prepares eng for the round in opts and reads one guess per line from
// in until the word is revealed or the guesses run out. Invalid and repeated
// letters are reported and do not cost a guess.
func Play(in io.Reader, out io.Writer, eng *game.Engine, opts PlayOptions) (Result, error) {
	if err := eng.PrepForRound(opts.Length, opts.Guesses, opts.Difficulty); err != nil {
		return Result{}, err
	}
	if eng.NumWordsCurrent() == 0 {
		return Result{}, fmt.Errorf("%w: %d", game.ErrNoWordsForLength, opts.Length)
	}

	st := newStyles(out)
	sc := bufio.NewScanner(in)
	fmt.Fprintln(out, st.title.Render(fmt.Sprintf("Evil Hangman: %d letters, %d guesses, %s", opts.Length, opts.Guesses, opts.Difficulty)))

	for !eng.Over() {
		printStatus(out, st, eng, opts.Debug)
		fmt.Fprint(out, st.label.Render("Guess a letter: "))
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return Result{}, err
			}
			return Result{Guesses: eng.GuessCount()}, ErrInputClosed
		}

		line := strings.TrimSpace(sc.Text())
		if len(line) != 1 {
			fmt.Fprintln(out, st.warn.Render("Please enter a single letter."))
			continue
		}
		parts, err := eng.MakeGuess(line[0])
		switch {
		case errors.Is(err, game.ErrAlreadyGuessed):
			fmt.Fprintln(out, st.warn.Render(fmt.Sprintf("You already guessed %q.", strings.ToLower(line))))
			continue
		case errors.Is(err, game.ErrInvalidLetter):
			fmt.Fprintln(out, st.warn.Render(fmt.Sprintf("%q is not a letter.", line)))
			continue
		case err != nil:
			return Result{}, err
		}
		if opts.Debug {
			printPartitions(out, st, parts)
		}
	}

	res := Result{Guesses: eng.GuessCount()}
	if eng.Solved() {
		res.Won, res.Secret = true, eng.Pattern()
		fmt.Fprintln(out, st.win.Render("You win! The word was "+res.Secret+"."))
		return res, nil
	}
	secret, err := eng.SecretWord(opts.Rand)
	if err != nil {
		return res, err
	}
	res.Secret = secret
	fmt.Fprintln(out, st.lose.Render("You lose! The word was "+secret+"."))
	return res, nil
}

func printStatus(out io.Writer, st styles, eng *game.Engine, debug bool) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "%s %s\n", st.label.Render("Word:"), st.pattern.Render(eng.Pattern()))
	fmt.Fprintf(out, "%s %d\n", st.label.Render("Guesses left:"), eng.GuessesLeft())
	fmt.Fprintf(out, "%s %s\n", st.label.Render("Used:"), eng.UsedLettersDisplay())
	if debug {
		fmt.Fprintln(out, st.muted.Render(fmt.Sprintf("(%d words remaining)", eng.NumWordsCurrent())))
	}
}

func printPartitions(out io.Writer, st styles, parts game.Partitions) {
	for _, p := range parts {
		fmt.Fprintln(out, st.muted.Render(fmt.Sprintf("  %s  %d", p.Pattern, p.Count)))
	}
}
