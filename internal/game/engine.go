// internal/game/engine.go
//
// Round engine for a single game of Evil Hangman.
// Responsibilities:
//   - Hold the candidate words still consistent with every guess.
//   - Partition candidates by the pattern each would reveal for a new guess.
//   - Commit to the least helpful partition per the difficulty cadence.
//   - Keep pattern, guesses left and candidate set mutually consistent.
//
// Notes:
//   - An Engine is single-owner; it does no locking. Session adds a mutex
//     for callers that share a round between goroutines.
//   - Randomness is only used by SecretWord and is injected by the caller.

package game

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/rs/zerolog"
)

// Rand is the random source SecretWord draws from. *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// Engine owns one dictionary and the state of the current round.
type Engine struct {
	dict *Dictionary
	log  zerolog.Logger

	prepared    bool
	wordLength  int
	difficulty  Difficulty
	active      []string // sorted, consistent with pattern
	pattern     []byte
	used        []byte // insertion order
	usedSet     [26]bool
	guessesLeft int
	guessCount  int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger enables per-guess debug logging of the partitioning.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New builds an engine over words. It fails with ErrEmptyDictionary when no
// usable word is supplied and ErrInvalidWord for entries outside a–z.
func New(words []string, opts ...Option) (*Engine, error) {
	d, err := NewDictionary(words)
	if err != nil {
		return nil, err
	}
	return NewWithDictionary(d, opts...), nil
}

// NewWithDictionary builds an engine sharing an existing dictionary.
func NewWithDictionary(d *Dictionary, opts ...Option) *Engine {
	e := &Engine{dict: d, log: zerolog.Nop()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// WordCountForLength counts dictionary words of the given length.
func (e *Engine) WordCountForLength(length int) int {
	return e.dict.CountForLength(length)
}

// PrepForRound resets all round state. A negative length, a guess budget of
// one or less, or an unknown difficulty fail with ErrInvalidRoundConfig and
// leave the previous round untouched.
func (e *Engine) PrepForRound(length, guessBudget int, d Difficulty) error {
	if length < 0 || guessBudget <= 1 || d < Easy || d > Hard {
		return fmt.Errorf("%w: length=%d guesses=%d difficulty=%s",
			ErrInvalidRoundConfig, length, guessBudget, d)
	}
	e.prepared = true
	e.wordLength = length
	e.difficulty = d
	e.active = e.dict.wordsOfLength(length)
	e.pattern = []byte(strings.Repeat(string(Blank), length))
	e.used = nil
	e.usedSet = [26]bool{}
	e.guessesLeft = guessBudget
	e.guessCount = 0
	return nil
}

// NumWordsCurrent is the number of candidates still consistent with the pattern.
func (e *Engine) NumWordsCurrent() int { return len(e.active) }

// GuessesLeft is the remaining budget of guesses that reveal nothing.
func (e *Engine) GuessesLeft() int { return e.guessesLeft }

// Pattern is the revealed word so far, with Blank for hidden positions.
func (e *Engine) Pattern() string { return string(e.pattern) }

// WordLength is the length chosen for the current round.
func (e *Engine) WordLength() int { return e.wordLength }

// Difficulty is the difficulty chosen for the current round.
func (e *Engine) Difficulty() Difficulty { return e.difficulty }

// GuessCount is the number of accepted guesses this round.
func (e *Engine) GuessCount() int { return e.guessCount }

// UsedLetters returns the guessed letters in the order they were made.
func (e *Engine) UsedLetters() []byte {
	return append([]byte(nil), e.used...)
}

// UsedLettersDisplay renders the guessed letters alphabetically, e.g. "[a, c, e]".
func (e *Engine) UsedLettersDisplay() string {
	parts := make([]string, 0, len(e.used))
	for c := byte('a'); c <= 'z'; c++ {
		if e.usedSet[c-'a'] {
			parts = append(parts, string(c))
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// AlreadyGuessed reports whether c was guessed this round. Case-insensitive.
func (e *Engine) AlreadyGuessed(c byte) bool {
	c, ok := foldLetter(c)
	return ok && e.usedSet[c-'a']
}

// ActiveWords returns a sorted copy of the surviving candidates.
func (e *Engine) ActiveWords() []string {
	return append([]string(nil), e.active...)
}

// Solved reports whether every position has been revealed.
func (e *Engine) Solved() bool {
	return e.prepared && strings.IndexByte(string(e.pattern), Blank) < 0
}

// Over reports whether the round has ended either way.
func (e *Engine) Over() bool {
	return e.Solved() || (e.prepared && e.guessesLeft <= 0)
}

// MakeGuess applies one guess and returns every induced pattern with the
// number of active words producing it, sorted by pattern.
//
// The engine keeps only the words of the partition chosen by SelectPattern.
// Guesses left drop by one exactly when that partition reveals nothing.
func (e *Engine) MakeGuess(c byte) (Partitions, error) {
	if !e.prepared {
		return nil, ErrNoRound
	}
	c, ok := foldLetter(c)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLetter, c)
	}
	if e.usedSet[c-'a'] {
		return nil, fmt.Errorf("%w: %q", ErrAlreadyGuessed, c)
	}
	e.used = append(e.used, c)
	e.usedSet[c-'a'] = true
	e.guessCount++

	groups := make(map[string][]string)
	for _, w := range e.active {
		k := e.induce(w, c)
		groups[k] = append(groups[k], w)
	}
	parts := make(Partitions, 0, len(groups))
	for k, ws := range groups {
		parts = append(parts, Partition{Pattern: k, Count: len(ws)})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].Pattern < parts[j].Pattern })

	chosen := SelectPattern(parts, e.difficulty, e.guessCount)
	if len(parts) == 0 {
		// No candidates: nothing can be revealed.
		chosen = string(e.pattern)
	}
	if chosen == string(e.pattern) {
		e.guessesLeft--
	}
	e.active = groups[chosen]
	e.reveal(chosen)

	e.log.Debug().
		Str("guess", string(c)).
		Int("ordinal", e.guessCount).
		Int("partitions", len(parts)).
		Str("chosen", chosen).
		Int("remaining", len(e.active)).
		Int("guessesLeft", e.guessesLeft).
		Msg("guess applied")

	return parts, nil
}

// SecretWord picks uniformly among the surviving words. A nil rng uses the
// package-level math/rand source.
func (e *Engine) SecretWord(rng Rand) (string, error) {
	if len(e.active) == 0 {
		return "", ErrNoActiveWords
	}
	if rng == nil {
		return e.active[rand.Intn(len(e.active))], nil
	}
	return e.active[rng.Intn(len(e.active))], nil
}

// induce computes the pattern w would show if c were applied to the current
// pattern. Revealed positions are copied through; only blanks are tested.
func (e *Engine) induce(w string, c byte) string {
	b := make([]byte, e.wordLength)
	for i := range b {
		switch {
		case e.pattern[i] != Blank:
			b[i] = e.pattern[i]
		case w[i] == c:
			b[i] = c
		default:
			b[i] = Blank
		}
	}
	return string(b)
}

// reveal merges chosen into the pattern. Blanks may turn into letters,
// never the reverse.
func (e *Engine) reveal(chosen string) {
	for i := 0; i < len(chosen) && i < len(e.pattern); i++ {
		if e.pattern[i] == Blank && chosen[i] != Blank {
			e.pattern[i] = chosen[i]
		}
	}
}

// foldLetter lowercases ASCII letters and rejects everything else.
func foldLetter(c byte) (byte, bool) {
	if c >= 'A' && c <= 'Z' {
		c += 'a' - 'A'
	}
	return c, c >= 'a' && c <= 'z'
}
