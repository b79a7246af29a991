// internal/game/types.go
//
// Core type definitions for the Evil Hangman engine.
// Defines:
//   - Difficulty: how often the engine settles for the second-hardest partition.
//   - Partition: one group of active words sharing an induced pattern.
//   - Sentinel errors returned by the engine and sessions.

package game

import (
	"errors"
	"fmt"
	"strings"
)

// Blank marks an unrevealed position in a pattern.
const Blank = '-'

// Difficulty controls the adversarial selection cadence.
//   - Hard:   always the hardest partition.
//   - Medium: second-hardest on every 4th guess.
//   - Easy:   second-hardest on every 2nd guess.
type Difficulty int

const (
	Easy Difficulty = iota
	Medium
	Hard
)

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Medium:
		return "medium"
	case Hard:
		return "hard"
	}
	return fmt.Sprintf("difficulty(%d)", int(d))
}

// ParseDifficulty accepts "easy", "medium" or "hard" in any case.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, nil
	case "medium":
		return Medium, nil
	case "hard":
		return Hard, nil
	}
	return Hard, fmt.Errorf("unknown difficulty %q", s)
}

// Partition is a group of active words that would all reveal Pattern.
type Partition struct {
	Pattern string `json:"pattern"`
	Count   int    `json:"count"`
}

// Partitions is always sorted by Pattern.
type Partitions []Partition

// Counts returns the partitions as a pattern → count map.
func (p Partitions) Counts() map[string]int {
	m := make(map[string]int, len(p))
	for _, x := range p {
		m[x.Pattern] = x.Count
	}
	return m
}

// Count returns the group size for pattern, or 0 if absent.
func (p Partitions) Count(pattern string) int {
	for _, x := range p {
		if x.Pattern == pattern {
			return x.Count
		}
	}
	return 0
}

var (
	// ErrInvalidRoundConfig: negative word length or guess budget <= 1.
	ErrInvalidRoundConfig = errors.New("invalid round config")

	// ErrAlreadyGuessed: the letter was already used this round.
	ErrAlreadyGuessed = errors.New("letter already guessed")

	ErrInvalidLetter    = errors.New("letter must be a-z")
	ErrInvalidWord      = errors.New("word must be letters a-z")
	ErrEmptyDictionary  = errors.New("dictionary is empty")
	ErrNoActiveWords    = errors.New("no active words")
	ErrNoRound          = errors.New("round not prepared")
	ErrNoWordsForLength = errors.New("no words of that length")
	ErrRoundFinished    = errors.New("round finished")
)
