package game

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robalobadob/evilhangman/internal/ids"
)

// State is the coarse lifecycle of a session.
type State string

const (
	StatePlaying State = "playing"
	StateWon     State = "won"
	StateLost    State = "lost"
)

// RoundConfig is what a caller chooses when starting a round.
type RoundConfig struct {
	Length     int        `json:"length"`
	Guesses    int        `json:"guesses"`
	Difficulty Difficulty `json:"difficulty"`
	Debug      bool       `json:"debug"` // expose word counts and partitions
}

// Owner is who may guess on a session: a signed-in user, a guest cookie, or
// both once a guest has signed in.
type Owner struct {
	UserID string
	AnonID string
}

// Allows reports whether a requester with these identities owns the session.
// Empty identities never match.
func (o Owner) Allows(userID, anonID string) bool {
	return (o.UserID != "" && o.UserID == userID) || (o.AnonID != "" && o.AnonID == anonID)
}

// Session wraps an Engine with an ID, a lock and terminal state so that a
// round can be driven from concurrent requests.
type Session struct {
	ID      string
	Config  RoundConfig
	Started time.Time
	Owner   Owner // set by the caller before the session is shared

	mu     sync.Mutex
	engine *Engine
	state  State
	secret string
}

// Snapshot is the player-facing view of a session.
type Snapshot struct {
	ID          string `json:"roundId"`
	Length      int    `json:"length"`
	Difficulty  string `json:"difficulty"`
	Pattern     string `json:"pattern"`
	GuessesLeft int    `json:"guessesLeft"`
	Guesses     int    `json:"guesses"`
	Used        string `json:"used"`
	State       State  `json:"state"`
	WordsLeft   int    `json:"wordsLeft,omitempty"`
	Secret      string `json:"secret,omitempty"`
}

// GuessResult is returned from ApplyGuess.
type GuessResult struct {
	Snapshot
	Partitions Partitions `json:"partitions,omitempty"`
}

// NewSession prepares a fresh round over d. Besides the engine's own
// validation it rejects lengths that have no words.
func NewSession(d *Dictionary, cfg RoundConfig, opts ...Option) (*Session, error) {
	e := NewWithDictionary(d, opts...)
	if err := e.PrepForRound(cfg.Length, cfg.Guesses, cfg.Difficulty); err != nil {
		return nil, err
	}
	if e.NumWordsCurrent() == 0 {
		return nil, fmt.Errorf("%w: %d", ErrNoWordsForLength, cfg.Length)
	}
	return &Session{
		ID:      ids.New(),
		Config:  cfg,
		Started: time.Now(),
		engine:  e,
		state:   StatePlaying,
	}, nil
}

// ApplyGuess validates and applies a single letter.
//
// State transitions:
//   - pattern fully revealed → won, secret is the pattern.
//   - no guesses left        → lost, secret drawn from survivors with rng.
func (s *Session) ApplyGuess(letter string, rng Rand) (GuessResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StatePlaying {
		return GuessResult{Snapshot: s.snapshot()}, ErrRoundFinished
	}
	letter = strings.TrimSpace(letter)
	if len(letter) != 1 {
		return GuessResult{Snapshot: s.snapshot()}, fmt.Errorf("%w: %q", ErrInvalidLetter, letter)
	}
	parts, err := s.engine.MakeGuess(letter[0])
	if err != nil {
		return GuessResult{Snapshot: s.snapshot()}, err
	}

	switch {
	case s.engine.Solved():
		s.state = StateWon
		s.secret = s.engine.Pattern()
	case s.engine.GuessesLeft() <= 0:
		s.state = StateLost
		if s.secret, err = s.engine.SecretWord(rng); err != nil {
			return GuessResult{Snapshot: s.snapshot()}, err
		}
	}

	res := GuessResult{Snapshot: s.snapshot()}
	if s.Config.Debug {
		res.Partitions = parts
	}
	return res, nil
}

// Snapshot returns the current view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() Snapshot {
	snap := Snapshot{
		ID:          s.ID,
		Length:      s.engine.WordLength(),
		Difficulty:  s.engine.Difficulty().String(),
		Pattern:     s.engine.Pattern(),
		GuessesLeft: s.engine.GuessesLeft(),
		Guesses:     s.engine.GuessCount(),
		Used:        s.engine.UsedLettersDisplay(),
		State:       s.state,
		Secret:      s.secret,
	}
	if s.Config.Debug {
		snap.WordsLeft = s.engine.NumWordsCurrent()
	}
	return snap
}
