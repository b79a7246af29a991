// Package daily derives the shared daily challenge round and records results.
//
// Every player gets the same word length on a given UTC date, chosen by
// HMAC(salt, YYYY-MM-DD) over the lengths that have enough words to make the
// engine's job interesting. Difficulty and budget are fixed.
package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"time"

	"github.com/robalobadob/evilhangman/internal/game"
)

const (
	// MinWords is the smallest word pool a length needs to be eligible.
	MinWords   = 50
	Guesses    = 8
	Difficulty = game.Hard
)

// Challenge is one day's round configuration.
type Challenge struct {
	Date   string `json:"date"`
	Length int    `json:"length"`
}

// Config returns the round configuration for the challenge.
func (c Challenge) Config() game.RoundConfig {
	return game.RoundConfig{Length: c.Length, Guesses: Guesses, Difficulty: Difficulty}
}

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Index returns a deterministic index in [0, n) for a date using HMAC(salt, YYYY-MM-DD) % n.
func Index(date time.Time, salt string, n int) int {
	if n <= 0 {
		return 0
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	// first 8 bytes as uint64 for modulus distribution
	v := binary.BigEndian.Uint64(sum[:8])
	return int(v % uint64(n))
}

// EligibleLengths lists the word lengths with at least MinWords words.
// If none qualify every available length is eligible.
func EligibleLengths(d *game.Dictionary) []int {
	all := d.Lengths()
	var out []int
	for _, n := range all {
		if d.CountForLength(n) >= MinWords {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return all
	}
	return out
}

// For returns the challenge for the date.
func For(date time.Time, salt string, d *game.Dictionary) (Challenge, error) {
	lengths := EligibleLengths(d)
	if len(lengths) == 0 {
		return Challenge{}, errors.New("daily: dictionary has no words")
	}
	return Challenge{
		Date:   DateKey(date),
		Length: lengths[Index(date, salt, len(lengths))],
	}, nil
}
