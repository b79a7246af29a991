package game

import (
	"fmt"
	"sort"
	"strings"
)

// Dictionary is an immutable, validated word set grouped by length.
// It is safe to share between engines.
type Dictionary struct {
	byLen map[int][]string // sorted within each length
	size  int
}

// NewDictionary normalizes (trim + lowercase), de-duplicates and validates words.
// Blank entries are skipped; anything outside a–z fails with ErrInvalidWord.
func NewDictionary(words []string) (*Dictionary, error) {
	seen := make(map[string]struct{}, len(words))
	byLen := make(map[int][]string)
	for _, raw := range words {
		w := strings.ToLower(strings.TrimSpace(raw))
		if w == "" {
			continue
		}
		if !isAlpha(w) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidWord, raw)
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		byLen[len(w)] = append(byLen[len(w)], w)
	}
	if len(seen) == 0 {
		return nil, ErrEmptyDictionary
	}
	for _, list := range byLen {
		sort.Strings(list)
	}
	return &Dictionary{byLen: byLen, size: len(seen)}, nil
}

// Len is the number of distinct words.
func (d *Dictionary) Len() int { return d.size }

// CountForLength counts words with exactly n letters.
func (d *Dictionary) CountForLength(n int) int { return len(d.byLen[n]) }

// Lengths returns every word length present, ascending.
func (d *Dictionary) Lengths() []int {
	out := make([]int, 0, len(d.byLen))
	for n := range d.byLen {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// wordsOfLength returns a fresh copy the caller may mutate.
func (d *Dictionary) wordsOfLength(n int) []string {
	return append([]string(nil), d.byLen[n]...)
}

// isAlpha reports whether s is all lowercase ASCII letters.
func isAlpha(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 'a' || s[i] > 'z' {
			return false
		}
	}
	return true
}
