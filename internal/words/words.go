// internal/words/words.go
//
// Provides dictionary management for the hangman engine.
//
// Responsibilities:
//   - Load the word list from a file or fall back to the embedded default.
//   - Normalize entries (trim, lowercase) and drop anything outside a–z.
//   - Build the shared, immutable game.Dictionary exactly once.
//
// Initialization behavior (Init):
//  1. If path is non-empty, load one word per line from that file.
//  2. Otherwise use assets/dictionary.txt.
//
// Lines that are blank or start with '#' are ignored.

package words

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/evilhangman/assets"
	"github.com/robalobadob/evilhangman/internal/game"
)

var (
	initOnce   sync.Once
	list       []string
	dict       *game.Dictionary
	initialErr error
)

// Init loads the dictionary exactly once. Later calls return the first result.
func Init(path string) error {
	initOnce.Do(func() {
		var err error
		if path != "" {
			list, err = LoadFile(path)
		} else {
			list, err = assets.DictionaryList()
			list = normalize(list)
		}
		if err != nil {
			initialErr = err
			return
		}
		dict, initialErr = game.NewDictionary(list)
		if initialErr == nil {
			log.Info().Str("source", sourceName(path)).Int("words", dict.Len()).Msg("dictionary loaded")
		}
	})
	return initialErr
}

func sourceName(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}

// Dictionary returns the loaded dictionary, or nil before a successful Init.
func Dictionary() *game.Dictionary { return dict }

// List returns the loaded words in file order.
func List() []string { return list }

// Stats returns word counts keyed by length.
func Stats() map[int]int {
	out := make(map[int]int)
	if dict == nil {
		return out
	}
	for _, n := range dict.Lengths() {
		out[n] = dict.CountForLength(n)
	}
	return out
}

// LoadFile reads one word per line from path.
func LoadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Load reads one word per line, skipping blanks, '#' comments and any entry
// that is not purely a–z after lowercasing.
func Load(r io.Reader) ([]string, error) {
	var raw []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		raw = append(raw, s)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	out := normalize(raw)
	if len(out) == 0 {
		return nil, errors.New("words: list is empty")
	}
	return out, nil
}

// normalize lowercases and keeps only a–z words.
func normalize(in []string) []string {
	out := make([]string, 0, len(in))
	skipped := 0
	for _, s := range in {
		w := strings.ToLower(strings.TrimSpace(s))
		if w == "" {
			continue
		}
		if !isAlpha(w) {
			skipped++
			continue
		}
		out = append(out, w)
	}
	if skipped > 0 {
		log.Debug().Int("skipped", skipped).Msg("dropped non a-z entries")
	}
	return out
}

// isAlpha reports whether s is all lowercase ASCII letters.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
