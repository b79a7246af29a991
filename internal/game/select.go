package game

import "strings"

// SelectPattern picks the partition the engine commits to for the guess
// numbered guessOrdinal (1-based). p must be sorted by pattern, as returned
// by MakeGuess.
//
// Hard always takes the hardest partition. Medium takes the second-hardest
// on every 4th guess and Easy on every 2nd.
func SelectPattern(p Partitions, d Difficulty, guessOrdinal int) string {
	if len(p) == 0 {
		return ""
	}
	if easesOff(d, guessOrdinal) {
		return secondHardest(p)
	}
	return hardest(p)
}

func easesOff(d Difficulty, guessOrdinal int) bool {
	switch d {
	case Easy:
		return guessOrdinal%2 == 0
	case Medium:
		return guessOrdinal%4 == 0
	}
	return false
}

// hardest is the largest group, preferring the pattern that reveals least.
func hardest(p Partitions) string {
	return fewestReveals(p, largestCount(p, 0))
}

// secondHardest is the largest group whose size differs from the overall
// maximum. Every pattern tied for the maximum is excluded. When nothing
// smaller exists it falls back to hardest.
func secondHardest(p Partitions) string {
	top := largestCount(p, 0)
	next := largestCount(p, top)
	if next == 0 {
		return hardest(p)
	}
	return fewestReveals(p, next)
}

// largestCount returns the biggest group size, ignoring groups of size skip.
// Group sizes are always >= 1, so 0 means "none".
func largestCount(p Partitions, skip int) int {
	best := 0
	for _, x := range p {
		if x.Count != skip && x.Count > best {
			best = x.Count
		}
	}
	return best
}

// fewestReveals picks, among groups of exactly count words, the pattern with
// the most blanks. Remaining ties go to the last pattern in sorted order.
func fewestReveals(p Partitions, count int) string {
	best, bestBlanks := "", -1
	for _, x := range p {
		if x.Count != count {
			continue
		}
		if b := strings.Count(x.Pattern, string(Blank)); b >= bestBlanks {
			best, bestBlanks = x.Pattern, b
		}
	}
	return best
}
