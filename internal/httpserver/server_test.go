package httpserver

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/robalobadob/evilhangman/internal/auth"
	"github.com/robalobadob/evilhangman/internal/daily"
	"github.com/robalobadob/evilhangman/internal/db"
	"github.com/robalobadob/evilhangman/internal/game"
	"github.com/robalobadob/evilhangman/internal/store"
)

func newTestServer(t *testing.T, words ...string) *Server {
	t.Helper()
	conn, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	if err := db.Migrate(conn); err != nil {
		t.Fatal(err)
	}
	d, err := game.NewDictionary(words)
	if err != nil {
		t.Fatal(err)
	}
	return New(store.NewMemoryStore(), conn, Options{
		Dict:              d,
		Auth:              auth.Config{Secret: "test-secret", CookieName: "tok"},
		DailySalt:         "salt",
		DefaultGuesses:    8,
		DefaultDifficulty: game.Hard,
		Rand:              rand.New(rand.NewSource(1)),
		Now:               func() time.Time { return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC) },
	})
}

// testGuest is sent when a request carries no other cookies, so rounds started
// by a guest can be played on by the same guest.
var testGuest = &http.Cookie{Name: "hangman_anon", Value: "guest-test"}

func do(t *testing.T, s *Server, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if len(cookies) == 0 {
		cookies = []*http.Cookie{testGuest}
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthAndWords(t *testing.T) {
	s := newTestServer(t, "dog", "cat", "ab")

	if rec := do(t, s, http.MethodGet, "/health", ""); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok":true`) {
		t.Fatalf("health = %d %s", rec.Code, rec.Body.String())
	}
	rec := do(t, s, http.MethodGet, "/words", "")
	got := decode[struct {
		Total    int            `json:"total"`
		ByLength map[string]int `json:"byLength"`
	}](t, rec)
	if got.Total != 3 || got.ByLength["3"] != 2 || got.ByLength["2"] != 1 {
		t.Errorf("words = %+v", got)
	}
}

func TestRoundWin(t *testing.T) {
	s := newTestServer(t, "ab")

	rec := do(t, s, http.MethodPost, "/round/new", `{"length":2,"guesses":5}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("new = %d %s", rec.Code, rec.Body.String())
	}
	snap := decode[game.Snapshot](t, rec)
	if snap.Pattern != "--" || snap.GuessesLeft != 5 || snap.State != game.StatePlaying || snap.Difficulty != "hard" {
		t.Fatalf("snapshot = %+v", snap)
	}

	do(t, s, http.MethodPost, "/round/guess", `{"roundId":"`+snap.ID+`","letter":"a"}`)
	rec = do(t, s, http.MethodPost, "/round/guess", `{"roundId":"`+snap.ID+`","letter":"B"}`)
	res := decode[game.GuessResult](t, rec)
	if res.State != game.StateWon || res.Secret != "ab" || res.Used != "[a, b]" {
		t.Errorf("result = %+v", res)
	}

	rec = do(t, s, http.MethodGet, "/round/"+snap.ID, "")
	if got := decode[game.Snapshot](t, rec); got.State != game.StateWon {
		t.Errorf("get = %+v", got)
	}
	if rec := do(t, s, http.MethodPost, "/round/guess", `{"roundId":"`+snap.ID+`","letter":"c"}`); rec.Code != http.StatusConflict {
		t.Errorf("guess after win = %d", rec.Code)
	}
}

func TestRoundLoseRevealsSecret(t *testing.T) {
	s := newTestServer(t, "dog", "cat", "car")

	snap := decode[game.Snapshot](t, do(t, s, http.MethodPost, "/round/new", `{"length":3,"guesses":2,"debug":true}`))
	if snap.WordsLeft != 3 {
		t.Fatalf("debug wordsLeft = %d", snap.WordsLeft)
	}
	rec := do(t, s, http.MethodPost, "/round/guess", `{"roundId":"`+snap.ID+`","letter":"z"}`)
	res := decode[game.GuessResult](t, rec)
	if res.GuessesLeft != 1 || len(res.Partitions) != 1 || res.Partitions[0].Count != 3 {
		t.Fatalf("first guess = %+v", res)
	}
	res = decode[game.GuessResult](t, do(t, s, http.MethodPost, "/round/guess", `{"roundId":"`+snap.ID+`","letter":"q"}`))
	if res.State != game.StateLost || res.Secret == "" {
		t.Errorf("lost = %+v", res)
	}
}

func TestRoundErrors(t *testing.T) {
	s := newTestServer(t, "dog", "cat")
	snap := decode[game.Snapshot](t, do(t, s, http.MethodPost, "/round/new", `{"length":3}`))

	cases := []struct {
		name, method, path, body string
		want                     int
	}{
		{"bad json", http.MethodPost, "/round/new", `{`, http.StatusBadRequest},
		{"bad difficulty", http.MethodPost, "/round/new", `{"length":3,"difficulty":"brutal"}`, http.StatusBadRequest},
		{"budget too small", http.MethodPost, "/round/new", `{"length":3,"guesses":1}`, http.StatusBadRequest},
		{"negative length", http.MethodPost, "/round/new", `{"length":-1}`, http.StatusBadRequest},
		{"no words", http.MethodPost, "/round/new", `{"length":9}`, http.StatusBadRequest},
		{"unknown round", http.MethodGet, "/round/nope", "", http.StatusNotFound},
		{"unknown guess round", http.MethodPost, "/round/guess", `{"roundId":"nope","letter":"a"}`, http.StatusNotFound},
		{"two letters", http.MethodPost, "/round/guess", `{"roundId":"` + snap.ID + `","letter":"ab"}`, http.StatusBadRequest},
		{"digit", http.MethodPost, "/round/guess", `{"roundId":"` + snap.ID + `","letter":"1"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rec := do(t, s, tc.method, tc.path, tc.body); rec.Code != tc.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tc.want, rec.Body.String())
			}
		})
	}

	do(t, s, http.MethodPost, "/round/guess", `{"roundId":"`+snap.ID+`","letter":"o"}`)
	rec := do(t, s, http.MethodPost, "/round/guess", `{"roundId":"`+snap.ID+`","letter":"O"}`)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "already_guessed") {
		t.Errorf("repeat = %d %s", rec.Code, rec.Body.String())
	}
}

func TestRoundRandomLength(t *testing.T) {
	s := newTestServer(t, "dog", "ab")
	snap := decode[game.Snapshot](t, do(t, s, http.MethodPost, "/round/new", `{"difficulty":"easy"}`))
	if snap.Length != 2 && snap.Length != 3 {
		t.Errorf("length = %d", snap.Length)
	}
	if snap.Difficulty != "easy" {
		t.Errorf("difficulty = %s", snap.Difficulty)
	}
}

func TestAuthFlowAndHistory(t *testing.T) {
	s := newTestServer(t, "ab")

	rec := do(t, s, http.MethodPost, "/auth/signup", `{"username":"player_one","password":"password123"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("signup = %d %s", rec.Code, rec.Body.String())
	}
	var tok *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "tok" {
			tok = c
		}
	}
	if tok == nil {
		t.Fatal("no auth cookie")
	}
	if rec := do(t, s, http.MethodPost, "/auth/signup", `{"username":"player_one","password":"password123"}`); rec.Code != http.StatusConflict {
		t.Errorf("duplicate signup = %d", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/auth/login", `{"username":"player_one","password":"wrong-password"}`); rec.Code != http.StatusUnauthorized {
		t.Errorf("bad login = %d", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/auth/me", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("me without token = %d", rec.Code)
	}
	me := decode[map[string]string](t, do(t, s, http.MethodGet, "/auth/me", "", tok))
	if me["username"] != "player_one" {
		t.Errorf("me = %v", me)
	}

	snap := decode[game.Snapshot](t, do(t, s, http.MethodPost, "/round/new", `{"length":2}`, tok))
	do(t, s, http.MethodPost, "/round/guess", `{"roundId":"`+snap.ID+`","letter":"a"}`, tok)
	do(t, s, http.MethodPost, "/round/guess", `{"roundId":"`+snap.ID+`","letter":"b"}`, tok)

	stats := decode[map[string]any](t, do(t, s, http.MethodGet, "/stats/me", "", tok))
	if stats["gamesPlayed"] != float64(1) || stats["wins"] != float64(1) {
		t.Errorf("stats = %v", stats)
	}
	rounds := decode[[]db.Round](t, do(t, s, http.MethodGet, "/rounds/mine", "", tok))
	if len(rounds) != 1 || rounds[0].Status != "won" || rounds[0].Secret != "ab" {
		t.Errorf("rounds = %+v", rounds)
	}
}

func signup(t *testing.T, s *Server, username string, cookies ...*http.Cookie) *http.Cookie {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/auth/signup", `{"username":"`+username+`","password":"password123"}`, cookies...)
	if rec.Code != http.StatusOK {
		t.Fatalf("signup %s = %d %s", username, rec.Code, rec.Body.String())
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == "tok" {
			return c
		}
	}
	t.Fatal("no auth cookie")
	return nil
}

func TestGuessRequiresRoundOwner(t *testing.T) {
	s := newTestServer(t, "ab")
	guest := &http.Cookie{Name: "hangman_anon", Value: "guest-1"}
	other := &http.Cookie{Name: "hangman_anon", Value: "guest-2"}

	snap := decode[game.Snapshot](t, do(t, s, http.MethodPost, "/round/new", `{"length":2}`, guest))
	tok := signup(t, s, "intruder")

	for _, c := range []*http.Cookie{tok, other} {
		rec := do(t, s, http.MethodPost, "/round/guess", `{"roundId":"`+snap.ID+`","letter":"a"}`, c)
		if rec.Code != http.StatusForbidden || !strings.Contains(rec.Body.String(), "not_your_round") {
			t.Errorf("guess with %s = %d %s", c.Name, rec.Code, rec.Body.String())
		}
	}
	if got := decode[game.Snapshot](t, do(t, s, http.MethodGet, "/round/"+snap.ID, "")); got.Guesses != 0 {
		t.Errorf("rejected guesses changed the round: %+v", got)
	}

	do(t, s, http.MethodPost, "/round/guess", `{"roundId":"`+snap.ID+`","letter":"a"}`, guest)
	res := decode[game.GuessResult](t, do(t, s, http.MethodPost, "/round/guess", `{"roundId":"`+snap.ID+`","letter":"b"}`, guest))
	if res.State != game.StateWon {
		t.Fatalf("owner result = %+v", res)
	}

	stats := decode[map[string]any](t, do(t, s, http.MethodGet, "/stats/me", "", tok))
	if stats["gamesPlayed"] != float64(0) || stats["wins"] != float64(0) {
		t.Errorf("intruder stats = %v", stats)
	}
}

func TestGuestKeepsRoundAfterSignup(t *testing.T) {
	s := newTestServer(t, "ab")
	guest := &http.Cookie{Name: "hangman_anon", Value: "guest-1"}

	snap := decode[game.Snapshot](t, do(t, s, http.MethodPost, "/round/new", `{"length":2}`, guest))
	do(t, s, http.MethodPost, "/round/guess", `{"roundId":"`+snap.ID+`","letter":"a"}`, guest)
	tok := signup(t, s, "late_joiner", guest)

	res := decode[game.GuessResult](t, do(t, s, http.MethodPost, "/round/guess", `{"roundId":"`+snap.ID+`","letter":"b"}`, tok, guest))
	if res.State != game.StateWon {
		t.Fatalf("result = %+v", res)
	}
	stats := decode[map[string]any](t, do(t, s, http.MethodGet, "/stats/me", "", tok))
	if stats["gamesPlayed"] != float64(1) || stats["wins"] != float64(1) {
		t.Errorf("stats = %v", stats)
	}
	rounds := decode[[]db.Round](t, do(t, s, http.MethodGet, "/rounds/mine", "", tok))
	if len(rounds) != 1 || rounds[0].ID != snap.ID || rounds[0].Status != "won" {
		t.Errorf("rounds = %+v", rounds)
	}
}

func TestDailyFlow(t *testing.T) {
	s := newTestServer(t, "ab")
	anon := &http.Cookie{Name: "hangman_anon", Value: "guest-1"}

	type dailyNew struct {
		Date   string         `json:"date"`
		Played bool           `json:"played"`
		Round  *game.Snapshot `json:"round"`
	}
	first := decode[dailyNew](t, do(t, s, http.MethodPost, "/daily/new", "", anon))
	if first.Date != "2026-10-18" || first.Played || first.Round == nil || first.Round.Length != 2 {
		t.Fatalf("daily new = %+v", first)
	}
	again := decode[dailyNew](t, do(t, s, http.MethodPost, "/daily/new", "", anon))
	if again.Round == nil || again.Round.ID != first.Round.ID {
		t.Fatalf("daily session not reused: %+v", again)
	}

	id := first.Round.ID
	if rec := do(t, s, http.MethodPost, "/daily/guess", `{"roundId":"other","letter":"a"}`, anon); rec.Code != http.StatusConflict {
		t.Errorf("wrong round = %d", rec.Code)
	}
	do(t, s, http.MethodPost, "/daily/guess", `{"roundId":"`+id+`","letter":"a"}`, anon)
	res := decode[game.GuessResult](t, do(t, s, http.MethodPost, "/daily/guess", `{"roundId":"`+id+`","letter":"b"}`, anon))
	if res.State != game.StateWon {
		t.Fatalf("daily result = %+v", res)
	}

	played := decode[dailyNew](t, do(t, s, http.MethodPost, "/daily/new", "", anon))
	if !played.Played || played.Round != nil {
		t.Errorf("after finishing = %+v", played)
	}

	lb := decode[struct {
		Date string `json:"date"`
		Top  []struct {
			UserID  string `json:"userId"`
			Won     bool   `json:"won"`
			Guesses int    `json:"guesses"`
		} `json:"top"`
	}](t, do(t, s, http.MethodGet, "/daily/leaderboard", ""))
	if len(lb.Top) != 1 || lb.Top[0].UserID != "guest-1" || !lb.Top[0].Won || lb.Top[0].Guesses != 2 {
		t.Errorf("leaderboard = %+v", lb)
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, "ab")
	rec := do(t, s, http.MethodOptions, "/round/new", "")
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Errorf("preflight = %d %v", rec.Code, rec.Header())
	}
}

func (d *dailyServer) live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sessions)
}

func TestDailySessionsAreReleased(t *testing.T) {
	s := newTestServer(t, "ab")
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	s.opts.Now = func() time.Time { return now }

	type dailyNew struct {
		Round *game.Snapshot `json:"round"`
	}
	start := func(c *http.Cookie) string {
		t.Helper()
		got := decode[dailyNew](t, do(t, s, http.MethodPost, "/daily/new", "", c))
		if got.Round == nil {
			t.Fatalf("no round for %s", c.Value)
		}
		return got.Round.ID
	}
	g1 := &http.Cookie{Name: "hangman_anon", Value: "guest-1"}
	g2 := &http.Cookie{Name: "hangman_anon", Value: "guest-2"}
	g3 := &http.Cookie{Name: "hangman_anon", Value: "guest-3"}

	id := start(g1)
	now = now.Add(1500 * time.Millisecond)
	do(t, s, http.MethodPost, "/daily/guess", `{"roundId":"`+id+`","letter":"a"}`, g1)
	do(t, s, http.MethodPost, "/daily/guess", `{"roundId":"`+id+`","letter":"b"}`, g1)
	if n := s.daily.live(); n != 0 {
		t.Errorf("finished round still held: %d live", n)
	}

	lb := decode[struct {
		Top []daily.LBRow `json:"top"`
	}](t, do(t, s, http.MethodGet, "/daily/leaderboard", ""))
	if len(lb.Top) != 1 || lb.Top[0].ElapsedMs != 1500 {
		t.Errorf("leaderboard = %+v", lb.Top)
	}

	stale := start(g2)
	if n := s.daily.live(); n != 1 {
		t.Errorf("live = %d, want 1", n)
	}
	now = now.AddDate(0, 0, 1)
	start(g3)
	if n := s.daily.live(); n != 1 {
		t.Errorf("after the date rolled over live = %d, want 1", n)
	}
	if rec := do(t, s, http.MethodPost, "/daily/guess", `{"roundId":"`+stale+`","letter":"a"}`, g2); rec.Code != http.StatusConflict {
		t.Errorf("yesterday's round = %d", rec.Code)
	}
}

func TestDailyNewFailsWhenResultsUnavailable(t *testing.T) {
	s := newTestServer(t, "ab")
	if err := s.db.Close(); err != nil {
		t.Fatal(err)
	}
	rec := do(t, s, http.MethodPost, "/daily/new", "")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d %s", rec.Code, rec.Body.String())
	}
	if n := s.daily.live(); n != 0 {
		t.Errorf("round started without a results check: %d live", n)
	}
}
