// internal/httpserver/routes_daily.go
//
// HTTP routes for the "Daily Challenge" mode.
// Exposes three endpoints under /daily:
//   - POST /daily/new         → start today's round (creates or reuses session)
//   - POST /daily/guess       → submit a letter for today's round
//   - GET  /daily/leaderboard → fetch top 20 results for today (or a given date)
//
// Each player can finish once per day (enforced by DB + in-memory session).
// Only today's unfinished rounds are kept in memory: a finished round is
// dropped at once and the whole map is reset when the date rolls over.
// Every player gets the same length, budget and difficulty; the engine still
// adapts to each player's guesses.

package httpserver

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/evilhangman/internal/auth"
	"github.com/robalobadob/evilhangman/internal/daily"
	"github.com/robalobadob/evilhangman/internal/game"
)

// dailyServer wraps dependencies for /daily endpoints.
type dailyServer struct {
	srv      *Server
	store    *daily.Store
	sessions map[string]*game.Session // today's unfinished sessions keyed by playerID|date
	day      string                   // date the sessions belong to
	mu       sync.Mutex               // guards sessions and day
}

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	dd := &dailyServer{
		srv:      s,
		store:    daily.NewStore(s.db),
		sessions: make(map[string]*game.Session),
	}
	s.daily = dd
	r.Route("/daily", func(r chi.Router) {
		r.Use(auth.Optional(s.opts.Auth, s.users))
		r.Post("/new", dd.handleNew)
		r.Post("/guess", dd.handleGuess)
		r.Get("/leaderboard", dd.handleLeaderboard)
	})
}

// playerID returns the signed-in user's ID, or the anonymous cookie ID.
func (d *dailyServer) playerID(w http.ResponseWriter, r *http.Request) string {
	if me := auth.FromContext(r.Context()); me != nil {
		return me.ID
	}
	return d.srv.opts.Auth.AnonID(w, r)
}

// newRes is returned by /daily/new.
type newRes struct {
	Date   string         `json:"date"`
	Played bool           `json:"played"`
	Round  *game.Snapshot `json:"round,omitempty"`
}

// handleNew creates or reuses the player's daily session.
// - If there is already a DB row for today → Played=true, no round.
// - Otherwise return the in-memory round, creating it on first call.
func (d *dailyServer) handleNew(w http.ResponseWriter, r *http.Request) {
	uid := d.playerID(w, r)
	ch, err := daily.For(d.srv.opts.Now(), d.srv.opts.DailySalt, d.srv.opts.Dict)
	if err != nil {
		writeErr(w, err)
		return
	}

	played, err := d.store.AlreadyPlayed(r.Context(), uid, ch.Date)
	if err != nil {
		log.Error().Err(err).Str("user", uid).Msg("check daily result")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	if played {
		writeJSON(w, http.StatusOK, newRes{Date: ch.Date, Played: true})
		return
	}

	key := uid + "|" + ch.Date
	d.mu.Lock()
	if d.day != ch.Date {
		d.sessions = make(map[string]*game.Session)
		d.day = ch.Date
	}
	sess, ok := d.sessions[key]
	if !ok {
		sess, err = game.NewSession(d.srv.opts.Dict, ch.Config(), game.WithLogger(log.Logger))
		if err != nil {
			d.mu.Unlock()
			writeErr(w, err)
			return
		}
		sess.Started = d.srv.opts.Now()
		d.sessions[key] = sess
	}
	d.mu.Unlock()

	snap := sess.Snapshot()
	writeJSON(w, http.StatusOK, newRes{Date: ch.Date, Round: &snap})
}

// dailyGuessReq is the request payload for /daily/guess.
type dailyGuessReq struct {
	RoundID string `json:"roundId"`
	Letter  string `json:"letter"`
}

// handleGuess applies a letter to today's session and records the result
// once the round finishes, win or lose.
func (d *dailyServer) handleGuess(w http.ResponseWriter, r *http.Request) {
	uid := d.playerID(w, r)

	var p dailyGuessReq
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}

	date := daily.DateKey(d.srv.opts.Now())
	key := uid + "|" + date
	d.mu.Lock()
	sess, ok := d.sessions[key]
	d.mu.Unlock()
	if !ok || sess.ID != p.RoundID {
		http.Error(w, `{"error":"no_session"}`, http.StatusConflict)
		return
	}

	res, err := sess.ApplyGuess(p.Letter, d.srv.rng)
	if err != nil {
		writeErr(w, err)
		return
	}

	if res.State != game.StatePlaying {
		d.mu.Lock()
		if d.sessions[key] == sess {
			delete(d.sessions, key)
		}
		d.mu.Unlock()

		result := daily.Result{
			UserID:     uid,
			Date:       date,
			WordLength: res.Length,
			Guesses:    res.Guesses,
			Won:        res.State == game.StateWon,
			ElapsedMs:  int(d.srv.opts.Now().Sub(sess.Started).Milliseconds()),
		}
		if err := d.store.InsertResult(r.Context(), result); err != nil {
			log.Warn().Err(err).Str("user", uid).Msg("insert daily result")
		}
	}
	writeJSON(w, http.StatusOK, res)
}

// lbRes is returned by /daily/leaderboard.
type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (d *dailyServer) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = daily.DateKey(d.srv.opts.Now())
	}
	rows, err := d.store.Leaderboard(r.Context(), date, 20)
	if err != nil {
		http.Error(w, `{"error":"server_error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, lbRes{Date: date, Top: rows})
}
