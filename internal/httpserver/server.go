// internal/httpserver/server.go
//
// HTTP server wiring for the Evil Hangman backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/words".
//   - Round endpoints (optional auth): POST /round/new, POST /round/guess, GET /round/{id}.
//   - Daily Challenge endpoints (optional auth): mounted under /daily.
//   - Auth + profile/stat endpoints (require auth): /auth/*, /stats/me, /rounds/mine.
//
// Notes:
//   - Live rounds stay in memory; only their history goes to the database.
//   - Optional auth decorates requests with the user when a valid token is present;
//     guests are tracked with an anonymous cookie.

package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/evilhangman/internal/auth"
	"github.com/robalobadob/evilhangman/internal/db"
	"github.com/robalobadob/evilhangman/internal/game"
	"github.com/robalobadob/evilhangman/internal/store"
)

// Options configures a Server.
type Options struct {
	Dict              *game.Dictionary
	Auth              auth.Config
	ClientOrigin      string
	DailySalt         string
	DefaultGuesses    int
	DefaultDifficulty game.Difficulty
	// Rand picks random lengths and secret words. Nil uses math/rand's
	// global source. It is guarded by a mutex, so *rand.Rand is fine.
	Rand game.Rand
	// Now is the clock for the daily challenge. Nil uses time.Now.
	Now func() time.Time
}

// Server bundles router, in-memory round store and DB handle.
type Server struct {
	r      *chi.Mux
	store  store.Store
	db     *sql.DB
	users  *auth.Users
	rounds *db.Rounds
	daily  *dailyServer
	opts   Options
	rng    game.Rand
}

// New constructs a Server, installs middleware, and registers routes.
func New(st store.Store, conn *sql.DB, opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DefaultGuesses <= 1 {
		opts.DefaultGuesses = 8
	}
	s := &Server{
		r:      chi.NewRouter(),
		store:  st,
		db:     conn,
		users:  auth.NewUsers(conn),
		rounds: db.NewRounds(conn),
		opts:   opts,
		rng:    &lockedRand{src: opts.Rand},
	}

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))
	s.r.Use(jsonContentType)
	s.r.Use(s.cors)

	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"service":"evil-hangman","endpoints":["/health","/words","POST /round/new","POST /round/guess","GET /round/{id}","/daily/*","/auth/*"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Get("/words", s.handleWords)

	optional := auth.Optional(opts.Auth, s.users)
	s.r.With(optional).Post("/round/new", s.handleNewRound)
	s.r.With(optional).Post("/round/guess", s.handleGuess)
	s.r.With(optional).Get("/round/{id}", s.handleGetRound)

	s.mountDaily(s.r)
	s.mountAuthRoutes()

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})
	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// PruneLoop drops rounds older than maxAge every interval until ctx ends.
func (s *Server) PruneLoop(ctx context.Context, interval, maxAge time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := s.store.Prune(ctx, s.opts.Now().Add(-maxAge)); n > 0 {
				log.Info().Int("rounds", n).Msg("pruned stale rounds")
			}
		}
	}
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.opts.ClientOrigin
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------ ROUNDS -------------------------------------

// handleWords reports how many words exist per length.
func (s *Server) handleWords(w http.ResponseWriter, r *http.Request) {
	counts := map[int]int{}
	for _, n := range s.opts.Dict.Lengths() {
		counts[n] = s.opts.Dict.CountForLength(n)
	}
	writeJSON(w, http.StatusOK, map[string]any{"total": s.opts.Dict.Len(), "byLength": counts})
}

type newRoundReq struct {
	Length     int    `json:"length"`     // 0 → random available length
	Guesses    int    `json:"guesses"`    // 0 → server default
	Difficulty string `json:"difficulty"` // "" → server default
	Debug      bool   `json:"debug"`      // expose word counts and partitions
}

// handleNewRound creates an in-memory round and records its owner
// (user_id or anonymous_id) for history.
func (s *Server) handleNewRound(w http.ResponseWriter, r *http.Request) {
	var req newRoundReq
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
			return
		}
	}
	cfg := game.RoundConfig{Guesses: req.Guesses, Difficulty: s.opts.DefaultDifficulty, Debug: req.Debug}
	if cfg.Guesses == 0 {
		cfg.Guesses = s.opts.DefaultGuesses
	}
	if req.Difficulty != "" {
		d, err := game.ParseDifficulty(req.Difficulty)
		if err != nil {
			http.Error(w, `{"error":"bad_difficulty"}`, http.StatusBadRequest)
			return
		}
		cfg.Difficulty = d
	}
	cfg.Length = req.Length
	if cfg.Length == 0 {
		lengths := s.opts.Dict.Lengths()
		cfg.Length = lengths[s.rng.Intn(len(lengths))]
	}

	sess, err := game.NewSession(s.opts.Dict, cfg, game.WithLogger(log.Logger))
	if err != nil {
		writeErr(w, err)
		return
	}
	sess.Started = s.opts.Now()
	if me := auth.FromContext(r.Context()); me != nil {
		sess.Owner.UserID = me.ID
	} else {
		sess.Owner.AnonID = s.opts.Auth.AnonID(w, r)
	}
	if err := s.store.Save(r.Context(), sess); err != nil {
		log.Error().Err(err).Msg("save round")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}

	row := db.Round{
		ID:          sess.ID,
		UserID:      sess.Owner.UserID,
		AnonymousID: sess.Owner.AnonID,
		WordLength:  cfg.Length,
		Difficulty:  cfg.Difficulty.String(),
		Budget:      cfg.Guesses,
	}
	if err := s.rounds.Start(r.Context(), row); err != nil {
		log.Warn().Err(err).Str("roundId", sess.ID).Msg("insert round row")
	}

	writeJSON(w, http.StatusOK, sess.Snapshot())
}

type guessReq struct {
	RoundID string `json:"roundId"`
	Letter  string `json:"letter"`
}

// handleGuess applies a letter to an in-memory round owned by the requester
// and records progress (best effort, non-fatal if it fails).
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	sess, err := s.store.Get(r.Context(), req.RoundID)
	if err != nil {
		writeErr(w, err)
		return
	}
	p := db.Progress{ID: sess.ID, AnonID: auth.AnonCookie(r)}
	if me := auth.FromContext(r.Context()); me != nil {
		p.UserID = me.ID
	}
	if !sess.Owner.Allows(p.UserID, p.AnonID) {
		writeErr(w, db.ErrNotOwner)
		return
	}
	res, err := sess.ApplyGuess(req.Letter, s.rng)
	if err != nil {
		writeErr(w, err)
		return
	}

	p.Guesses, p.Status, p.Secret = res.Guesses, string(res.State), res.Secret
	if err := s.rounds.Record(r.Context(), p); err != nil {
		log.Warn().Err(err).Str("roundId", sess.ID).Msg("record guess")
	}
	if res.State != game.StatePlaying {
		log.Info().Str("roundId", sess.ID).Str("state", string(res.State)).Int("guesses", res.Guesses).Msg("round finished")
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleGetRound(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// ------------------------------- AUTH --------------------------------------

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// mountAuthRoutes registers authentication + gated routes (/auth/*, /stats/me, /rounds/mine).
func (s *Server) mountAuthRoutes() {
	s.r.Post("/auth/signup", s.handleSignup)
	s.r.Post("/auth/login", s.handleLogin)
	s.r.Post("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		s.opts.Auth.ClearCookie(w)
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	s.r.Group(func(r chi.Router) {
		r.Use(auth.Require(s.opts.Auth, s.users))
		r.Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
			me := auth.FromContext(r.Context())
			writeJSON(w, http.StatusOK, map[string]string{"id": me.ID, "username": me.Username})
		})
		r.Get("/stats/me", func(w http.ResponseWriter, r *http.Request) {
			u, err := s.users.ByID(r.Context(), auth.FromContext(r.Context()).ID)
			if err != nil {
				http.Error(w, `{"error":"not_found"}`, http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"id":          u.ID,
				"gamesPlayed": u.GamesPlayed,
				"wins":        u.Wins,
				"streak":      u.Streak,
			})
		})
		r.Get("/rounds/mine", func(w http.ResponseWriter, r *http.Request) {
			rows, err := s.rounds.ForUser(r.Context(), auth.FromContext(r.Context()).ID, 50)
			if err != nil {
				http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusOK, rows)
		})
	})
}

// handleSignup creates a user, sets the auth cookie and claims anonymous history.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	u, err := s.users.Create(r.Context(), body.Username, body.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUsernameTaken) {
			http.Error(w, `{"error":"Username taken"}`, http.StatusConflict)
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if !s.issueToken(w, r, u) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": u.ID, "username": u.Username, "createdAt": u.CreatedAt})
}

// handleLogin authenticates, sets the cookie and claims anonymous history.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	u, err := s.users.Authenticate(r.Context(), body.Username, body.Password)
	if err != nil {
		http.Error(w, `{"error":"Invalid username or password"}`, http.StatusUnauthorized)
		return
	}
	if !s.issueToken(w, r, u) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": u.ID, "username": u.Username})
}

func (s *Server) issueToken(w http.ResponseWriter, r *http.Request, u *auth.User) bool {
	tok, exp, err := s.opts.Auth.Sign(u.ID, u.Username)
	if err != nil {
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return false
	}
	s.opts.Auth.SetCookie(w, tok, exp)
	if err := s.rounds.ClaimAnonymous(r.Context(), s.opts.Auth.AnonID(w, r), u.ID); err != nil {
		log.Warn().Err(err).Msg("claim anon rounds")
	}
	return true
}

// ------------------------------- helpers -----------------------------------

// writeErr maps engine and store errors to status codes.
func writeErr(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, store.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, db.ErrNotOwner):
		status, code = http.StatusForbidden, "not_your_round"
	case errors.Is(err, game.ErrRoundFinished):
		status, code = http.StatusConflict, "round_finished"
	case errors.Is(err, game.ErrInvalidRoundConfig):
		status, code = http.StatusBadRequest, "invalid_round_config"
	case errors.Is(err, game.ErrNoWordsForLength):
		status, code = http.StatusBadRequest, "no_words_for_length"
	case errors.Is(err, game.ErrInvalidLetter):
		status, code = http.StatusBadRequest, "invalid_letter"
	case errors.Is(err, game.ErrAlreadyGuessed):
		status, code = http.StatusBadRequest, "already_guessed"
	default:
		log.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, map[string]string{"error": code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// lockedRand serialises access to a non-concurrent random source.
type lockedRand struct {
	mu  sync.Mutex
	src game.Rand
}

func (l *lockedRand) Intn(n int) int {
	if l.src == nil {
		return rand.Intn(n)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Intn(n)
}
