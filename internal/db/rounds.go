package db

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Round is one row of round history. The secret is only filled in once the
// round has finished.
type Round struct {
	ID          string `json:"id"`
	UserID      string `json:"-"`
	AnonymousID string `json:"-"`
	WordLength  int    `json:"wordLength"`
	Difficulty  string `json:"difficulty"`
	Budget      int    `json:"budget"`
	Guesses     int    `json:"guesses"`
	Status      string `json:"status"`
	Secret      string `json:"secret,omitempty"`
	StartedAt   string `json:"startedAt"`
	FinishedAt  string `json:"finishedAt,omitempty"`
}

// Progress is what changes on a round after each guess. UserID and AnonID
// identify the requester; only the round's owner may record progress.
type Progress struct {
	ID      string
	UserID  string
	AnonID  string
	Guesses int
	Status  string // playing | won | lost
	Secret  string
}

// ErrNotOwner is returned by Record when the requester does not own the round.
var ErrNotOwner = errors.New("round belongs to another player")

// Rounds persists round history and per-user stats.
type Rounds struct{ db *sql.DB }

func NewRounds(db *sql.DB) *Rounds { return &Rounds{db: db} }

// Start inserts the history row for a new round owned by a user or an anonymous id.
func (s *Rounds) Start(ctx context.Context, r Round) error {
	if r.StartedAt == "" {
		r.StartedAt = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rounds (id, user_id, anonymous_id, word_length, difficulty, budget, started_at)
		 VALUES (?,?,?,?,?,?,?)`,
		r.ID, nullable(r.UserID), nullable(r.AnonymousID), r.WordLength, r.Difficulty, r.Budget, r.StartedAt)
	return err
}

// Record stores progress after a guess. When the round finishes it stamps
// finished_at and, if the round belongs to a user, bumps that user's stats in
// the same transaction. Stats are bumped once per round.
func (s *Rounds) Record(ctx context.Context, p Progress) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE rounds SET guesses=?, status=? WHERE id=? AND (user_id=? OR anonymous_id=?)`,
		p.Guesses, p.Status, p.ID, nullable(p.UserID), nullable(p.AnonID))
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotOwner
	}

	if p.Status != "playing" {
		res, err := tx.ExecContext(ctx,
			`UPDATE rounds SET secret=?, finished_at=? WHERE id=? AND finished_at IS NULL`,
			p.Secret, time.Now().UTC().Format(time.RFC3339), p.ID)
		if err != nil {
			return err
		}
		stamped, err := res.RowsAffected()
		if err != nil {
			return err
		}
		var owner sql.NullString
		if err := tx.QueryRowContext(ctx, `SELECT user_id FROM rounds WHERE id=?`, p.ID).Scan(&owner); err != nil {
			return err
		}
		if stamped > 0 && owner.Valid {
			if err := bumpStats(ctx, tx, owner.String, p.Status == "won"); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// ForUser lists a user's most recent rounds, newest first.
func (s *Rounds) ForUser(ctx context.Context, userID string, limit int) ([]Round, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, word_length, difficulty, budget, guesses, status,
		        CASE WHEN finished_at IS NULL THEN '' ELSE secret END,
		        started_at, COALESCE(finished_at,'')
		 FROM rounds WHERE user_id=? ORDER BY started_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Round{}
	for rows.Next() {
		r := Round{UserID: userID}
		if err := rows.Scan(&r.ID, &r.WordLength, &r.Difficulty, &r.Budget, &r.Guesses,
			&r.Status, &r.Secret, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ClaimAnonymous moves every round played under anonID to userID.
func (s *Rounds) ClaimAnonymous(ctx context.Context, anonID, userID string) error {
	if anonID == "" || userID == "" {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE rounds SET user_id=?, anonymous_id=NULL WHERE anonymous_id=?`, userID, anonID)
	return err
}

// bumpStats increments games played; updates wins and streak based on result.
func bumpStats(ctx context.Context, tx *sql.Tx, userID string, won bool) error {
	var gp, wins, streak int
	row := tx.QueryRowContext(ctx, `SELECT games_played, wins, streak FROM users WHERE id=?`, userID)
	if err := row.Scan(&gp, &wins, &streak); err != nil {
		return err
	}
	gp++
	if won {
		wins++
		streak++
	} else {
		streak = 0
	}
	_, err := tx.ExecContext(ctx, `UPDATE users SET games_played=?, wins=?, streak=? WHERE id=?`, gp, wins, streak, userID)
	return err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
