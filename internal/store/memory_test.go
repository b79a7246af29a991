package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robalobadob/evilhangman/internal/game"
)

func newSession(t *testing.T) *game.Session {
	t.Helper()
	d, err := game.NewDictionary([]string{"dog", "cat"})
	if err != nil {
		t.Fatal(err)
	}
	s, err := game.NewSession(d, game.RoundConfig{Length: 3, Guesses: 5, Difficulty: game.Hard})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestMemorySaveGet(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	s := newSession(t)
	if err := st.Save(ctx, s); err != nil {
		t.Fatal(err)
	}
	got, err := st.Get(ctx, s.ID)
	if err != nil || got != s {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if _, err := st.Get(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing id: %v", err)
	}
}

func TestMemoryPrune(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	old, fresh := newSession(t), newSession(t)
	old.Started = time.Now().Add(-2 * time.Hour)
	_ = st.Save(ctx, old)
	_ = st.Save(ctx, fresh)

	if n := st.Prune(ctx, time.Now().Add(-time.Hour)); n != 1 {
		t.Fatalf("pruned %d, want 1", n)
	}
	if _, err := st.Get(ctx, old.ID); !errors.Is(err, ErrNotFound) {
		t.Error("old session survived")
	}
	if _, err := st.Get(ctx, fresh.ID); err != nil {
		t.Error("fresh session pruned")
	}
}
