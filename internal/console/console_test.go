package console_test

import (
	"context"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/raysh454/devconsole/internal/console"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	cases := map[string]console.Level{
		"":        console.LevelDebug,
		"debug":   console.LevelDebug,
		"INFO":    console.LevelInfo,
		"warning": console.LevelWarn,
		"error":   console.LevelError,
	}
	for in, want := range cases {
		got, err := console.ParseLevel(in)
		if err != nil {
			t.Fatalf("ParseLevel(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseLevel(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := console.ParseLevel("fatal"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestGenerator_TailLengthAndOrder(t *testing.T) {
	t.Parallel()
	g := console.NewGenerator(console.Config{Seed: 42})

	entries := g.Tail(25, console.LevelDebug)
	if len(entries) != 25 {
		t.Fatalf("expected 25 entries, got %d", len(entries))
	}
	seen := map[string]bool{}
	for i, e := range entries {
		if e.ID == "" || e.Message == "" || e.Source == "" {
			t.Errorf("entry %d has empty fields: %+v", i, e)
		}
		if seen[e.ID] {
			t.Errorf("duplicate id %s", e.ID)
		}
		seen[e.ID] = true
		if i > 0 && e.Timestamp.Before(entries[i-1].Timestamp) {
			t.Errorf("entry %d out of order", i)
		}
	}
}

func TestGenerator_TailFiltersByLevel(t *testing.T) {
	t.Parallel()
	g := console.NewGenerator(console.Config{Seed: 7})

	for _, e := range g.Tail(40, console.LevelWarn) {
		if !e.Level.AtLeast(console.LevelWarn) {
			t.Errorf("entry below warn: %+v", e)
		}
	}
}

func TestGenerator_TailZero(t *testing.T) {
	t.Parallel()
	g := console.NewGenerator(console.Config{})
	if got := g.Tail(0, console.LevelDebug); len(got) != 0 {
		t.Errorf("expected no entries, got %d", len(got))
	}
}

func TestGenerator_SeedIsReproducible(t *testing.T) {
	t.Parallel()
	a := console.NewGenerator(console.Config{Seed: 99}).Tail(10, console.LevelDebug)
	b := console.NewGenerator(console.Config{Seed: 99}).Tail(10, console.LevelDebug)
	for i := range a {
		if a[i].Message != b[i].Message || a[i].Level != b[i].Level {
			t.Fatalf("entry %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestGenerator_StreamStopsOnCancel(t *testing.T) {
	t.Parallel()
	g := console.NewGenerator(console.Config{Seed: 1})
	ctx, cancel := context.WithCancel(context.Background())

	ch := g.Stream(ctx, 5*time.Millisecond, console.LevelDebug)
	for i := 0; i < 3; i++ {
		select {
		case e, ok := <-ch:
			if !ok {
				t.Fatal("stream closed early")
			}
			if e.ID == "" {
				t.Error("empty entry id")
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for entry")
		}
	}
	cancel()
	for range ch {
	}
}
