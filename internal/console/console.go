// Package console produces the synthetic log entries shown in the developer
// console tab. There is no real log source behind it.
package console

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level is the severity of a LogEntry.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

func (l Level) rank() int {
	switch l {
	case LevelDebug:
		return 0
	case LevelInfo:
		return 1
	case LevelWarn:
		return 2
	case LevelError:
		return 3
	default:
		return -1
	}
}

// AtLeast reports whether l is as severe as minLevel.
func (l Level) AtLeast(minLevel Level) bool {
	return l.rank() >= minLevel.rank()
}

// ParseLevel accepts a level name; empty means debug (everything).
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	if l == "" {
		return LevelDebug, nil
	}
	if l == "warning" {
		return LevelWarn, nil
	}
	if l.rank() < 0 {
		return "", fmt.Errorf("unknown log level %q", s)
	}
	return l, nil
}

// LogEntry is one console line.
type LogEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Level     Level     `json:"level"`
	Source    string    `json:"source"`
	Message   string    `json:"message"`
}

// Config controls the generator and the tail endpoints built on it.
type Config struct {
	// Seed makes output reproducible when non-zero.
	Seed           uint64        `yaml:"seed"`
	DefaultLimit   int           `yaml:"default_limit"`
	MaxLimit       int           `yaml:"max_limit"`
	StreamInterval time.Duration `yaml:"stream_interval"`
}

// DefaultConfig returns the limits used by /api/dev/console/tail.
func DefaultConfig() Config {
	return Config{
		DefaultLimit:   50,
		MaxLimit:       500,
		StreamInterval: time.Second,
	}
}

type template struct {
	level  Level
	source string
	format string
}

var templates = []template{
	{LevelDebug, "ai-service", "prompt cache lookup for session %s"},
	{LevelDebug, "files", "stat %s/src/index.ts"},
	{LevelInfo, "ai-service", "completion finished for session %s"},
	{LevelInfo, "github", "fetched pull requests for repo %s"},
	{LevelInfo, "auto-improve", "improvement cycle %s queued"},
	{LevelInfo, "dev-tests", "test run %s started"},
	{LevelInfo, "http", "GET /api/health 200 (%s)"},
	{LevelWarn, "ai-service", "provider latency above threshold for session %s"},
	{LevelWarn, "safety-switch", "confirmation pending for change %s"},
	{LevelWarn, "github", "rate limit low for token %s"},
	{LevelError, "dev-tests", "test run %s failed: 2 assertions"},
	{LevelError, "ai-service", "key rotation %s not implemented"},
}

// Generator yields plausible but fake entries. It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewGenerator creates a generator. A zero seed draws one at random.
func NewGenerator(cfg Config) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Generator{
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now: time.Now,
	}
}

func (g *Generator) entryLocked(ts time.Time) LogEntry {
	t := templates[g.rng.IntN(len(templates))]
	ref := fmt.Sprintf("%06x", g.rng.IntN(1<<24))
	return LogEntry{
		ID:        uuid.NewString(),
		Timestamp: ts.UTC(),
		Level:     t.level,
		Source:    t.source,
		Message:   fmt.Sprintf(t.format, ref),
	}
}

// Next returns one entry stamped now.
func (g *Generator) Next() LogEntry {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.entryLocked(g.now())
}

// Tail returns n entries at or above minLevel, oldest first, ending at the
// current time.
func (g *Generator) Tail(n int, minLevel Level) []LogEntry {
	if n <= 0 {
		return []LogEntry{}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]LogEntry, n)
	ts := g.now()
	for i := n - 1; i >= 0; i-- {
		e := g.entryLocked(ts)
		for !e.Level.AtLeast(minLevel) {
			e = g.entryLocked(ts)
		}
		out[i] = e
		ts = ts.Add(-time.Duration(100+g.rng.IntN(1900)) * time.Millisecond)
	}
	return out
}

// Stream emits one entry at or above minLevel every interval until ctx is done,
// then closes the channel.
func (g *Generator) Stream(ctx context.Context, interval time.Duration, minLevel Level) <-chan LogEntry {
	if interval <= 0 {
		interval = DefaultConfig().StreamInterval
	}
	ch := make(chan LogEntry)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			e := g.Tail(1, minLevel)[0]
			select {
			case ch <- e:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}
