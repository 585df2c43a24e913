package session

import (
	"sync"

	"github.com/google/uuid"
)

// GestureGenerator produces one token per started drag gesture. Tokens
// correlate the session's log lines and the engine's event log.
type GestureGenerator interface {
	Generate() string
}

// UUIDv7Generator issues time-ordered UUIDv7 tokens. It has no state.
type UUIDv7Generator struct{}

// Generate panics only if the system random source fails.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator hands out a fixed list of tokens, then panics.
type FixedGenerator struct {
	mu        sync.Mutex
	remaining []string
}

// NewFixedGenerator returns a generator that yields tokens in order.
func NewFixedGenerator(tokens ...string) *FixedGenerator {
	return &FixedGenerator{remaining: tokens}
}

func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.remaining) == 0 {
		panic("session: FixedGenerator has no tokens left")
	}
	token := g.remaining[0]
	g.remaining = g.remaining[1:]
	return token
}
