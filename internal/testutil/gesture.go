package testutil

import (
	"fmt"
	"sync"
)

// SequenceGestureGenerator yields "<prefix>-1", "<prefix>-2", ... as gesture
// tokens. The same scenario with a fresh generator produces byte-identical
// traces, which golden comparison relies on.
//
// Unlike session.FixedGenerator it never runs out of tokens.
//
// Thread-safety: safe for concurrent use.
type SequenceGestureGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceGestureGenerator creates a generator. An empty prefix
// becomes "gesture".
func NewSequenceGestureGenerator(prefix string) *SequenceGestureGenerator {
	if prefix == "" {
		prefix = "gesture"
	}
	return &SequenceGestureGenerator{prefix: prefix}
}

// Generate returns the next token.
//
// Implements session.GestureGenerator.
func (g *SequenceGestureGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// Reset restarts the sequence at 1.
func (g *SequenceGestureGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
