package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequenceGestureGenerator_Sequence(t *testing.T) {
	gen := NewSequenceGestureGenerator("g")

	assert.Equal(t, "g-1", gen.Generate())
	assert.Equal(t, "g-2", gen.Generate())
	assert.Equal(t, "g-3", gen.Generate())
}

func TestSequenceGestureGenerator_EmptyPrefixDefault(t *testing.T) {
	gen := NewSequenceGestureGenerator("")
	assert.Equal(t, "gesture-1", gen.Generate())
}

func TestSequenceGestureGenerator_Reset(t *testing.T) {
	gen := NewSequenceGestureGenerator("g")
	gen.Generate()
	gen.Generate()

	gen.Reset()
	assert.Equal(t, "g-1", gen.Generate())
}

func TestSequenceGestureGenerator_ThreadSafe(t *testing.T) {
	gen := NewSequenceGestureGenerator("g")

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]bool)
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				token := gen.Generate()
				mu.Lock()
				seen[token] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 1000, "every token should be unique")
}
