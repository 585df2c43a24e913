package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reorder/internal/model"
)

type seqSource struct {
	last int64
	err  error
}

func (s seqSource) LastSeq(context.Context) (int64, error) {
	return s.last, s.err
}

func TestClock_Sequence(t *testing.T) {
	tests := []struct {
		name  string
		clock *Clock
		want  []int64
	}{
		{"empty log", NewClock(), []int64{1, 2, 3}},
		{"after seq 41", NewClockAt(41), []int64{42, 43, 44}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []int64
			for range tt.want {
				got = append(got, tt.clock.Next())
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want[len(tt.want)-1], tt.clock.Current())
		})
	}
}

func TestClock_ConcurrentNextIsUnique(t *testing.T) {
	c := NewClock()
	const workers, perWorker = 8, 250

	var mu sync.Mutex
	seen := make(map[int64]struct{}, workers*perWorker)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				seq := c.Next()
				mu.Lock()
				seen[seq] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
	assert.Equal(t, int64(workers*perWorker), c.Current())
}

func TestResumeClock(t *testing.T) {
	c, err := ResumeClock(context.Background(), seqSource{last: 6})
	require.NoError(t, err)
	assert.Equal(t, int64(7), c.Next())

	_, err = ResumeClock(context.Background(), seqSource{err: errors.New("disk gone")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resume clock")
}

func TestResumeClock_FromStore(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	seedSurface(t, s, "board", model.ConstraintConfig{}, item("A"))
	require.NoError(t, s.AppendEvent(ctx, model.DragEvent{Seq: 3, SurfaceID: "board", Gesture: "g", Type: model.EventStart, DraggedID: "A"}))

	c, err := ResumeClock(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.Current())
}
