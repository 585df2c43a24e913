package engine

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Clock hands out the seq stamped on drag log records. The log is ordered
// by seq, never by wall time, so seqs must keep increasing across restarts.
type Clock struct {
	last atomic.Int64
}

// NewClock returns a clock for an empty log; the first seq is 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt returns a clock whose first seq is last+1.
func NewClockAt(last int64) *Clock {
	c := &Clock{}
	c.last.Store(last)
	return c
}

// SeqSource reports the highest seq already written to a drag log.
// *store.Store implements it.
type SeqSource interface {
	LastSeq(ctx context.Context) (int64, error)
}

// ResumeClock returns a clock that continues after the last logged seq.
func ResumeClock(ctx context.Context, src SeqSource) (*Clock, error) {
	last, err := src.LastSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("resume clock: %w", err)
	}
	return NewClockAt(last), nil
}

// Next advances the clock and returns the new seq.
func (c *Clock) Next() int64 {
	return c.last.Add(1)
}

// Current returns the last seq handed out.
func (c *Clock) Current() int64 {
	return c.last.Load()
}
