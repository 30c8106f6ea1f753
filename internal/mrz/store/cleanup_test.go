package store

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingExpirer struct {
	calls atomic.Int32
	err   error
}

func (c *countingExpirer) DeleteExpired(context.Context) (int, error) {
	c.calls.Add(1)
	return 1, c.err
}

func TestStartCleanup(t *testing.T) {
	t.Run("sweeps until cancelled", func(t *testing.T) {
		exp := &countingExpirer{}
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- StartCleanup(ctx, exp, time.Millisecond, nil) }()

		require.Eventually(t, func() bool { return exp.calls.Load() >= 2 }, time.Second, time.Millisecond)
		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
	})

	t.Run("keeps going after a failed sweep", func(t *testing.T) {
		exp := &countingExpirer{err: errors.New("db down")}
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() { _ = StartCleanup(ctx, exp, time.Millisecond, nil) }()

		require.Eventually(t, func() bool { return exp.calls.Load() >= 3 }, time.Second, time.Millisecond)
	})

	t.Run("in-memory store satisfies Expirer", func(t *testing.T) {
		var _ Expirer = NewInMemory()
		var _ Expirer = (*PostgresReportStore)(nil)
	})
}
