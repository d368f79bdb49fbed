package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdd_InvalidSpec(t *testing.T) {
	s := New(context.Background(), nil)
	assert.Error(t, s.Add("every now and then", "x", func(context.Context) error { return nil }))
	assert.Equal(t, 0, s.Entries())
}

func TestScheduler_RunsTask(t *testing.T) {
	s := New(context.Background(), nil)
	var n atomic.Int32
	require.NoError(t, s.Add("@every 1s", "tick", func(context.Context) error {
		n.Add(1)
		return errors.New("logged, not fatal")
	}))
	assert.Equal(t, 1, s.Entries())

	s.Start()
	require.Eventually(t, func() bool { return n.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
	s.Stop()
}

func TestScheduler_PassesContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")
	s := New(ctx, nil)

	got := make(chan any, 1)
	require.NoError(t, s.Add("@every 1s", "ctx", func(c context.Context) error {
		select {
		case got <- c.Value(key{}):
		default:
		}
		return nil
	}))
	s.Start()
	defer s.Stop()

	select {
	case v := <-got:
		assert.Equal(t, "v", v)
	case <-time.After(3 * time.Second):
		t.Fatal("task did not run")
	}
}
