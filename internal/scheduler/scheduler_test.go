package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakePurger struct {
	calls chan struct{}
	n     int64
	err   error
}

func (f *fakePurger) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	f.calls <- struct{}{}
	return f.n, f.err
}

func TestStartPurgesImmediately(t *testing.T) {
	p := &fakePurger{calls: make(chan struct{}, 4), n: 3}
	s := New(p, "@every 1h", zap.NewNop())

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	select {
	case <-p.calls:
	case <-time.After(2 * time.Second):
		t.Fatal("purge did not run at startup")
	}
}

func TestStartRejectsBadSpec(t *testing.T) {
	s := New(&fakePurger{calls: make(chan struct{}, 1)}, "every now and then", zap.NewNop())
	assert.Error(t, s.Start(context.Background()))
}

func TestPurgeLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	ok := &fakePurger{calls: make(chan struct{}, 1), n: 2}
	New(ok, "@every 1h", zap.New(core)).Purge(context.Background())
	require.Equal(t, 1, logs.FilterMessage("expired tokens purged").Len())

	failing := &fakePurger{calls: make(chan struct{}, 1), err: errors.New("db down")}
	New(failing, "@every 1h", zap.New(core)).Purge(context.Background())
	assert.Equal(t, 1, logs.FilterMessage("token purge failed").Len())
}
