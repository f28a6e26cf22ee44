package channels

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"robux-topup-backend/internal/cache"
	"robux-topup-backend/internal/tripay"
)

type fakeGateway struct {
	calls    int
	channels []tripay.Channel
	err      error
}

func (f *fakeGateway) ListChannels(context.Context) ([]tripay.Channel, error) {
	f.calls++
	return f.channels, f.err
}

type brokenStore struct{}

func (brokenStore) Get(context.Context) ([]tripay.Channel, bool, error) {
	return nil, false, errors.New("redis down")
}
func (brokenStore) Set(context.Context, []tripay.Channel) error { return errors.New("redis down") }
func (brokenStore) Reset(context.Context) error { return errors.New("redis down") }

func TestService_ListUsesCache(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	gw := &fakeGateway{channels: []tripay.Channel{
		{Code: "BRIVA", Active: true},
		{Code: "OVO", Active: false},
	}}
	store := cache.NewMemory[[]tripay.Channel](5 * time.Minute).WithClock(func() time.Time { return now })
	svc := NewService(gw, store)

	first, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "BRIVA", first[0].Code)

	_, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, gw.calls)

	now = now.Add(5 * time.Minute)
	_, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, gw.calls)

	require.NoError(t, svc.Refresh(ctx))
	_, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, gw.calls)
}

func TestService_CacheFailureFallsThrough(t *testing.T) {
	gw := &fakeGateway{channels: []tripay.Channel{{Code: "QRIS", Active: true}}}
	svc := NewService(gw, brokenStore{})

	got, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestService_GatewayError(t *testing.T) {
	gw := &fakeGateway{err: errors.New("timeout")}
	svc := NewService(gw, cache.NewMemory[[]tripay.Channel](time.Minute))

	_, err := svc.List(context.Background())
	assert.Error(t, err)
}
