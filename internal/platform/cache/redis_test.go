package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := New(context.Background(), srv.Addr())
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "ledger:audit:1:last", "ok", 0).Err())
	val, err := client.Get(context.Background(), "ledger:audit:1:last").Result()
	require.NoError(t, err)
	require.Equal(t, "ok", val)
}

func TestNewUnreachable(t *testing.T) {
	_, err := New(context.Background(), "127.0.0.1:1")
	require.Error(t, err)
}
