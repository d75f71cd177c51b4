package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClientRequiresConfiguration(t *testing.T) {
	var c *Client
	_, err := c.EnqueueBalanceAudit(context.Background())
	require.Error(t, err)
	_, err = c.EnqueueIdempotencyCleanup(context.Background(), time.Hour)
	require.Error(t, err)
	require.NoError(t, c.Close())
}

func TestWorkerRequiresConfiguration(t *testing.T) {
	var w *Worker
	require.Error(t, w.Run(context.Background()))
}
