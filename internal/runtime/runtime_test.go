package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/storelens/storelens/config"
)

func TestNewLimitsDefaults(t *testing.T) {
	limits := NewLimits(0, 0)
	require.Equal(t, config.DefaultMaxConcurrentRequests, limits.MaxConcurrentRequests)
	require.Equal(t, config.DefaultMaxResidentDatasets, limits.MaxResidentDatasets)
	require.Equal(t, int64(config.DefaultMaxUploadBytes), limits.MaxUploadBytes)
	require.Equal(t, config.DefaultOperationTimeout, limits.OperationTimeout)
}

func TestControllerRequestCapacity(t *testing.T) {
	ctrl := NewController(NewLimits(1, 1))

	require.NoError(t, ctrl.AcquireRequest(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.Error(t, ctrl.AcquireRequest(ctx), "saturated semaphore should time out")

	ctrl.ReleaseRequest()
	require.NoError(t, ctrl.AcquireRequest(context.Background()))
	ctrl.ReleaseRequest()
}

func TestControllerDatasetCapacity(t *testing.T) {
	ctrl := NewController(NewLimits(4, 2))

	require.NoError(t, ctrl.AcquireDataset(context.Background()))
	require.NoError(t, ctrl.AcquireDataset(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.Error(t, ctrl.AcquireDataset(ctx))

	ctrl.ReleaseDataset()
	ctrl.ReleaseDataset()
}

func TestLimitsSnapshot(t *testing.T) {
	limits := NewLimits(3, 5)
	ctrl := NewController(limits)
	require.Equal(t, limits, ctrl.LimitsSnapshot())
}
