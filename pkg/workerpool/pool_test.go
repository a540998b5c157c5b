package workerpool_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/sensorhub/pkg/workerpool"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPool(t *testing.T, size int) *workerpool.Pool {
	t.Helper()

	p := workerpool.New(size, discardLogger())
	t.Cleanup(p.Close)

	return p
}

func TestNew_DefaultsToNumCPU(t *testing.T) {
	t.Parallel()

	p := newPool(t, 0)

	assert.Equal(t, runtime.NumCPU(), p.Size())
}

func TestSubmit_DeliversResult(t *testing.T) {
	t.Parallel()

	p := newPool(t, 2)

	f := workerpool.Submit(p, func() (int, error) { return 42, nil })

	v, err := f.Result()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestSubmit_DeliversError(t *testing.T) {
	t.Parallel()

	p := newPool(t, 2)
	errBoom := errors.New("boom")

	f := workerpool.Submit(p, func() (int, error) { return 0, errBoom })

	_, err := f.Result()
	require.ErrorIs(t, err, errBoom)
}

func TestSubmit_PanicBecomesErrorAndWorkerSurvives(t *testing.T) {
	t.Parallel()

	p := newPool(t, 1)

	f := workerpool.Submit(p, func() (int, error) { panic("kaboom") })

	_, err := f.Result()
	require.ErrorIs(t, err, workerpool.ErrTaskPanic)
	assert.Contains(t, err.Error(), "kaboom")

	// The single worker must still accept work.
	v, err := workerpool.Submit(p, func() (int, error) { return 7, nil }).Result()
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestSubmit_AfterCloseFailsFast(t *testing.T) {
	t.Parallel()

	p := workerpool.New(2, discardLogger())
	p.Close()

	_, err := workerpool.Submit(p, func() (int, error) { return 1, nil }).Result()

	require.ErrorIs(t, err, workerpool.ErrPoolClosed)
}

func TestPool_ConcurrencyNeverExceedsSize(t *testing.T) {
	t.Parallel()

	const size = 3

	p := newPool(t, size)

	var inflight, peak atomic.Int64

	err := workerpool.ProcessBatch(p, make([]int, 24), func(int) error {
		cur := inflight.Add(1)
		defer inflight.Add(-1)

		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}

		time.Sleep(5 * time.Millisecond)

		return nil
	})
	require.NoError(t, err)

	assert.LessOrEqual(t, peak.Load(), int64(size))
	assert.GreaterOrEqual(t, peak.Load(), int64(2))
}

func TestProcessBatch_JoinsFailures(t *testing.T) {
	t.Parallel()

	p := newPool(t, 4)
	items := []int{1, 2, 3, 4, 5}

	err := workerpool.ProcessBatch(p, items, func(n int) error {
		if n%2 == 0 {
			return fmt.Errorf("item %d rejected", n)
		}

		return nil
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "item 2 rejected")
	assert.Contains(t, err.Error(), "item 4 rejected")
}

func TestProcessBatch_VisitsEveryItem(t *testing.T) {
	t.Parallel()

	p := newPool(t, 4)

	var visited atomic.Int64

	err := workerpool.ProcessBatch(p, make([]struct{}, 100), func(struct{}) error {
		visited.Add(1)

		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, int64(100), visited.Load())
}

func TestSubmitVoid_PanicIsContained(t *testing.T) {
	t.Parallel()

	p := newPool(t, 1)

	p.SubmitVoid(func() { panic("ignored") })

	// A later submission proves the worker survived the panic.
	v, err := workerpool.Submit(p, func() (string, error) { return "alive", nil }).Result()
	require.NoError(t, err)
	assert.Equal(t, "alive", v)
}

func TestFuture_ResultContextHonorsCancellation(t *testing.T) {
	t.Parallel()

	p := newPool(t, 1)
	release := make(chan struct{})

	f := workerpool.Submit(p, func() (int, error) {
		<-release

		return 9, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.ResultContext(ctx)
	require.ErrorIs(t, err, context.Canceled)

	// The task itself was never cancelled and still completes.
	close(release)

	v, err := f.Result()
	require.NoError(t, err)
	assert.Equal(t, 9, v)
}

func TestClose_WaitsForInflightTasks(t *testing.T) {
	t.Parallel()

	p := workerpool.New(2, discardLogger())

	var finished atomic.Int64

	for range 6 {
		workerpool.Submit(p, func() (struct{}, error) {
			time.Sleep(10 * time.Millisecond)
			finished.Add(1)

			return struct{}{}, nil
		})
	}

	p.Close()
	p.Close() // idempotent

	assert.Equal(t, int64(6), finished.Load())
}
