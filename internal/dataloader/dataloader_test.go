package dataloader_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hanpama/protograph/internal/dataloader"
	"github.com/stretchr/testify/require"
)

func TestLoader_DedupeIssuesOneCallPerDistinctKey(t *testing.T) {
	var calls int32
	var seenKeys [][]string
	var mu sync.Mutex

	l := dataloader.New(func(ctx context.Context, keys []string) []dataloader.Result {
		atomic.AddInt32(&calls, 1)
		mu.Lock()
		seenKeys = append(seenKeys, append([]string(nil), keys...))
		mu.Unlock()
		out := make([]dataloader.Result, len(keys))
		for i, k := range keys {
			out[i] = dataloader.Result{Value: "v-" + k}
		}
		return out
	}, dataloader.Config{Delay: 20 * time.Millisecond, Dedupe: true})

	ctx := context.Background()
	var wg sync.WaitGroup
	results := make([]any, 4)
	keys := []string{"a", "a", "b", "a"}
	for i, k := range keys {
		wg.Add(1)
		go func(i int, k string) {
			defer wg.Done()
			v, err := l.Load(ctx, k)
			require.NoError(t, err)
			results[i] = v
		}(i, k)
	}
	wg.Wait()

	require.Equal(t, "v-a", results[0])
	require.Equal(t, "v-a", results[1])
	require.Equal(t, "v-b", results[2])
	require.Equal(t, "v-a", results[3])
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
	require.Len(t, seenKeys[0], 2) // deduped to {"a","b"}
}

func TestLoader_MaxBatchSizeFlushesEarly(t *testing.T) {
	var batches [][]string
	var mu sync.Mutex
	l := dataloader.New(func(ctx context.Context, keys []string) []dataloader.Result {
		mu.Lock()
		batches = append(batches, append([]string(nil), keys...))
		mu.Unlock()
		out := make([]dataloader.Result, len(keys))
		for i := range keys {
			out[i] = dataloader.Result{Value: i}
		}
		return out
	}, dataloader.Config{Delay: time.Hour, MaxBatchSize: 2})

	ctx := context.Background()
	var wg sync.WaitGroup
	for _, k := range []string{"x", "y"} {
		wg.Add(1)
		go func(k string) {
			defer wg.Done()
			_, err := l.Load(ctx, k)
			require.NoError(t, err)
		}(k)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 2)
}

func TestLoader_BatchErrorFansOutToAllWaiters(t *testing.T) {
	boom := context.DeadlineExceeded
	l := dataloader.New(func(ctx context.Context, keys []string) []dataloader.Result {
		out := make([]dataloader.Result, len(keys))
		for i := range keys {
			out[i] = dataloader.Result{Err: boom}
		}
		return out
	}, dataloader.Config{Delay: 5 * time.Millisecond})

	_, err := l.Load(context.Background(), "k")
	require.ErrorIs(t, err, boom)
}
