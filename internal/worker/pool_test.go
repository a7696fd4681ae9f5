package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MeKo-Tech/discarta/internal/tile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	delay time.Duration
	fail  map[tile.Coord]bool
	calls atomic.Int32
}

func (g *fakeGenerator) Generate(ctx context.Context, c tile.Coord, force bool) (string, error) {
	g.calls.Add(1)

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(g.delay):
	}

	if g.fail[c] {
		return "", errors.New("simulated failure")
	}
	return fmt.Sprintf("/tmp/%s-%t.png", c, force), nil
}

func threeTasks() []Task {
	return []Task{
		{Coord: tile.NewCoord(2, 0, 0)},
		{Coord: tile.NewCoord(2, 0, 1)},
		{Coord: tile.NewCoord(2, 1, 0), Force: true},
	}
}

func TestPoolRunsEveryTask(t *testing.T) {
	gen := &fakeGenerator{delay: 5 * time.Millisecond}
	pool := New(Config{Workers: 2, Generator: gen})

	results := pool.Run(context.Background(), threeTasks())

	require.Len(t, results, 3)
	for _, r := range results {
		require.NoError(t, r.Err)
		assert.Equal(t, fmt.Sprintf("/tmp/%s-%t.png", r.Task.Coord, r.Task.Force), r.Path)
	}
	assert.EqualValues(t, 3, gen.calls.Load())
}

func TestPoolParallelism(t *testing.T) {
	gen := &fakeGenerator{delay: 50 * time.Millisecond}
	pool := New(Config{Workers: 4, Generator: gen})

	tasks := TasksFor(tile.Range{Z: 3, MinX: 0, MaxX: 3, MinY: 0, MaxY: 1}, false)
	require.Len(t, tasks, 8)

	start := time.Now()
	results := pool.Run(context.Background(), tasks)
	elapsed := time.Since(start)

	assert.Len(t, results, 8)
	// two rounds of 50ms with some slack
	assert.Less(t, elapsed, 300*time.Millisecond)
}

func TestPoolFailures(t *testing.T) {
	bad := tile.NewCoord(2, 0, 1)
	gen := &fakeGenerator{fail: map[tile.Coord]bool{bad: true}}
	pool := New(Config{Workers: 2, Generator: gen})

	results := pool.Run(context.Background(), threeTasks())
	require.Len(t, results, 3)

	failed := Failed(results)
	require.Len(t, failed, 1)
	assert.Equal(t, bad, failed[0].Task.Coord)
}

func TestPoolRecoversPanics(t *testing.T) {
	pool := New(Config{Generator: GeneratorFunc(func(context.Context, tile.Coord, bool) (string, error) {
		panic("boom")
	})})

	results := pool.Run(context.Background(), threeTasks()[:1])
	require.Len(t, results, 1)
	require.Error(t, results[0].Err)
	assert.Contains(t, results[0].Err.Error(), "panic: boom")
}

func TestPoolCancellation(t *testing.T) {
	gen := &fakeGenerator{delay: 100 * time.Millisecond}
	pool := New(Config{Workers: 2, Generator: gen})

	tasks := TasksFor(tile.Range{Z: 4, MinX: 0, MaxX: 9, MinY: 0, MaxY: 0}, false)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	start := time.Now()
	results := pool.Run(ctx, tasks)

	assert.Less(t, time.Since(start), 250*time.Millisecond)
	require.Len(t, results, len(tasks))
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestPoolProgress(t *testing.T) {
	var calls, lastCompleted, lastTotal, lastFailed int
	pool := New(Config{
		Workers:   3,
		Generator: &fakeGenerator{fail: map[tile.Coord]bool{tile.NewCoord(2, 1, 0): true}},
		// called from the collecting goroutine only
		OnProgress: func(completed, total, failed int) {
			calls++
			lastCompleted, lastTotal, lastFailed = completed, total, failed
		},
	})

	pool.Run(context.Background(), threeTasks())

	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, lastCompleted)
	assert.Equal(t, 3, lastTotal)
	assert.Equal(t, 1, lastFailed)
}

func TestPoolEmpty(t *testing.T) {
	gen := &fakeGenerator{}
	results := New(Config{Workers: 2, Generator: gen}).Run(context.Background(), nil)

	assert.Empty(t, results)
	assert.Zero(t, gen.calls.Load())
}

func TestTasksFor(t *testing.T) {
	r := tile.Range{Z: 1, MinX: 0, MaxX: 1, MinY: 0, MaxY: 1}
	tasks := TasksFor(r, true)

	require.Len(t, tasks, 4)
	seen := map[tile.Coord]bool{}
	for _, task := range tasks {
		assert.True(t, task.Force)
		seen[task.Coord] = true
	}
	assert.Len(t, seen, 4)
	assert.Empty(t, TasksFor(tile.Range{Z: 1, MinX: 1, MaxX: 0}, false))
}
