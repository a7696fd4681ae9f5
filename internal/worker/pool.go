// Package worker runs tile jobs on a bounded number of goroutines.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MeKo-Tech/discarta/internal/tile"
)

// Generator produces the output for one tile and returns where it went.
type Generator interface {
	Generate(ctx context.Context, coord tile.Coord, force bool) (path string, err error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, coord tile.Coord, force bool) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, coord tile.Coord, force bool) (string, error) {
	return f(ctx, coord, force)
}

// Task is one tile to generate. Force overwrites existing output.
type Task struct {
	Coord tile.Coord
	Force bool
}

// Result is the outcome of a Task.
type Result struct {
	Task    Task
	Path    string
	Err     error
	Elapsed time.Duration
}

// ProgressFunc is called after each task completes.
type ProgressFunc func(completed, total, failed int)

// Config configures a Pool.
type Config struct {
	Workers    int
	Generator  Generator
	OnProgress ProgressFunc
}

// Pool generates tiles in parallel.
type Pool struct {
	workers    int
	generator  Generator
	onProgress ProgressFunc
}

// New creates a pool. At least one worker is used.
func New(cfg Config) *Pool {
	return &Pool{
		workers:    max(cfg.Workers, 1),
		generator:  cfg.Generator,
		onProgress: cfg.OnProgress,
	}
}

// TasksFor turns every coordinate of r into a task.
func TasksFor(r tile.Range, force bool) []Task {
	tasks := make([]Task, 0, r.Count())
	r.ForEach(func(c tile.Coord) {
		tasks = append(tasks, Task{Coord: c, Force: force})
	})
	return tasks
}

// Run executes tasks and blocks until all of them finished or ctx is
// cancelled. Tasks not started before cancellation are reported with the
// context error. Results arrive in completion order.
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}

	taskCh := make(chan Task, len(tasks))
	resultCh := make(chan Result, len(tasks))

	for _, task := range tasks {
		taskCh <- task
	}
	close(taskCh)

	var wg sync.WaitGroup
	for range min(p.workers, len(tasks)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, taskCh, resultCh)
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]Result, 0, len(tasks))
	failed := 0
	for result := range resultCh {
		results = append(results, result)
		if result.Err != nil {
			failed++
		}
		if p.onProgress != nil {
			p.onProgress(len(results), len(tasks), failed)
		}
	}

	return results
}

func (p *Pool) worker(ctx context.Context, tasks <-chan Task, results chan<- Result) {
	for task := range tasks {
		if err := ctx.Err(); err != nil {
			results <- Result{Task: task, Err: err}
			continue
		}

		start := time.Now()
		path, err := p.generate(ctx, task)
		results <- Result{
			Task:    task,
			Path:    path,
			Err:     err,
			Elapsed: time.Since(start),
		}
	}
}

func (p *Pool) generate(ctx context.Context, task Task) (path string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("generate tile %s: panic: %v", task.Coord, r)
		}
	}()
	return p.generator.Generate(ctx, task.Coord, task.Force)
}

// Failed returns the results that carry an error.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
