package async

import (
	"context"
	"sync"
)

// Task is one named unit of work, typically a single store query.
type Task struct {
	Name    string
	Execute func() (interface{}, error)
}

// Result pairs a task name with its outcome.
type Result struct {
	Name string
	Data interface{}
	Err  error
}

// Pool fans a batch of named tasks out over a fixed number of workers.
type Pool struct {
	workerCount int
}

func NewPool(workerCount int) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Pool{workerCount: workerCount}
}

// Execute runs every task and blocks until each one has produced a result.
// Tasks cut short by context cancellation report ctx.Err as their error, so
// callers that treat any task error as fatal also see the cancellation.
func (p *Pool) Execute(ctx context.Context, tasks []Task) map[string]Result {
	pending := make(chan Task, len(tasks))
	results := make(chan Result, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < p.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range pending {
				select {
				case <-ctx.Done():
					results <- Result{Name: task.Name, Err: ctx.Err()}
					continue
				default:
				}
				data, err := task.Execute()
				results <- Result{Name: task.Name, Data: data, Err: err}
			}
		}()
	}

	for _, task := range tasks {
		pending <- task
	}
	close(pending)
	wg.Wait()
	close(results)

	out := make(map[string]Result, len(tasks))
	for result := range results {
		out[result.Name] = result
	}
	return out
}
