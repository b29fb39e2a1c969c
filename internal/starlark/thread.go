package starlark

import (
	"sync"

	"go.starlark.net/starlark"
)

// DefaultStepBudget caps the interpreter steps of a single evaluation.
const DefaultStepBudget uint64 = 10_000_000

const stepLimitKey = "cellfmt.step_limit"

// ThreadPool hands out interpreter threads, each with a fresh step budget,
// and keeps up to maxIdle of them for reuse.
type ThreadPool struct {
	mu      sync.Mutex
	idle    []*starlark.Thread
	maxIdle int
	budget  uint64
}

// NewThreadPool creates a pool. maxIdle <= 0 selects 10; budget 0 disables
// the step limit.
func NewThreadPool(maxIdle int, budget uint64) *ThreadPool {
	if maxIdle <= 0 {
		maxIdle = 10
	}
	return &ThreadPool{maxIdle: maxIdle, budget: budget}
}

// Get returns a thread named name for one evaluation.
func (p *ThreadPool) Get(name string) *starlark.Thread {
	p.mu.Lock()
	var thread *starlark.Thread
	if n := len(p.idle); n > 0 {
		thread, p.idle = p.idle[n-1], p.idle[:n-1]
	}
	p.mu.Unlock()

	if thread == nil {
		thread = &starlark.Thread{Print: func(*starlark.Thread, string) {}}
	}
	thread.Name = name
	if p.budget > 0 {
		limit := thread.ExecutionSteps() + p.budget
		thread.SetMaxExecutionSteps(limit)
		thread.SetLocal(stepLimitKey, limit)
	}
	return thread
}

// Put hands thread back. A thread that exhausted its budget has been
// cancelled by the interpreter and is dropped.
func (p *ThreadPool) Put(thread *starlark.Thread) {
	if limit, ok := thread.Local(stepLimitKey).(uint64); ok && thread.ExecutionSteps() >= limit {
		return
	}
	thread.Name = ""

	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.idle) < p.maxIdle {
		p.idle = append(p.idle, thread)
	}
}

// Size reports the number of idle threads.
func (p *ThreadPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}

var defaultPool = NewThreadPool(0, DefaultStepBudget)
