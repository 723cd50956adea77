/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package simple implements the single-worker executor: one goroutine,
// one sorted priority queue keyed by a node's next due instant, no
// sleeping. It is the scheduling core the threaded and pool executors
// each build on.
package simple

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nabbar/ncomm/errs"
	"github.com/nabbar/ncomm/logging"
	"github.com/nabbar/ncomm/node"
)

// Status is one of the three lifecycle states every executor moves
// through: Stopped, Started (start ran, not yet driving), Running
// (a driving call is in progress), back to Stopped.
type Status uint8

const (
	Stopped Status = iota
	Started
	Running
)

func (s Status) String() string {
	switch s {
	case Started:
		return "started"
	case Running:
		return "running"
	default:
		return "stopped"
	}
}

type scheduled[I node.Identity] struct {
	n   node.Node[I]
	due int64
}

// Executor is the single-worker, sorted-priority scheduler. The zero
// value is not usable; build one with New.
type Executor[I node.Identity] struct {
	mu     sync.Mutex
	status Status
	nodes  []*scheduled[I]
	ref    time.Time

	interrupt   chan struct{}
	interrupted bool

	log logging.Logger
}

// New builds an Executor with no nodes, in the Stopped state.
func New[I node.Identity]() *Executor[I] {
	return &Executor[I]{
		interrupt: make(chan struct{}, 1),
		log:       logging.NopLogger,
	}
}

// SetLogger attaches l for node failure diagnostics. A nil l reverts
// to logging.NopLogger.
func (e *Executor[I]) SetLogger(l logging.Logger) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.log = logging.OrNop(l)
}

// Status returns the executor's current lifecycle state.
func (e *Executor[I]) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// IsRunning reports whether a driving call is currently in progress.
func (e *Executor[I]) IsRunning() bool {
	return e.Status() == Running
}

// Len returns the number of nodes currently held in the queue, in any
// lifecycle state; a node whose Update is in progress is not counted.
func (e *Executor[I]) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.nodes)
}

// AddNode admits n to the queue. A node added while Stopped is given
// priority zero (due immediately on the next Start); one added while
// Started or Running is given the current monotonic elapsed so it is
// scheduled as soon as the worker next looks at the queue.
func (e *Executor[I]) AddNode(n node.Node[I]) {
	e.mu.Lock()
	defer e.mu.Unlock()

	due := int64(0)
	if e.status != Stopped {
		due = e.elapsedUsLocked()
	}
	e.insertSortedLocked(&scheduled[I]{n: n, due: due})
}

// RemoveNode removes and returns the node matching id, if present.
func (e *Executor[I]) RemoveNode(id I) (node.Node[I], bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, s := range e.nodes {
		if s.n.ID() == id {
			e.nodes = append(e.nodes[:i], e.nodes[i+1:]...)
			return s.n, true
		}
	}

	var zero node.Node[I]
	return zero, false
}

// Interrupt requests that the current (or next) driving call stop.
// Once observed, the request latches: every later checkInterrupt
// call returns true until a fresh Start re-arms the executor.
func (e *Executor[I]) Interrupt() {
	select {
	case e.interrupt <- struct{}{}:
	default:
	}
}

// Start resets every node's priority to zero, calls each node's
// Start hook in queue order, captures the monotonic reference
// instant, and transitions to Started.
func (e *Executor[I]) Start(ctx context.Context) error {
	e.mu.Lock()
	for _, s := range e.nodes {
		s.due = 0
	}
	nodes := append([]*scheduled[I](nil), e.nodes...)
	e.mu.Unlock()

	for _, s := range nodes {
		if err := s.n.Start(ctx); err != nil {
			return err
		}
	}

	e.mu.Lock()
	e.ref = time.Now()
	e.status = Started
	e.interrupted = false
	e.mu.Unlock()
	return nil
}

// UpdateLoop drives the scheduling algorithm until interrupted or ctx
// is done.
func (e *Executor[I]) UpdateLoop(ctx context.Context) error {
	return e.run(ctx, -1)
}

// UpdateForMs drives the scheduling algorithm until interrupted, ctx
// is done, or ms milliseconds have elapsed since this call began,
// whichever comes first.
func (e *Executor[I]) UpdateForMs(ctx context.Context, ms int64) error {
	return e.run(ctx, ms)
}

func (e *Executor[I]) run(ctx context.Context, budgetMs int64) error {
	e.mu.Lock()
	if e.status == Stopped {
		e.mu.Unlock()
		return errs.Internal("simple executor: run called before start")
	}
	e.status = Running
	e.mu.Unlock()

	start := time.Now()

	for {
		if e.checkInterrupt() {
			break
		}
		if budgetMs >= 0 && time.Since(start) >= time.Duration(budgetMs)*time.Millisecond {
			break
		}

		select {
		case <-ctx.Done():
			return e.stop(context.Background(), ctx.Err())
		default:
		}

		e.mu.Lock()
		if len(e.nodes) == 0 {
			e.mu.Unlock()
			continue
		}

		head := e.nodes[0]
		if e.elapsedUsLocked() < head.due {
			e.mu.Unlock()
			continue
		}
		e.nodes = e.nodes[1:]
		e.mu.Unlock()

		if err := head.n.Update(ctx); err != nil {
			// endpoint/node failures are the node's own responsibility;
			// the executor only observes and logs them.
			e.logger().Warn("node update failed", logging.Fields{"node": fmt.Sprintf("%v", head.n.ID()), "error": err.Error()})
		}

		head.due += head.n.Period().Microseconds()

		e.mu.Lock()
		e.insertSortedLocked(head)
		e.mu.Unlock()
	}

	return e.stop(context.Background(), nil)
}

// checkInterrupt polls the interrupt channel once and latches the
// result permanently for the remainder of this run.
func (e *Executor[I]) checkInterrupt() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.interrupted {
		return true
	}
	select {
	case <-e.interrupt:
		e.interrupted = true
	default:
	}
	return e.interrupted
}

func (e *Executor[I]) elapsedUsLocked() int64 {
	return time.Since(e.ref).Microseconds()
}

func (e *Executor[I]) logger() logging.Logger {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.log
}

// insertSortedLocked inserts s keeping the slice sorted by due,
// placing s after any existing node sharing the same due value.
func (e *Executor[I]) insertSortedLocked(s *scheduled[I]) {
	i := sort.Search(len(e.nodes), func(i int) bool { return e.nodes[i].due > s.due })
	e.nodes = append(e.nodes, nil)
	copy(e.nodes[i+1:], e.nodes[i:])
	e.nodes[i] = s
}

func (e *Executor[I]) stop(ctx context.Context, cause error) error {
	e.mu.Lock()
	nodes := e.nodes
	e.status = Stopped
	e.mu.Unlock()

	var fails []errs.Destination
	for _, s := range nodes {
		if err := s.n.Shutdown(ctx); err != nil {
			fails = append(fails, errs.Destination{Target: fmt.Sprintf("%v", s.n.ID()), Err: err})
		}
	}

	if agg := errs.Fanout(fails); agg != nil {
		return agg
	}
	return cause
}
