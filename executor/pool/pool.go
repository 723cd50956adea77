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

// Package pool implements the concurrent executor: the same
// sorted-priority queue as executor/simple, but due nodes are
// dispatched onto a bounded worker pool instead of updated inline, so
// multiple nodes run concurrently. Nodes scheduled on a pool must
// tolerate that concurrency; the package does nothing to serialize
// access to state a node shares with another.
package pool

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bits-and-blooms/bitset"
	"golang.org/x/sync/semaphore"

	"github.com/nabbar/ncomm/errs"
	"github.com/nabbar/ncomm/logging"
	"github.com/nabbar/ncomm/node"
)

// Status mirrors executor/simple.Status; the pool executor goes
// through the same three-state lifecycle.
type Status uint8

const (
	Stopped Status = iota
	Started
	Running
)

type scheduled[I node.Identity] struct {
	n   node.Node[I]
	due int64
}

type completion[I node.Identity] struct {
	s    *scheduled[I]
	err  error
	slot uint
}

// Executor is the worker-pool scheduler. The zero value is not
// usable; build one with New.
type Executor[I node.Identity] struct {
	mu     sync.Mutex
	status Status
	nodes  []*scheduled[I]
	ref    time.Time

	interrupt   chan struct{}
	interrupted bool

	workers int64
	sem     *semaphore.Weighted

	busyMu sync.Mutex
	busy   *bitset.BitSet

	done chan completion[I]

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

func (e *Executor[I]) logger() logging.Logger {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.log
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

// Len returns the number of nodes currently queued, not counting any
// presently dispatched to a worker.
func (e *Executor[I]) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.nodes)
}

// Workers reports the worker pool size computed at the last Start:
// max(1, n-1) where n is the node count at that time.
func (e *Executor[I]) Workers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return int(e.workers)
}

// AddNode admits n to the queue with the same Stopped/Running
// priority rule as executor/simple.
func (e *Executor[I]) AddNode(n node.Node[I]) {
	e.mu.Lock()
	defer e.mu.Unlock()

	due := int64(0)
	if e.status != Stopped {
		due = e.elapsedUsLocked()
	}
	e.insertSortedLocked(&scheduled[I]{n: n, due: due})
}

// RemoveNode removes and returns the node matching id, if it is
// currently in the queue (not while dispatched to a worker).
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
func (e *Executor[I]) Interrupt() {
	select {
	case e.interrupt <- struct{}{}:
	default:
	}
}

// Start resets every node's priority to zero, calls each node's
// Start hook, sizes the worker pool at max(1, n-1), and transitions
// to Started.
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

	w := int64(len(nodes) - 1)
	if w < 1 {
		w = 1
	}

	e.mu.Lock()
	e.ref = time.Now()
	e.status = Started
	e.interrupted = false
	e.workers = w
	e.sem = semaphore.NewWeighted(w)
	e.busy = bitset.New(uint(w))
	e.done = make(chan completion[I], w)
	e.mu.Unlock()
	return nil
}

// UpdateLoop drives the pool until interrupted or ctx is done.
func (e *Executor[I]) UpdateLoop(ctx context.Context) error {
	return e.run(ctx, -1)
}

// UpdateForMs drives the pool until interrupted, ctx is done, or ms
// milliseconds have elapsed since this call began.
func (e *Executor[I]) UpdateForMs(ctx context.Context, ms int64) error {
	return e.run(ctx, ms)
}

func (e *Executor[I]) run(ctx context.Context, budgetMs int64) error {
	e.mu.Lock()
	if e.status == Stopped {
		e.mu.Unlock()
		return errs.Internal("pool executor: run called before start")
	}
	e.status = Running
	e.mu.Unlock()

	start := time.Now()
	inFlight := 0
	var cause error

loop:
	for {
		if e.checkInterrupt() {
			break
		}
		if budgetMs >= 0 && time.Since(start) >= time.Duration(budgetMs)*time.Millisecond {
			break
		}

		select {
		case <-ctx.Done():
			cause = ctx.Err()
			break loop
		case c := <-e.done:
			inFlight--
			e.completeLocked(c)
			continue
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
		if !e.sem.TryAcquire(1) {
			e.mu.Unlock()
			continue
		}
		e.nodes = e.nodes[1:]
		e.mu.Unlock()

		slot := e.acquireSlot()
		inFlight++
		go e.dispatch(ctx, head, slot)
	}

	for inFlight > 0 {
		c := <-e.done
		inFlight--
		e.completeLocked(c)
	}

	if agg := e.stop(context.Background()); agg != nil {
		return agg
	}
	return cause
}

// dispatch runs a node's Update on its own goroutine and reports the
// outcome back to the scheduler loop via the completion channel.
func (e *Executor[I]) dispatch(ctx context.Context, s *scheduled[I], slot uint) {
	err := s.n.Update(ctx)
	e.sem.Release(1)
	e.done <- completion[I]{s: s, err: err, slot: slot}
}

func (e *Executor[I]) completeLocked(c completion[I]) {
	e.releaseSlot(c.slot)

	if c.err != nil {
		e.logger().Warn("node update failed", logging.Fields{"node": fmt.Sprintf("%v", c.s.n.ID()), "error": c.err.Error()})
	}

	// endpoint/node failures are the node's own responsibility; a
	// failed Update still reschedules like a successful one.
	c.s.due += c.s.n.Period().Microseconds()

	e.mu.Lock()
	e.insertSortedLocked(c.s)
	e.mu.Unlock()
}

func (e *Executor[I]) acquireSlot() uint {
	e.busyMu.Lock()
	defer e.busyMu.Unlock()

	i, ok := e.busy.NextClear(0)
	if !ok {
		i = 0
	}
	e.busy.Set(i)
	return i
}

func (e *Executor[I]) releaseSlot(i uint) {
	e.busyMu.Lock()
	defer e.busyMu.Unlock()
	e.busy.Clear(i)
}

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

func (e *Executor[I]) insertSortedLocked(s *scheduled[I]) {
	i := sort.Search(len(e.nodes), func(i int) bool { return e.nodes[i].due > s.due })
	e.nodes = append(e.nodes, nil)
	copy(e.nodes[i+1:], e.nodes[i:])
	e.nodes[i] = s
}

func (e *Executor[I]) stop(ctx context.Context) error {
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
	return errs.Fanout(fails)
}
