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

// Package threaded implements the multi-group executor: a main-thread
// simple.Executor plus one simple.Executor per named group, each
// driven on its own goroutine and joined before the driving call
// returns.
package threaded

import (
	"context"
	"sync"

	"github.com/nabbar/ncomm/errs"
	"github.com/nabbar/ncomm/executor/simple"
	"github.com/nabbar/ncomm/logging"
	"github.com/nabbar/ncomm/node"
)

// Executor fans a node set out across a main group and any number of
// named secondary groups, each an independent simple.Executor.
type Executor[I node.Identity] struct {
	mu     sync.Mutex
	main   *simple.Executor[I]
	groups map[string]*simple.Executor[I]

	interrupt chan struct{}
	log       logging.Logger
}

// New builds an Executor with an empty main group and no secondary
// groups.
func New[I node.Identity]() *Executor[I] {
	return &Executor[I]{
		main:      simple.New[I](),
		groups:    make(map[string]*simple.Executor[I]),
		interrupt: make(chan struct{}, 1),
		log:       logging.NopLogger,
	}
}

// SetLogger attaches l to the main group and every secondary group
// registered so far; groups created afterward inherit it too.
func (e *Executor[I]) SetLogger(l logging.Logger) {
	e.mu.Lock()
	e.log = logging.OrNop(l)
	e.main.SetLogger(e.log)
	groups := make([]*simple.Executor[I], 0, len(e.groups))
	for _, g := range e.groups {
		groups = append(groups, g)
	}
	e.mu.Unlock()

	for _, g := range groups {
		g.SetLogger(e.log)
	}
}

// AddNode routes n to the main group, equivalent to AddNodeWithContext(n, "").
func (e *Executor[I]) AddNode(n node.Node[I]) {
	e.main.AddNode(n)
}

// AddNodeWithContext routes n to the named group, creating it if this
// is its first node. An empty group name is the main group.
func (e *Executor[I]) AddNodeWithContext(n node.Node[I], group string) {
	if group == "" {
		e.main.AddNode(n)
		return
	}

	e.mu.Lock()
	g, ok := e.groups[group]
	if !ok {
		g = simple.New[I]()
		g.SetLogger(e.log)
		e.groups[group] = g
	}
	e.mu.Unlock()

	g.AddNode(n)
}

// RemoveNode searches the main group then every secondary group,
// removing the empty group whose last node was just removed.
func (e *Executor[I]) RemoveNode(id I) (node.Node[I], bool) {
	if n, ok := e.main.RemoveNode(id); ok {
		return n, true
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for name, g := range e.groups {
		if n, ok := g.RemoveNode(id); ok {
			if g.Len() == 0 {
				delete(e.groups, name)
			}
			return n, true
		}
	}

	var zero node.Node[I]
	return zero, false
}

func (e *Executor[I]) snapshotGroups() map[string]*simple.Executor[I] {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]*simple.Executor[I], len(e.groups))
	for name, g := range e.groups {
		out[name] = g
	}
	return out
}

// Start resets and starts the main group and every secondary group
// registered so far.
func (e *Executor[I]) Start(ctx context.Context) error {
	if err := e.main.Start(ctx); err != nil {
		return err
	}
	for _, g := range e.snapshotGroups() {
		if err := g.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Interrupt requests that every group stop. A background watcher
// fans the request out to each group's own interrupt channel the
// moment it observes this one, so the caller never needs to know the
// current group set.
func (e *Executor[I]) Interrupt() {
	select {
	case e.interrupt <- struct{}{}:
	default:
	}
}

// UpdateLoop drives the main group and every secondary group, each on
// its own goroutine, until interrupted or ctx is done, then joins all
// of them.
func (e *Executor[I]) UpdateLoop(ctx context.Context) error {
	return e.run(ctx, -1)
}

// UpdateForMs drives every group for up to ms milliseconds, measured
// independently from this call for each group.
func (e *Executor[I]) UpdateForMs(ctx context.Context, ms int64) error {
	return e.run(ctx, ms)
}

func (e *Executor[I]) run(ctx context.Context, budgetMs int64) error {
	groups := e.snapshotGroups()

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-e.interrupt:
			e.main.Interrupt()
			for _, g := range groups {
				g.Interrupt()
			}
		case <-done:
		}
	}()

	var wg sync.WaitGroup
	errCh := make(chan errs.Destination, 1+len(groups))

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := driveFor(e.main, ctx, budgetMs); err != nil {
			errCh <- errs.Destination{Target: "main", Err: err}
		}
	}()

	for name, g := range groups {
		wg.Add(1)
		go func(name string, g *simple.Executor[I]) {
			defer wg.Done()
			if err := driveFor(g, ctx, budgetMs); err != nil {
				errCh <- errs.Destination{Target: name, Err: err}
			}
		}(name, g)
	}

	wg.Wait()
	close(errCh)

	var fails []errs.Destination
	for d := range errCh {
		fails = append(fails, d)
	}
	return errs.Fanout(fails)
}

func driveFor[I node.Identity](e *simple.Executor[I], ctx context.Context, budgetMs int64) error {
	if budgetMs < 0 {
		return e.UpdateLoop(ctx)
	}
	return e.UpdateForMs(ctx, budgetMs)
}
