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

// Package node defines the periodic work unit every executor
// schedules: an identity, a period, and three lifecycle hooks a node
// implementer supplies. Nodes never see wall-clock time; the executor
// that owns them supplies monotonic elapsed microseconds.
package node

import (
	"context"
	"time"

	"github.com/hashicorp/go-uuid"

	"github.com/nabbar/ncomm/duration"
	"github.com/nabbar/ncomm/errs"
)

// Identity is the opaque, equality-comparable handle an executor uses
// to address a node (AddNodeWithContext / RemoveNode). Any
// comparable type works: an integer, a string, a UUID.
type Identity comparable

// Period is the interval between successive Update calls for a node.
// Executors schedule it in whole microseconds (see Microseconds) and
// do not validate it: a Period under one microsecond makes the node
// due again right after each Update.
type Period duration.Duration

// Microseconds returns p as an integer microsecond count.
func (p Period) Microseconds() int64 {
	return time.Duration(p).Microseconds()
}

// Duration returns p as a duration.Duration.
func (p Period) Duration() duration.Duration {
	return duration.Duration(p)
}

// Node is the contract an executor schedules. Start is invoked at
// most once per scheduling run, before any Update. Update is invoked
// no earlier than start_instant + k*Period for monotonically
// increasing k; a run that falls behind accumulates catch-up calls
// rather than skipping them. Shutdown is invoked exactly once per run
// that reached Start, regardless of the reason the run ended.
type Node[I Identity] interface {
	// ID returns this node's scheduling identity.
	ID() I
	// Period returns the interval between Update calls.
	Period() Period
	// Start is called once before the first Update.
	Start(ctx context.Context) error
	// Update performs one period's worth of work.
	Update(ctx context.Context) error
	// Shutdown releases any resources acquired in Start.
	Shutdown(ctx context.Context) error
}

// Base is an embeddable Node that answers ID/Period and no-ops every
// hook, letting an implementer override only what it needs.
type Base[I Identity] struct {
	Identity I
	Every    Period
}

func (b Base[I]) ID() I                          { return b.Identity }
func (b Base[I]) Period() Period                 { return b.Every }
func (b Base[I]) Start(context.Context) error    { return nil }
func (b Base[I]) Update(context.Context) error   { return nil }
func (b Base[I]) Shutdown(context.Context) error { return nil }

// NewStringIdentity generates a random UUID to use as a Node's
// identity when a caller has no natural key of its own. Most
// executors are instantiated with I = string specifically so they can
// use this.
func NewStringIdentity() (string, error) {
	id, err := uuid.GenerateUUID()
	if err != nil {
		return "", errs.Internal("generate node identity", err)
	}
	return id, nil
}
