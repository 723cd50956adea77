/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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

package logging

import "github.com/sirupsen/logrus"

// Logger is the narrow logging surface the scheduler and endpoint
// bindings depend on. NopLogger silently drops every call, and OrNop
// maps a nil Logger to it, so nodes and executors can always hold one
// without a nil-check at every call site.
type Logger interface {
	Debug(msg string, f Fields)
	Info(msg string, f Fields)
	Warn(msg string, f Fields)
	Error(msg string, f Fields)
	// With returns a Logger that merges f into every subsequent entry.
	With(f Fields) Logger
}

// FuncLog lazily resolves a Logger, for loggers that are only
// available after their owner has been constructed.
type FuncLog func() Logger

type logrusLogger struct {
	entry *logrus.Entry
}

// New builds a Logger backed by logrus, writing at or above lvl.
func New(lvl Level) Logger {
	l := logrus.New()
	l.SetLevel(lvl.logrus())
	return &logrusLogger{entry: logrus.NewEntry(l)}
}

func (l *logrusLogger) Debug(msg string, f Fields) { l.entry.WithFields(logrus.Fields(f)).Debug(msg) }
func (l *logrusLogger) Info(msg string, f Fields)  { l.entry.WithFields(logrus.Fields(f)).Info(msg) }
func (l *logrusLogger) Warn(msg string, f Fields)  { l.entry.WithFields(logrus.Fields(f)).Warn(msg) }
func (l *logrusLogger) Error(msg string, f Fields) { l.entry.WithFields(logrus.Fields(f)).Error(msg) }

func (l *logrusLogger) With(f Fields) Logger {
	return &logrusLogger{entry: l.entry.WithFields(logrus.Fields(f))}
}

type nop struct{}

func (nop) Debug(string, Fields) {}
func (nop) Info(string, Fields)  {}
func (nop) Warn(string, Fields)  {}
func (nop) Error(string, Fields) {}
func (n nop) With(Fields) Logger { return n }

// NopLogger discards every entry. Used as the default when a node or
// executor is constructed without a Logger.
var NopLogger Logger = nop{}

// OrNop returns l, or NopLogger if l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NopLogger
	}
	return l
}
