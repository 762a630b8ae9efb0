// Package testutil provides shared test doubles for use across package tests.
// All dummies implement the corresponding interfaces from the production code,
// allowing injection into components under test without real I/O or side effects.
package testutil

import (
	"context"
	"slices"
	"sync"

	"github.com/raysh454/devconsole/internal/apiclient"
	"github.com/raysh454/devconsole/internal/logging"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// InfoMessages returns a copy of the recorded info messages.
func (l *DummyLogger) InfoMessages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.Infos)
}

// HasInfo reports whether msg was logged at info level.
func (l *DummyLogger) HasInfo(msg string) bool {
	return slices.Contains(l.InfoMessages(), msg)
}

// HasWarn reports whether msg was logged at warn level.
func (l *DummyLogger) HasWarn(msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Contains(l.Warns, msg)
}

// ─── Doer ──────────────────────────────────────────────────────────────

// DummyDoer implements apiclient.Doer.
// It returns Response (or Err) and records every request.
type DummyDoer struct {
	Response *apiclient.Response
	Err      error

	mu       sync.Mutex
	Requests []*apiclient.Request
}

func (d *DummyDoer) Do(ctx context.Context, req *apiclient.Request) (*apiclient.Response, error) {
	d.mu.Lock()
	d.Requests = append(d.Requests, req)
	d.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.Err != nil {
		return nil, d.Err
	}
	if d.Response == nil {
		return &apiclient.Response{StatusCode: 200, Body: []byte("{}")}, nil
	}
	return d.Response, nil
}
