package api

import (
	"context"
	"slices"
	"sync"

	"github.com/diogo/chatwidget/internal/models"
)

// MockCompleter is a Completer for tests. It records every request.
type MockCompleter struct {
	Reply string
	Err   error
	// Block, when set, holds Complete until it is closed or ctx ends
	Block chan struct{}
	// Started receives one value per call once Complete is entered
	Started chan struct{}

	mu    sync.Mutex
	calls [][]models.Turn
}

// Ensure MockCompleter implements Completer
var _ Completer = (*MockCompleter)(nil)

func (m *MockCompleter) Complete(ctx context.Context, turns []models.Turn) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, slices.Clone(turns))
	m.mu.Unlock()

	if m.Started != nil {
		m.Started <- struct{}{}
	}
	if m.Block != nil {
		select {
		case <-m.Block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return m.Reply, m.Err
}

// Calls returns the turns received by each call
func (m *MockCompleter) Calls() [][]models.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// LastCall returns the turns of the most recent call
func (m *MockCompleter) LastCall() []models.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1]
}
