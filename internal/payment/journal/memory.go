package journal

import (
	"context"
	"sync"

	"facepay/internal/payment/models"
)

// Memory keeps outcomes in process, in recording order.
type Memory struct {
	mu       sync.RWMutex
	outcomes []*models.Outcome
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Record(_ context.Context, outcome *models.Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *outcome
	m.outcomes = append(m.outcomes, &cp)
	return nil
}

// ListByState returns up to limit outcomes in state, newest first. A
// non-positive limit returns all of them.
func (m *Memory) ListByState(_ context.Context, state models.State, limit int) ([]*models.Outcome, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.Outcome
	for i := len(m.outcomes) - 1; i >= 0; i-- {
		if m.outcomes[i].State != state {
			continue
		}
		cp := *m.outcomes[i]
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// All returns every recorded outcome in recording order.
func (m *Memory) All() []*models.Outcome {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Outcome, len(m.outcomes))
	for i, o := range m.outcomes {
		cp := *o
		out[i] = &cp
	}
	return out
}
