//go:build integration

// Package containers starts Postgres, Kafka and Redis with testcontainers
// for integration tests. Each container is started once per test binary.
package containers

import (
	"sync"
	"testing"
)

// Manager hands out the shared containers of a test binary.
type Manager struct {
	mu       sync.Mutex
	postgres *PostgresContainer
	kafka    *KafkaContainer
	redis    *RedisContainer
}

var manager = &Manager{}

func GetManager() *Manager {
	return manager
}

// shared returns *slot, starting it with start on first use.
func shared[C any](m *Manager, t *testing.T, slot **C, start func(*testing.T) *C) *C {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if *slot == nil {
		*slot = start(t)
	}
	return *slot
}

// GetPostgres returns a Postgres container with the outcome journal schema.
func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	return shared(m, t, &m.postgres, NewPostgresContainer)
}

func (m *Manager) GetKafka(t *testing.T) *KafkaContainer {
	return shared(m, t, &m.kafka, NewKafkaContainer)
}

func (m *Manager) GetRedis(t *testing.T) *RedisContainer {
	return shared(m, t, &m.redis, NewRedisContainer)
}
