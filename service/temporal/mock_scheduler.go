package temporal

import (
	"context"
	"sync"
	"time"
)

// MockScheduler is an in-memory Scheduler implementation for testing.
type MockScheduler struct {
	mu        sync.RWMutex
	schedules map[string]time.Duration

	createError error
	upsertError error
	deleteError error
}

// NewMockScheduler creates a new mock scheduler for testing.
func NewMockScheduler() *MockScheduler {
	return &MockScheduler{
		schedules: make(map[string]time.Duration),
	}
}

// CreateWalletSchedule records the schedule and returns any configured error.
func (m *MockScheduler) CreateWalletSchedule(ctx context.Context, name string, interval time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createError != nil {
		return m.createError
	}

	m.schedules[name] = interval
	return nil
}

// UpsertWalletSchedule records the schedule and returns any configured error.
func (m *MockScheduler) UpsertWalletSchedule(ctx context.Context, name string, interval time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.upsertError != nil {
		return m.upsertError
	}

	m.schedules[name] = interval
	return nil
}

// DeleteWalletSchedule removes the schedule and returns any configured error.
func (m *MockScheduler) DeleteWalletSchedule(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deleteError != nil {
		return m.deleteError
	}

	delete(m.schedules, name)
	return nil
}

// HasSchedule reports whether a schedule exists for the wallet.
func (m *MockScheduler) HasSchedule(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.schedules[name]
	return ok
}

// ScheduleInterval returns the recorded interval for the wallet.
func (m *MockScheduler) ScheduleInterval(name string) (time.Duration, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	interval, ok := m.schedules[name]
	return interval, ok
}

// SetCreateError configures the mock to return an error on create.
func (m *MockScheduler) SetCreateError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createError = err
}

// SetUpsertError configures the mock to return an error on upsert.
func (m *MockScheduler) SetUpsertError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertError = err
}

// SetDeleteError configures the mock to return an error on delete.
func (m *MockScheduler) SetDeleteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteError = err
}
