package temporal

import (
	"context"
	"time"
)

// Scheduler manages Temporal schedules for wallet polling.
// Each wallet gets its own schedule that triggers the PollWalletWorkflow.
type Scheduler interface {
	// CreateWalletSchedule creates a new schedule for polling a wallet.
	// The schedule will trigger the PollWalletWorkflow on the given interval.
	CreateWalletSchedule(ctx context.Context, name string, interval time.Duration) error

	// UpsertWalletSchedule creates the schedule if it does not exist, or
	// updates its interval if it does.
	UpsertWalletSchedule(ctx context.Context, name string, interval time.Duration) error

	// DeleteWalletSchedule deletes the schedule for a wallet.
	// This stops the wallet from being polled.
	DeleteWalletSchedule(ctx context.Context, name string) error
}
