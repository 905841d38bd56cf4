package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a wallet does not exist.
var ErrNotFound = errors.New("wallet not found")

// Store provides database operations for the service.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store with the given database connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Wallet represents a registered wallet that the server monitors. A wallet
// groups the per-chain addresses that belong to one user account; any of
// them may be empty if the user has no presence on that chain.
type Wallet struct {
	Name            string
	BitcoinAddress  string
	StacksAddress   string
	StarknetAddress string
	SparkIdentity   string
	PollInterval    time.Duration
	Status          string
	LastPolledAt    *time.Time
	LastSeenAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CreateWalletParams contains the parameters for registering a wallet.
type CreateWalletParams struct {
	Name            string
	BitcoinAddress  string
	StacksAddress   string
	StarknetAddress string
	SparkIdentity   string
	PollInterval    time.Duration
	Status          string
}

const walletColumns = `name, bitcoin_address, stacks_address, starknet_address, spark_identity,
	poll_interval, status, last_polled_at, last_seen_at, created_at, updated_at`

// CreateWallet registers a new wallet for monitoring.
func (s *Store) CreateWallet(ctx context.Context, params CreateWalletParams) (*Wallet, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO wallets (name, bitcoin_address, stacks_address, starknet_address, spark_identity, poll_interval, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+walletColumns,
		params.Name, params.BitcoinAddress, params.StacksAddress, params.StarknetAddress,
		params.SparkIdentity, pgIntervalFromDuration(params.PollInterval), params.Status,
	)
	return scanWallet(row)
}

// GetWallet retrieves a wallet by name.
func (s *Store) GetWallet(ctx context.Context, name string) (*Wallet, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+walletColumns+`
		FROM wallets
		WHERE name = $1`,
		name,
	)
	return scanWallet(row)
}

// ListWallets retrieves all registered wallets.
func (s *Store) ListWallets(ctx context.Context) ([]*Wallet, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+walletColumns+`
		FROM wallets
		ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	return scanWallets(rows)
}

// ListActiveWallets retrieves all active wallets, least recently polled first.
func (s *Store) ListActiveWallets(ctx context.Context) ([]*Wallet, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+walletColumns+`
		FROM wallets
		WHERE status = 'active'
		ORDER BY last_polled_at NULLS FIRST`,
	)
	if err != nil {
		return nil, err
	}
	return scanWallets(rows)
}

// UpdateWalletPollTime records a completed poll. lastSeenAt is the timestamp
// of the newest transaction observed during the poll; pass nil to leave the
// previous value in place.
func (s *Store) UpdateWalletPollTime(ctx context.Context, name string, polledAt time.Time, lastSeenAt *time.Time) (*Wallet, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE wallets
		SET last_polled_at = $2,
		    last_seen_at = COALESCE($3, last_seen_at),
		    updated_at = now()
		WHERE name = $1
		RETURNING `+walletColumns,
		name, pgtype.Timestamptz{Time: polledAt, Valid: true}, timestamptzFromTimePtr(lastSeenAt),
	)
	return scanWallet(row)
}

// UpdateWalletStatus updates the status of a wallet.
func (s *Store) UpdateWalletStatus(ctx context.Context, name string, status string) (*Wallet, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE wallets
		SET status = $2, updated_at = now()
		WHERE name = $1
		RETURNING `+walletColumns,
		name, status,
	)
	return scanWallet(row)
}

// UpdateWalletPollInterval updates the poll interval for a wallet.
func (s *Store) UpdateWalletPollInterval(ctx context.Context, name string, pollInterval time.Duration) (*Wallet, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE wallets
		SET poll_interval = $2, updated_at = now()
		WHERE name = $1
		RETURNING `+walletColumns,
		name, pgIntervalFromDuration(pollInterval),
	)
	return scanWallet(row)
}

// DeleteWallet removes a wallet from monitoring.
func (s *Store) DeleteWallet(ctx context.Context, name string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM wallets WHERE name = $1`, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// WalletExists checks if a wallet is registered.
func (s *Store) WalletExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM wallets WHERE name = $1)`, name).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func scanWallet(row pgx.Row) (*Wallet, error) {
	var w Wallet
	var pollInterval pgtype.Interval
	var lastPolledAt, lastSeenAt pgtype.Timestamptz

	err := row.Scan(
		&w.Name, &w.BitcoinAddress, &w.StacksAddress, &w.StarknetAddress, &w.SparkIdentity,
		&pollInterval, &w.Status, &lastPolledAt, &lastSeenAt, &w.CreatedAt, &w.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan wallet: %w", err)
	}

	w.PollInterval = durationFromPgInterval(pollInterval)
	w.LastPolledAt = timePtrFromPgTimestamptz(lastPolledAt)
	w.LastSeenAt = timePtrFromPgTimestamptz(lastSeenAt)
	return &w, nil
}

func scanWallets(rows pgx.Rows) ([]*Wallet, error) {
	defer rows.Close()

	var wallets []*Wallet
	for rows.Next() {
		w, err := scanWallet(rows)
		if err != nil {
			return nil, err
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

func pgIntervalFromDuration(d time.Duration) pgtype.Interval {
	return pgtype.Interval{
		Microseconds: d.Microseconds(),
		Valid:        true,
	}
}

func durationFromPgInterval(i pgtype.Interval) time.Duration {
	if !i.Valid {
		return 0
	}
	return time.Duration(i.Microseconds) * time.Microsecond
}

func timePtrFromPgTimestamptz(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}

func timestamptzFromTimePtr(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{Valid: false}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}
