package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ondrej-secretkeylabs/txfeed/service/db"
	"github.com/urfave/cli/v2"
)

func listWalletsCommand() *cli.Command {
	return &cli.Command{
		Name:    "list-wallets",
		Usage:   "List all registered wallets",
		Aliases: []string{"ls"},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "status",
				Aliases: []string{"s"},
				Usage:   "Filter by status (active, paused, error)",
			},
		},
		Action: func(c *cli.Context) error {
			store, closer, err := getStore(c)
			if err != nil {
				return err
			}
			defer closer()

			wallets, err := store.ListWallets(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list wallets: %w", err)
			}

			// Filter by status if specified
			statusFilter := c.String("status")
			if statusFilter != "" {
				filtered := make([]*db.Wallet, 0)
				for _, w := range wallets {
					if w.Status == statusFilter {
						filtered = append(filtered, w)
					}
				}
				wallets = filtered
			}

			if c.Bool("json") {
				return outputJSON(wallets)
			}

			// Pretty table output
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCHAINS\tSTATUS\tPOLL INTERVAL\tLAST POLL\tCREATED")
			for _, wallet := range wallets {
				lastPoll := "never"
				if wallet.LastPolledAt != nil {
					lastPoll = wallet.LastPolledAt.Format(time.RFC3339)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%v\t%s\t%s\n",
					wallet.Name,
					chainSummary(wallet),
					wallet.Status,
					wallet.PollInterval,
					lastPoll,
					wallet.CreatedAt.Format(time.RFC3339),
				)
			}
			w.Flush()

			fmt.Fprintf(os.Stderr, "\nTotal: %d wallets\n", len(wallets))
			return nil
		},
	}
}

func getWalletCommand() *cli.Command {
	return &cli.Command{
		Name:      "get-wallet",
		Usage:     "Get wallet details",
		Aliases:   []string{"get"},
		ArgsUsage: "<name>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("requires exactly one argument: wallet name")
			}

			name := c.Args().First()
			store, closer, err := getStore(c)
			if err != nil {
				return err
			}
			defer closer()

			wallet, err := store.GetWallet(context.Background(), name)
			if err != nil {
				return fmt.Errorf("failed to get wallet: %w", err)
			}

			if c.Bool("json") {
				return outputJSON(wallet)
			}

			// Pretty output
			fmt.Printf("Name:             %s\n", wallet.Name)
			fmt.Printf("Status:           %s\n", wallet.Status)
			fmt.Printf("Poll Interval:    %v\n", wallet.PollInterval)
			fmt.Printf("Bitcoin Address:  %s\n", orNone(wallet.BitcoinAddress))
			fmt.Printf("Stacks Address:   %s\n", orNone(wallet.StacksAddress))
			fmt.Printf("Starknet Address: %s\n", orNone(wallet.StarknetAddress))
			fmt.Printf("Spark Identity:   %s\n", orNone(wallet.SparkIdentity))
			if wallet.LastPolledAt != nil {
				fmt.Printf("Last Poll:        %s\n", wallet.LastPolledAt.Format(time.RFC3339))
			} else {
				fmt.Printf("Last Poll:        never\n")
			}
			if wallet.LastSeenAt != nil {
				fmt.Printf("Last Seen Tx:     %s\n", wallet.LastSeenAt.Format(time.RFC3339))
			} else {
				fmt.Printf("Last Seen Tx:     never\n")
			}
			fmt.Printf("Created:          %s\n", wallet.CreatedAt.Format(time.RFC3339))
			fmt.Printf("Updated:          %s\n", wallet.UpdatedAt.Format(time.RFC3339))

			return nil
		},
	}
}

// chainSummary lists the chains a wallet has addresses on.
func chainSummary(w *db.Wallet) string {
	chains := ""
	add := func(name string) {
		if chains != "" {
			chains += ","
		}
		chains += name
	}
	if w.BitcoinAddress != "" {
		add("bitcoin")
	}
	if w.StacksAddress != "" {
		add("stacks")
	}
	if w.StarknetAddress != "" {
		add("starknet")
	}
	if w.SparkIdentity != "" {
		add("spark")
	}
	if chains == "" {
		return "(none)"
	}
	return chains
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

// Helper function to connect to database
func getStore(c *cli.Context) (*db.Store, func(), error) {
	dbURL := c.String("database-url")
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		return nil, nil, fmt.Errorf("database-url is required (set DATABASE_URL env var or use --database-url)")
	}

	pool, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := db.NewStore(pool)
	closer := func() { pool.Close() }

	return store, closer, nil
}

// Helper function to output JSON
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
