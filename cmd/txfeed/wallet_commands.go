package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/itchyny/gojq"
	"github.com/ondrej-secretkeylabs/txfeed/client"
	"github.com/urfave/cli/v2"
)

func walletCommands() *cli.Command {
	return &cli.Command{
		Name:  "wallet",
		Usage: "Wallet management commands (HTTP API)",
		Subcommands: []*cli.Command{
			walletAddCommand(),
			walletRemoveCommand(),
			walletGetCommand(),
			walletListCommand(),
			walletActivityCommand(),
		},
	}
}

func walletAddCommand() *cli.Command {
	return &cli.Command{
		Name:      "add",
		Aliases:   []string{"register"},
		Usage:     "Register a wallet for monitoring",
		ArgsUsage: "NAME",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "bitcoin-address",
				Usage: "Bitcoin address to monitor",
			},
			&cli.StringFlag{
				Name:  "stacks-address",
				Usage: "Stacks principal to monitor",
			},
			&cli.StringFlag{
				Name:  "starknet-address",
				Usage: "Starknet account address to monitor",
			},
			&cli.StringFlag{
				Name:  "spark-identity",
				Usage: "Spark identity public key to monitor",
			},
			&cli.DurationFlag{
				Name:    "poll-interval",
				Aliases: []string{"i"},
				Value:   30 * time.Second,
				Usage:   "How often to poll for new transactions (e.g., 30s, 1m)",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("requires exactly one argument: wallet name")
			}

			name := c.Args().First()
			cl := client.NewClient(c.String("server-url"), nil, nil)

			err := cl.Register(context.Background(), client.RegisterParams{
				Name:            name,
				BitcoinAddress:  c.String("bitcoin-address"),
				StacksAddress:   c.String("stacks-address"),
				StarknetAddress: c.String("starknet-address"),
				SparkIdentity:   c.String("spark-identity"),
				PollInterval:    c.Duration("poll-interval"),
			})
			if err != nil {
				return fmt.Errorf("failed to register wallet: %w", err)
			}

			fmt.Printf("✓ Wallet registered: %s\n", name)
			return nil
		},
	}
}

func walletRemoveCommand() *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Aliases:   []string{"unregister", "rm"},
		Usage:     "Unregister a wallet",
		ArgsUsage: "NAME",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("requires exactly one argument: wallet name")
			}

			name := c.Args().First()
			cl := client.NewClient(c.String("server-url"), nil, nil)

			if err := cl.Unregister(context.Background(), name); err != nil {
				return fmt.Errorf("failed to unregister wallet: %w", err)
			}

			fmt.Printf("✓ Wallet unregistered: %s\n", name)
			return nil
		},
	}
}

func walletGetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Get wallet details from the server",
		ArgsUsage: "NAME",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("requires exactly one argument: wallet name")
			}

			name := c.Args().First()
			cl := client.NewClient(c.String("server-url"), nil, nil)

			wallet, err := cl.Get(context.Background(), name)
			if err != nil {
				return fmt.Errorf("failed to get wallet: %w", err)
			}

			if c.Bool("json") {
				return outputJSON(wallet)
			}

			fmt.Printf("Name:             %s\n", wallet.Name)
			fmt.Printf("Status:           %s\n", wallet.Status)
			fmt.Printf("Poll Interval:    %v\n", wallet.PollInterval)
			fmt.Printf("Bitcoin Address:  %s\n", orNone(wallet.BitcoinAddress))
			fmt.Printf("Stacks Address:   %s\n", orNone(wallet.StacksAddress))
			fmt.Printf("Starknet Address: %s\n", orNone(wallet.StarknetAddress))
			fmt.Printf("Spark Identity:   %s\n", orNone(wallet.SparkIdentity))
			return nil
		},
	}
}

func walletListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List wallets registered on the server",
		Action: func(c *cli.Context) error {
			cl := client.NewClient(c.String("server-url"), nil, nil)

			wallets, err := cl.List(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list wallets: %w", err)
			}

			if c.Bool("json") {
				return outputJSON(wallets)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSTATUS\tPOLL INTERVAL")
			for _, wallet := range wallets {
				fmt.Fprintf(w, "%s\t%s\t%v\n", wallet.Name, wallet.Status, wallet.PollInterval)
			}
			w.Flush()

			fmt.Fprintf(os.Stderr, "\nTotal: %d wallets\n", len(wallets))
			return nil
		},
	}
}

func walletActivityCommand() *cli.Command {
	return &cli.Command{
		Name:      "activity",
		Usage:     "Show a wallet's merged activity feed, newest first",
		ArgsUsage: "NAME",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of items to fetch",
				Value:   50,
			},
			&cli.StringSliceFlag{
				Name:    "filter",
				Aliases: []string{"f"},
				Usage:   "jq expression applied to each item; items are shown only if every filter returns true (e.g. '.chain == \"bitcoin\"')",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("requires exactly one argument: wallet name")
			}

			name := c.Args().First()
			jqFilters := c.StringSlice("filter")

			// Compile jq filters
			compiledJQFilters := make([]*gojq.Code, len(jqFilters))
			for i, filter := range jqFilters {
				query, err := gojq.Parse(filter)
				if err != nil {
					return fmt.Errorf("failed to parse jq filter %q: %w", filter, err)
				}
				compiledJQFilters[i], err = gojq.Compile(query)
				if err != nil {
					return fmt.Errorf("failed to compile jq filter %q: %w", filter, err)
				}
			}

			cl := client.NewClient(c.String("server-url"), nil, nil)

			activity, err := cl.Activity(context.Background(), name, c.Int("limit"))
			if err != nil {
				return fmt.Errorf("failed to get wallet activity: %w", err)
			}

			if len(compiledJQFilters) > 0 {
				filtered := make([]client.ActivityItem, 0, len(activity))
				for _, item := range activity {
					ok, err := matchesFilters(item, compiledJQFilters)
					if err != nil {
						return err
					}
					if ok {
						filtered = append(filtered, item)
					}
				}
				activity = filtered
			}

			if c.Bool("json") {
				return outputJSON(activity)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "OBSERVED\tCHAIN\tTX ID\tTYPE\tSTATUS\tAMOUNT")
			for _, item := range activity {
				observed := "pending"
				if item.ObservedAt != nil {
					observed = item.ObservedAt.Format(time.RFC3339)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
					observed,
					item.Chain,
					item.TxID,
					item.Type,
					item.Status,
					item.Amount,
				)
			}
			w.Flush()

			fmt.Fprintf(os.Stderr, "\nTotal: %d items\n", len(activity))
			return nil
		},
	}
}

// matchesFilters reports whether every compiled jq filter returns true for
// the given activity item.
func matchesFilters(item client.ActivityItem, filters []*gojq.Code) (bool, error) {
	// gojq operates on generic JSON values, so round-trip the item
	raw, err := json.Marshal(item)
	if err != nil {
		return false, fmt.Errorf("failed to marshal activity item: %w", err)
	}
	var input interface{}
	if err := json.Unmarshal(raw, &input); err != nil {
		return false, fmt.Errorf("failed to unmarshal activity item: %w", err)
	}

	for _, code := range filters {
		iter := code.Run(input)
		v, ok := iter.Next()
		if !ok {
			return false, nil
		}
		if err, isErr := v.(error); isErr {
			return false, fmt.Errorf("jq filter error: %w", err)
		}
		if matched, isBool := v.(bool); !isBool || !matched {
			return false, nil
		}
	}
	return true, nil
}
