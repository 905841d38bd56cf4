package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	natspkg "github.com/ondrej-secretkeylabs/txfeed/service/nats"
	"github.com/urfave/cli/v2"
)

// subscribeCommand subscribes to activity events for a wallet.
func subscribeCommand() *cli.Command {
	return &cli.Command{
		Name:      "subscribe",
		Usage:     "Subscribe to activity events for a wallet",
		ArgsUsage: "[wallet_name]",
		Description: `Subscribe to real-time wallet activity events published to NATS JetStream.

This command connects to NATS and streams activity events for the specified
wallet. Events are published to the subject: activity.{wallet_name}

Example:
  txfeed nats subscribe alice --json`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "durable",
				Aliases: []string{"d"},
				Usage:   "Create a durable consumer (survives restarts)",
			},
			&cli.StringFlag{
				Name:  "consumer-name",
				Usage: "Consumer name (required for durable)",
				Value: "txfeed-cli",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("wallet name is required")
			}

			name := c.Args().Get(0)
			natsURL := c.String("nats-url")
			durable := c.Bool("durable")
			consumerName := c.String("consumer-name")
			jsonOutput := c.Bool("json")

			return streamActivity(name, natsURL, durable, consumerName, jsonOutput)
		},
	}
}

// inspectStreamCommand shows the state of the activity stream.
func inspectStreamCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect-stream",
		Usage: "Show the state of the activity JetStream stream",
		Action: func(c *cli.Context) error {
			natsURL := c.String("nats-url")

			nc, err := nats.Connect(natsURL)
			if err != nil {
				return fmt.Errorf("failed to connect to NATS: %w", err)
			}
			defer nc.Close()

			js, err := jetstream.New(nc)
			if err != nil {
				return fmt.Errorf("failed to create JetStream context: %w", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			stream, err := js.Stream(ctx, natspkg.StreamName)
			if err != nil {
				return fmt.Errorf("failed to get stream %s: %w", natspkg.StreamName, err)
			}

			info, err := stream.Info(ctx)
			if err != nil {
				return fmt.Errorf("failed to get stream info: %w", err)
			}

			if c.Bool("json") {
				return outputJSON(info)
			}

			fmt.Printf("Stream:       %s\n", info.Config.Name)
			fmt.Printf("Subjects:     %v\n", info.Config.Subjects)
			fmt.Printf("Messages:     %d\n", info.State.Msgs)
			fmt.Printf("Bytes:        %d\n", info.State.Bytes)
			fmt.Printf("First Seq:    %d\n", info.State.FirstSeq)
			fmt.Printf("Last Seq:     %d\n", info.State.LastSeq)
			fmt.Printf("Consumers:    %d\n", info.State.Consumers)
			fmt.Printf("Max Age:      %v\n", info.Config.MaxAge)
			return nil
		},
	}
}

// streamActivity subscribes to a wallet's activity subject and prints events
// until interrupted.
func streamActivity(name, natsURL string, durable bool, consumerName string, jsonOutput bool) error {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	subject := fmt.Sprintf("activity.%s", name)

	if !jsonOutput {
		fmt.Printf("📡 Subscribing to: %s\n\n", subject)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumerConfig := jetstream.ConsumerConfig{
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
	}
	if durable {
		consumerConfig.Durable = consumerName
	}

	cons, err := js.CreateOrUpdateConsumer(ctx, natspkg.StreamName, consumerConfig)
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	consumeCtx, err := cons.Consume(func(msg jetstream.Msg) {
		var event natspkg.ActivityEvent
		if err := json.Unmarshal(msg.Data(), &event); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing event: %v\n", err)
			msg.Ack()
			return
		}

		if jsonOutput {
			out, _ := json.Marshal(event)
			fmt.Println(string(out))
		} else {
			observed := "pending"
			if event.ObservedAt != nil {
				observed = event.ObservedAt.Format(time.RFC3339)
			}
			fmt.Printf("[%s] %s %s", observed, event.Chain, event.TxID)
			if event.Type != "" {
				fmt.Printf(" type=%s", event.Type)
			}
			if event.Status != "" {
				fmt.Printf(" status=%s", event.Status)
			}
			if event.Amount != 0 {
				fmt.Printf(" amount=%d", event.Amount)
			}
			fmt.Println()
		}
		msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	defer consumeCtx.Stop()

	// Block until interrupted
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	<-shutdown

	if !jsonOutput {
		fmt.Println("\nDone")
	}
	return nil
}
