package temporal

import (
	"fmt"
	"time"

	temporalsdk "go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

var a *Activities // for type-safe activity invocation

// PollWalletWorkflow is the Temporal workflow that polls a wallet's chains
// for new activity. It is triggered by a Temporal schedule at the wallet's
// configured interval.
//
// The heavy lifting happens in the single PollWallet activity: it merges
// the wallet's per-chain streams, publishes new activity to NATS, and
// records the poll in the database.
func PollWalletWorkflow(ctx workflow.Context, input PollWalletInput) (*PollWalletResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("PollWalletWorkflow started", "wallet", input.WalletName)

	activityOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 300 * time.Second,
		RetryPolicy: &temporalsdk.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions)

	var result *PollWalletResult
	err := workflow.ExecuteActivity(ctx, a.PollWallet, input).Get(ctx, &result)
	if err != nil {
		logger.Error("failed to poll wallet", "wallet", input.WalletName, "error", err)
		return nil, fmt.Errorf("failed to poll wallet: %w", err)
	}

	logger.Info("PollWalletWorkflow completed successfully",
		"wallet", input.WalletName,
		"transaction_count", result.TransactionCount,
		"published", result.PublishedCount,
	)

	return result, nil
}
