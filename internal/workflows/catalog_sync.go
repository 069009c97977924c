package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// CatalogSyncWorkflow refreshes the stored plant catalog: drop the cached
// CSV, fetch + parse + upsert, then announce the update. A failed announce
// does not fail the sync; the data is already stored.
func CatalogSyncWorkflow(ctx workflow.Context) (SyncResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting catalog sync")

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: 5 * time.Second,
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	var res SyncResult

	if err := workflow.ExecuteActivity(ctx, "InvalidateCatalogCache").Get(ctx, nil); err != nil {
		logger.Warn("cache invalidation failed, continuing", "error", err)
	}

	if err := workflow.ExecuteActivity(ctx, "StoreCatalog").Get(ctx, &res); err != nil {
		return res, err
	}

	if err := workflow.ExecuteActivity(ctx, "PublishCatalogUpdated", res.Accepted).Get(ctx, nil); err != nil {
		logger.Warn("catalog update announcement failed", "error", err)
	}

	logger.Info("Catalog sync finished", "accepted", res.Accepted, "dropped", res.Dropped, "stored", res.Stored)
	return res, nil
}
