package main

import (
	"context"
	"database/sql"
	"time"

	"github.com/platinummonkey/authgate/pkg/observability"
)

const dbStatsInterval = 15 * time.Second

// reportDBStats publishes connection pool gauges until ctx is done
func reportDBStats(ctx context.Context, stats func() sql.DBStats, metrics *observability.Metrics, logger *observability.Logger) {
	defer observability.RecoverPanic(logger, "db stats reporter")

	ticker := time.NewTicker(dbStatsInterval)
	defer ticker.Stop()

	metrics.UpdateDBStats(stats())
	for {
		select {
		case <-ticker.C:
			metrics.UpdateDBStats(stats())
		case <-ctx.Done():
			return
		}
	}
}
