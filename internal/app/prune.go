package app

import (
	"context"
	"fmt"
	"os"
	"time"
)

// Prune runs the retention cleanup once, outside the schedule.
func (a *App) Prune(ctx context.Context) error {
	svc, closeSvc, err := a.newService(ctx)
	if err != nil {
		return err
	}
	defer closeSvc()

	if err := svc.RunRetentionCleanup(ctx, time.Now().UTC()); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "pruned history older than %d day(s)\n", a.Config.Monitor.RetentionDays)
	return nil
}
