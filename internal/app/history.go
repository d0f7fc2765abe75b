package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"
)

// History prints recent trigger records, most recent first.
func (a *App) History(ctx context.Context, limit int) error {
	svc, closeSvc, err := a.newService(ctx)
	if err != nil {
		return err
	}
	defer closeSvc()

	entries, err := svc.GetAlertHistory(ctx, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stdout, "no triggers recorded")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Triggered (UTC)\tAlert\tPair\tRate\tPrevious\tNotified\tMessage")

	for _, entry := range entries {
		previous := "-"
		if entry.PreviousRate != nil {
			previous = entry.PreviousRate.String()
		}
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%t\t%s\n",
			entry.TriggeredAt.UTC().Format(time.RFC3339),
			sanitizeInline(entry.AlertName),
			entry.Pair.Key(),
			entry.Rate.String(),
			previous,
			entry.Notified,
			sanitizeInline(entry.Message),
		)
	}

	writer.Flush()
	return nil
}
