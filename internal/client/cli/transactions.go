package cli

import (
	"context"
	"fmt"
	"time"
)

// Query lists the upload transactions whose session date falls within the
// given range. Dates come from args ("query 20240101 20240107") or default
// to today.
func (a *App) Query(ctx context.Context, args []string) error {
	from, to := a.dateRange(args)

	records, err := a.txs.Query(ctx, from, to)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		printlnFn("no transactions between " + from + " and " + to)
		return nil
	}

	for _, rec := range records {
		printlnFn(fmt.Sprintf("%-24s %-10s %s", rec.TransID, rec.Date, rec.FileName))
	}
	printlnFn(fmt.Sprintf("%d transaction(s)", len(records)))
	return nil
}

// Download fetches the overlay file for each transaction in the date range
// into the overlay directory. Existing overlay files are left alone.
func (a *App) Download(ctx context.Context, args []string) error {
	from, to := a.dateRange(args)

	records, err := a.txs.Query(ctx, from, to)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		printlnFn("no transactions between " + from + " and " + to)
		return nil
	}

	done, failed := renderDownloads(a.txs.Download(ctx, records, a.config.OverlayDir, false))
	printlnFn(fmt.Sprintf("downloaded %d, failed %d", done, failed))
	return nil
}

// UserStats prints the ingestion API account statistics.
func (a *App) UserStats(ctx context.Context) error {
	stats, err := a.api.UserStats(ctx)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("%s: rank %d, %d networks discovered", stats.UserName, stats.Rank, stats.DiscoveredWiFi))
	return nil
}

// dateRange resolves a from/to date pair from command arguments, defaulting
// both ends to today.
func (a *App) dateRange(args []string) (from, to string) {
	today := time.Now().Format("20060102")
	switch len(args) {
	case 0:
		return today, today
	case 1:
		return args[0], args[0]
	default:
		return args[0], args[1]
	}
}
