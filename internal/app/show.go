package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/adambarczewski00/telemetry-board/internal/metrics"
	"github.com/adambarczewski00/telemetry-board/internal/service"
)

// ShowOptions configure the show command.
type ShowOptions struct {
	Symbol string
	Window string
	Limit  int
}

// Show prints recent samples and alert events for one asset.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	svc, closeDeps, err := a.newService(ctx, (*metrics.Metrics)(nil))
	if err != nil {
		return err
	}
	defer closeDeps()

	var since *time.Time
	if opts.Window != "" {
		d, err := service.ParseWindow(opts.Window)
		if err != nil {
			return err
		}
		cutoff := time.Now().UTC().Add(-d)
		since = &cutoff
	}

	samples, err := svc.ListRecentSamples(ctx, opts.Symbol, since)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		fmt.Fprintln(os.Stdout, "no samples found")
		return nil
	}
	if opts.Limit > 0 && len(samples) > opts.Limit {
		samples = samples[len(samples)-opts.Limit:]
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tPrice (USD)")
	for _, sample := range samples {
		fmt.Fprintf(writer, "%s\t%s\n", sample.TS.Format(time.RFC3339), sample.Price.StringFixed(4))
	}
	writer.Flush()

	alerts, err := svc.ListRecentAlerts(ctx, opts.Symbol, 10)
	if err != nil {
		return err
	}
	if len(alerts) == 0 {
		return nil
	}

	fmt.Fprintln(os.Stdout)
	writer = tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Triggered (UTC)\tWindow (m)\tChange %")
	for _, event := range alerts {
		fmt.Fprintf(writer, "%s\t%d\t%s\n", event.TriggeredAt.Format(time.RFC3339), event.WindowMinutes, event.ChangePct.StringFixed(2))
	}
	writer.Flush()
	return nil
}
