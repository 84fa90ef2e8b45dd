// Package schedule composes per-asset fetch/alert/retention cadences into a
// periodic job table consumed by the task runner.
package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Task identifiers understood by the runner's handler registry.
const (
	TaskFetchPrice     = "fetch_price"
	TaskComputeAlerts  = "compute_alerts"
	TaskPruneOldPrices = "prune_old_prices"
	TaskSeedMockPrices = "seed_mock_prices"
)

// Entry binds a job name to a task, cadence, and positional arguments.
type Entry struct {
	Task  string
	Every time.Duration
	Args  []string
}

// Options parameterise the job table.
type Options struct {
	Assets           []string
	FetchEvery       time.Duration
	RetentionEvery   time.Duration
	RetentionEnabled bool
}

// Build produces the job table. Symbols are trimmed, upper-cased, and
// de-duplicated implicitly by map key collision. Each symbol gets a fetch
// job and a paired alert-computation job on the same cadence; a single
// global retention job is appended when retention is enabled.
func Build(opts Options) map[string]Entry {
	every := opts.FetchEvery
	if every < time.Second {
		every = time.Second
	}

	entries := make(map[string]Entry)
	for _, raw := range opts.Assets {
		sym := strings.ToUpper(strings.TrimSpace(raw))
		if sym == "" {
			continue
		}
		entries[fmt.Sprintf("fetch_%s", sym)] = Entry{
			Task:  TaskFetchPrice,
			Every: every,
			Args:  []string{sym},
		}
		entries[fmt.Sprintf("compute_%s", sym)] = Entry{
			Task:  TaskComputeAlerts,
			Every: every,
			Args:  []string{sym},
		}
	}

	if opts.RetentionEnabled && opts.RetentionEvery > 0 {
		entries[TaskPruneOldPrices] = Entry{
			Task:  TaskPruneOldPrices,
			Every: opts.RetentionEvery,
		}
	}

	return entries
}
