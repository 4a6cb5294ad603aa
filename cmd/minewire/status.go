// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.astrophena.name/minewire/internal/cli"
	"go.astrophena.name/minewire/internal/state"
)

func (a *app) status(_ context.Context, env *cli.Env) error {
	if err := a.loadState(); err != nil {
		return err
	}

	queue := a.store.Queue()
	failed := a.store.Failed()

	if a.jsonOut {
		out := struct {
			QueueDepth     int                 `json:"queue_depth"`
			Queue          []string            `json:"queue"`
			ProcessedCount int                 `json:"processed_count"`
			FailedCount    int                 `json:"failed_count"`
			Failed         []state.FailedEvent `json:"failed,omitempty"`
		}{
			QueueDepth:     len(queue),
			Queue:          queue,
			ProcessedCount: a.store.Processed().Len(),
			FailedCount:    len(failed),
			Failed:         failed,
		}
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Fprintf(env.Stdout, "Queue: %d pending\n", len(queue))
	for _, uri := range queue {
		if d, ok := a.store.Detail(uri); ok && d.Title != "" {
			fmt.Fprintf(env.Stdout, "  %s (%s)\n", uri, d.Title)
			continue
		}
		fmt.Fprintf(env.Stdout, "  %s\n", uri)
	}
	fmt.Fprintf(env.Stdout, "Processed: %d\n", a.store.Processed().Len())
	fmt.Fprintf(env.Stdout, "Failed: %d\n", len(failed))
	for _, f := range failed {
		fmt.Fprintf(env.Stdout, "  %s: %s (%s)\n", f.URI, f.Error, f.FailedAt.Format(time.RFC3339))
	}
	return nil
}
