// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"time"

	"go.astrophena.name/minewire/internal/api/eventregistry"
	"go.astrophena.name/minewire/internal/cli"
	"go.astrophena.name/minewire/internal/config"
	"go.astrophena.name/minewire/internal/state"
	"go.astrophena.name/minewire/internal/version"
)

func (a *app) fetch(ctx context.Context, env *cli.Env) error {
	if !a.dryRun {
		l, err := a.lock()
		if err != nil {
			return err
		}
		defer l.Release()
	}
	if err := a.loadState(); err != nil {
		return err
	}

	a.logf("Loaded %d previously processed events.", a.store.Processed().Len())
	a.logf("%d events already in queue.", len(a.store.Queue()))

	var (
		candidates []string
		details    = make(map[string]state.Details)
	)

	if a.dryRun {
		a.logf("Dry run: using placeholder events, no API calls will be made.")
		for i := range min(a.maxEvents, 3) {
			uri := fmt.Sprintf("dry-run-event-%d", i+1)
			candidates = append(candidates, uri)
			details[uri] = state.Details{Title: "Dry run event", Source: "dry-run"}
		}
	} else {
		if a.erKey == "" {
			return errNoEventRegistryKey
		}
		events, err := a.searchEvents(ctx)
		if err != nil {
			return fmt.Errorf("fetching events: %w", err)
		}
		a.logf("EventRegistry returned %d events.", len(events))
		for _, ev := range events {
			c := config.Candidate{URI: ev.URI, Title: ev.Title.Eng(), Summary: ev.Summary.Eng()}
			if !a.cfg.Topic.Relevant(c.Title, c.Summary) {
				a.logf("Skipping irrelevant event: %s", ev.URI)
				continue
			}
			if a.cfg.Topic.Blocked(c, a.logf) {
				a.logf("Skipping blocked event: %s", ev.URI)
				continue
			}
			candidates = append(candidates, ev.URI)
			details[ev.URI] = state.Details{Title: c.Title, Summary: c.Summary, Source: "eventregistry"}
		}
		for _, fd := range a.cfg.Feeds {
			if err := a.fetchFeed(ctx, fd, &candidates, details); err != nil {
				// A single broken feed shouldn't fail the whole run.
				a.logf("Fetching feed %q failed: %v", fd.URL, err)
			}
		}
	}

	if !a.force {
		processed := a.store.Processed()
		candidates = slices.DeleteFunc(candidates, func(uri string) bool {
			if processed.Has(uri) {
				a.logf("Skipping already processed event: %s", uri)
				return true
			}
			return false
		})
	}
	if len(candidates) > a.maxEvents {
		candidates = candidates[:a.maxEvents]
	}

	added := candidates
	if a.dryRun {
		a.logf("Dry run: not saving %d events.", len(added))
	} else {
		var err error
		added, err = a.store.Enqueue(candidates, details)
		if err != nil {
			return fmt.Errorf("saving queue: %w", err)
		}
	}
	a.logf("Added %d new events to queue.", len(added))

	switch a.format {
	case "uris":
		// Downstream consumers read the whole updated queue from this
		// stream, not just this run's additions.
		queue := a.store.Queue()
		if a.dryRun {
			queue = added
		}
		for _, uri := range queue {
			fmt.Fprintln(env.Stdout, uri)
		}
		return nil
	case "json":
		summary := struct {
			NewEventsAdded     int       `json:"new_events_added"`
			TotalEventsInQueue int       `json:"total_events_in_queue"`
			FetchTime          time.Time `json:"fetch_time"`
			NewEventURIs       []string  `json:"new_event_uris"`
		}{
			NewEventsAdded:     len(added),
			TotalEventsInQueue: len(a.store.Queue()),
			FetchTime:          a.now(),
			NewEventURIs:       added,
		}
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	default:
		return fmt.Errorf("%w %q for fetch, want json or uris", errUnsupportedFormat, a.format)
	}
}

// searchEvents queries EventRegistry for recent events matching the
// configured topic. On failure it retries exactly once with the search
// window halved, never narrower than 15 minutes.
func (a *app) searchEvents(ctx context.Context) ([]*eventregistry.Event, error) {
	q := eventregistry.EventsQuery{
		Keywords: a.cfg.Topic.Keywords,
		Start:    a.now().Add(-a.window),
		End:      a.now(),
		Count:    a.maxEvents * 3,
	}
	events, err := a.er.Events(ctx, q)
	if err == nil {
		return events, nil
	}

	window := narrowWindow(a.window)
	a.logf("Event search failed (%v), retrying with a %s window.", err, window)
	q.Start = a.now().Add(-window)
	return a.er.Events(ctx, q)
}

const minWindow = 15 * time.Minute

// narrowWindow halves the search window for the retry, flooring at
// minWindow but never widening past the original.
func narrowWindow(w time.Duration) time.Duration {
	return min(w, max(w/2, minWindow))
}

// fetchFeed pulls an RSS/Atom feed and appends items published inside the
// search window as candidates. The item link doubles as the queue
// identifier.
func (a *app) fetchFeed(ctx context.Context, fd *config.Feed, candidates *[]string, details map[string]state.Details) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fd.URL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", version.UserAgent())
	res, err := a.httpc.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("want 200, got %d", res.StatusCode)
	}
	feed, err := a.fp.Parse(res.Body)
	if err != nil {
		return err
	}

	cutoff := a.now().Add(-a.window)
	source := fd.Title
	if source == "" {
		source = fd.URL
	}
	for _, item := range feed.Items {
		if item.Link == "" || item.PublishedParsed == nil || item.PublishedParsed.Before(cutoff) {
			continue
		}
		c := config.Candidate{URI: item.Link, Title: item.Title, Summary: item.Description}
		if fd.Blocked(c, a.logf) {
			a.logf("Skipping blocked feed item: %s", item.Link)
			continue
		}
		*candidates = append(*candidates, item.Link)
		details[item.Link] = state.Details{Title: item.Title, Summary: item.Description, Source: source}
	}
	return nil
}
