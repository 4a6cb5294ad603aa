// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Minewire fetches mining industry news, turns it into articles with Gemini
and summarizes articles into social media threads.

# Usage

	$ minewire [flags...] <command> [args...]

Commands are:

  - fetch: query EventRegistry (and any configured RSS feeds) for recent
    events, deduplicate them against previously processed ones and append
    new event URIs to the pending queue
  - generate: take the oldest queued event, generate an article for it with
    Gemini and save it to the articles directory
  - summarize: read a generated article file (or "-" for standard input) and
    produce a numbered social media thread from it
  - status: report queue depth and processed/failed counts

# Environment Variables

The minewire program relies on the following environment variables:

  - EVENT_REGISTRY_API_KEY: API key for the EventRegistry API. Required by
    the fetch and generate commands unless running with -dry-run.
  - GEMINI_API_KEY: API key for the Gemini API. Required by the generate
    command.
  - GEMINI_MODEL: Gemini model used for article generation. Defaults to
    "gemini-1.5-flash".
  - STATE_DIRECTORY: directory where minewire keeps its state files and
    configuration. Defaults to $XDG_STATE_HOME/minewire.
  - ARTICLES_DIRECTORY: directory where generated articles are saved.
    Defaults to the articles subdirectory of the state directory.
  - MAX_EVENTS: default value for the -max-events flag.
  - FETCH_WINDOW: default value for the -window flag.

# Configuration

minewire loads its configuration from the config.star file in the state
directory. This file is written in Starlark language and defines the topic to
track and, optionally, a list of RSS feeds to pull candidates from:

	topic(
	    keywords = ["bitcoin mining", "crypto mining"],
	    exclude = ["data mining"],
	    block_rule = lambda event: "sponsored" in event.title.lower(),
	)

	feeds = [
	    feed(
	        url = "https://example.com/mining/feed.xml",
	        title = "Example Mining News",
	    ),
	]

Block rules are Starlark functions that take an event as an argument and
return a boolean value. If a block rule returns true, the event is not added
to the queue. The event passed to a block rule is a struct with uri, title
and summary keys.

If config.star does not exist, a built-in default configuration tracking
cryptocurrency mining news is used.

# State

minewire keeps three JSON state files in the state directory:

  - events.json: the pending queue of event URIs, oldest first
  - processed_events.json: URIs that already produced an article
  - failed_events.json: URIs whose generation failed, with the error

An event URI never moves from processed_events.json back into the queue: once
an article was generated for an event, later fetches skip it. The -force flag
of the fetch command overrides this.

Articles are saved as <slug>.json files in the articles directory, where the
slug is derived from the generated headline.

# Examples

Fetch up to ten events from the last three hours and print the updated queue:

	$ minewire -max-events 10 -window 3h -format uris fetch

Generate articles for the two oldest queued events:

	$ minewire -count 2 generate

Summarize a generated article into a thread of at most six posts:

	$ minewire -max-posts 6 summarize articles/bitcoin-miners-expand.json
*/
package main

import (
	_ "embed"

	"go.astrophena.name/minewire/internal/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
