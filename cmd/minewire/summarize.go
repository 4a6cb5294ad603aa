// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"go.astrophena.name/minewire/internal/article"
	"go.astrophena.name/minewire/internal/cli"
)

var errEmptyThread = errors.New("article produced an empty thread")

func (a *app) summarize(_ context.Context, env *cli.Env) error {
	if len(env.Args) != 2 {
		return fmt.Errorf("%w: summarize expects an article file (or \"-\" for standard input)", cli.ErrInvalidArgs)
	}
	path := env.Args[1]

	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(env.Stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return err
	}

	var art article.Article
	if err := json.Unmarshal(b, &art); err != nil {
		return fmt.Errorf("parsing article %s: %w", path, err)
	}

	posts := article.Thread(&art, a.maxPosts)
	if len(posts) == 0 {
		return errEmptyThread
	}

	var buf bytes.Buffer
	switch a.format {
	case "json":
		out := struct {
			Thread        []string  `json:"thread"`
			TotalPosts    int       `json:"total_posts"`
			CreatedAt     time.Time `json:"created_at"`
			SourceArticle struct {
				Headline       string    `json:"headline"`
				GeneratedAt    time.Time `json:"generated_at"`
				SourceEventURI string    `json:"source_event_uri"`
			} `json:"source_article"`
		}{
			Thread:     posts,
			TotalPosts: len(posts),
			CreatedAt:  a.now(),
		}
		out.SourceArticle.Headline = art.Headline
		out.SourceArticle.GeneratedAt = art.GeneratedAt
		out.SourceArticle.SourceEventURI = art.SourceEventURI
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
	case "text":
		// Easy to copy-paste into a posting UI.
		for i, post := range posts {
			fmt.Fprintf(&buf, "Post %d:\n%s\n\n", i+1, post)
		}
	default:
		return fmt.Errorf("%w %q for summarize, want json or text", errUnsupportedFormat, a.format)
	}

	if a.output != "" {
		if err := os.WriteFile(a.output, buf.Bytes(), 0o644); err != nil {
			return err
		}
		a.logf("Thread saved to: %s", a.output)
		return nil
	}
	_, err = env.Stdout.Write(buf.Bytes())
	return err
}
