// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.astrophena.name/minewire/internal/api/eventregistry"
	"go.astrophena.name/minewire/internal/api/gemini"
	"go.astrophena.name/minewire/internal/article"
	"go.astrophena.name/minewire/internal/atomicio"
	"go.astrophena.name/minewire/internal/cli"
)

func (a *app) generate(ctx context.Context, env *cli.Env) error {
	if a.geminiKey == "" && !a.dryRun {
		return errNoGeminiKey
	}

	l, err := a.lock()
	if err != nil {
		return err
	}
	defer l.Release()
	if err := a.loadState(); err != nil {
		return err
	}

	queued := a.store.Queue()
	if len(queued) == 0 {
		a.logf("No new events to process.")
		return nil
	}
	a.logf("Found %d events in queue.", len(queued))

	if a.dryRun {
		for i, uri := range queued {
			if i == max(a.count, 1) {
				break
			}
			a.logf("Dry run: would generate an article for %s.", uri)
		}
		return nil
	}

	if err := os.MkdirAll(a.articlesDir, 0o755); err != nil {
		return err
	}

	for range max(a.count, 1) {
		uri, ok := a.store.Head()
		if !ok {
			break
		}
		a.logf("Processing event: %s", uri)

		if err := a.generateOne(ctx, env, uri); err != nil {
			if ferr := a.store.MarkFailed(uri, err); ferr != nil {
				return errors.Join(err, ferr)
			}
			return fmt.Errorf("generating article for event %s: %w", uri, err)
		}
		if err := a.store.MarkProcessed(uri); err != nil {
			return err
		}
	}
	return nil
}

// generateOne produces and saves an article for a single queued event.
func (a *app) generateOne(ctx context.Context, env *cli.Env, uri string) error {
	d, err := a.eventDetails(ctx, uri)
	if err != nil {
		return err
	}

	resp, err := a.gemini.GenerateContent(ctx, gemini.GenerateContentParams{
		Contents: []*gemini.Content{
			{
				Parts: []*gemini.Part{{Text: buildPrompt(d)}},
				Role:  "user",
			},
		},
	})
	if err != nil {
		return err
	}
	text, err := resp.Text()
	if err != nil {
		return err
	}

	var art article.Article
	if err := json.Unmarshal([]byte(stripFences(text)), &art); err != nil {
		return fmt.Errorf("parsing generated article: %w", err)
	}
	art.SourceEventURI = uri
	art.GeneratedAt = a.now()

	b, err := json.MarshalIndent(art, "", "  ")
	if err != nil {
		return err
	}
	name := article.Slug(art.Headline) + ".json"
	if err := atomicio.WriteFile(filepath.Join(a.articlesDir, name), b, 0o644); err != nil {
		return err
	}
	a.logf("Successfully generated and saved article: %s", name)
	fmt.Fprintln(env.Stdout, filepath.Join(a.articlesDir, name))
	return nil
}

// eventDetails returns what we know about an event: details captured at
// fetch time if present, otherwise fetched from EventRegistry.
func (a *app) eventDetails(ctx context.Context, uri string) (promptDetails, error) {
	if d, ok := a.store.Detail(uri); ok && d.Title != "" {
		return promptDetails{title: d.Title, summary: d.Summary}, nil
	}
	if a.erKey == "" {
		return promptDetails{}, errNoEventRegistryKey
	}
	ev, err := a.er.Event(ctx, uri)
	if err != nil {
		return promptDetails{}, err
	}
	return promptDetails{
		title:    cmp.Or(ev.Title.Eng(), "No Title Provided"),
		summary:  cmp.Or(ev.Summary.Eng(), "No Summary Provided"),
		concepts: eventregistry.Labels(ev.Concepts),
	}, nil
}

type promptDetails struct {
	title    string
	summary  string
	concepts []string
}

const promptTemplate = `Act as a senior financial journalist with a writing style that blends the analytical depth of The Wall Street Journal with the global perspective of The Financial Times.

Your task is to generate a comprehensive news article based on the following event data:
- Event Title: %s
- Event Summary: %s
- Key Concepts: %s

Generate the article in a structured JSON format. The JSON object must contain the following keys: "headline", "summary", "key_points", "body", "tags", "reflection_questions", "calls_to_action".

Follow these specific instructions:
1. Headline ("headline"): Create a compelling, professional headline.
2. Summary ("summary"): Write a concise, one-paragraph summary that encapsulates the most critical information.
3. Key Points ("key_points"): Provide a list of 3-5 bullet points highlighting the main takeaways.
4. Body ("body"): Write a detailed, multi-paragraph article. Provide context, perspective, and link to other relevant news or market trends where appropriate. Crucially, avoid speculation. All claims should be grounded in the provided data. If you infer connections, state them cautiously (e.g., "This development could be seen in the context of...").
5. Tags ("tags"): Generate a list of relevant keywords for categorization (e.g., "mergers-and-acquisitions", "tech-industry", "market-analysis").
6. Reflection Questions ("reflection_questions"): Create a list of 2-3 thought-provoking questions that encourage the reader to think critically about the topic's implications.
7. Calls to Action ("calls_to_action"): Formulate 1-2 calls to action prompting readers to engage, such as leaving a comment with their perspective or contacting a relevant entity.

Ensure the entire output is a single, valid JSON object. Do not include any text or formatting outside of the JSON structure.`

func buildPrompt(d promptDetails) string {
	return fmt.Sprintf(promptTemplate, d.title, d.summary, strings.Join(d.concepts, ", "))
}

// stripFences removes Markdown code fences that models like to wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
