// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package config loads the pipeline configuration from a Starlark file.
//
// The config file defines a topic and, optionally, a list of extra feeds:
//
//	topic = topic(
//	    keywords = ["bitcoin mining", "bitcoin miner"],
//	    exclude = ["ethereum", "dogecoin"],
//	    block_rule = lambda ev: "giveaway" in ev.title.lower(),
//	)
//
//	feeds = [
//	    feed(url = "https://example.com/feed.xml", title = "Example"),
//	]
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.astrophena.name/minewire/internal/logger"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"
)

// Config is the parsed pipeline configuration.
type Config struct {
	Topic *Topic
	Feeds []*Feed
}

// Topic describes what the fetch stage searches for.
type Topic struct {
	Keywords  []string
	Exclude   []string
	blockRule *starlark.Function
}

// Feed is an RSS/Atom feed used as an additional candidate source.
type Feed struct {
	URL       string
	Title     string
	blockRule *starlark.Function
}

func (f *Feed) String() string        { return fmt.Sprintf("<feed url=%q>", f.URL) }
func (f *Feed) Type() string          { return "feed" }
func (f *Feed) Freeze()               {} // immutable
func (f *Feed) Truth() starlark.Bool  { return starlark.Bool(f.URL != "") }
func (f *Feed) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable: %s", f.Type()) }

func (t *Topic) String() string        { return fmt.Sprintf("<topic keywords=%q>", t.Keywords) }
func (t *Topic) Type() string          { return "topic" }
func (t *Topic) Freeze()               {} // immutable
func (t *Topic) Truth() starlark.Bool  { return starlark.Bool(len(t.Keywords) > 0) }
func (t *Topic) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable: %s", t.Type()) }

func feedBuiltin(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(args) > 0 {
		return nil, errors.New("unexpected positional arguments")
	}
	f := new(Feed)
	if err := starlark.UnpackArgs("feed", args, kwargs,
		"url", &f.URL,
		"title?", &f.Title,
		"block_rule?", &f.blockRule,
	); err != nil {
		return nil, err
	}
	return f, nil
}

// topicLocal is the starlark.Thread local under which the topic() builtin
// registers its result.
const topicLocal = "minewire.topic"

func topicBuiltin(th *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(args) > 0 {
		return nil, errors.New("unexpected positional arguments")
	}
	var (
		t        = new(Topic)
		keywords *starlark.List
		exclude  *starlark.List
	)
	if err := starlark.UnpackArgs("topic", args, kwargs,
		"keywords", &keywords,
		"exclude?", &exclude,
		"block_rule?", &t.blockRule,
	); err != nil {
		return nil, err
	}
	var err error
	t.Keywords, err = stringList(keywords, "keywords")
	if err != nil {
		return nil, err
	}
	t.Exclude, err = stringList(exclude, "exclude")
	if err != nil {
		return nil, err
	}
	if len(t.Keywords) == 0 {
		return nil, errors.New("topic: keywords must not be empty")
	}
	if th.Local(topicLocal) != nil {
		return nil, errors.New("topic is already defined")
	}
	th.SetLocal(topicLocal, t)
	return t, nil
}

func stringList(l *starlark.List, what string) ([]string, error) {
	if l == nil {
		return nil, nil
	}
	var ss []string
	iter := l.Iterate()
	defer iter.Done()
	var elem starlark.Value
	for iter.Next(&elem) {
		s, ok := starlark.AsString(elem)
		if !ok {
			return nil, fmt.Errorf("%s: %s is not a string", what, elem)
		}
		ss = append(ss, s)
	}
	return ss, nil
}

// Parse evaluates a config file. Print statements in the config go to logf.
func Parse(name, src string, logf logger.Logf) (*Config, error) {
	thread := &starlark.Thread{
		Print: func(_ *starlark.Thread, msg string) { logf("%s", msg) },
	}
	globals, err := starlark.ExecFileOptions(
		&syntax.FileOptions{
			TopLevelControl: true,
		},
		thread,
		name,
		src,
		starlark.StringDict{
			"topic": starlark.NewBuiltin("topic", topicBuiltin),
			"feed":  starlark.NewBuiltin("feed", feedBuiltin),
		},
	)
	if err != nil {
		return nil, err
	}

	topic, ok := thread.Local(topicLocal).(*Topic)
	if !ok {
		return nil, errors.New("topic must be defined")
	}

	cfg := &Config{Topic: topic}

	if feedsList, ok := globals["feeds"].(*starlark.List); ok {
		iter := feedsList.Iterate()
		defer iter.Done()
		var elem starlark.Value
		for iter.Next(&elem) {
			feed, ok := elem.(*Feed)
			if !ok {
				continue
			}
			if _, err := url.Parse(feed.URL); err != nil {
				return nil, fmt.Errorf("invalid URL %q of feed %q", feed.URL, feed.Title)
			}
			cfg.Feeds = append(cfg.Feeds, feed)
		}
	}

	return cfg, nil
}

// Relevant reports whether the candidate text matches the topic: at least
// one keyword must appear, and exclude-term mentions must not outnumber
// keyword mentions.
func (t *Topic) Relevant(title, summary string) bool {
	text := strings.ToLower(title + " " + summary)

	var keywordCount int
	for _, kw := range t.Keywords {
		keywordCount += strings.Count(text, strings.ToLower(kw))
	}
	if keywordCount == 0 {
		return false
	}

	var excludeCount int
	for _, ex := range t.Exclude {
		excludeCount += strings.Count(text, strings.ToLower(ex))
	}
	return excludeCount == 0 || keywordCount > excludeCount
}

// Candidate is what block rules see: one potential queue entry.
type Candidate struct {
	URI     string
	Title   string
	Summary string
}

// Blocked reports whether the topic's block rule vetoes the candidate.
// A missing rule blocks nothing. Rule errors block the candidate and are
// reported to logf, so a broken rule can't flood the queue.
func (t *Topic) Blocked(c Candidate, logf logger.Logf) bool {
	return applyRule(t.blockRule, c, logf)
}

// Blocked reports whether the feed's block rule vetoes the candidate.
func (f *Feed) Blocked(c Candidate, logf logger.Logf) bool {
	return applyRule(f.blockRule, c, logf)
}

func applyRule(rule *starlark.Function, c Candidate, logf logger.Logf) bool {
	if rule == nil {
		return false
	}
	val, err := starlark.Call(
		&starlark.Thread{
			Print: func(_ *starlark.Thread, msg string) { logf("%s", msg) },
		},
		rule,
		starlark.Tuple{starlarkstruct.FromStringDict(
			starlarkstruct.Default,
			starlark.StringDict{
				"uri":     starlark.String(c.URI),
				"title":   starlark.String(c.Title),
				"summary": starlark.String(c.Summary),
			},
		)},
		[]starlark.Tuple{},
	)
	if err != nil {
		logf("config: applying block rule for %q: %v", c.URI, err)
		return true
	}
	ret, ok := val.(starlark.Bool)
	if !ok {
		logf("config: block rule returned non-boolean value for %q", c.URI)
		return true
	}
	return bool(ret)
}
