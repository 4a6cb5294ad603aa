// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package article defines the generated article format and its derivations.
package article

import (
	"regexp"
	"strings"
	"time"
)

// Article is a structured article produced by the generation stage.
type Article struct {
	SourceEventURI      string    `json:"source_event_uri,omitempty"`
	GeneratedAt         time.Time `json:"generated_at,omitempty"`
	Headline            string    `json:"headline"`
	Summary             string    `json:"summary"`
	KeyPoints           []string  `json:"key_points"`
	Body                string    `json:"body"`
	Tags                []string  `json:"tags"`
	ReflectionQuestions []string  `json:"reflection_questions,omitempty"`
	CallsToAction       []string  `json:"calls_to_action,omitempty"`
}

var (
	spaceRe   = regexp.MustCompile(`\s+`)
	invalidRe = regexp.MustCompile(`[^a-z0-9\-_]`)
)

// Slug derives a filesystem-friendly name from a headline.
func Slug(headline string) string {
	s := strings.ToLower(headline)
	s = spaceRe.ReplaceAllString(s, "-")
	s = invalidRe.ReplaceAllString(s, "")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "article"
	}
	return s
}
