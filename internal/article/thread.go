// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package article

import (
	"fmt"
	"strings"
)

// Thread building: turn an article into a numbered sequence of short posts.

const (
	postMaxLen = 280
	// Reserve space for thread numbering ("12/34 ").
	numberingReserve = 10
)

// Thread renders the article as a numbered thread of at most maxPosts posts.
func Thread(a *Article, maxPosts int) []string {
	if maxPosts < 2 {
		maxPosts = 2
	}

	var posts []string

	// Opening post: headline hook, plus the summary if it fits.
	first := "🧵 THREAD: " + a.Headline
	if a.Summary != "" && len(first)+len(a.Summary)+2 < postMaxLen-numberingReserve {
		first += "\n\n" + a.Summary
	}
	posts = append(posts, first)

	// Key takeaways, capped at two posts.
	if len(a.KeyPoints) > 0 {
		points := a.KeyPoints
		if len(points) > 4 {
			points = points[:4]
		}
		var sb strings.Builder
		sb.WriteString("Key takeaways:\n")
		for _, p := range points {
			sb.WriteString("\n• " + p)
		}
		chunks := splitForPost(sb.String(), postMaxLen-numberingReserve)
		if len(chunks) > 2 {
			chunks = chunks[:2]
		}
		posts = append(posts, chunks...)
	}

	// Body excerpts, leaving room for the closing post.
	remaining := maxPosts - len(posts) - 1
	for _, para := range excerpts(a) {
		if remaining <= 0 {
			break
		}
		chunks := splitForPost(para, postMaxLen-numberingReserve)
		if len(chunks) > remaining {
			chunks = chunks[:remaining]
		}
		posts = append(posts, chunks...)
		remaining -= len(chunks)
	}

	posts = append(posts, closing(a.Tags))

	// The opening, takeaway and closing posts alone can overflow a small
	// maxPosts; trim the middle, keeping the closing post.
	if len(posts) > maxPosts {
		posts = append(posts[:maxPosts-1], posts[len(posts)-1])
	}

	// Number the posts.
	if len(posts) > 1 {
		total := len(posts)
		for i, p := range posts {
			posts[i] = fmt.Sprintf("%d/%d %s", i+1, total, p)
		}
	}

	return posts
}

// excerpts picks informative body paragraphs: long enough to carry substance,
// skipping the introduction and the conclusion. Paragraphs mentioning one of
// the article's tags are preferred; if none do, all candidates qualify.
func excerpts(a *Article) []string {
	var paras []string
	for _, p := range strings.Split(a.Body, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			paras = append(paras, p)
		}
	}
	if len(paras) > 2 {
		paras = paras[1 : len(paras)-1]
	}

	var candidates []string
	for _, p := range paras {
		if len(p) > 100 {
			candidates = append(candidates, p)
		}
	}

	var tagged []string
	for _, p := range candidates {
		lower := strings.ToLower(p)
		for _, tag := range a.Tags {
			if strings.Contains(lower, strings.ToLower(strings.ReplaceAll(tag, "-", " "))) {
				tagged = append(tagged, p)
				break
			}
		}
	}
	if len(tagged) > 0 {
		return tagged
	}
	return candidates
}

func closing(tags []string) string {
	post := "That's a wrap! 🎯\n\nWhat are your thoughts on these developments?"
	if len(tags) > 0 {
		if len(tags) > 3 {
			tags = tags[:3]
		}
		hashtags := make([]string, len(tags))
		for i, t := range tags {
			hashtags[i] = "#" + strings.ReplaceAll(t, "-", "")
		}
		post += "\n\n" + strings.Join(hashtags, " ")
	}
	return post
}

// splitForPost splits text into chunks of at most maxLen characters,
// preferring sentence boundaries, then word boundaries.
func splitForPost(text string, maxLen int) []string {
	var (
		chunks  []string
		current string
	)

	appendChunk := func() {
		if c := strings.TrimSpace(current); c != "" {
			chunks = append(chunks, c)
		}
		current = ""
	}

	for _, sentence := range splitSentences(text) {
		if len(current)+len(sentence)+1 <= maxLen {
			current = strings.TrimSpace(current + " " + sentence)
			continue
		}
		appendChunk()
		if len(sentence) <= maxLen {
			current = sentence
			continue
		}
		// A single sentence is too long, fall back to words.
		for _, word := range strings.Fields(sentence) {
			if len(current)+len(word)+1 > maxLen {
				appendChunk()
				if len(word) > maxLen {
					// A single word is too long, truncate.
					chunks = append(chunks, word[:maxLen])
					continue
				}
			}
			current = strings.TrimSpace(current + " " + word)
		}
	}
	appendChunk()

	return chunks
}

// splitSentences splits text on sentence-ending punctuation followed by
// whitespace, keeping the punctuation.
func splitSentences(text string) []string {
	var (
		sentences []string
		start     int
	)
	for i := 0; i < len(text)-1; i++ {
		switch text[i] {
		case '.', '!', '?':
			if text[i+1] == ' ' || text[i+1] == '\n' || text[i+1] == '\t' {
				if s := strings.TrimSpace(text[start : i+1]); s != "" {
					sentences = append(sentences, s)
				}
				start = i + 1
			}
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
