// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package article

import (
	"fmt"
	"strings"
	"testing"

	"go.astrophena.name/minewire/internal/testutil"
)

func testArticle() *Article {
	return &Article{
		Headline: "Bitcoin Miners Expand Into Texas",
		Summary:  "Mining companies are adding capacity in Texas as power deals improve.",
		KeyPoints: []string{
			"Capacity is growing",
			"Power deals are cheaper",
			"Difficulty keeps rising",
		},
		Body: "Texas has become a magnet for miners.\n\n" +
			"Several bitcoin mining firms signed long-term power purchase agreements this quarter. The deals lock in electricity below market rates. Analysts expect more capacity announcements before the end of the year.\n\n" +
			"The trend shows no sign of slowing.",
		Tags: []string{"bitcoin-mining", "energy"},
	}
}

func TestThread(t *testing.T) {
	t.Parallel()

	posts := Thread(testArticle(), 8)

	if len(posts) > 8 {
		t.Fatalf("thread has %d posts, want at most 8", len(posts))
	}
	for i, p := range posts {
		if len(p) > postMaxLen {
			t.Errorf("post %d is %d bytes long, want at most %d: %q", i+1, len(p), postMaxLen, p)
		}
		wantPrefix := fmt.Sprintf("%d/%d ", i+1, len(posts))
		if !strings.HasPrefix(p, wantPrefix) {
			t.Errorf("post %d must start with %q, got: %q", i+1, wantPrefix, p)
		}
	}

	if !strings.Contains(posts[0], "🧵 THREAD: Bitcoin Miners Expand Into Texas") {
		t.Errorf("opening post must contain the headline, got: %q", posts[0])
	}
	if !strings.Contains(posts[1], "Key takeaways:") {
		t.Errorf("second post must contain key takeaways, got: %q", posts[1])
	}

	last := posts[len(posts)-1]
	if !strings.Contains(last, "That's a wrap!") {
		t.Errorf("closing post must wrap up the thread, got: %q", last)
	}
	if !strings.Contains(last, "#bitcoinmining #energy") {
		t.Errorf("closing post must carry hashtags, got: %q", last)
	}
}

func TestThreadRespectsMaxPosts(t *testing.T) {
	t.Parallel()

	para := strings.Repeat("Mining output keeps growing across regions. ", 5)
	a := &Article{
		Headline: "A Very Long Story",
		Body: "Intro.\n\n" + para + "\n\n" + para + "\n\n" + para + "\n\n" +
			para + "\n\n" + para + "\n\nOutro.",
	}

	posts := Thread(a, 4)
	testutil.AssertEqual(t, len(posts), 4)
}

func TestThreadSmallMaxPosts(t *testing.T) {
	t.Parallel()

	// Opening, takeaways and closing alone would overflow maxPosts here;
	// the thread must still honor the cap and keep the closing post.
	posts := Thread(testArticle(), 2)
	testutil.AssertEqual(t, len(posts), 2)
	last := posts[len(posts)-1]
	if !strings.Contains(last, "That's a wrap!") {
		t.Errorf("closing post must survive trimming, got: %q", last)
	}
	if !strings.HasPrefix(last, "2/2 ") {
		t.Errorf("closing post must be renumbered after trimming, got: %q", last)
	}
}

func TestThreadHashtagCap(t *testing.T) {
	t.Parallel()

	a := testArticle()
	a.Tags = []string{"one", "two", "three", "four", "five"}

	posts := Thread(a, 8)
	last := posts[len(posts)-1]
	testutil.AssertEqual(t, strings.Count(last, "#"), 3)
}

func TestSplitForPost(t *testing.T) {
	t.Parallel()

	const maxLen = 50

	text := "This is the first sentence. This is the second one. And here comes a third sentence to overflow."
	chunks := splitForPost(text, maxLen)

	if len(chunks) < 2 {
		t.Fatalf("want at least 2 chunks, got %d: %q", len(chunks), chunks)
	}
	for i, c := range chunks {
		if len(c) > maxLen {
			t.Errorf("chunk %d is %d bytes long, want at most %d: %q", i, len(c), maxLen, c)
		}
	}

	// No words are lost in splitting.
	testutil.AssertEqual(t, strings.Fields(strings.Join(chunks, " ")), strings.Fields(text))
}

func TestSplitForPostLongWord(t *testing.T) {
	t.Parallel()

	const maxLen = 10
	chunks := splitForPost(strings.Repeat("x", 25), maxLen)
	for i, c := range chunks {
		if len(c) > maxLen {
			t.Errorf("chunk %d is %d bytes long, want at most %d", i, len(c), maxLen)
		}
	}
}

func TestSplitSentences(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		text string
		want []string
	}{
		"basic": {
			text: "One. Two! Three?",
			want: []string{"One.", "Two!", "Three?"},
		},
		"no punctuation": {
			text: "just some words",
			want: []string{"just some words"},
		},
		"newline separated": {
			text: "First line.\nSecond line.",
			want: []string{"First line.", "Second line."},
		},
		"empty": {
			text: "",
			want: nil,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			testutil.AssertEqual(t, splitSentences(tc.text), tc.want)
		})
	}
}
