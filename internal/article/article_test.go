// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package article

import (
	"strings"
	"testing"

	"go.astrophena.name/minewire/internal/testutil"
)

func TestSlug(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		headline string
		want     string
	}{
		"simple": {
			headline: "Hello, World!",
			want:     "hello-world",
		},
		"multiple spaces": {
			headline: "Bitcoin  Mining\tExpands",
			want:     "bitcoin-mining-expands",
		},
		"keeps dashes and underscores": {
			headline: "pre-built_rig",
			want:     "pre-built_rig",
		},
		"strips punctuation": {
			headline: "Miners' profits: up 50%?",
			want:     "miners-profits-up-50",
		},
		"empty": {
			headline: "¿¡",
			want:     "article",
		},
		"truncated": {
			headline: strings.Repeat("a", 150),
			want:     strings.Repeat("a", 100),
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			testutil.AssertEqual(t, Slug(tc.headline), tc.want)
		})
	}
}
