// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.astrophena.name/minewire/internal/testutil"
)

type roundTripFunc func(r *http.Request) (*http.Response, error)

func (s roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return s(r)
}

func testClient(h http.Handler) *Client {
	return &Client{
		APIKey: "test-key",
		Model:  "gemini-1.5-flash",
		HTTPClient: &http.Client{
			Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
				w := httptest.NewRecorder()
				h.ServeHTTP(w, r)
				return w.Result(), nil
			}),
		},
	}
}

func TestGenerateContent(t *testing.T) {
	t.Parallel()

	c := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		testutil.AssertEqual(t, r.URL.Path, "/v1beta/models/gemini-1.5-flash:generateContent")
		testutil.AssertEqual(t, r.Header.Get("x-goog-api-key"), "test-key")
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{
					"content": map[string]any{
						"parts": []map[string]any{
							{"text": "A door handle, broken and bent."},
						},
					},
				},
			},
		})
	}))

	resp, err := c.GenerateContent(context.Background(), GenerateContentParams{
		Contents: []*Content{{Parts: []*Part{{Text: "Write a poem about a broken door handle."}}}},
	})
	if err != nil {
		t.Fatal(err)
	}

	testutil.AssertEqual(t, len(resp.Candidates), 1)
	text, err := resp.Text()
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, text, "A door handle, broken and bent.")
}

func TestGenerateContentRequiresModel(t *testing.T) {
	t.Parallel()

	c := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not be made")
	}))
	c.Model = ""

	if _, err := c.GenerateContent(context.Background(), GenerateContentParams{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestTextNoCandidates(t *testing.T) {
	t.Parallel()

	var resp GenerateContentResponse
	if _, err := resp.Text(); !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("want %v, got %v", ErrNoCandidates, err)
	}
}
