// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package eventregistry

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.astrophena.name/minewire/internal/testutil"
)

type roundTripFunc func(r *http.Request) (*http.Response, error)

func (s roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return s(r)
}

func testClient(h http.Handler) *Client {
	return &Client{
		APIKey: "test-key",
		HTTPClient: &http.Client{
			Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
				w := httptest.NewRecorder()
				h.ServeHTTP(w, r)
				return w.Result(), nil
			}),
		},
	}
}

func TestEvents(t *testing.T) {
	t.Parallel()

	var gotReq map[string]any
	c := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		testutil.AssertEqual(t, r.URL.Path, "/api/v1/event/getEvents")
		b, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatal(err)
		}
		gotReq = testutil.UnmarshalJSON[map[string]any](t, b)
		json.NewEncoder(w).Encode(map[string]any{
			"events": map[string]any{
				"results": []map[string]any{
					{
						"uri":       "eng-1",
						"title":     map[string]string{"eng": "Miners expand"},
						"summary":   map[string]string{"eng": "Expansion continues."},
						"eventDate": "2025-06-01",
						"concepts": []map[string]any{
							{"label": map[string]string{"eng": "Bitcoin"}},
						},
					},
				},
			},
		})
	}))

	events, err := c.Events(context.Background(), EventsQuery{
		Keywords: []string{"bitcoin mining"},
		Start:    time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		End:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Count:    10,
	})
	if err != nil {
		t.Fatal(err)
	}

	testutil.AssertEqual(t, gotReq["action"], "getEvents")
	testutil.AssertEqual(t, gotReq["keywordOper"], "or")
	testutil.AssertEqual(t, gotReq["lang"], "eng")
	testutil.AssertEqual(t, gotReq["dateStart"], "2025-06-01")
	testutil.AssertEqual(t, gotReq["apiKey"], "test-key")

	testutil.AssertEqual(t, len(events), 1)
	testutil.AssertEqual(t, events[0].URI, "eng-1")
	testutil.AssertEqual(t, events[0].Title.Eng(), "Miners expand")
	testutil.AssertEqual(t, Labels(events[0].Concepts), []string{"Bitcoin"})
}

func TestEventsRequiresKeywords(t *testing.T) {
	t.Parallel()

	c := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not be made")
	}))
	if _, err := c.Events(context.Background(), EventsQuery{}); err == nil {
		t.Fatal("expected error")
	}
}

func TestEvent(t *testing.T) {
	t.Parallel()

	c := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		testutil.AssertEqual(t, r.URL.Path, "/api/v1/event/getEvent")
		json.NewEncoder(w).Encode(map[string]any{
			"eng-1": map[string]any{
				"info": map[string]any{
					"uri":     "eng-1",
					"title":   map[string]string{"eng": "Miners expand"},
					"summary": map[string]string{"eng": "Expansion continues."},
				},
			},
		})
	}))

	ev, err := c.Event(context.Background(), "eng-1")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, ev.Title.Eng(), "Miners expand")
}

func TestEventNoInfo(t *testing.T) {
	t.Parallel()

	c := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{})
	}))

	if _, err := c.Event(context.Background(), "eng-404"); !errors.Is(err, ErrNoEvent) {
		t.Fatalf("want %v, got %v", ErrNoEvent, err)
	}
}
