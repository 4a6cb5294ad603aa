// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package eventregistry provides a very minimal client for interacting with
// the EventRegistry news API.
//
// Events are aggregations of related articles about the same story. The
// client covers only the two calls the pipeline makes: searching for recent
// events and fetching a single event's info.
package eventregistry

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.astrophena.name/minewire/internal/request"
)

// APIEndpoint is the base URL of the EventRegistry API.
const APIEndpoint = "https://eventregistry.org/api/v1"

// Client holds configuration for interacting with the EventRegistry API.
type Client struct {
	// APIKey is the API key used for authentication.
	APIKey string
	// HTTPClient is an optional HTTP client to use for requests. Defaults to
	// request.DefaultClient.
	HTTPClient *http.Client
	// Scrubber is an optional strings.Replacer that scrubs unwanted data from
	// error messages.
	Scrubber *strings.Replacer
}

// LangText is a piece of text keyed by language code, e.g. "eng".
type LangText map[string]string

// Eng returns the English variant of the text, or an empty string.
func (t LangText) Eng() string { return t["eng"] }

// Event is a single event returned by the API.
type Event struct {
	URI       string    `json:"uri"`
	Title     LangText  `json:"title"`
	Summary   LangText  `json:"summary"`
	EventDate string    `json:"eventDate"`
	Concepts  []Concept `json:"concepts"`
}

// Concept is a concept the API associated with an event.
type Concept struct {
	Label LangText `json:"label"`
}

// Labels returns the English labels of concepts, skipping empty ones.
func Labels(concepts []Concept) []string {
	var labels []string
	for _, c := range concepts {
		if l := c.Label.Eng(); l != "" {
			labels = append(labels, l)
		}
	}
	return labels
}

// EventsQuery describes a search for recent events.
type EventsQuery struct {
	// Keywords are OR-joined search keywords.
	Keywords []string
	// Start and End bound the event date range.
	Start, End time.Time
	// Count is how many events to request per page.
	Count int
}

type eventsRequest struct {
	Action       string   `json:"action"`
	Keyword      []string `json:"keyword"`
	KeywordOper  string   `json:"keywordOper"`
	DateStart    string   `json:"dateStart"`
	DateEnd      string   `json:"dateEnd"`
	Lang         string   `json:"lang"`
	ResultType   string   `json:"resultType"`
	EventsSortBy string   `json:"eventsSortBy"`
	EventsCount  int      `json:"eventsCount"`
	APIKey       string   `json:"apiKey"`
}

type eventsResponse struct {
	Events struct {
		Results []*Event `json:"results"`
	} `json:"events"`
}

const dateFormat = "2006-01-02"

// Events searches for events matching the query, most recent first.
func (c *Client) Events(ctx context.Context, q EventsQuery) ([]*Event, error) {
	if len(q.Keywords) == 0 {
		return nil, errors.New("eventregistry: no keywords")
	}
	resp, err := request.Make[eventsResponse](ctx, request.Params{
		Method: http.MethodPost,
		URL:    APIEndpoint + "/event/getEvents",
		Body: eventsRequest{
			Action:       "getEvents",
			Keyword:      q.Keywords,
			KeywordOper:  "or",
			DateStart:    q.Start.Format(dateFormat),
			DateEnd:      q.End.Format(dateFormat),
			Lang:         "eng",
			ResultType:   "events",
			EventsSortBy: "date",
			EventsCount:  q.Count,
			APIKey:       c.APIKey,
		},
		HTTPClient: c.HTTPClient,
		Scrubber:   c.Scrubber,
	})
	if err != nil {
		return nil, err
	}
	return resp.Events.Results, nil
}

type eventInfoRequest struct {
	Action     string `json:"action"`
	EventURI   string `json:"eventUri"`
	ResultType string `json:"resultType"`
	APIKey     string `json:"apiKey"`
}

type eventInfoResponse map[string]struct {
	Info *Event `json:"info"`
}

// ErrNoEvent is returned by Event when the API has no info for the URI.
var ErrNoEvent = errors.New("no event information")

// Event fetches info for a single event identified by uri.
func (c *Client) Event(ctx context.Context, uri string) (*Event, error) {
	resp, err := request.Make[eventInfoResponse](ctx, request.Params{
		Method: http.MethodPost,
		URL:    APIEndpoint + "/event/getEvent",
		Body: eventInfoRequest{
			Action:     "getEvent",
			EventURI:   uri,
			ResultType: "info",
			APIKey:     c.APIKey,
		},
		HTTPClient: c.HTTPClient,
		Scrubber:   c.Scrubber,
	})
	if err != nil {
		return nil, err
	}
	ev, ok := resp[uri]
	if !ok || ev.Info == nil {
		return nil, ErrNoEvent
	}
	return ev.Info, nil
}
