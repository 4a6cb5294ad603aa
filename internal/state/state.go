// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package state keeps the pipeline's persisted state: the pending queue of
// event identifiers, the set of identifiers that were already turned into
// published output, and the list of identifiers that failed generation.
//
// Each lives in its own JSON file inside the state directory. The files are
// small and their schemas are fixed, so they are managed through
// crawshaw.dev/jsonfile, which gives atomic, crash-safe updates.
package state

import (
	"errors"
	"io/fs"
	"path/filepath"
	"time"

	"go.astrophena.name/minewire/internal/util/set"

	"crawshaw.dev/jsonfile"
)

// Names of the state files inside the state directory.
const (
	QueueFile     = "events.json"
	ProcessedFile = "processed_events.json"
	FailedFile    = "failed_events.json"
)

// Details is optional metadata captured for a queued identifier at fetch
// time. For feed-sourced identifiers it is the only record of what the
// identifier refers to.
type Details struct {
	Title   string `json:"title,omitempty"`
	Summary string `json:"summary,omitempty"`
	Source  string `json:"source,omitempty"`
}

// FailedEvent records a generation failure.
type FailedEvent struct {
	URI      string    `json:"uri"`
	Error    string    `json:"error"`
	FailedAt time.Time `json:"failed_at"`
}

type queueFile struct {
	EventURIs   []string           `json:"event_uris"`
	Details     map[string]Details `json:"details,omitempty"`
	UpdatedAt   time.Time          `json:"updated_at"`
	TotalEvents int                `json:"total_events"`
}

type processedFile struct {
	ProcessedURIs  []string  `json:"processed_uris"`
	UpdatedAt      time.Time `json:"updated_at"`
	TotalProcessed int       `json:"total_processed"`
}

type failedFile struct {
	Failed      []FailedEvent `json:"failed_uris"`
	UpdatedAt   time.Time     `json:"updated_at"`
	TotalFailed int           `json:"total_failed"`
}

// Store provides access to the pipeline state files.
type Store struct {
	queue     *jsonfile.JSONFile[queueFile]
	processed *jsonfile.JSONFile[processedFile]
	failed    *jsonfile.JSONFile[failedFile]

	// Now acts as time.Now, but can be overridden in tests.
	Now func() time.Time
}

// Open opens (creating, if needed) the state files in dir.
func Open(dir string) (*Store, error) {
	queue, err := loadOrCreate[queueFile](filepath.Join(dir, QueueFile))
	if err != nil {
		return nil, err
	}
	processed, err := loadOrCreate[processedFile](filepath.Join(dir, ProcessedFile))
	if err != nil {
		return nil, err
	}
	failed, err := loadOrCreate[failedFile](filepath.Join(dir, FailedFile))
	if err != nil {
		return nil, err
	}
	return &Store{
		queue:     queue,
		processed: processed,
		failed:    failed,
		Now:       time.Now,
	}, nil
}

func loadOrCreate[Data any](path string) (*jsonfile.JSONFile[Data], error) {
	f, err := jsonfile.Load[Data](path)
	if errors.Is(err, fs.ErrNotExist) {
		f, err = jsonfile.New[Data](path)
	}
	return f, err
}

// Queue returns the pending queue, oldest first.
func (s *Store) Queue() []string {
	var uris []string
	s.queue.Read(func(q *queueFile) {
		uris = append(uris, q.EventURIs...)
	})
	return uris
}

// Head returns the first queued identifier.
func (s *Store) Head() (uri string, ok bool) {
	s.queue.Read(func(q *queueFile) {
		if len(q.EventURIs) > 0 {
			uri, ok = q.EventURIs[0], true
		}
	})
	return
}

// Detail returns fetch-time metadata for a queued identifier, if any.
func (s *Store) Detail(uri string) (d Details, ok bool) {
	s.queue.Read(func(q *queueFile) {
		d, ok = q.Details[uri]
	})
	return
}

// Processed returns the set of identifiers that have ever been turned into
// published output.
func (s *Store) Processed() set.Set[string] {
	ps := set.New[string](0)
	s.processed.Read(func(p *processedFile) {
		ps.AddAll(p.ProcessedURIs)
	})
	return ps
}

// Failed returns recorded generation failures.
func (s *Store) Failed() []FailedEvent {
	var fe []FailedEvent
	s.failed.Read(func(f *failedFile) {
		fe = append(fe, f.Failed...)
	})
	return fe
}

// Enqueue appends candidates to the pending queue, dropping any identifier
// that is already queued. Filtering against the processed set is the fetch
// stage's job (it can be skipped with -force). Enqueue returns the
// identifiers actually added; details entries for added identifiers are
// retained.
func (s *Store) Enqueue(candidates []string, details map[string]Details) (added []string, err error) {
	err = s.queue.Write(func(q *queueFile) error {
		queued := set.NewFromSlice(q.EventURIs...)
		for _, uri := range candidates {
			if queued.Has(uri) {
				continue
			}
			queued.Add(uri)
			q.EventURIs = append(q.EventURIs, uri)
			added = append(added, uri)
			if d, ok := details[uri]; ok {
				if q.Details == nil {
					q.Details = make(map[string]Details)
				}
				q.Details[uri] = d
			}
		}
		q.UpdatedAt = s.Now()
		q.TotalEvents = len(q.EventURIs)
		return nil
	})
	return
}

// MarkProcessed removes uri from the pending queue and appends it to the
// processed set.
func (s *Store) MarkProcessed(uri string) error {
	if err := s.dequeue(uri); err != nil {
		return err
	}
	return s.processed.Write(func(p *processedFile) error {
		ps := set.NewFromSlice(p.ProcessedURIs...)
		if ps.Add(uri) {
			p.ProcessedURIs = append(p.ProcessedURIs, uri)
		}
		p.UpdatedAt = s.Now()
		p.TotalProcessed = len(p.ProcessedURIs)
		return nil
	})
}

// MarkFailed removes uri from the pending queue and records the failure.
// The identifier is deliberately not added to the processed set, so a later
// fetch may pick the event up again.
func (s *Store) MarkFailed(uri string, cause error) error {
	if err := s.dequeue(uri); err != nil {
		return err
	}
	return s.failed.Write(func(f *failedFile) error {
		f.Failed = append(f.Failed, FailedEvent{
			URI:      uri,
			Error:    cause.Error(),
			FailedAt: s.Now(),
		})
		f.UpdatedAt = s.Now()
		f.TotalFailed = len(f.Failed)
		return nil
	})
}

func (s *Store) dequeue(uri string) error {
	return s.queue.Write(func(q *queueFile) error {
		uris := q.EventURIs[:0]
		for _, u := range q.EventURIs {
			if u != uri {
				uris = append(uris, u)
			}
		}
		q.EventURIs = uris
		delete(q.Details, uri)
		q.UpdatedAt = s.Now()
		q.TotalEvents = len(q.EventURIs)
		return nil
	})
}
