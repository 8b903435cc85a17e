// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-pwkeychain.
//
// go-pwkeychain is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package audit

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jeremyhahn/go-pwkeychain/pkg/storage"
)

const (
	// DefaultLogKey is the storage key of the audit log.
	DefaultLogKey = "audit/events.jsonl"

	// DefaultMaxEvents is the number of events retained by default.
	DefaultMaxEvents = 1000
)

// StorageAuditAdapter keeps the audit log as JSON lines under a single
// storage key. Only the newest MaxEvents events are retained.
type StorageAuditAdapter struct {
	mu        sync.Mutex
	backend   storage.Backend
	key       string
	maxEvents int
}

// NewStorageAuditAdapter creates an adapter writing to DefaultLogKey of
// backend. maxEvents <= 0 selects DefaultMaxEvents.
func NewStorageAuditAdapter(backend storage.Backend, maxEvents int) (*StorageAuditAdapter, error) {
	if backend == nil {
		return nil, fmt.Errorf("audit: storage backend is required")
	}
	if maxEvents <= 0 {
		maxEvents = DefaultMaxEvents
	}
	return &StorageAuditAdapter{
		backend:   backend,
		key:       DefaultLogKey,
		maxEvents: maxEvents,
	}, nil
}

// LogEvent appends event to the stored log, dropping the oldest events
// beyond the retention limit.
func (s *StorageAuditAdapter) LogEvent(ctx context.Context, event *AuditEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	stamp(event)

	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.read()
	if err != nil {
		return err
	}
	events = append(events, event)
	if len(events) > s.maxEvents {
		events = events[len(events)-s.maxEvents:]
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, e := range events {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("audit: encode event: %w", err)
		}
	}
	if err := s.backend.Put(s.key, buf.Bytes(), storage.DefaultOptions()); err != nil {
		return fmt.Errorf("audit: write log: %w", err)
	}
	return nil
}

// GetEvents retrieves audit events based on query parameters
func (s *StorageAuditAdapter) GetEvents(ctx context.Context, query *EventQuery) ([]*AuditEvent, error) {
	s.mu.Lock()
	events, err := s.read()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return filterEvents(events, query), nil
}

// read loads the stored events. Caller holds s.mu.
func (s *StorageAuditAdapter) read() ([]*AuditEvent, error) {
	data, err := s.backend.Get(s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("audit: read log: %w", err)
	}

	var events []*AuditEvent
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var e AuditEvent
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("audit: corrupt log entry: %w", err)
		}
		events = append(events, &e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("audit: read log: %w", err)
	}
	return events, nil
}
