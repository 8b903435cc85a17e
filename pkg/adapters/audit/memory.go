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
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryAuditAdapter implements AuditAdapter with in-memory storage.
// This implementation is thread-safe and suitable for development and
// testing. Events are lost on process restart.
type MemoryAuditAdapter struct {
	mu     sync.RWMutex
	events []*AuditEvent
}

// NewMemoryAuditAdapter creates a new in-memory audit adapter
func NewMemoryAuditAdapter() *MemoryAuditAdapter {
	return &MemoryAuditAdapter{
		events: make([]*AuditEvent, 0, 64),
	}
}

// LogEvent records an audit event in memory
func (m *MemoryAuditAdapter) LogEvent(ctx context.Context, event *AuditEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	stamp(event)

	m.mu.Lock()
	m.events = append(m.events, event)
	m.mu.Unlock()
	return nil
}

// GetEvents retrieves audit events based on query parameters
func (m *MemoryAuditAdapter) GetEvents(ctx context.Context, query *EventQuery) ([]*AuditEvent, error) {
	m.mu.RLock()
	snapshot := make([]*AuditEvent, len(m.events))
	copy(snapshot, m.events)
	m.mu.RUnlock()

	return filterEvents(snapshot, query), nil
}

// stamp fills in the ID and timestamp of an event when they are unset.
func stamp(event *AuditEvent) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
}

// filterEvents applies query to events, which must be in insertion order.
func filterEvents(events []*AuditEvent, query *EventQuery) []*AuditEvent {
	if query == nil {
		query = &EventQuery{}
	}

	results := make([]*AuditEvent, 0, len(events))
	for _, event := range events {
		if matchesQuery(event, query) {
			results = append(results, event)
		}
	}

	// Sort by timestamp descending (newest first) unless otherwise specified
	switch query.OrderBy {
	case "", "timestamp_desc":
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Timestamp.After(results[j].Timestamp)
		})
	case "timestamp_asc":
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Timestamp.Before(results[j].Timestamp)
		})
	}

	if query.Limit > 0 && query.Limit < len(results) {
		results = results[:query.Limit]
	}
	return results
}

// matchesQuery checks if an event matches the query criteria
func matchesQuery(event *AuditEvent, query *EventQuery) bool {
	if len(query.EventTypes) > 0 {
		matched := false
		for _, et := range query.EventTypes {
			if event.EventType == et {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if len(query.Outcomes) > 0 {
		matched := false
		for _, o := range query.Outcomes {
			if event.Outcome == o {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if query.Keychain != "" && event.Keychain != query.Keychain {
		return false
	}
	if query.StartTime != nil && event.Timestamp.Before(*query.StartTime) {
		return false
	}
	if query.EndTime != nil && event.Timestamp.After(*query.EndTime) {
		return false
	}
	return true
}
