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

// Package audit provides an adapter interface for recording keychain
// operations, allowing calling applications to implement custom audit
// trail strategies.
//
// Events identify the keychain and the outcome of an operation. They never
// carry domain names, values or error text, since a domain name is itself
// hidden inside the keychain.
package audit

import (
	"context"
	"time"
)

// EventType represents the type of audit event
type EventType string

const (
	// Keychain lifecycle events
	EventKeychainCreate EventType = "keychain.create"
	EventKeychainOpen   EventType = "keychain.open"
	EventKeychainVerify EventType = "keychain.verify"
	EventKeychainExport EventType = "keychain.export"
	EventKeychainImport EventType = "keychain.import"
	EventKeychainDelete EventType = "keychain.delete"

	// Entry events
	EventEntryGet    EventType = "entry.get"
	EventEntrySet    EventType = "entry.set"
	EventEntryRemove EventType = "entry.remove"
)

// EventOutcome indicates the result of an operation
type EventOutcome string

const (
	OutcomeSuccess EventOutcome = "success"
	OutcomeFailure EventOutcome = "failure"
	OutcomeDenied  EventOutcome = "denied"
)

// AuditEvent represents a single audit log entry
type AuditEvent struct {
	// ID is a unique identifier for this audit event
	ID string `json:"id"`

	// Timestamp when the event occurred
	Timestamp time.Time `json:"timestamp"`

	// EventType categorizes the event
	EventType EventType `json:"event_type"`

	// Outcome indicates whether the operation succeeded
	Outcome EventOutcome `json:"outcome"`

	// Keychain is the name of the keychain operated on
	Keychain string `json:"keychain"`

	// Backend is the storage backend holding the keychain
	Backend string `json:"backend,omitempty"`

	// Reason classifies a failure (wrong_password, integrity, not_found, ...)
	Reason string `json:"reason,omitempty"`

	// RequestID correlates this event with log lines of the same invocation
	RequestID string `json:"request_id,omitempty"`
}

// AuditAdapter provides audit logging capabilities.
type AuditAdapter interface {
	// LogEvent records an audit event
	LogEvent(ctx context.Context, event *AuditEvent) error

	// GetEvents retrieves audit events based on query parameters
	GetEvents(ctx context.Context, query *EventQuery) ([]*AuditEvent, error)
}

// EventQuery provides parameters for querying audit events
type EventQuery struct {
	// EventTypes filters by event type
	EventTypes []EventType

	// Outcomes filters by outcome
	Outcomes []EventOutcome

	// Keychain filters by keychain name
	Keychain string

	// StartTime filters events after this time
	StartTime *time.Time

	// EndTime filters events before this time
	EndTime *time.Time

	// Limit limits the number of results
	Limit int

	// OrderBy specifies the field to order by (default: timestamp desc)
	OrderBy string
}
