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

// Package metrics provides Prometheus instrumentation for keychain operations.
// It exposes operation counters, latency histograms, error counters, and an
// entry-count gauge so a host application can monitor how its keychains are
// used without ever observing names or values.
package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all keychain metrics
	Namespace = "pwkeychain"

	// Label names
	LabelOperation = "operation"
	LabelStatus    = "status"
	LabelErrorType = "error_type"
	LabelKeychain  = "keychain"

	// Status values
	StatusSuccess = "success"
	StatusError   = "error"
	StatusDenied  = "denied"

	// Operation names
	OpInit   = "init"
	OpLoad   = "load"
	OpDump   = "dump"
	OpGet    = "get"
	OpSet    = "set"
	OpRemove = "remove"
	OpSave   = "save"
	OpOpen   = "open"

	// Error types
	ErrorTypeIntegrity    = "integrity"
	ErrorTypeNotReady     = "not_ready"
	ErrorTypeMalformed    = "malformed"
	ErrorTypeValueTooLong = "value_too_long"
	ErrorTypePadding      = "padding"
	ErrorTypeStorage      = "storage"
	ErrorTypeInternal     = "internal"
)

var (
	// OperationsTotal tracks the total number of keychain operations by type and status.
	// Use RecordOperation to increment this counter with the appropriate labels.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "operations_total",
			Help:      "Total number of keychain operations by type and status",
		},
		[]string{LabelOperation, LabelStatus},
	)

	// OperationDuration tracks the duration of keychain operations in seconds.
	// Load and init are dominated by key stretching, hence the upper buckets.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of keychain operations in seconds",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{LabelOperation},
	)

	// ErrorsTotal tracks the total number of errors by operation and error type.
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_total",
			Help:      "Total number of errors by operation and error type",
		},
		[]string{LabelOperation, LabelErrorType},
	)

	// Entries tracks the number of entries held by each open keychain.
	Entries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "entries",
			Help:      "Number of entries in each open keychain",
		},
		[]string{LabelKeychain},
	)

	// enabled tracks whether metrics collection is enabled
	enabled atomic.Bool
)

func init() {
	// Metrics are enabled by default
	enabled.Store(true)
}

// RecordOperation records a keychain operation with its duration and status.
//
// Parameters:
//   - operation: The operation name (use Op* constants)
//   - status: The operation status (use Status* constants)
//   - duration: The operation duration in seconds
//
// Example:
//
//	start := time.Now()
//	ok, err := kc.Load(password, repr, checksum)
//	RecordOperation(OpLoad, StatusSuccess, time.Since(start).Seconds())
func RecordOperation(operation, status string, duration float64) {
	if !enabled.Load() {
		return
	}
	OperationsTotal.WithLabelValues(operation, status).Inc()
	OperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordError records an error event with context about where it occurred.
//
//	if errors.Is(err, keychain.ErrIntegrity) {
//	    RecordError(OpGet, ErrorTypeIntegrity)
//	}
func RecordError(operation, errorType string) {
	if !enabled.Load() {
		return
	}
	ErrorsTotal.WithLabelValues(operation, errorType).Inc()
}

// SetEntries sets the entry count for a keychain.
func SetEntries(keychain string, count int) {
	if !enabled.Load() {
		return
	}
	Entries.WithLabelValues(keychain).Set(float64(count))
}

// DeleteEntries drops the entry gauge for a keychain that has been closed.
func DeleteEntries(keychain string) {
	Entries.DeleteLabelValues(keychain)
}

// Enable enables metrics collection.
func Enable() {
	enabled.Store(true)
}

// Disable disables metrics collection.
// Useful for testing or when metrics are not desired.
func Disable() {
	enabled.Store(false)
}

// IsEnabled returns whether metrics collection is currently enabled.
func IsEnabled() bool {
	return enabled.Load()
}
