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

package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsEnabled(t *testing.T) {
	// Metrics should be enabled by default
	if !IsEnabled() {
		t.Error("Expected metrics to be enabled by default")
	}

	Disable()
	if IsEnabled() {
		t.Error("Expected metrics to be disabled after Disable()")
	}

	Enable()
	if !IsEnabled() {
		t.Error("Expected metrics to be enabled after Enable()")
	}
}

func TestRecordOperation(t *testing.T) {
	Enable()
	OperationsTotal.Reset()
	OperationDuration.Reset()

	RecordOperation(OpLoad, StatusSuccess, 0.25)
	RecordOperation(OpLoad, StatusSuccess, 0.20)
	RecordOperation(OpLoad, StatusDenied, 0.22)

	if got := testutil.ToFloat64(OperationsTotal.WithLabelValues(OpLoad, StatusSuccess)); got != 2 {
		t.Errorf("Expected 2 successful loads, got %v", got)
	}
	if got := testutil.ToFloat64(OperationsTotal.WithLabelValues(OpLoad, StatusDenied)); got != 1 {
		t.Errorf("Expected 1 denied load, got %v", got)
	}
	if count := testutil.CollectAndCount(OperationDuration); count != 1 {
		t.Errorf("Expected 1 histogram series, got %d", count)
	}
}

func TestRecordOperationWhenDisabled(t *testing.T) {
	Disable()
	defer Enable()

	OperationsTotal.Reset()
	RecordOperation(OpGet, StatusSuccess, 0.001)

	if count := testutil.CollectAndCount(OperationsTotal); count != 0 {
		t.Errorf("Expected 0 operations when disabled, got %d", count)
	}
}

func TestRecordError(t *testing.T) {
	Enable()
	ErrorsTotal.Reset()

	RecordError(OpGet, ErrorTypeIntegrity)
	RecordError(OpGet, ErrorTypeIntegrity)
	RecordError(OpSet, ErrorTypeNotReady)

	if got := testutil.ToFloat64(ErrorsTotal.WithLabelValues(OpGet, ErrorTypeIntegrity)); got != 2 {
		t.Errorf("Expected 2 integrity errors, got %v", got)
	}
	if count := testutil.CollectAndCount(ErrorsTotal); count != 2 {
		t.Errorf("Expected 2 error series, got %d", count)
	}
}

func TestRecordErrorWhenDisabled(t *testing.T) {
	Disable()
	defer Enable()

	ErrorsTotal.Reset()
	RecordError(OpLoad, ErrorTypeMalformed)

	if count := testutil.CollectAndCount(ErrorsTotal); count != 0 {
		t.Errorf("Expected 0 errors when disabled, got %d", count)
	}
}

func TestEntriesGauge(t *testing.T) {
	Enable()
	Entries.Reset()

	SetEntries("personal", 3)
	SetEntries("work", 7)
	if got := testutil.ToFloat64(Entries.WithLabelValues("personal")); got != 3 {
		t.Errorf("Expected 3 entries, got %v", got)
	}

	SetEntries("personal", 2)
	if got := testutil.ToFloat64(Entries.WithLabelValues("personal")); got != 2 {
		t.Errorf("Expected 2 entries after update, got %v", got)
	}

	DeleteEntries("work")
	if count := testutil.CollectAndCount(Entries); count != 1 {
		t.Errorf("Expected 1 gauge series after delete, got %d", count)
	}
}

func TestMetricsNamespace(t *testing.T) {
	if Namespace != "pwkeychain" {
		t.Errorf("Expected namespace 'pwkeychain', got %q", Namespace)
	}
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "test_total",
		Help:      "test counter",
	})
	reg.MustRegister(counter)
	counter.Add(3)

	path := filepath.Join(t.TempDir(), "pwkeychain.prom")
	if err := WriteTextfileFrom(reg, path); err != nil {
		t.Fatalf("WriteTextfileFrom() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), "pwkeychain_test_total 3") {
		t.Errorf("textfile missing counter sample:\n%s", data)
	}

	if err := WriteTextfileFrom(reg, ""); err == nil {
		t.Error("Expected error for empty path")
	}
}

func TestNamespaceGatherer(t *testing.T) {
	reg := prometheus.NewRegistry()
	ours := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "kept_total",
		Help:      "kept",
	})
	other := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "go",
		Name:      "dropped_total",
		Help:      "dropped",
	})
	reg.MustRegister(ours, other)
	ours.Inc()
	other.Inc()

	families, err := NamespaceGatherer(reg).Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if len(families) != 1 {
		t.Fatalf("Expected 1 family, got %d", len(families))
	}
	if got := families[0].GetName(); got != "pwkeychain_kept_total" {
		t.Errorf("Expected pwkeychain_kept_total, got %s", got)
	}
}

func TestConcurrentMetricUpdates(t *testing.T) {
	Enable()
	OperationsTotal.Reset()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				RecordOperation(OpSet, StatusSuccess, 0.001)
			}
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(OperationsTotal.WithLabelValues(OpSet, StatusSuccess)); got != 1000 {
		t.Errorf("Expected 1000 operations, got %v", got)
	}
}

func BenchmarkRecordOperation(b *testing.B) {
	Enable()
	for i := 0; i < b.N; i++ {
		RecordOperation(OpGet, StatusSuccess, 0.001)
	}
}
