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
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// WriteTextfile writes the keychain metrics of the default registry to path
// in the Prometheus text exposition format. Short-lived processes such as
// the CLI use it to hand their counters to a node_exporter textfile
// collector. Go runtime and process metrics are left out since the
// exporter reports its own.
func WriteTextfile(path string) error {
	return WriteTextfileFrom(NamespaceGatherer(prometheus.DefaultGatherer), path)
}

// NamespaceGatherer returns a gatherer yielding only the metric families
// of g that belong to Namespace.
func NamespaceGatherer(g prometheus.Gatherer) prometheus.Gatherer {
	prefix := Namespace + "_"
	return prometheus.GathererFunc(func() ([]*dto.MetricFamily, error) {
		families, err := g.Gather()
		out := families[:0]
		for _, mf := range families {
			if strings.HasPrefix(mf.GetName(), prefix) {
				out = append(out, mf)
			}
		}
		return out, err
	})
}

// WriteTextfileFrom is WriteTextfile for an explicit gatherer.
func WriteTextfileFrom(g prometheus.Gatherer, path string) error {
	if path == "" {
		return fmt.Errorf("metrics: textfile path is required")
	}
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("metrics: write textfile: %w", err)
	}
	return nil
}
