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

package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-pwkeychain/pkg/adapters/audit"
)

// ErrAuditDisabled is returned by the audit command when no audit trail is
// kept.
var ErrAuditDisabled = errors.New("audit trail is disabled")

func newAuditCmd(a *app) *cobra.Command {
	var (
		limit     int
		eventType string
		all       bool
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the audit trail",
		Long: `Show recorded keychain operations, newest first. Events name the
keychain and the outcome only; domains and values are never recorded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.audit == nil {
				return ErrAuditDisabled
			}

			query := &audit.EventQuery{Limit: limit}
			if !all {
				query.Keychain = a.cfg.Name
			}
			if eventType != "" {
				query.EventTypes = []audit.EventType{audit.EventType(eventType)}
			}

			events, err := a.audit.GetEvents(cmd.Context(), query)
			if err != nil {
				return err
			}
			return a.printer().PrintAuditEvents(events)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of events (0 for all)")
	cmd.Flags().StringVar(&eventType, "type", "", "only show events of this type (e.g. entry.get)")
	cmd.Flags().BoolVar(&all, "all", false, "include events of every keychain")
	return cmd
}
