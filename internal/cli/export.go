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
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-pwkeychain/pkg/adapters/audit"
	"github.com/jeremyhahn/go-pwkeychain/pkg/keychain"
	"github.com/jeremyhahn/go-pwkeychain/pkg/persist"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Print the serialized keychain and its checksum",
		Long: `Print the stored keychain exactly as persisted. Text output is the
serialized keychain on the first line and its checksum on the second;
JSON output is an object with "repr" and "checksum" fields that import
accepts as is, plus "padding" when values are padded. No password is
needed since every secret stays encrypted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.store.Load(a.cfg.Name)
			if err != nil {
				return err
			}
			return a.printer().PrintSnapshot(snap)
		},
		Annotations: auditAnnotation(audit.EventKeychainExport),
	}
}

func newImportCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "import <file> [checksum-file]",
		Short: "Import a serialized keychain",
		Long: `Import a keychain from a JSON export or from a bare serialized keychain
with an optional checksum file. A JSON export carries its value padding;
a bare serialized keychain is read with the keychain.pad_values setting.
The keychain is unlocked with the master password before it is stored, so
a wrong password, a checksum mismatch or a padding mismatch leaves storage
untouched.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, structured, err := readSnapshot(args)
			if err != nil {
				return err
			}

			exists, err := a.store.Exists(a.cfg.Name)
			if err != nil {
				return err
			}
			if exists && !force {
				return fmt.Errorf("%w: %s (use --force to replace it)", persist.ErrKeychainExists, a.cfg.Name)
			}

			opts := append([]keychain.Option{keychain.WithName(a.cfg.Name)}, a.keychainOptions()...)
			kc := keychain.New(opts...)
			defer kc.Close()
			if !structured {
				snap.Padding = kc.ValuePadding()
			}

			err = a.withPassword(false, func(pw string) error {
				ok, err := kc.LoadSnapshot(pw, snap)
				if err != nil {
					return err
				}
				if !ok {
					return persist.ErrWrongPassword
				}
				return nil
			})
			if err != nil {
				return err
			}

			if err := a.store.Commit(a.cfg.Name, kc); err != nil {
				return err
			}
			return a.printer().PrintSuccess(
				fmt.Sprintf("Imported keychain %q with %d entries", a.cfg.Name, kc.Len()))
		},
		Annotations: auditAnnotation(audit.EventKeychainImport),
	}
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing keychain")
	return cmd
}

// readSnapshot reads a snapshot from a JSON export, or from a bare
// serialized keychain plus an optional checksum file. structured reports
// a JSON export, whose padding field is authoritative.
func readSnapshot(args []string) (snap keychain.Snapshot, structured bool, err error) {
	// #nosec G304 - import path is provided by the user
	data, err := os.ReadFile(args[0])
	if err != nil {
		return snap, false, fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	content := strings.TrimSpace(string(data))

	if len(args) == 1 {
		if err := json.Unmarshal([]byte(content), &snap); err == nil && snap.Repr != "" {
			return snap, true, nil
		}
	}
	snap = keychain.Snapshot{Repr: content}

	if len(args) == 2 {
		// #nosec G304 - checksum path is provided by the user
		sum, err := os.ReadFile(args[1])
		if err != nil {
			return snap, false, fmt.Errorf("failed to read %s: %w", args[1], err)
		}
		snap.Checksum = strings.TrimSpace(string(sum))
	}
	return snap, false, nil
}
