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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-pwkeychain/internal/password"
	"github.com/jeremyhahn/go-pwkeychain/pkg/adapters/audit"
	"github.com/jeremyhahn/go-pwkeychain/pkg/keychain"
	"github.com/jeremyhahn/go-pwkeychain/pkg/persist"
)

var (
	// ErrEntryNotFound is returned by get when the domain has no entry.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrConfirmationRequired is returned by destructive commands run
	// without --yes.
	ErrConfirmationRequired = errors.New("confirmation required")
)

func newInitCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a new keychain",
		Long: `Create a new, empty keychain protected by a master password.

An existing keychain with the same name is only replaced with --force.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withPassword(true, func(pw string) error {
				kc, err := a.store.Create(a.cfg.Name, pw, force, a.keychainOptions()...)
				if errors.Is(err, persist.ErrKeychainExists) {
					return fmt.Errorf("%w (use --force to replace it)", err)
				}
				if err != nil {
					return err
				}
				defer kc.Close()
				return a.printer().PrintSuccess(fmt.Sprintf("Initialized keychain %q", a.cfg.Name))
			})
		},
		Annotations: auditAnnotation(audit.EventKeychainCreate),
	}
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing keychain")
	return cmd
}

func newSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <domain> [value]",
		Short: "Store the password for a domain",
		Long: `Store the password for a domain, replacing any previous one.

If value is omitted it is prompted for without echo, or read from the next
line of stdin when stdin is not a terminal.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kc, err := a.open()
			if err != nil {
				return err
			}
			defer kc.Close()

			domain := args[0]
			value, err := a.entryValue(domain, args[1:])
			if err != nil {
				return err
			}
			defer value.Clear()

			s, err := value.String()
			if err != nil {
				return err
			}
			if err := kc.Set(domain, s); err != nil {
				return err
			}
			if err := a.store.Commit(a.cfg.Name, kc); err != nil {
				return err
			}
			return a.printer().PrintSuccess(fmt.Sprintf("Stored %s", domain))
		},
		Annotations: auditAnnotation(audit.EventEntrySet),
	}
}

// entryValue returns the value argument or reads it interactively.
func (a *app) entryValue(domain string, args []string) (*password.ClearPassword, error) {
	if len(args) > 0 {
		return password.FromString(args[0]), nil
	}
	prompter := password.NewPrompter(a.stdinFd, a.stderr)
	if !prompter.IsTerminal() {
		return password.ReadLine(a.stdin)
	}
	return prompter.Prompt(fmt.Sprintf("Password for %s: ", domain))
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <domain>",
		Short: "Print the password stored for a domain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kc, err := a.open()
			if err != nil {
				return err
			}
			defer kc.Close()

			domain := args[0]
			value, found, err := kc.Get(domain)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("%w: %s", ErrEntryNotFound, domain)
			}
			return a.printer().PrintValue(domain, value)
		},
		Annotations: auditAnnotation(audit.EventEntryGet),
	}
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <domain>",
		Aliases: []string{"rm"},
		Short:   "Remove the password stored for a domain",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kc, err := a.open()
			if err != nil {
				return err
			}
			defer kc.Close()

			domain := args[0]
			removed, err := kc.Remove(domain)
			if err != nil {
				return err
			}
			if removed {
				if err := a.store.Commit(a.cfg.Name, kc); err != nil {
					return err
				}
			}
			return a.printer().PrintRemoved(domain, removed)
		},
		Annotations: auditAnnotation(audit.EventEntryRemove),
	}
}

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the master password and the keychain checksum",
		Long: `Open the keychain with checksum verification regardless of the
keychain.verify_checksum setting. Fails when no checksum is stored.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.store.Load(a.cfg.Name)
			if err != nil {
				return err
			}
			if snap.Checksum == "" {
				return fmt.Errorf("%w: %s", persist.ErrChecksumMissing, a.cfg.Name)
			}

			strict, err := persist.New(a.backend, persist.WithLogger(a.log))
			if err != nil {
				return err
			}
			var kc *keychain.Keychain
			err = a.withPassword(false, func(pw string) error {
				kc, err = strict.Open(a.cfg.Name, pw, a.keychainOptions()...)
				return err
			})
			if err != nil {
				return err
			}
			defer kc.Close()

			return a.printer().PrintSuccess(
				fmt.Sprintf("Keychain %q verified: %d entries", a.cfg.Name, kc.Len()))
		},
		Annotations: auditAnnotation(audit.EventKeychainVerify),
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete the keychain",
		Long:  `Delete the stored keychain after checking the master password.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("%w: pass --yes to delete keychain %q", ErrConfirmationRequired, a.cfg.Name)
			}
			kc, err := a.open()
			if err != nil {
				return err
			}
			_ = kc.Close()

			if err := a.store.Delete(a.cfg.Name); err != nil {
				return err
			}
			return a.printer().PrintSuccess(fmt.Sprintf("Deleted keychain %q", a.cfg.Name))
		},
		Annotations: auditAnnotation(audit.EventKeychainDelete),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm deletion")
	return cmd
}
