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
	"github.com/spf13/cobra"

	"github.com/jeremyhahn/go-pwkeychain/pkg/crypto/aead"
	"github.com/jeremyhahn/go-pwkeychain/pkg/keychain"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored keychains",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := a.store.List()
			if err != nil {
				return err
			}
			return a.printer().PrintKeychainList(names)
		},
	}
}

func newInfoCmd(a *app) *cobra.Command {
	var unlock bool

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show keychain parameters",
		Long: `Show the format version, cipher, key derivation parameters and AES-NI
availability. With --unlock the keychain is opened and the stored format
version and entry count are shown as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stored, err := a.store.Exists(a.cfg.Name)
			if err != nil {
				return err
			}

			var kc *keychain.Keychain
			if unlock {
				kc, err = a.open()
				if err != nil {
					return err
				}
			} else {
				opts := append([]keychain.Option{keychain.WithName(a.cfg.Name)}, a.keychainOptions()...)
				if stored {
					snap, err := a.store.Load(a.cfg.Name)
					if err != nil {
						return err
					}
					if snap.Padding > 0 {
						opts = append(opts, keychain.WithValuePadding(snap.Padding))
					}
				}
				kc = keychain.New(opts...)
			}
			defer kc.Close()

			return a.printer().PrintKeychainInfo(KeychainInfo{
				Info:          kc.Info(),
				FormatVersion: keychain.FormatVersion,
				AESNI:         aead.HasAESNI(),
				Stored:        stored,
			})
		},
	}
	cmd.Flags().BoolVar(&unlock, "unlock", false, "open the keychain to show its contents summary")
	return cmd
}
