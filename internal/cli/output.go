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
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/jeremyhahn/go-pwkeychain/pkg/adapters/audit"
	"github.com/jeremyhahn/go-pwkeychain/pkg/keychain"
)

// OutputFormat defines the output format type
type OutputFormat string

const (
	OutputFormatText OutputFormat = "text"
	OutputFormatJSON OutputFormat = "json"
)

// Printer handles formatted output
type Printer struct {
	format OutputFormat
	writer io.Writer
}

// NewPrinter creates a new Printer
func NewPrinter(format string, writer io.Writer) *Printer {
	return &Printer{
		format: OutputFormat(format),
		writer: writer,
	}
}

// PrintSuccess prints a success message
func (p *Printer) PrintSuccess(message string) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status":  "success",
			"message": message,
		})
	case OutputFormatText:
		fmt.Fprintln(p.writer, message)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintError prints an error message
func (p *Printer) PrintError(err error) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		})
	default:
		fmt.Fprintf(p.writer, "Error: %v\n", err)
		return nil
	}
}

// PrintValue prints the password stored for a domain
func (p *Printer) PrintValue(domain, value string) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"domain": domain,
			"value":  value,
		})
	case OutputFormatText:
		fmt.Fprintln(p.writer, value)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintRemoved reports the outcome of a remove
func (p *Printer) PrintRemoved(domain string, removed bool) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"domain":  domain,
			"removed": removed,
		})
	case OutputFormatText:
		if removed {
			fmt.Fprintf(p.writer, "Removed %s\n", domain)
		} else {
			fmt.Fprintf(p.writer, "%s not found\n", domain)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintKeychainList prints the names of stored keychains
func (p *Printer) PrintKeychainList(names []string) error {
	switch p.format {
	case OutputFormatJSON:
		if names == nil {
			names = []string{}
		}
		return p.printJSON(map[string]interface{}{
			"keychains": names,
		})
	case OutputFormatText:
		if len(names) == 0 {
			fmt.Fprintln(p.writer, "No keychains found")
			return nil
		}
		fmt.Fprintln(p.writer, "Keychains:")
		for _, n := range names {
			fmt.Fprintf(p.writer, "  - %s\n", n)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintSnapshot prints a serialized keychain and its checksum
func (p *Printer) PrintSnapshot(snap keychain.Snapshot) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(snap)
	case OutputFormatText:
		fmt.Fprintln(p.writer, snap.Repr)
		fmt.Fprintln(p.writer, snap.Checksum)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// KeychainInfo is the payload of the info command.
type KeychainInfo struct {
	keychain.Info
	FormatVersion string `json:"format_version"`
	AESNI         bool   `json:"aes_ni"`
	Stored        bool   `json:"stored"`
}

// PrintKeychainInfo prints keychain parameters
func (p *Printer) PrintKeychainInfo(info KeychainInfo) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(info)
	case OutputFormatText:
		fmt.Fprintf(p.writer, "Keychain Information:\n")
		fmt.Fprintf(p.writer, "  Name:           %s\n", info.Name)
		fmt.Fprintf(p.writer, "  Stored:         %t\n", info.Stored)
		fmt.Fprintf(p.writer, "  State:          %s\n", info.State)
		fmt.Fprintf(p.writer, "  Format:         %s\n", info.FormatVersion)
		if info.Version != "" && info.Version != info.FormatVersion {
			fmt.Fprintf(p.writer, "  Stored Format:  %s\n", info.Version)
		}
		if info.Cipher != "" {
			fmt.Fprintf(p.writer, "  Cipher:         %s\n", info.Cipher)
			fmt.Fprintf(p.writer, "  Entries:        %d\n", info.Entries)
		}
		fmt.Fprintf(p.writer, "  KDF:            %s (%d iterations)\n", info.KDF, info.KDFIterations)
		if info.Padded {
			fmt.Fprintf(p.writer, "  Value Padding:  %d bytes\n", info.MaxValueLength)
		} else {
			fmt.Fprintf(p.writer, "  Value Padding:  off\n")
		}
		fmt.Fprintf(p.writer, "  AES-NI:         %t\n", info.AESNI)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintAuditEvents prints audit events as a table
func (p *Printer) PrintAuditEvents(events []*audit.AuditEvent) error {
	switch p.format {
	case OutputFormatJSON:
		if events == nil {
			events = []*audit.AuditEvent{}
		}
		return p.printJSON(map[string]interface{}{
			"events": events,
		})
	case OutputFormatText:
		if len(events) == 0 {
			fmt.Fprintln(p.writer, "No audit events found")
			return nil
		}
		fmt.Fprintf(p.writer, "%-20s %-16s %-8s %-16s %s\n", "TIME", "EVENT", "OUTCOME", "KEYCHAIN", "REASON")
		fmt.Fprintln(p.writer, strings.Repeat("-", 76))
		for _, e := range events {
			fmt.Fprintf(p.writer, "%-20s %-16s %-8s %-16s %s\n",
				e.Timestamp.UTC().Format(time.DateTime), e.EventType, e.Outcome, e.Keychain, e.Reason)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// PrintVersion prints build information
func (p *Printer) PrintVersion() error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"version":    Version,
			"commit":     GitCommit,
			"build_date": BuildDate,
			"go_version": runtime.Version(),
			"os":         runtime.GOOS,
			"arch":       runtime.GOARCH,
		})
	case OutputFormatText:
		fmt.Fprintf(p.writer, "pwkeychain version %s\n", Version)
		fmt.Fprintf(p.writer, "Git commit: %s\n", GitCommit)
		fmt.Fprintf(p.writer, "Build date: %s\n", BuildDate)
		fmt.Fprintf(p.writer, "Go version: %s\n", runtime.Version())
		fmt.Fprintf(p.writer, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		return nil
	default:
		return fmt.Errorf("unknown output format: %s", p.format)
	}
}

// printJSON prints data as JSON
func (p *Printer) printJSON(data interface{}) error {
	encoder := json.NewEncoder(p.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
