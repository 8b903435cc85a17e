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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jeremyhahn/go-pwkeychain/internal/config"
	"github.com/jeremyhahn/go-pwkeychain/internal/password"
	"github.com/jeremyhahn/go-pwkeychain/pkg/adapters/audit"
	"github.com/jeremyhahn/go-pwkeychain/pkg/adapters/logger"
	"github.com/jeremyhahn/go-pwkeychain/pkg/correlation"
	"github.com/jeremyhahn/go-pwkeychain/pkg/keychain"
	"github.com/jeremyhahn/go-pwkeychain/pkg/metrics"
	"github.com/jeremyhahn/go-pwkeychain/pkg/persist"
	"github.com/jeremyhahn/go-pwkeychain/pkg/storage"
)

const (
	// annotationNoSetup marks commands that run without configuration or
	// storage.
	annotationNoSetup = "pwkeychain/no-setup"

	// annotationAuditEvent names the audit event a command records.
	annotationAuditEvent = "pwkeychain/audit-event"
)

func auditAnnotation(t audit.EventType) map[string]string {
	return map[string]string{annotationAuditEvent: string(t)}
}

// app carries the state shared by one CLI invocation.
type app struct {
	cfg      *Config
	v        *viper.Viper
	settings *config.Config
	slog     *logger.SlogAdapter
	log      logger.Logger
	backend  storage.Backend
	store    *persist.Store
	audit    audit.AuditAdapter

	requestID string

	stdin   *bufio.Reader
	stdinFd int
	stdout  io.Writer
	stderr  io.Writer
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	fd := -1
	if f, ok := in.(*os.File); ok {
		fd = int(f.Fd())
	}
	return &app{
		cfg:     NewConfig(),
		log:     logger.NoOpLogger{},
		stdin:   bufio.NewReader(in),
		stdinFd: fd,
		stdout:  out,
		stderr:  errOut,
	}
}

// Execute runs the root command against the process arguments and
// standard streams.
func Execute() error {
	return newApp(os.Stdin, os.Stdout, os.Stderr).execute(os.Args[1:])
}

func (a *app) execute(args []string) error {
	root := newRootCommand(a)
	root.SetArgs(args)
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	cmd, err := root.ExecuteC()
	a.recordAudit(cmd, err)
	if cerr := a.close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		_ = NewPrinter(a.cfg.OutputFormat, a.stderr).PrintError(err) // best-effort
	}
	return err
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "pwkeychain",
		Short: "pwkeychain - encrypted password keychain",
		Long: `pwkeychain stores one password per domain in an encrypted keychain.

Domain names are hidden behind an HMAC and every password is sealed with
AES-GCM under a key derived from the master password with PBKDF2. A
SHA-256 checksum of the serialized keychain is stored next to it and
verified on every open, so rollback and tampering are detected.

The master password is read from PWKEYCHAIN_PASSWORD, from stdin with
--password-stdin, or from an interactive prompt.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.cfg.OutputFormat = a.v.GetString("output")
			if cmd.Annotations[annotationNoSetup] == "true" {
				return nil
			}
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.slog != nil {
				a.slog.DebugContext(cmd.Context(), "command completed", logger.String("command", cmd.Name()))
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfg.ConfigFile, "config", "",
		"config file (default is $HOME/.pwkeychain/config.yaml)")
	flags.StringVarP(&a.cfg.Name, "name", "n", a.cfg.Name,
		"keychain to operate on")
	flags.StringVar(&a.cfg.Backend, "backend", a.cfg.Backend,
		"storage backend (file, memory)")
	flags.StringVar(&a.cfg.DataDir, "data-dir", a.cfg.DataDir,
		"directory for keychain storage (file backend)")
	flags.StringVarP(&a.cfg.OutputFormat, "output", "o", a.cfg.OutputFormat,
		"output format (text, json)")
	flags.BoolVarP(&a.cfg.Verbose, "verbose", "v", false,
		"verbose output")
	flags.BoolVar(&a.cfg.PasswordStdin, "password-stdin", false,
		"read the master password from the first line of stdin")

	v, err := newViper(flags)
	if err != nil {
		// every bound flag is defined above
		panic(err)
	}
	a.v = v

	root.AddCommand(
		newInitCmd(a),
		newSetCmd(a),
		newGetCmd(a),
		newRemoveCmd(a),
		newVerifyCmd(a),
		newDeleteCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newListCmd(a),
		newInfoCmd(a),
		newAuditCmd(a),
		newVersionCmd(a),
	)
	return root
}

// setup resolves configuration and opens storage.
func (a *app) setup(cmd *cobra.Command) error {
	if a.cfg.ConfigFile == "" && !a.v.IsSet("config") {
		a.cfg.ConfigFile = defaultConfigFile()
	}
	settings, err := a.cfg.resolve(a.v)
	if err != nil {
		return err
	}
	a.settings = settings

	level, err := logger.ParseLevel(settings.Logging.Level)
	if err != nil {
		return err
	}
	ctx, id := correlation.Ensure(cmd.Context(), os.Getenv(correlation.EnvCorrelationID))
	cmd.SetContext(ctx)
	a.requestID = id

	a.slog = logger.NewSlogAdapter(&logger.SlogConfig{
		Level:  level,
		Format: settings.Logging.Format,
		Output: a.stderr,
	})
	a.log = a.slog.With(logger.String("correlation_id", id))

	if settings.Metrics.Enabled {
		metrics.Enable()
	} else {
		metrics.Disable()
	}

	backend, err := CreateStorage(settings)
	if err != nil {
		return err
	}
	a.backend = backend

	store, err := persist.New(backend,
		persist.WithLogger(a.log),
		persist.WithChecksumVerification(settings.Keychain.VerifyChecksum))
	if err != nil {
		return err
	}
	a.store = store

	if settings.Audit.Enabled {
		a.audit, err = audit.NewStorageAuditAdapter(backend, settings.Audit.MaxEvents)
		if err != nil {
			return err
		}
	}

	a.log.Debug("configuration loaded",
		logger.String("keychain", settings.Keychain.Name),
		logger.String("backend", settings.Storage.Backend),
		logger.Bool("verify_checksum", settings.Keychain.VerifyChecksum))
	return nil
}

// recordAudit logs the outcome of an audited command. Failures to write
// the audit trail are logged and do not fail the command.
func (a *app) recordAudit(cmd *cobra.Command, cmdErr error) {
	if a.audit == nil || cmd == nil {
		return
	}
	eventType := cmd.Annotations[annotationAuditEvent]
	if eventType == "" {
		return
	}

	event := &audit.AuditEvent{
		EventType: audit.EventType(eventType),
		Outcome:   audit.OutcomeSuccess,
		Keychain:  a.cfg.Name,
		Backend:   a.cfg.Backend,
		RequestID: a.requestID,
	}
	if cmdErr != nil {
		event.Outcome = audit.OutcomeFailure
		if errors.Is(cmdErr, persist.ErrWrongPassword) {
			event.Outcome = audit.OutcomeDenied
		}
		event.Reason = failureReason(cmdErr)
	}
	if err := a.audit.LogEvent(context.Background(), event); err != nil {
		a.log.Warn("failed to record audit event", logger.Error(err))
	}
}

// failureReason classifies err without revealing its text, which may
// contain a domain name.
func failureReason(err error) string {
	switch {
	case errors.Is(err, persist.ErrWrongPassword):
		return "wrong_password"
	case errors.Is(err, keychain.ErrIntegrity):
		return "integrity"
	case errors.Is(err, keychain.ErrMalformed):
		return "malformed"
	case errors.Is(err, keychain.ErrValueTooLong):
		return "value_too_long"
	case errors.Is(err, keychain.ErrPaddingMismatch):
		return "padding_mismatch"
	case errors.Is(err, persist.ErrKeychainNotFound), errors.Is(err, ErrEntryNotFound):
		return "not_found"
	case errors.Is(err, persist.ErrKeychainExists):
		return "exists"
	case errors.Is(err, ErrConfirmationRequired):
		return "confirmation_required"
	default:
		return "error"
	}
}

// close flushes metrics and releases storage.
func (a *app) close() error {
	var firstErr error
	if a.settings != nil && a.settings.Metrics.Enabled && a.settings.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(a.settings.Metrics.Textfile); err != nil {
			a.log.Warn("failed to write metrics textfile", logger.Error(err))
			firstErr = err
		}
	}
	if a.backend != nil {
		if err := a.backend.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close storage: %w", err)
		}
		a.backend = nil
	}
	return firstErr
}

func (a *app) printer() *Printer {
	return NewPrinter(a.cfg.OutputFormat, a.stdout)
}

func (a *app) keychainOptions() []keychain.Option {
	return KeychainOptions(a.settings, a.log)
}

// masterPassword obtains the master password. With confirm set, an
// interactive prompt asks twice.
func (a *app) masterPassword(confirm bool) (*password.ClearPassword, error) {
	if a.v.IsSet("password") {
		return password.FromString(a.v.GetString("password")), nil
	}
	prompter := password.NewPrompter(a.stdinFd, a.stderr)
	if a.cfg.PasswordStdin || !prompter.IsTerminal() {
		return password.ReadLine(a.stdin)
	}
	if confirm {
		return prompter.PromptConfirm("New master password: ", "Confirm master password: ")
	}
	return prompter.Prompt("Master password: ")
}

// withPassword runs fn with the master password as a string and clears the
// password buffer afterwards.
func (a *app) withPassword(confirm bool, fn func(pw string) error) error {
	pw, err := a.masterPassword(confirm)
	if err != nil {
		return err
	}
	defer pw.Clear()

	s, err := pw.String()
	if err != nil {
		return err
	}
	return fn(s)
}

// open unlocks the configured keychain.
func (a *app) open() (*keychain.Keychain, error) {
	var kc *keychain.Keychain
	err := a.withPassword(false, func(pw string) error {
		var err error
		kc, err = a.store.Open(a.cfg.Name, pw, a.keychainOptions()...)
		return err
	})
	return kc, err
}

func defaultConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".pwkeychain", "config.yaml")
}
