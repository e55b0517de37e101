package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/keyhaven/keyhaven/internal/config"
	"github.com/keyhaven/keyhaven/internal/netstate"
	"github.com/keyhaven/keyhaven/pkg/vault"
)

var (
	cfgPath  string
	userName string

	cfg    *config.Config
	logger *zap.Logger
	svc    *vault.Service
)

var rootCmd = &cobra.Command{
	Use:   "keyhaven",
	Short: "keyhaven is a local credential vault with a duress mode",
	Long: `A local, single-tenant credential vault.

Entries are encrypted with a key derived from the master password and never
leave the machine. A duress password opens a plausible session backed by
decoy data instead of the real vault.`,
	SilenceUsage: true,
	// PersistentPreRunE runs before every subcommand and wires the vault.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}

		logger, err = newLogger(cfg.LogLevel)
		if err != nil {
			return err
		}
		logger = logger.With(zap.String("session_id", uuid.NewString()))

		if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
			if err := os.MkdirAll(dir, 0700); err != nil {
				return fmt.Errorf("failed to create data directory: %w", err)
			}
		}

		svc, err = vault.Open(cfg.DatabasePath, logger)
		if err != nil {
			return err
		}
		svc.SetDecoyCount(cfg.DecoyEntryCount)
		netstate.SetEnabled(cfg.NetworkEnabled)

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if svc != nil {
			if err := svc.Close(); err != nil {
				return err
			}
		}
		if logger != nil {
			_ = logger.Sync()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVarP(&userName, "user", "u", "", "Account username")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	return zcfg.Build()
}

// requireUser ensures the --user flag was given.
func requireUser() error {
	if userName == "" {
		return fmt.Errorf("--user is required")
	}
	return nil
}

// readPassword prompts for a password without echo. Piped input falls back
// to a plain line read.
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	if term.IsTerminal(int(syscall.Stdin)) {
		pw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(pw), nil
	}
	return readLine()
}

// readLine reads a single line from stdin, trimming the trailing newline.
func readLine() (string, error) {
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), nil
}

// authenticate prompts for the master password and opens a session. After a
// real login any scheduled log deletion is applied; a duress login leaves it
// armed and behaves identically on the surface.
func authenticate() (*vault.Session, error) {
	if err := requireUser(); err != nil {
		return nil, err
	}

	password, err := readPassword("Enter master password: ")
	if err != nil {
		return nil, err
	}

	sess, err := svc.Login(userName, password)
	if err != nil {
		return nil, err
	}

	if !sess.IsDuress {
		if _, err := svc.CheckPendingDeletion(sess.UserID); err != nil {
			logger.Warn("pending deletion check failed", zap.Error(err))
		}
	}

	return sess, nil
}
