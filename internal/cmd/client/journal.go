package client

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	cfgpkg "github.com/MFAIZAN20/dreamcanvas/internal/config"
	"github.com/MFAIZAN20/dreamcanvas/internal/journal"
	"github.com/MFAIZAN20/dreamcanvas/internal/runtime"
	ingestsvc "github.com/MFAIZAN20/dreamcanvas/internal/services/ingest"
	logpkg "github.com/MFAIZAN20/dreamcanvas/pkg/log"
)

// ConfigFunc loads the process configuration for commands that open local
// state.
type ConfigFunc func() (cfgpkg.Config, error)

// NewJournalCommand constructs the `journal` command group. These commands
// open the data directory directly, so the ingestor must not be running.
func NewJournalCommand(loadConfig ConfigFunc, logger logpkg.Logger) *cobra.Command {
	if logger == nil {
		logger = logpkg.NewNopLogger()
	}
	journalCmd := &cobra.Command{Use: "journal", Short: "Inspect and replay failed background writes"}
	journalCmd.AddCommand(
		newJournalListCommand(loadConfig, logger),
		newJournalReplayCommand(loadConfig, logger),
		newJournalPurgeCommand(loadConfig, logger),
	)
	return journalCmd
}

func withJournal(loadConfig ConfigFunc, logger logpkg.Logger, fn func(*journal.Journal) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	j, err := journal.Open(cfg.JournalDir(), logger)
	if err != nil {
		return err
	}
	return errors.Join(fn(j), j.Close())
}

func newJournalListCommand(loadConfig ConfigFunc, logger logpkg.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journaled writes, oldest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return withJournal(loadConfig, logger, func(j *journal.Journal) error {
				entries, err := j.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				return printValue(cmd.OutOrStdout(), entries)
			})
		},
	}
	cmd.Flags().Int("limit", 0, "Maximum entries (0 = all)")
	return cmd
}

func newJournalReplayCommand(loadConfig ConfigFunc, logger logpkg.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "replay",
		Short: "Re-insert journaled writes into the store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			rt, err := runtime.Open(ctx, runtime.Options{Config: cfg, Logger: logger})
			if err != nil {
				return err
			}
			svc := ingestsvc.NewWithLogger(rt, logger)
			res, err := rt.Journal().Replay(ctx, svc.Replay)
			if cerr := rt.Close(); cerr != nil {
				err = errors.Join(err, cerr)
			}
			if err != nil {
				return err
			}
			return printValue(cmd.OutOrStdout(), res)
		},
	}
}

func newJournalPurgeCommand(loadConfig ConfigFunc, logger logpkg.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete every journaled write (requires --confirm)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			confirm, _ := cmd.Flags().GetBool("confirm")
			if !confirm {
				return fmt.Errorf("refusing to purge without --confirm")
			}
			return withJournal(loadConfig, logger, func(j *journal.Journal) error {
				n, err := j.Purge(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "purged %d entries\n", n)
				return nil
			})
		},
	}
	cmd.Flags().Bool("confirm", false, "Confirm deletion")
	return cmd
}
