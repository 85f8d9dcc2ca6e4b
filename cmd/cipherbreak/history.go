package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/cipherbreak/internal/config"
	"github.com/verte-zerg/cipherbreak/internal/model"
	"github.com/verte-zerg/cipherbreak/internal/stats"
	"github.com/verte-zerg/cipherbreak/internal/store"
)

const defaultHistoryLast = 20

var (
	historyCipher string
	historySince  string
	historyLast   int
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded solver runs",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historyCipher, "cipher", "", "cipher filter")
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&historyLast, "last", defaultHistoryLast, "limit to last N runs (0 = all)")

	cmd.AddCommand(&cobra.Command{
		Use:   "show ID",
		Short: "Show one run with its best candidates",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryShowCmd,
	})
	return cmd
}

func openStore() (*store.Store, error) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		logErrf("failed to close db: %v\n", cerr)
	}
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	filter := model.HistoryFilter{Cipher: historyCipher, Limit: historyLast}
	if historySince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", historySince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		filter.Since = &parsed
	}
	if historyLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	runs, err := st.ListRuns(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	out := cmd.OutOrStdout()
	if err := stats.RenderHistory(out, runs, outputWidth(out)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func runHistoryShowCmd(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	rec, results, err := st.GetRun(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	out := cmd.OutOrStdout()
	if err := stats.RenderRun(out, rec, results, outputWidth(out)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
