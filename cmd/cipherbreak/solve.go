package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/cipherbreak/internal/config"
	"github.com/verte-zerg/cipherbreak/internal/model"
	"github.com/verte-zerg/cipherbreak/internal/solver"
	"github.com/verte-zerg/cipherbreak/internal/stats"
	"github.com/verte-zerg/cipherbreak/internal/store"
	"github.com/verte-zerg/cipherbreak/internal/tui"
	"github.com/verte-zerg/cipherbreak/internal/worker"
)

// plainProgressInterval throttles progress lines in non-interactive mode.
const plainProgressInterval = time.Second

var (
	solveCipher      string
	solveFile        string
	solveFormat      string
	solveNoSave      bool
	solvePlain       bool
	solveTimeout     time.Duration
	solveThreshold   float64
	solveMaxRestarts int
	solveMaxSweeps   int
	solveNgramSize   int
	solveSeed        int64
)

// solveResult is the json/yaml output of a solve.
type solveResult struct {
	Run     model.RunRecord   `json:"run" yaml:"run"`
	Results []model.Candidate `json:"results" yaml:"results"`
}

func newSolveCmd() *cobra.Command {
	defaults := model.DefaultSubstitutionOptions()
	cmd := &cobra.Command{
		Use:   "solve [CIPHERTEXT...]",
		Short: "Recover the key of a ciphertext (reads stdin when no text is given)",
		RunE:  runSolveCmd,
	}
	cmd.Flags().StringVarP(&solveCipher, "cipher", "c", "", "cipher id (caesar, affine, scytale, substitution, vigenere)")
	cmd.Flags().StringVarP(&solveFile, "file", "f", "", "read ciphertext from file")
	cmd.Flags().StringVar(&solveFormat, "format", "table", "output format (table, json, yaml)")
	cmd.Flags().BoolVar(&solveNoSave, "no-save", false, "do not record the run in history")
	cmd.Flags().BoolVar(&solvePlain, "plain", false, "print progress lines instead of the interactive view")
	cmd.Flags().DurationVar(&solveTimeout, "timeout", 0, "stop the search after this long (0 = no limit)")
	cmd.Flags().Float64Var(&solveThreshold, "threshold", defaults.Threshold, "substitution: rating that stops the search")
	cmd.Flags().IntVar(&solveMaxRestarts, "max-restarts", defaults.MaxRestarts, "substitution: random restarts")
	cmd.Flags().IntVar(&solveMaxSweeps, "max-sweeps", defaults.MaxSweeps, "substitution: swap sweeps per restart")
	cmd.Flags().IntVar(&solveNgramSize, "ngram-size", defaults.NgramSize, "substitution: n-gram length used to rate keys")
	cmd.Flags().Int64Var(&solveSeed, "seed", 0, "substitution: restart seed (0 = time based)")
	return cmd
}

func runSolveCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "ngrams", &ngramDir, fileCfg.Ngrams.Dir)
	applyFloatConfig(cmd, "threshold", &solveThreshold, fileCfg.Substitution.Threshold)
	applyIntConfig(cmd, "max-restarts", &solveMaxRestarts, fileCfg.Substitution.MaxRestarts)
	applyIntConfig(cmd, "max-sweeps", &solveMaxSweeps, fileCfg.Substitution.MaxSweeps)
	applyIntConfig(cmd, "ngram-size", &solveNgramSize, fileCfg.Substitution.NgramSize)
	applyInt64Config(cmd, "seed", &solveSeed, fileCfg.Substitution.Seed)

	cfg := model.SolveConfig{
		Cipher:   solveCipher,
		NgramDir: ngramDir,
		Substitution: model.SubstitutionOptions{
			Threshold:   solveThreshold,
			MaxRestarts: solveMaxRestarts,
			MaxSweeps:   solveMaxSweeps,
			NgramSize:   solveNgramSize,
			Seed:        solveSeed,
		},
		Format: solveFormat,
		Save:   !solveNoSave,
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	deps := solver.Deps{Models: newModels(cfg.NgramDir), Substitution: cfg.Substitution}
	strategy, err := solver.New(cfg.Cipher, deps)
	if err != nil {
		return err
	}
	ciphertext, err := readInput(cmd, args, solveFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	if solveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, solveTimeout)
		defer cancel()
	}

	var st *store.Store
	if cfg.Save {
		st, err = store.Open(config.DefaultDBPath())
		if err != nil {
			return fmt.Errorf("failed to open db: %w", err)
		}
		defer func() {
			if cerr := st.Close(); cerr != nil {
				logErrf("failed to close db: %v\n", cerr)
			}
		}()
	}

	run := worker.Start(ctx, strategy, deps.Models, ciphertext, worker.OnFinish(saveRun(st, slog.Default())))
	out := cmd.OutOrStdout()
	if !solvePlain && cfg.Format == "table" && isTerminal(out) {
		view := tui.NewModel(run, strategy.Name(), ciphertext)
		opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
		if !isTerminal(cmd.InOrStdin()) {
			opts = append(opts, tea.WithInputTTY())
		}
		if _, err := tea.NewProgram(view, opts...).Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			run.Cancel()
			return fmt.Errorf("failed to run TUI: %w", err)
		}
		run.Cancel()
	} else {
		followPlain(ctx, run)
	}
	summary := run.Wait()

	if err := writeSolveResult(out, cfg.Format, summary); err != nil {
		return err
	}
	if summary.Outcome == model.OutcomeFailed {
		return fmt.Errorf("solver failed: %w", summary.Err)
	}
	return nil
}

// saveRun records finished runs in st. A nil store records nothing.
func saveRun(st *store.Store, logger *slog.Logger) func(worker.Summary) {
	return func(s worker.Summary) {
		if st == nil {
			return
		}
		if err := st.InsertRun(context.Background(), s.Record(), s.TopK); err != nil {
			logger.Error("failed to save run", "run", s.ID, "err", err)
		}
	}
}

// followPlain folds run messages and prints a progress line at most once per interval
// until the run finishes.
func followPlain(ctx context.Context, run *worker.Run) {
	var state worker.State
	var lastLine time.Time
	for !state.Finished {
		select {
		case <-run.Ready():
		case <-run.Done():
		case <-ctx.Done():
			logErrln("Stopping...")
			run.Cancel()
		}
		state.ApplyAll(run.Poll())
		if time.Since(lastLine) < plainProgressInterval && !state.Finished {
			continue
		}
		lastLine = time.Now()
		best := ""
		if len(state.TopK) > 0 {
			best = fmt.Sprintf("  best %s (%.4f)", state.TopK[0].KeyText, state.TopK[0].Score)
		}
		if state.Indeterminate {
			logErrf("tried %d%s\n", state.Tried, best)
		} else {
			logErrf("tried %d/%d%s\n", state.Tried, state.Total, best)
		}
	}
}

func writeSolveResult(w io.Writer, format string, s worker.Summary) error {
	result := solveResult{Run: s.Record(), Results: s.TopK}
	if result.Results == nil {
		result.Results = []model.Candidate{}
	}
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("failed to write json: %w", err)
		}
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("failed to write yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to write yaml: %w", err)
		}
	default:
		if s.Outcome != model.OutcomeDone {
			logErrf("Run %s: %s\n", s.ID, s.Outcome)
		}
		if err := stats.RenderCandidates(w, s.TopK, outputWidth(w)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}
