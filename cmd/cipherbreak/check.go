package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/cipherbreak/internal/check"
	"github.com/verte-zerg/cipherbreak/internal/config"
	"github.com/verte-zerg/cipherbreak/internal/corpus"
	"github.com/verte-zerg/cipherbreak/internal/model"
	"github.com/verte-zerg/cipherbreak/internal/solver"
	"github.com/verte-zerg/cipherbreak/internal/stats"
)

const (
	defaultCheckSamples    = 10
	defaultCheckMinLetters = 300
)

var (
	checkCiphers    string
	checkSamples    int
	checkMinLetters int
	checkSeed       int64
	checkParallel   int
	checkTimeout    time.Duration
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [CORPUS_FILE...]",
		Short: "Measure how often solvers recover random corpus samples",
		RunE:  runCheckCmd,
	}
	cmd.Flags().StringVar(&checkCiphers, "ciphers", strings.Join(solver.IDs(), ","), "comma-separated cipher ids")
	cmd.Flags().IntVar(&checkSamples, "samples", defaultCheckSamples, "samples per cipher")
	cmd.Flags().IntVar(&checkMinLetters, "min-letters", defaultCheckMinLetters, "minimum letters per sample")
	cmd.Flags().Int64Var(&checkSeed, "seed", 0, "sample seed (0 = time based)")
	cmd.Flags().IntVar(&checkParallel, "parallel", runtime.NumCPU(), "samples solved concurrently")
	cmd.Flags().DurationVar(&checkTimeout, "timeout", time.Minute, "per-sample time limit (0 = none)")
	return cmd
}

func runCheckCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "ngrams", &ngramDir, fileCfg.Ngrams.Dir)
	if checkSamples <= 0 {
		return fmt.Errorf("--samples must be > 0")
	}
	if checkParallel <= 0 {
		return fmt.Errorf("--parallel must be > 0")
	}

	text := corpus.English()
	if len(args) > 0 {
		text, err = corpus.Load(args...)
		if err != nil {
			return err
		}
	}
	seed := checkSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	sub := substitutionFromConfig(fileCfg.Substitution)
	if err := config.Validate(sub); err != nil {
		return fmt.Errorf("invalid [substitution] config: %w", err)
	}

	var ciphers []string
	for _, id := range strings.Split(checkCiphers, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ciphers = append(ciphers, id)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	runner := check.Runner{
		Deps:       solver.Deps{Models: newModels(ngramDir), Substitution: sub},
		Paragraphs: corpus.Paragraphs(text),
	}
	logErrf("Checking %s with %d samples each (seed %d)...\n", strings.Join(ciphers, ", "), checkSamples, seed)
	results, err := runner.Run(ctx, check.Options{
		Ciphers:    ciphers,
		Samples:    checkSamples,
		MinLetters: checkMinLetters,
		Seed:       seed,
		Parallel:   checkParallel,
		Timeout:    checkTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to run check: %w", err)
	}
	summaries, err := check.Summarize(results)
	if err != nil {
		return fmt.Errorf("failed to summarize check: %w", err)
	}
	if err := stats.RenderCheck(cmd.OutOrStdout(), summaries); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// substitutionFromConfig overlays file settings on the substitution defaults.
func substitutionFromConfig(fc config.SubstitutionConfig) model.SubstitutionOptions {
	opts := model.DefaultSubstitutionOptions()
	if fc.Threshold != nil {
		opts.Threshold = *fc.Threshold
	}
	if fc.MaxRestarts != nil {
		opts.MaxRestarts = *fc.MaxRestarts
	}
	if fc.MaxSweeps != nil {
		opts.MaxSweeps = *fc.MaxSweeps
	}
	if fc.NgramSize != nil {
		opts.NgramSize = *fc.NgramSize
	}
	if fc.Seed != nil {
		opts.Seed = *fc.Seed
	}
	return opts
}
