package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/cipherbreak/internal/config"
	"github.com/verte-zerg/cipherbreak/internal/corpus"
	"github.com/verte-zerg/cipherbreak/internal/ngram"
	"github.com/verte-zerg/cipherbreak/internal/stats"
)

const defaultInfoTop = 20

var (
	buildSizes string
	buildOut   string
	infoN      int
	infoTop    int
)

func newNgramsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ngrams",
		Short: "Build and inspect n-gram tables",
	}

	build := &cobra.Command{
		Use:   "build CORPUS_FILE...",
		Short: "Count n-grams in corpus files and write NGRAM.txt tables",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runNgramsBuildCmd,
	}
	build.Flags().StringVar(&buildSizes, "n", "1,2,3,4", "comma-separated pattern lengths")
	build.Flags().StringVar(&buildOut, "out", "", "output directory (default: --ngrams or the data dir)")
	cmd.AddCommand(build)

	info := &cobra.Command{
		Use:   "info",
		Short: "Show statistics of an n-gram model",
		Args:  cobra.NoArgs,
		RunE:  runNgramsInfoCmd,
	}
	info.Flags().IntVar(&infoN, "n", 1, "pattern length")
	info.Flags().IntVar(&infoTop, "top", defaultInfoTop, "number of patterns to list")
	cmd.AddCommand(info)
	return cmd
}

func runNgramsBuildCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "ngrams", &ngramDir, fileCfg.Ngrams.Dir)
	outDir := buildOut
	if outDir == "" {
		outDir = ngramDir
	}
	if outDir == "" {
		outDir = config.DefaultNgramDir()
	}
	sizes, err := parseSizes(buildSizes)
	if err != nil {
		return err
	}

	text, err := corpus.Load(args...)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	for _, n := range sizes {
		counts, err := ngram.Count(strings.NewReader(text), n)
		if err != nil {
			return fmt.Errorf("failed to count %d-grams: %w", n, err)
		}
		if len(counts) == 0 {
			return fmt.Errorf("corpus has fewer than %d letters", n)
		}
		path := ngram.TablePath(outDir, n)
		if err := ngram.WriteTable(path, counts); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		logErrf("Wrote %s (%d patterns)\n", path, len(counts))
	}
	return nil
}

func runNgramsInfoCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "ngrams", &ngramDir, fileCfg.Ngrams.Dir)
	if infoN < 1 {
		return fmt.Errorf("--n must be >= 1")
	}
	m, err := newModels(ngramDir).Get(infoN)
	if err != nil {
		return fmt.Errorf("failed to load %d-gram model: %w", infoN, err)
	}
	if err := stats.RenderModelInfo(cmd.OutOrStdout(), m, infoTop); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// parseSizes parses a comma-separated list of positive pattern lengths, sorted and
// without duplicates.
func parseSizes(value string) ([]int, error) {
	seen := map[int]bool{}
	var sizes []int
	for _, field := range strings.Split(value, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid --n value %q: want positive integers", field)
		}
		if !seen[n] {
			seen[n] = true
			sizes = append(sizes, n)
		}
	}
	if len(sizes) == 0 {
		return nil, fmt.Errorf("--n must not be empty")
	}
	sort.Ints(sizes)
	return sizes, nil
}
