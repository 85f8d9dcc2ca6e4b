// Package main provides the CLI entrypoint for cipherbreak.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/cipherbreak/internal/cipher"
	"github.com/verte-zerg/cipherbreak/internal/config"
	"github.com/verte-zerg/cipherbreak/internal/ngram"
	"github.com/verte-zerg/cipherbreak/internal/solver"
	"github.com/verte-zerg/cipherbreak/internal/stats"
)

const defaultWidth = 100

var (
	logLevel string
	ngramDir string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "cipherbreak",
		Short:         "Classical cipher toolkit and ciphertext-only solver",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setupLogging(cmd.ErrOrStderr())
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&ngramDir, "ngrams", "", "directory with NGRAM.txt tables (default: built-in tables)")

	rootCmd.AddCommand(newCiphersCmd())
	rootCmd.AddCommand(newTransformCmd("encode", "Encipher text"))
	rootCmd.AddCommand(newTransformCmd("decode", "Decipher text"))
	rootCmd.AddCommand(newSolveCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newNgramsCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newConfigCmd())
	return rootCmd
}

func setupLogging(w io.Writer) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
	return nil
}

func loadFileConfig() (config.FileConfig, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	return fileCfg, nil
}

// newModels serves tables from dir when given, falling back to the built-in tables for
// any n without a table.
func newModels(dir string) *ngram.Cache {
	sources := ngram.FallbackSource{}
	if dir != "" {
		sources = append(sources, ngram.DirSource{Dir: dir})
	}
	sources = append(sources, ngram.Embedded())
	return ngram.NewCache(sources)
}

func newCiphersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ciphers",
		Short: "List supported ciphers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := stats.RenderCiphers(cmd.OutOrStdout(), cipher.All(), solver.IDs()); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			return nil
		},
	}
}

func newTransformCmd(name, short string) *cobra.Command {
	var cipherID, key string
	cmd := &cobra.Command{
		Use:   name + " [TEXT...]",
		Short: short + " (reads stdin when no text is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ok := cipher.Lookup(cipherID)
			if !ok {
				return fmt.Errorf("unknown cipher %q (run: cipherbreak ciphers)", cipherID)
			}
			text, err := readInput(cmd, args, "")
			if err != nil {
				return err
			}
			transform := c.Decode
			if name == "encode" {
				transform = c.Encode
			}
			out, err := transform(text, key)
			if err != nil {
				return fmt.Errorf("failed to %s: %w", name, err)
			}
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), out); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&cipherID, "cipher", "c", "", "cipher id")
	cmd.Flags().StringVarP(&key, "key", "k", "", "key")
	_ = cmd.MarkFlagRequired("cipher")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

// readInput returns args joined by spaces, the contents of file, or stdin, in that order.
func readInput(cmd *cobra.Command, args []string, file string) (string, error) {
	switch {
	case len(args) > 0:
		return strings.Join(args, " "), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", file, err)
		}
		return string(data), nil
	}
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		logErrln("Reading text from stdin; finish with Ctrl-D.")
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

// outputWidth is the terminal width of w, or defaultWidth when w is not a terminal.
func outputWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return defaultWidth
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(config.Template()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyInt64Config(cmd *cobra.Command, name string, target, value *int64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyStringSliceConfig(cmd *cobra.Command, name string, target, value *[]string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
