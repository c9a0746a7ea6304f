// Package main provides the CLI entrypoint for reax.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/dkazakov/reax/internal/config"
	"github.com/dkazakov/reax/internal/delay"
	"github.com/dkazakov/reax/internal/export"
	"github.com/dkazakov/reax/internal/model"
	"github.com/dkazakov/reax/internal/stats"
	"github.com/dkazakov/reax/internal/statsui"
	"github.com/dkazakov/reax/internal/store"
	"github.com/dkazakov/reax/internal/trial"
	"github.com/dkazakov/reax/internal/tui"
)

const (
	defaultMode          = "visual"
	defaultInitialColor  = "black"
	defaultStimulusColor = "red"
	defaultFrequency     = 440
	defaultTrials        = 5
	defaultMinDelay      = 1.0
	defaultMaxDelay      = 3.0
)

var (
	sessionMode          string
	sessionInitialColor  string
	sessionStimulusColor string
	sessionFrequency     int
	sessionTrials        int
	sessionMinDelay      float64
	sessionMaxDelay      float64

	statsKind           string
	statsFrom           string
	statsTo             string
	statsLast           int
	statsView           string
	statsRemoveOutliers bool
	statsPlain          bool

	exportOut string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "reax",
		Short:         "TUI reaction time trainer",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runSessionCmd,
	}

	rootCmd.Flags().StringVar(&sessionMode, "mode", defaultMode, "stimulus mode: visual or audio")
	rootCmd.Flags().StringVar(&sessionInitialColor, "initial-color", defaultInitialColor, "background color before the stimulus")
	rootCmd.Flags().StringVar(&sessionStimulusColor, "stimulus-color", defaultStimulusColor, "background color of the stimulus")
	rootCmd.Flags().IntVar(&sessionFrequency, "freq", defaultFrequency, "tone frequency in Hz (audio mode)")
	rootCmd.Flags().IntVar(&sessionTrials, "trials", defaultTrials, "trials per session")
	rootCmd.Flags().Float64Var(&sessionMinDelay, "min-delay", defaultMinDelay, "minimum stimulus delay in seconds")
	rootCmd.Flags().Float64Var(&sessionMaxDelay, "max-delay", defaultMaxDelay, "maximum stimulus delay in seconds")

	rootCmd.AddCommand(newTesterCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newClearCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runSessionCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "mode", &sessionMode, fileCfg.Session.Mode)
	applyStringConfig(cmd, "initial-color", &sessionInitialColor, fileCfg.Session.InitialColor)
	applyStringConfig(cmd, "stimulus-color", &sessionStimulusColor, fileCfg.Session.StimulusColor)
	applyIntConfig(cmd, "freq", &sessionFrequency, fileCfg.Session.FrequencyHz)
	applyIntConfig(cmd, "trials", &sessionTrials, fileCfg.Session.Trials)
	applyFloatConfig(cmd, "min-delay", &sessionMinDelay, fileCfg.Session.MinDelaySec)
	applyFloatConfig(cmd, "max-delay", &sessionMaxDelay, fileCfg.Session.MaxDelaySec)

	kind, err := parseMode(sessionMode)
	if err != nil {
		return err
	}
	cfg := model.SessionConfig{
		Kind:          kind,
		Trials:        sessionTrials,
		MinDelaySec:   sessionMinDelay,
		MaxDelaySec:   sessionMaxDelay,
		InitialColor:  sessionInitialColor,
		StimulusColor: sessionStimulusColor,
		FrequencyHz:   sessionFrequency,
	}
	if !kind.Visual() {
		cfg.InitialColor = ""
		cfg.StimulusColor = ""
	} else {
		cfg.FrequencyHz = 0
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	runner, err := trial.NewRunner(cfg, delay.New())
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	program := tea.NewProgram(tui.NewSession(st, runner), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newTesterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tester",
		Short: "Run the color-cycling tester",
		Args:  cobra.NoArgs,
		RunE:  runTesterCmd,
	}
}

func runTesterCmd(_ *cobra.Command, _ []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	program := tea.NewProgram(tui.NewTester(st, delay.New()), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsKind, "kind", "", "test kind filter")
	cmd.Flags().StringVar(&statsFrom, "from", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&statsTo, "to", "", "end date, inclusive (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().StringVar(&statsView, "view", string(model.ViewAll), "grouping: all, session, day or week")
	cmd.Flags().BoolVar(&statsRemoveOutliers, "remove-outliers", false, "drop samples outside the median band")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print stats to stdout instead of starting the TUI")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "kind", &statsKind, fileCfg.Stats.Kind)
	applyStringConfig(cmd, "view", &statsView, fileCfg.Stats.View)
	applyIntConfig(cmd, "last", &statsLast, fileCfg.Stats.Last)
	applyBoolConfig(cmd, "remove-outliers", &statsRemoveOutliers, fileCfg.Stats.RemoveOutliers)

	cfg, err := buildFilterConfig()
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if statsPlain {
		return printStats(cmd, st, cfg)
	}

	program := tea.NewProgram(statsui.NewModel(st, cfg), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func printStats(cmd *cobra.Command, st *store.Store, cfg model.FilterConfig) error {
	records, err := st.LoadAll(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	records = stats.FilterRecords(records, cfg)
	out := cmd.OutOrStdout()

	if err := stats.RenderSummary(out, stats.Summarize(records)); err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	fmt.Fprintln(out)
	title := fmt.Sprintf("Reaction time by %s", cfg.View)
	if err := stats.Plot(out, title, stats.GroupSeries(records, cfg.View), 0, 0, false); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}

	fmt.Fprintln(out)
	if err := stats.RenderHourly(out, stats.HourlyBands(records)); err != nil {
		return fmt.Errorf("failed to render hourly bands: %w", err)
	}

	fmt.Fprintln(out)
	if err := stats.RenderColorAverages(out, stats.ColorAverages(records)); err != nil {
		return fmt.Errorf("failed to render color averages: %w", err)
	}

	fmt.Fprintln(out)
	if err := stats.RenderHistory(out, records); err != nil {
		return fmt.Errorf("failed to render history: %w", err)
	}
	return nil
}

func buildFilterConfig() (model.FilterConfig, error) {
	var cfg model.FilterConfig
	if statsKind != "" {
		kind, err := model.ParseKind(statsKind)
		if err != nil {
			return cfg, fmt.Errorf("invalid --kind value: %w", err)
		}
		cfg.Kind = kind
	}
	if statsFrom != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsFrom, time.Local)
		if err != nil {
			return cfg, fmt.Errorf("invalid --from value: %w", err)
		}
		cfg.From = &parsed
	}
	if statsTo != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsTo, time.Local)
		if err != nil {
			return cfg, fmt.Errorf("invalid --to value: %w", err)
		}
		cfg.To = &parsed
	}
	if statsLast < 0 {
		return cfg, fmt.Errorf("--last must be >= 0")
	}
	cfg.Last = statsLast
	view, err := model.ParseGroupView(statsView)
	if err != nil {
		return cfg, fmt.Errorf("invalid --view value: %w", err)
	}
	cfg.View = view
	cfg.RemoveOutliers = statsRemoveOutliers
	return cfg, nil
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export history as CSV",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportOut, "out", "", "output file (default: stdout)")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	records, err := st.LoadAll(context.Background())
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	if exportOut == "" {
		return export.WriteCSV(cmd.OutOrStdout(), records)
	}
	if err := os.MkdirAll(filepath.Dir(exportOut), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(exportOut)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logErrf("failed to close output file: %v\n", cerr)
		}
	}()
	if err := export.WriteCSV(f, records); err != nil {
		return err
	}
	logErrf("Wrote %s\n", exportOut)
	return nil
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Erase the whole history",
		Args:  cobra.NoArgs,
		RunE:  runClearCmd,
	}
}

func runClearCmd(cmd *cobra.Command, _ []string) error {
	fmt.Fprint(cmd.OutOrStdout(), "Erase the whole session history? [y/N] ")
	reader := bufio.NewReader(cmd.InOrStdin())
	answer, err := reader.ReadString('\n')
	if err != nil && answer == "" {
		return fmt.Errorf("failed to read answer: %w", err)
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	if answer != "y" && answer != "yes" {
		fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
		return nil
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	if err := st.ClearAll(context.Background()); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
	return nil
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
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
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

func parseMode(mode string) (model.Kind, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "visual":
		return model.KindFreeplayVisual, nil
	case "audio":
		return model.KindFreeplayAudio, nil
	}
	return "", fmt.Errorf("invalid --mode value %q (use visual or audio)", mode)
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

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# reax configuration
# Uncomment a value to enable it. CLI flags override config values.

[session]
# mode = %q            # Stimulus mode: visual or audio
# initial-color = %q   # Background color before the stimulus
# stimulus-color = %q  # Background color of the stimulus
# freq = %d            # Tone frequency in Hz (audio mode)
# trials = %d          # Trials per session
# min-delay = %.1f     # Minimum stimulus delay in seconds
# max-delay = %.1f     # Maximum stimulus delay in seconds

[stats]
# kind = "Freeplay Visual"  # Test kind filter
# view = "all"              # Grouping: all, session, day or week
# last = 0                  # Limit to last N sessions (0 = all)
# remove-outliers = false   # Drop samples outside the median band
`,
		defaultMode,
		defaultInitialColor,
		defaultStimulusColor,
		defaultFrequency,
		defaultTrials,
		defaultMinDelay,
		defaultMaxDelay,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
