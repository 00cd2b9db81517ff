package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/meysamhadeli/codaiscan/code_analyzer/models"
	"github.com/meysamhadeli/codaiscan/config"
	"github.com/meysamhadeli/codaiscan/constants/lipgloss"
	"github.com/meysamhadeli/codaiscan/scanner"
	"github.com/meysamhadeli/codaiscan/utils"
)

var scanCmd = &cobra.Command{
	Use:   "scan [paths...]",
	Short: "Scan files or directories for code quality issues",
	Long: `The 'scan' command reviews the given files and directories (the whole project
when none are given). Unchanged files are answered from the scan cache. The
rest are packed into chunks that fit the model's context window, or into
fingerprints when the scan is wide or the daily request budget runs low.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		return handleScanCommand(ctx, rootDependencies, args)
	},
}

func init() {
	scanCmd.Flags().Int("batch_size", config.DefaultConfig.Scan.BatchSize, "Requests sent concurrently per batch.")
	scanCmd.Flags().String("strategy", "", "Force the scan strategy: 'deep' or 'fingerprint'.")
	rootCmd.AddCommand(scanCmd)
}

func scannerOptions(cfg *config.Config) scanner.Options {
	opts := scanner.DefaultOptions(cfg.Model)
	opts.BatchSize = cfg.Scan.BatchSize
	opts.Stagger = cfg.Stagger()
	opts.MaxSplitDepth = cfg.Scan.MaxSplitDepth
	opts.FingerprintThreshold = cfg.Scan.FingerprintThreshold
	opts.CacheEnabled = cfg.Scan.EnableCache
	opts.Strategy = models.ScanStrategy(strings.ToLower(cfg.Scan.Strategy))
	return opts
}

func newScanner(rootDependencies *RootDependencies) (*scanner.Scanner, error) {
	provider, err := rootDependencies.newChatProvider()
	if err != nil {
		return nil, err
	}
	return scanner.NewScanner(rootDependencies.Cwd, provider, rootDependencies.Router,
		scannerOptions(rootDependencies.Config), rootDependencies.Logger), nil
}

func handleScanCommand(ctx context.Context, rootDependencies *RootDependencies, targets []string) error {
	files, err := utils.ResolveScanTargets(rootDependencies.Cwd, targets)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println(lipgloss.Yellow.Render("No files to scan."))
		return nil
	}

	s, err := newScanner(rootDependencies)
	if err != nil {
		return err
	}
	return runScan(ctx, rootDependencies, s, files)
}

// runScan scans files, showing a spinner on interactive text output, and
// prints the result in the configured format.
func runScan(ctx context.Context, rootDependencies *RootDependencies, s *scanner.Scanner, files []string) error {
	format := strings.ToLower(rootDependencies.Config.Output)

	var spinner *pterm.SpinnerPrinter
	if format == "text" && utils.IsTerminal(os.Stdout) {
		spinner, _ = pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgLightBlue)).
			WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").
			WithDelay(100).WithRemoveWhenDone(true).
			Start(fmt.Sprintf("Scanning %d files...", len(files)))
		s.OnProgress(func(done, total int) {
			spinner.UpdateText(fmt.Sprintf("Scanned %d/%d chunks...", done, total))
		})
	}

	result, scanErr := s.Scan(ctx, files)
	if spinner != nil {
		_ = spinner.Stop()
	}
	if result != nil {
		if err := writeResult(os.Stdout, rootDependencies.Cwd, result, format, rootDependencies.Config.Theme); err != nil {
			return err
		}
	}
	return scanErr
}
