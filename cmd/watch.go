package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/meysamhadeli/codaiscan/constants/lipgloss"
	"github.com/meysamhadeli/codaiscan/utils"
	"github.com/meysamhadeli/codaiscan/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Scan the project, then rescan files as they change",
	Long: `The 'watch' command runs a full scan and keeps watching the project. Every
batch of saved files is scanned again; unchanged content is answered from the
cache, so only real edits cost requests.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}
		debounce, _ := cmd.Flags().GetDuration("debounce")
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		return handleWatchCommand(ctx, rootDependencies, debounce)
	},
}

func init() {
	watchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "Quiet period before a batch of changes is scanned.")
	rootCmd.AddCommand(watchCmd)
}

func handleWatchCommand(ctx context.Context, rootDependencies *RootDependencies, debounce time.Duration) error {
	s, err := newScanner(rootDependencies)
	if err != nil {
		return err
	}

	files, err := utils.ResolveScanTargets(rootDependencies.Cwd, nil)
	if err != nil {
		return err
	}
	if len(files) > 0 {
		if err := runScan(ctx, rootDependencies, s, files); err != nil {
			return err
		}
		reportBatchTokens(rootDependencies)
	}

	w, err := watch.NewWatcher(rootDependencies.Cwd, debounce, rootDependencies.Logger)
	if err != nil {
		return err
	}
	fmt.Println(lipgloss.BlueSky.Render("Watching for changes, press Ctrl+C to stop."))

	return w.Run(ctx, func(ctx context.Context, changed []string) {
		targets, err := utils.ResolveScanTargets(rootDependencies.Cwd, changed)
		if err != nil {
			// A file removed between the event and now.
			rootDependencies.Logger.Debug("skipping changed files", rootDependencies.Logger.Args("error", err.Error()))
			return
		}
		if len(targets) == 0 {
			return
		}
		if err := runScan(ctx, rootDependencies, s, targets); err != nil && ctx.Err() == nil {
			fmt.Println(lipgloss.Red.Render(err.Error()))
		}
		reportBatchTokens(rootDependencies)
	})
}

// reportBatchTokens logs the tokens spent since the last report and starts
// counting the next batch from zero.
func reportBatchTokens(rootDependencies *RootDependencies) {
	tm := rootDependencies.TokenManagement
	total, input, output := tm.GetCurrentTokenUsage()
	rootDependencies.Logger.Info("batch tokens", rootDependencies.Logger.Args("total", total, "input", input, "output", output))
	tm.ClearToken()
}
