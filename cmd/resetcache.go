package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/meysamhadeli/codaiscan/code_analyzer"
	"github.com/meysamhadeli/codaiscan/constants/lipgloss"
)

// resetCacheCmd represents the reset-cache command
var resetCacheCmd = &cobra.Command{
	Use:   "reset-cache",
	Short: "Reset the scan cache of the project",
	Long: `The 'reset-cache' command removes the stored scan results in the project's
'.codai-scan' directory so the next scan asks the model about every file again.
The request budget is kept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")
		stats, _ := cmd.Flags().GetBool("stats")

		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}
		return handleResetCacheCommand(rootDependencies, force, stats)
	},
}

func init() {
	resetCacheCmd.Flags().BoolP("force", "f", false, "Force cache reset without confirmation")
	resetCacheCmd.Flags().BoolP("stats", "s", false, "Show cache statistics instead of resetting")

	rootCmd.AddCommand(resetCacheCmd)
}

func handleResetCacheCommand(rootDependencies *RootDependencies, force bool, showStats bool) error {
	cache := code_analyzer.LoadScanCache(rootDependencies.Cwd, rootDependencies.Config.Model)

	if showStats {
		cacheStats, err := cache.GetCacheStats()
		if err != nil {
			return fmt.Errorf("could not read cache statistics: %w", err)
		}
		fmt.Println(lipgloss.Info.Render("Cache Statistics:"))
		if !rootDependencies.Config.Scan.EnableCache {
			fmt.Println("  Cache is disabled in the configuration")
		}
		fmt.Printf("  Cache File: %v\n", cacheStats["cache_file"])
		fmt.Printf("  Model: %v\n", cacheStats["model"])
		fmt.Printf("  Cached Files: %v\n", cacheStats["cached_files"])
		fmt.Printf("  Cached Issues: %v\n", cacheStats["cached_issues"])
		if size, ok := cacheStats["total_size"].(int64); ok {
			fmt.Printf("  Total Size: %.2f KB\n", float64(size)/1024)
		}
		if written, ok := cacheStats["last_written"].(string); ok {
			fmt.Printf("  Last Written: %s\n", written)
		}
		return nil
	}

	if !force {
		reader := bufio.NewReader(os.Stdin)
		fmt.Print("Are you sure you want to reset the scan cache? (y/N): ")
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Println(lipgloss.Yellow.Render("Cache reset cancelled."))
			return nil
		}
	}

	spinner, _ := pterm.DefaultSpinner.WithStyle(pterm.NewStyle(pterm.FgCyan)).
		WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").
		WithDelay(100).WithRemoveWhenDone(true).
		Start("Resetting scan cache...")

	err := cache.ClearCache()
	_ = spinner.Stop()
	if err != nil {
		return fmt.Errorf("error resetting cache: %w", err)
	}

	fmt.Println(lipgloss.Green.Render("✓ Scan cache has been reset."))
	return nil
}
