package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/meysamhadeli/codaiscan/budget_router"
	"github.com/meysamhadeli/codaiscan/constants/lipgloss"
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Show today's request budget per model",
	Long: `The 'budget' command lists every known model with its tier, daily cap,
requests used today and what remains, together with the budget level that
decides how the next scan is run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rootDependencies, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}
		return handleBudgetCommand(rootDependencies)
	},
}

func init() {
	rootCmd.AddCommand(budgetCmd)
}

type budgetReport struct {
	Model  string                      `json:"model" yaml:"model"`
	Level  budget_router.ScanLevel     `json:"level" yaml:"level"`
	Models []budget_router.ModelStatus `json:"models" yaml:"models"`
}

func handleBudgetCommand(rootDependencies *RootDependencies) error {
	model := rootDependencies.Config.Model
	report := budgetReport{
		Model:  model,
		Level:  rootDependencies.Router.ScanLevel(model),
		Models: rootDependencies.Router.Status(model),
	}

	switch strings.ToLower(rootDependencies.Config.Output) {
	case "json":
		return writeJSON(os.Stdout, report)
	case "yaml":
		return writeYAML(os.Stdout, report)
	}

	data := pterm.TableData{{"Model", "Tier", "Daily cap", "Used", "Remaining", "Per minute"}}
	for _, row := range report.Models {
		name := row.Model
		if row.Primary {
			name += " *"
		}
		data = append(data, []string{
			name,
			row.Tier,
			limit(row.DailyCap, row.DailyCap),
			strconv.Itoa(row.Used),
			limit(row.DailyCap, row.Remaining),
			limit(row.PerMinute, row.PerMinute),
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		return err
	}
	fmt.Println(lipgloss.Info.Render(fmt.Sprintf("Budget level: %s", report.Level)))
	return nil
}

// limit prints n, or "unlimited" when the quota it belongs to is not capped.
func limit(quota, n int) string {
	if quota <= 0 {
		return "unlimited"
	}
	return strconv.Itoa(n)
}
