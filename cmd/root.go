package cmd

import (
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/meysamhadeli/codaiscan/budget_router"
	"github.com/meysamhadeli/codaiscan/config"
	"github.com/meysamhadeli/codaiscan/constants/lipgloss"
	"github.com/meysamhadeli/codaiscan/providers"
	provider_contracts "github.com/meysamhadeli/codaiscan/providers/contracts"
	"github.com/meysamhadeli/codaiscan/token_management"
	token_contracts "github.com/meysamhadeli/codaiscan/token_management/contracts"
	"github.com/meysamhadeli/codaiscan/utils"
)

// RootDependencies is what every subcommand is built from.
type RootDependencies struct {
	Cwd             string
	Config          *config.Config
	Logger          *pterm.Logger
	TokenManagement token_contracts.ITokenManagement
	Router          *budget_router.Router
}

var rootCmd = &cobra.Command{
	Use:   "codai-scan",
	Short: "Budget-aware AI code quality scanner",
	Long: `codai-scan reviews a project with a language model while staying inside
the context window and the daily request quotas of the models you use.
Small scans send whole files, wide ones send compact fingerprints, and results
for unchanged files are answered from a local cache.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Println(config.Version)
			return nil
		}
		return cmd.Help()
	},
}

func init() {
	config.InitFlags(rootCmd)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, lipgloss.Red.Render(err.Error()))
		os.Exit(1)
	}
}

// handleRootCommand loads configuration for cmd and builds the shared
// dependencies.
func handleRootCommand(cmd *cobra.Command) (*RootDependencies, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get the current directory: %w", err)
	}

	cfg, err := config.LoadConfigs(cmd, cwd)
	if err != nil {
		return nil, err
	}

	logger := utils.NewLogger(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	for _, m := range cfg.Models {
		if m.InputTokenLimit > 0 {
			token_management.SetInputTokenLimit(m.Name, m.InputTokenLimit)
		}
	}

	return &RootDependencies{
		Cwd:             cwd,
		Config:          cfg,
		Logger:          logger,
		TokenManagement: token_management.NewTokenManager(),
		Router: budget_router.NewRouter(cwd,
			budget_router.WithLogger(logger),
			budget_router.WithProvider(cfg.Provider.Name),
			budget_router.WithModelTiers(cfg.ModelTiers())),
	}, nil
}

func (d *RootDependencies) newChatProvider() (provider_contracts.IChatAIProvider, error) {
	return providers.ChatProviderFactory(&providers.AIProviderConfig{
		Provider:        d.Config.Provider.Name,
		BaseURL:         d.Config.Provider.BaseURL,
		Model:           d.Config.Model,
		ApiKey:          d.Config.Provider.ApiKey,
		Temperature:     d.Config.Provider.Temperature,
		MaxTokens:       d.Config.Provider.MaxTokens,
		Timeout:         d.Config.ProviderTimeout(),
		TokenManagement: d.TokenManagement,
	})
}
