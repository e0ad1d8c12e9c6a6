// Package cli wires the cobra command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/agora-quant/agora/internal/config"
	"github.com/agora-quant/agora/internal/display"
	"github.com/agora-quant/agora/internal/logging"
	"github.com/agora-quant/agora/internal/trading"
)

const version = "0.1.0"

// NewRootCmd builds the command tree. Env is loaded lazily in each RunE so
// flag parsing errors surface before config errors.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "agora",
		Short: "Agora - multi-agent trading analysis",
		Long: `Agora runs a multi-agent trading analysis pipeline: concurrent analyst
reports, a structured bull/bear debate, trade planning, risk review, and a
final persisted decision.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func loadConfig() (*config.Config, error) {
	// Optional .env file, real env always wins.
	_ = godotenv.Load()
	return config.FromEnv()
}

func newAnalyzeCmd() *cobra.Command {
	var symbol, date string
	var showReports, showMetrics bool

	cmd := &cobra.Command{
		Use:   "analyze [SYMBOL]",
		Short: "Run trading analysis for a stock symbol",
		Long: `Run a comprehensive trading analysis for a given stock ticker symbol.
Example: agora analyze AAPL --date=2024-03-15`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := logging.New(cfg)

			if len(args) > 0 {
				symbol = args[0]
			}
			if symbol == "" {
				if symbol, err = PromptForSymbol(); err != nil {
					return err
				}
			}
			if date == "" {
				if date, err = PromptForDate(); err != nil {
					return err
				}
			}

			sys, err := trading.NewSystem(cfg, log)
			if err != nil {
				return err
			}
			defer sys.Close()

			state, decision, err := sys.Run(cmd.Context(), symbol, date)
			if err != nil {
				return err
			}

			fmt.Print(display.RenderDecision(decision))
			if showReports {
				fmt.Print(display.RenderReports(state))
			}
			if showMetrics {
				fmt.Print(display.RenderMetrics(sys.Metrics()))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "", "Stock ticker symbol to analyze")
	cmd.Flags().StringVar(&date, "date", "", "Analysis date in YYYY-MM-DD format (today if not provided)")
	cmd.Flags().BoolVar(&showReports, "reports", false, "Print per-analyst report summaries")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "Print tool and analyst call metrics")

	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("agora v%s\n", version)
		},
	}
}

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			fmt.Printf("LLM base URL:       %s\n", cfg.LLMBaseURL)
			fmt.Printf("LLM model:          %s\n", cfg.LLMModel)
			fmt.Printf("DB path:            %s\n", cfg.DBPath)
			fmt.Printf("Cache TTL:          %s\n", cfg.CacheTTL)
			fmt.Printf("Debate rounds:      %d\n", cfg.MaxDebateRounds)
			fmt.Printf("Risk rounds:        %d\n", cfg.MaxRiskRounds)
			fmt.Printf("Persist threshold:  %.2f\n", cfg.PersistMinConfidence)
			fmt.Printf("Run timeout:        %s\n", cfg.RunTimeout)
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and required keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			fmt.Println("configuration is valid")
			return nil
		},
	})

	return configCmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
