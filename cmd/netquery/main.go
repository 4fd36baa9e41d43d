package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"netquery/internal/config"
	"netquery/internal/logging"
)

var (
	// Global flags
	configPath   string
	snapshotPath string
	profileName  string
	analyzerHost string
	debug        bool

	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "netquery",
	Short: "netquery - conversational network verification",
	Long: `netquery is a conversational assistant for a network-configuration
analysis engine. It translates natural-language verification tasks into
analyzer queries, runs them in a sandbox, and explains the tabular
results in prose.

Run without arguments to start an interactive chat session.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if analyzerHost != "" {
			cfg.Analyzer.Host = analyzerHost
		}
		if profileName != "" {
			cfg.Chat.Profile = profileName
		}
		if debug {
			cfg.Logging.Debug = true
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		return logging.Initialize(cfg.Logging.Dir, cfg.Logging.Debug)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context())
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the netquery version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("netquery %s\n", cfg.Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "netquery.yaml", "path to the configuration file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&snapshotPath, "snapshot", "", "path to the network snapshot to load")
	rootCmd.PersistentFlags().StringVar(&profileName, "profile", "", "session profile: smart or basic")
	rootCmd.PersistentFlags().StringVar(&analyzerHost, "analyzer-host", "", "analyzer service host")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
