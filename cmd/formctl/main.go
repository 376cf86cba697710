// formctl is the offline analysis CLI: it scores recorded capture files
// against exercise templates and prints per-frame tables or session
// summaries without a running daemon.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kinetic-data/form.report/internal/units"
	"github.com/kinetic-data/form.report/internal/version"
)

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:     "formctl",
	Short:   "Score recorded exercise captures against form templates.",
	Long:    `formctl replays recorded pose capture files through the scoring engine, producing per-frame scores, rep counts, and session summaries offline.`,
	Version: version.Version,

	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	PersistentPreRunE:  validateGlobalFlags,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Check if a specific config file is provided
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".formreport")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	// Set environment variable prefix
	viper.SetEnvPrefix("FORMREPORT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Set defaults in Viper
	viper.SetDefault("output", tableOut)
	viper.SetDefault("units", units.Degrees)
	viper.SetDefault("precision", 1)
	viper.SetDefault("exercise", "squat")
	viper.SetDefault("tuning", "")
	viper.SetDefault("templates", "")
	viper.SetDefault("output-file", "")

	// Read config file if present; absence is fine, we fall back to
	// defaults, env, and flags.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "warning: cannot read config file: %v\n", err)
		}
	}
}

// validateGlobalFlags rejects bad values for the shared output flags before
// any command runs.
func validateGlobalFlags(_ *cobra.Command, _ []string) error {
	if unit := viper.GetString("units"); !units.IsValid(unit) {
		return fmt.Errorf("invalid units %q: must be one of %s", unit, units.GetValidUnitsString())
	}
	switch out := viper.GetString("output"); out {
	case tableOut, jsonOut, csvOut:
	default:
		return fmt.Errorf("invalid output format %q: must be table, json, or csv", out)
	}
	return nil
}

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add subcommands to the root command
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(templatesCmd)
	rootCmd.AddCommand(versionCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().StringP("output", "o", tableOut, "Output format: table or json or csv")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().StringP("units", "u", units.Degrees, "Angle display units: "+units.GetValidUnitsString())
	rootCmd.PersistentFlags().Int("precision", 1, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("tuning", "", "Path to a tuning config JSON file")
	rootCmd.PersistentFlags().String("templates", "", "Path to an exercise template JSON file loaded on top of the builtins")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding root flags: %v\n", err)
		os.Exit(1)
	}

	// Per-command exercise selection; an explicit flag wins over the
	// config/env value.
	scoreCmd.Flags().StringP("exercise", "e", "", "Exercise template to score against (default from config: squat)")
	summaryCmd.Flags().StringP("exercise", "e", "", "Exercise template to score against (default from config: squat)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
