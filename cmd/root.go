// Package cmd assembles the command line interface.
package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/melonguard/melonguard-go/cmd/serve"
	"github.com/melonguard/melonguard-go/internal/conf"
)

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "melonguard",
		Short: "MelonGuard-Go melon leaf disease detection server",
	}

	setupFlags(rootCmd, settings)

	rootCmd.AddCommand(serve.Command(settings))

	return rootCmd
}

// setupFlags defines global flags and binds them to viper so command line
// arguments take precedence over the config file.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) {
	cmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", settings.Debug, "Enable debug output")
	cmd.PersistentFlags().Float64VarP(&settings.Detector.Threshold, "threshold", "t", settings.Detector.Threshold, "Default confidence threshold for reporting detections")

	_ = viper.BindPFlag("debug", cmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("detector.threshold", cmd.PersistentFlags().Lookup("threshold"))
}
