// Package cli defines the museme command tree.
package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ttuhina/MuseMe/internal/config"
)

// Version is overridden at build time with -ldflags "-X".
var Version = "0.1.0"

// NewRootCmd builds the command tree around its own viper instance.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "museme",
		Short: "Lyrics and artist info gateway",
		Long: `MuseMe serves a small web app and an API that combines song lyrics
from lyrics.ovh with artist details from TheAudioDB in a single response.

Running museme without a subcommand starts the server.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(); err != nil {
				return err
			}
			return config.Bind(v, cfgFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), v)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	flags.String("port", "", "port to listen on (default 3000, or $PORT)")
	flags.String("asset-root", "", "directory of static assets (default ./public)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: text or json")

	_ = v.BindPFlag("port", flags.Lookup("port"))
	_ = v.BindPFlag("asset_root", flags.Lookup("asset-root"))
	_ = v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("log.format", flags.Lookup("log-format"))

	rootCmd.AddCommand(newServeCmd(v))
	rootCmd.AddCommand(newProbeCmd(v))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}
