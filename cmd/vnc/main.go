package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/vnc-client/cmd/vnc/commands"
	"github.com/fivetwenty-io/vnc-client/internal/constants"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "vnc",
	Short: "VNC API server CLI",
	Long: `A command-line interface for a VNC configuration API server.

It resolves the server's capabilities from its discovery document, fails
over between API servers, and re-authenticates with keystone when a token
expires.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringP(commands.KeyConfig, "c", "", "config file (default is "+constants.DefaultConfigFile+")")
	rootCmd.PersistentFlags().StringSlice(commands.KeyHosts, nil, "API server host, overrides WEB_SERVER (repeatable)")
	rootCmd.PersistentFlags().IntP(commands.KeyPort, "p", 0, "API server port, overrides WEB_PORT")
	rootCmd.PersistentFlags().StringP(commands.KeyOutput, "o", commands.OutputFormatTable, "output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolP(commands.KeyVerbose, "v", false, "verbose output")

	// Bind flags to viper
	for _, name := range []string{commands.KeyConfig, commands.KeyHosts, commands.KeyPort, commands.KeyOutput, commands.KeyVerbose} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}

	// Add commands
	rootCmd.AddCommand(commands.NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(commands.NewHomepageCommand())
	rootCmd.AddCommand(commands.NewListCommand())
	rootCmd.AddCommand(commands.NewReadCommand())
	rootCmd.AddCommand(commands.NewDeleteCommand())
	rootCmd.AddCommand(commands.NewFQNameToIDCommand())
	rootCmd.AddCommand(commands.NewIDToFQNameCommand())
	rootCmd.AddCommand(commands.NewTokenCommand())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
