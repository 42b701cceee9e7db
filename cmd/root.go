package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dbgtable/inspect/cmd/connect"
	"github.com/dbgtable/inspect/cmd/patch"
	"github.com/dbgtable/inspect/internal/applog"
)

var (
	cfgFile string
	logFile string
	verbose bool
)

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect and patch DWARF-derived debug tables in embedded firmware",
	Long: `inspect reads the DWARF debug info of a firmware ELF image, builds a
compact table of the variables and types it exposes, and embeds that table
back into the binary at a reserved location.

Once flashed, a running target that exposes the inspect socket protocol can
be queried live with the connect subcommand: read and write named variables,
walk structs and arrays, and browse the type graph without a symbol table
on the host side.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen
// once to RootCmd.
func Execute() {
	err := RootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.inspect.yaml)")
	RootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write structured JSON logs to this file")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")
	RootCmd.AddCommand(patch.Cmd, connect.Cmd)
	cobra.OnInitialize(initConfig, initLogging)
}

// initLogging builds the process-wide slog.Logger and installs it as the
// default so patch and connect's debug-level trace calls reach it.
func initLogging() {
	logger, _, err := applog.New(logFile, verbose)
	if err != nil {
		cobra.CheckErr(err)
		return
	}
	slog.SetDefault(logger)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".inspect" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".inspect")
	}

	viper.SetEnvPrefix("INSPECT")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
