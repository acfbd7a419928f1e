package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"psyfit/internal"
	"psyfit/internal/config"
	"psyfit/internal/errors"

	"github.com/spf13/cobra"
)

// globalOptions are the persistent flags shared by every subcommand
type globalOptions struct {
	envFile  string
	logLevel string
	noColor  bool
	jsonOut  bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(errors.ExitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "psyfit",
		Short: "Adaptive psychometric threshold estimation",
		Long: `psyfit estimates the stimulus level at which an observer reaches a target
proportion of correct responses, using PEST, Best-PEST or a hybrid of both.

Configuration is read from PSY_* environment variables, optionally preloaded
from an env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "Env file to preload (default: .env when present)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", os.Getenv("LOG_LEVEL"), "ERROR, WARN, INFO, DEBUG or TRACE")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored log output")
	rootCmd.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "Print results as JSON")

	rootCmd.AddCommand(
		newSimulateCmd(opts),
		newBatchCmd(opts),
		newPFCmd(opts),
		newHDICmd(opts),
	)
	return rootCmd
}

func (o *globalOptions) logger(w io.Writer) *slog.Logger {
	_, envNoColor := os.LookupEnv("NO_COLOR")
	return internal.NewLogger(w, internal.ParseLevel(o.logLevel), o.noColor || envNoColor)
}

func (o *globalOptions) loadConfig(method string) (*config.Config, error) {
	if o.envFile != "" {
		return config.LoadMethod(method, o.envFile)
	}
	return config.LoadMethod(method)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
