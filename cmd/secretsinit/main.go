package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/systmms/secretsinit/cmd/secretsinit/commands"
	"github.com/systmms/secretsinit/internal/config"
	"github.com/systmms/secretsinit/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Global flags
	var (
		noColor        bool
		debug          bool
		keepReferences bool
	)

	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "secretsinit [flags] -- <command> [args...]",
		Short: "Resolve Secrets Manager references in the environment, then exec a command",
		Long: `secretsinit scans the environment for SECRET_-prefixed variables whose
values are AWS Secrets Manager ARNs, fetches each secret, and replaces
itself with the target command. The child sees the resolved plaintext under
the prefix-stripped names; everything else passes through unchanged.

    ENV:  SECRET_DB_PASSWORD=arn:aws:secretsmanager:eu-west-1:123456789012:secret:prod/db-AbCdEf
    RUN:  secretsinit -- node server.js
    GETS: DB_PASSWORD=<plaintext>

Any resolution failure aborts before the command starts; the platform retry
of the whole invocation is the recovery path.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Args:    cobra.ArbitraryArgs,
		// Runtime failures are terminal here; usage spam would bury the
		// actual error, and main prints it once.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("debug") {
				settings.Debug = debug
			}
			if cmd.Flags().Changed("no-color") {
				settings.NoColor = noColor
			}
			if cmd.Flags().Changed("keep-references") {
				settings.KeepReferences = keepReferences
			}

			cfg.Settings = settings
			cfg.Logger = logging.New(settings.Debug, settings.NoColor)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.Run(cmd.Context(), cfg, args)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.Flags().BoolVar(&keepReferences, "keep-references", false, "Keep raw SECRET_* entries in the child environment")

	rootCmd.AddCommand(
		commands.NewDoctorCommand(cfg),
	)

	return rootCmd.Execute()
}
