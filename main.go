package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noelruault/ecsh/internal/app"
	"github.com/noelruault/ecsh/internal/aws"
	"github.com/noelruault/ecsh/internal/config"
	"github.com/noelruault/ecsh/internal/shell"
	"github.com/noelruault/ecsh/internal/ui"
)

var (
	flagProfile   string
	flagCluster   string
	flagService   string
	flagContainer string
	flagCommand   string
	flagLogs      bool
	flagLogLines  int32
	flagVerbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "ecsh",
	Short: "Open an interactive shell into a running ECS task",
	Long: `ecsh walks you through cluster, service and task discovery on Amazon ECS
and opens an interactive execute-command session into the chosen container.

Only tasks that are RUNNING with execute-command enabled are offered.
Cluster and service can be preselected with flags; anything left out is
chosen interactively.`,
	Example: `  AWS_PROFILE=uat-admin ecsh -t app -p uat-admin
  ecsh -l prod -s web-api -t nginx
  ecsh -l prod -s web-api -t app --logs`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	cfg := config.Load()

	rootCmd.Flags().StringVarP(&flagProfile, "profile", "p", cfg.Profile, "AWS profile name to use")
	rootCmd.Flags().StringVarP(&flagCluster, "cluster", "l", "", "target cluster name or ARN (substring match)")
	rootCmd.Flags().StringVarP(&flagService, "service", "s", "", "target service name (exact match)")
	rootCmd.Flags().StringVarP(&flagContainer, "container", "t", "", "container name to open the shell in")
	rootCmd.Flags().StringVar(&flagCommand, "command", cfg.Command, "command to run inside the container")
	rootCmd.Flags().BoolVar(&flagLogs, "logs", false, "print recent task logs instead of opening a shell")
	rootCmd.Flags().Int32Var(&flagLogLines, "log-lines", cfg.LogLines, "number of log lines per container with --logs")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	_ = rootCmd.MarkFlagRequired("container")
}

func run(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	log := zap.NewNop()
	if flagVerbose {
		var err error
		log, err = zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		defer log.Sync() //nolint:errcheck
	}

	client, err := aws.NewClientWithProfile(ctx, flagProfile, log)
	if err != nil {
		return fmt.Errorf("failed to load AWS configuration for profile %q: %w", flagProfile, err)
	}

	a := &app.App{
		AWS:      client,
		Selector: ui.ListSelector{},
		Launcher: shell.NewExecLauncher(flagProfile, flagCommand, log),
		Out:      cmd.OutOrStdout(),
		Log:      log,
	}

	return a.Run(ctx, app.Options{
		Cluster:   flagCluster,
		Service:   flagService,
		Container: flagContainer,
		Logs:      flagLogs,
		LogLines:  flagLogLines,
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
