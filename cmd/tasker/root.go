package main

import (
	"fmt"
	"os"

	"github.com/chepyr/task-scheduler/internal/config"
	"github.com/chepyr/task-scheduler/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// env carries what every command needs once the root has run.
type env struct {
	cfg *config.Config
	log *zap.Logger
}

var (
	cfgFile string
	envFile string
	current = &env{log: zap.NewNop()}
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tasker",
		Short: "tasker - a personal task tracker",
		Long: `tasker keeps a per-user list of tasks with due dates and priorities.

Run "tasker serve" for the HTTP API, or use the register, login and task
commands directly against the same data directory.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = current.log.Sync()
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./tasker.yaml)")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load")

	root.AddCommand(newServeCmd())
	root.AddCommand(newRegisterCmd())
	root.AddCommand(newLoginCmd())
	root.AddCommand(newTaskCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.Options{ConfigFile: cfgFile, EnvFile: envFile})
	if err != nil {
		return err
	}

	l := logger.New()
	if err := l.Init(cfg.LogLevel, cfg.Environment == config.EnvDevelopment); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", cfg.LogLevel, err)
	}

	current = &env{cfg: cfg, log: l.Log}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "version",
		Short:             "Print the version",
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), cmd.Root().Version)
		},
	}
}

// Execute runs the root command
func Execute(version string) error {
	root := newRootCmd()
	root.Version = version
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
