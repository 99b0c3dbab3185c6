// Package cmd provides the root command and CLI setup for perturb.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/mouse-blink/perturb/internal/adapter"
	"github.com/mouse-blink/perturb/internal/adapter/formats"
	"github.com/mouse-blink/perturb/internal/config"
	"github.com/mouse-blink/perturb/internal/controller"
	"github.com/mouse-blink/perturb/internal/domain"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var envConfig config.Env
var toolAdapter adapter.ExperimentToolAdapter
var schedulerAdapter adapter.SchedulerAdapter
var repoAdapter adapter.RepoAdapter
var fsAdapter adapter.ExperimentFSAdapter
var workflow domain.Workflow
var ui controller.UI
var logger = logrus.StandardLogger()

func init() {
	var err error

	envConfig, err = config.LoadEnv()
	if err != nil {
		logger.WithError(err).Warn("ignoring environment overrides")
	}

	ui = controller.NewUI(rootCmd, controller.IsTTY(os.Stdout))
	toolAdapter = adapter.NewLocalPayuAdapter(envConfig.PayuBin)
	schedulerAdapter = adapter.NewLocalPBSAdapter(envConfig.QstatBin)
	repoAdapter = adapter.NewLocalGitAdapter(envConfig.GitBin)
	fsAdapter = adapter.NewLocalExperimentFSAdapter()
	workflow = domain.NewWorkflow(
		toolAdapter,
		schedulerAdapter,
		repoAdapter,
		fsAdapter,
		formats.MetadataFile{},
		logger.WithField("run", uuid.NewString()),
	)
}

var logLevelFlag string
var logFormatFlag string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "perturb",
		Short: "Perturbation experiment manager",
		Long: `Perturb expands a declarative description of parameter perturbations
into concrete experiments, clones each one from a control experiment,
applies the parameter changes to its configuration files and submits it
to the batch scheduler, skipping experiments that are already running
or already complete.

The input document defaults to ` + config.DefaultInput + ` in the current directory.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return configureLogging(logLevelFlag, logFormatFlag)
		},
	}
	cmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "info", "log level (trace, debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "", "log format: text or json (default $PERTURB_LOG_FORMAT or text)")

	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		stop()
		os.Exit(1)
	}
}

func configureLogging(level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}

	logger.SetLevel(lvl)

	if format == "" {
		format = envConfig.LogFormat
	}

	switch format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("invalid --log-format %q: want text or json", format)
	}

	return nil
}

func inputPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}

	return config.DefaultInput
}

func readSettings(args []string) (*config.Settings, error) {
	settings, err := config.Load(inputPath(args))
	if err != nil {
		return nil, err
	}

	for _, key := range settings.Ignored {
		logger.WithField("key", key).Debug("setting is handled by other tools, ignoring it")
	}

	return settings, nil
}
