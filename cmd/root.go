package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/Felis-Linux/fpkg/cmd/cache"
	"github.com/Felis-Linux/fpkg/pkg/config"
	"github.com/djcass44/go-utils/logging"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var command = &cobra.Command{
	Use:          "fpkg",
	Short:        "Keep it simple package manager",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logLevel, _ := cmd.Flags().GetInt(flagLogLevel)

		zc := zap.NewProductionConfig()
		zc.Level = zap.NewAtomicLevelAt(zapcore.Level(logLevel * -1))

		_, ctx := logging.NewZap(cmd.Context(), zc)
		cmd.SetContext(ctx)

		ignoreInterrupt(ctx)
	},
}

const (
	flagLogLevel = "v"
	flagRoot     = "root"
	flagConfig   = "config"
	flagYes      = "yes"
	flagProgress = "progress"
)

var viperConfig = config.NewViper()

func init() {
	command.PersistentFlags().Int(flagLogLevel, 0, "log level. Higher is more")
	command.PersistentFlags().String(flagRoot, "", "root filesystem to operate on (defaults to /)")
	command.PersistentFlags().StringP(flagConfig, "c", "", "path to the configuration file (defaults to <root>/etc/fpkg/config.json)")
	command.PersistentFlags().BoolP(flagYes, "y", false, "do not ask for confirmation")
	command.PersistentFlags().Bool(flagProgress, true, "show download progress when attached to a terminal")

	_ = command.MarkPersistentFlagDirname(flagRoot)
	_ = command.MarkPersistentFlagFilename(flagConfig, ".json")
	_ = viperConfig.BindPFlag(config.KeyRoot, command.PersistentFlags().Lookup(flagRoot))
	_ = viperConfig.BindPFlag(config.KeyConfig, command.PersistentFlags().Lookup(flagConfig))

	command.AddCommand(
		installCmd,
		updateCmd,
		removeCmd,
		databaseCmd,
		listCmd,
		infoCmd,
		versionCmd,
		cache.NewCommand(viperConfig),
	)
}

// ignoreInterrupt swallows the first interrupt so that a running
// transaction can finish and release its lock. A second interrupt
// terminates the process as usual.
func ignoreInterrupt(ctx context.Context) {
	log := logr.FromContextOrDiscard(ctx)

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	go func() {
		<-ch
		signal.Stop(ch)
		log.Info("interrupt received, waiting for the current operation to finish", "warning", "interrupt again to terminate")
	}()
}

func Execute(version string) {
	command.Version = version
	if err := command.ExecuteContext(context.Background()); err != nil {
		os.Exit(ExitCode(err))
	}
}
