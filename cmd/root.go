package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tphakala/tom-alerce/cmd/alert"
	"github.com/tphakala/tom-alerce/cmd/classifiers"
	"github.com/tphakala/tom-alerce/cmd/config"
	"github.com/tphakala/tom-alerce/cmd/query"
	"github.com/tphakala/tom-alerce/cmd/serve"
	"github.com/tphakala/tom-alerce/cmd/target"
	"github.com/tphakala/tom-alerce/cmd/version"
	"github.com/tphakala/tom-alerce/internal/buildinfo"
	"github.com/tphakala/tom-alerce/internal/conf"
	"github.com/tphakala/tom-alerce/internal/errors"
	"github.com/tphakala/tom-alerce/internal/logger"
	"github.com/tphakala/tom-alerce/internal/telemetry"
)

// skipSetup marks commands that run without loading the configuration.
const skipSetup = "skip-setup"

// RootCommand creates and returns the root command. Subcommands share
// settings, which are filled in before any of them runs.
func RootCommand(info buildinfo.BuildInfo) *cobra.Command {
	settings := &conf.Settings{}
	var configPath string
	var debug bool

	rootCmd := &cobra.Command{
		Use:           "tom-alerce",
		Short:         "ALeRCE alert broker client for target and observation management",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: search the standard locations)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug output")

	versionCmd := version.Command(info)
	configCmd := config.Command()
	for _, c := range []*cobra.Command{versionCmd, configCmd} {
		c.Annotations = map[string]string{skipSetup: "true"}
	}

	rootCmd.AddCommand(
		serve.Command(settings, info),
		query.Command(settings),
		alert.Command(settings),
		classifiers.Command(settings),
		target.Command(settings),
		configCmd,
		versionCmd,
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if needsNoSetup(cmd) {
			return nil
		}
		return initialize(settings, configPath, debug, info)
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		telemetry.Shutdown()
		if err := logger.Global().Flush(); err != nil {
			GetLogger().Warn("failed to flush logs", logger.Error(err))
		}
	}

	return rootCmd
}

// needsNoSetup reports whether cmd or one of its parents skips setup.
func needsNoSetup(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipSetup] != "" {
			return true
		}
	}
	return false
}

// initialize loads settings and brings up logging and error reporting.
func initialize(settings *conf.Settings, configPath string, debug bool, info buildinfo.BuildInfo) error {
	var loaded *conf.Settings
	var err error
	if configPath != "" {
		loaded, err = conf.LoadFile(configPath)
	} else {
		loaded, err = conf.Load()
	}
	if err != nil {
		return err
	}
	*settings = *loaded

	if debug {
		settings.Debug = true
		viper.Set("debug", true)
		settings.Logging.DefaultLevel = "debug"
		if settings.Logging.Console != nil {
			settings.Logging.Console.Level = "debug"
		}
	}

	central, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return errors.New(err).
			Category(errors.CategoryConfiguration).
			Context("operation", "init-logging").
			Build()
	}
	logger.SetGlobal(central)

	if err := telemetry.Init(&settings.Sentry, info.GetVersion()); err != nil {
		// error reporting is optional
		GetLogger().Warn("error reporting disabled", logger.Error(err))
	}

	GetLogger().Debug("configuration loaded",
		logger.String("config", viper.ConfigFileUsed()),
		logger.String("version", info.GetVersion()))
	return nil
}

// GetLogger returns the cli module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("cli")
}
