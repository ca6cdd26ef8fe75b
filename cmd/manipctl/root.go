package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/arloliu/go-manip/command"
	"github.com/arloliu/go-manip/internal/config"
	"github.com/arloliu/go-manip/logger"
	"github.com/arloliu/go-manip/session"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "manipctl",
		Short: "Control Sutter ROE-200 micromanipulators",
		Long: `manipctl discovers Sutter Instrument ROE-200 controllers attached over
USB-serial, reads stage positions and issues moves.

Positions are in controller steps (1 step = 62.5 nm, range 0..400000).`,
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			initConfig()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "config file (default is $HOME/.config/manipctl/manipctl.yaml)")
	flags.String("driver", "", "transport driver: serial, tarm or sim")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("validation", "", "out-of-range move policy: reject, clamp or warn")
	_ = viper.BindPFlag("config", flags.Lookup("config"))
	_ = viper.BindPFlag("transport.driver", flags.Lookup("driver"))
	_ = viper.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("session.validation", flags.Lookup("validation"))

	rootCmd.AddCommand(
		newDevicesCmd(),
		newGetCmd(),
		newMoveCmd(),
		newShellCmd(),
		newConfigCmd(),
	)

	return rootCmd
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("manipctl")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	config.BindEnv()

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// app is everything a command needs, built from the effective configuration.
type app struct {
	cfg        *config.Config
	log        logger.Logger
	reg        *session.Registry
	dispatcher *command.Dispatcher
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	return newAppFromConfig(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func newAppFromConfig(cfg *config.Config, out, logOut io.Writer) (*app, error) {
	log, err := cfg.NewLogger(logOut)
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)

	reg, err := cfg.NewRegistry(log)
	if err != nil {
		return nil, fmt.Errorf("failed to create registry: %w", err)
	}

	d, err := command.New(reg, command.WithOutput(out), command.WithLogger(log))
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, log: log, reg: reg, dispatcher: d}, nil
}

// close releases any devices still held open.
func (a *app) close() {
	if a.reg.IsInitialized() {
		if err := a.reg.Uninitialize(); err != nil {
			a.log.Warn("manipctl: uninitialize", "error", err)
		}
	}
}
