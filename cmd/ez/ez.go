package main

import (
	"log"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "EZ"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:          "ez",
		Short:        "Run parsing expression grammars over files",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./ez.yaml)")
	rootCmd.PersistentFlags().IntP("verbosity", "v", 0, "log verbosity, 1 for parses, 4 for every rule")

	rootCmd.AddCommand(newParseCmd(&configFile))
	rootCmd.AddCommand(newGrammarsCmd())
	return rootCmd
}

// loadConfig merges, lowest first: defaults, the config file, EZ_*
// environment variables and the flags set on cmd.
func loadConfig(cmd *cobra.Command, configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault("grammar", "json")
	v.SetDefault("format", "text")
	v.SetDefault("verbosity", 0)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("ez")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "reading config")
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}
		if err := v.BindPFlag(f.Name, f); err != nil && bindErr == nil {
			bindErr = errors.Wrapf(err, "binding flag %s", f.Name)
		}
	})
	return v, bindErr
}

func newLogger(cmd *cobra.Command, verbosity int) logr.Logger {
	stdr.SetVerbosity(verbosity)
	return stdr.New(log.New(cmd.ErrOrStderr(), "", log.LstdFlags))
}
