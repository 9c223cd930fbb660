package main

import (
	"github.com/DaianCosta/pipehttp/internal/constants"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// newRootCmd builds the command tree around v. Every setting is read back
// through v so flags and PIPEHTTP_* variables share one precedence order.
func newRootCmd(v *viper.Viper) *cobra.Command {
	v.SetDefault("config", constants.DefaultConfigFile)
	v.SetDefault("limit", constants.DefaultRunListLimit)

	// Environment variables support: PIPEHTTP_CONFIG, PIPEHTTP_ADDR, ...
	v.SetEnvPrefix(constants.EnvPrefix)
	v.AutomaticEnv()

	serveCmd := newServeCmd(v)
	rootCmd := &cobra.Command{
		Use:           "pipehttp",
		Short:         "Run declarative HTTP pipelines and serve them over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serveCmd.RunE,
	}

	rootCmd.PersistentFlags().String("config", v.GetString("config"), "path to a config yaml (like config/config.yaml)")
	rootCmd.PersistentFlags().String("pipelines", "", "path to the pipeline definition file (json or yaml)")
	rootCmd.PersistentFlags().String("timeout", "", "overall execution timeout, e.g. 30s (empty = none)")
	rootCmd.PersistentFlags().String("addr", "", "listen address for the http server")
	_ = v.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = v.BindPFlag("pipelines", rootCmd.PersistentFlags().Lookup("pipelines"))
	_ = v.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	_ = v.BindPFlag("addr", rootCmd.PersistentFlags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(newRunCmd(v))
	rootCmd.AddCommand(newValidateCmd(v))
	rootCmd.AddCommand(newRunsCmd(v))
	return rootCmd
}

func main() {
	if err := newRootCmd(viper.New()).Execute(); err != nil {
		exitHandler.LogFatalError(err, "command execution failed")
	}
}
