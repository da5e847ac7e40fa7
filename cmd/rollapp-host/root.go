package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/client"
	"github.com/crabrolls-cartesi/rollapp-host/internal/rollup/types"
)

// Version is set at build time.
var Version = "dev"

var (
	cfgFile      string
	rollupURL    string
	metricsAddr  string
	portalMode   string
	portalAdvance bool
	appName      string
)

var rootCmd = &cobra.Command{
	Use:   "rollapp-host",
	Short: "Runs a rollup application against the rollup HTTP server",
	Long: `rollapp-host drives a built-in example application (echo or blog)
through the rollup's /finish polling protocol, emitting vouchers, notices,
and reports on its behalf.

Configuration (in order of priority):
  1. Command-line flags (--rollup-url, --metrics-addr, --app)
  2. Environment variables (ROLLAPP_ROLLUP_URL, ROLLUP_HTTP_SERVER_URL, ...)
  3. Config file (~/.rollapp-host.yaml)`,
	RunE: runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("rollapp-host version %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.rollapp-host.yaml)")
	rootCmd.PersistentFlags().StringVar(&rollupURL, "rollup-url", "", "rollup HTTP server base URL (or ROLLUP_HTTP_SERVER_URL)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "address to serve /metrics on (or ROLLAPP_METRICS_ADDR)")
	rootCmd.PersistentFlags().StringVar(&portalMode, "portal-mode", "", "portal handling mode: handle, ignore, or dispense (or ROLLAPP_PORTAL_MODE)")
	rootCmd.PersistentFlags().BoolVar(&portalAdvance, "portal-advance", true, "in handle mode, forward decoded deposits to the application handler")
	rootCmd.PersistentFlags().StringVar(&appName, "app", "", "built-in application to run: echo or blog (or ROLLAPP_APP)")

	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	viper.SetDefault("rollup_url", client.DefaultBaseURL)
	viper.SetDefault("metrics_addr", ":8080")
	viper.SetDefault("portal_mode", "handle")
	viper.SetDefault("app", "echo")

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".rollapp-host")
	}

	viper.SetEnvPrefix("ROLLAPP")
	viper.AutomaticEnv()
	_ = viper.BindEnv("rollup_url", "ROLLAPP_ROLLUP_URL", "ROLLUP_HTTP_SERVER_URL")
	_ = viper.BindEnv("metrics_addr", "ROLLAPP_METRICS_ADDR")
	_ = viper.BindEnv("portal_mode", "ROLLAPP_PORTAL_MODE")
	_ = viper.BindEnv("app", "ROLLAPP_APP")

	_ = viper.ReadInConfig()
}

// resolvedConfig is the fully-layered configuration for one run.
type resolvedConfig struct {
	RollupURL    string
	MetricsAddr  string
	PortalConfig types.PortalHandlerConfig
	App          string
}

func resolveConfig() (resolvedConfig, error) {
	cfg := resolvedConfig{
		RollupURL:   firstNonEmpty(rollupURL, viper.GetString("rollup_url")),
		MetricsAddr: firstNonEmpty(metricsAddr, viper.GetString("metrics_addr")),
		App:         firstNonEmpty(appName, viper.GetString("app")),
	}

	mode := firstNonEmpty(portalMode, viper.GetString("portal_mode"))
	switch mode {
	case "", "handle":
		cfg.PortalConfig = types.PortalHandlerConfig{Kind: types.PortalHandle, Advance: portalAdvance}
	case "ignore":
		cfg.PortalConfig = types.PortalHandlerConfig{Kind: types.PortalIgnore}
	case "dispense":
		cfg.PortalConfig = types.PortalHandlerConfig{Kind: types.PortalDispense}
	default:
		return resolvedConfig{}, fmt.Errorf("rollapp-host: unknown portal mode %q (want handle, ignore, or dispense)", mode)
	}

	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("rollapp-host exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
