package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	httpfactory "github.com/rajindersingh041/http-factory"
	"github.com/rajindersingh041/http-factory/broker"
)

var (
	cfgFile     string
	verbose     bool
	serviceName string

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "httpfactory",
	Short: "Resilient HTTP client for broker market-data APIs",
	Long: `httpfactory talks to broker market-data APIs through a client with
rate limiting, retries, circuit breaking, and response caching.

Service catalogs for Upstox, Groww, and XTS are built in. A YAML config
file can override their base URLs, rate limits, timeouts, and headers:

  services:
    upstox:
      rate_per_second: 10
      headers:
        Authorization: Bearer <token>`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file with service overrides (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVar(&serviceName, "service", "", "default service for commands that take one")
}

func initConfig() {
	if verbose {
		logger = zap.Must(zap.NewDevelopment())
	} else {
		logger = zap.Must(zap.NewProduction())
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(".httpfactory")
		viper.SetConfigType("yaml")
	}
	viper.SetEnvPrefix("HTTPFACTORY")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if cfgFile != "" {
			fmt.Fprintf(os.Stderr, "Error: reading config %s: %v\n", cfgFile, err)
			os.Exit(1)
		}
	} else {
		logger.Debug("Using config file", zap.String("path", viper.ConfigFileUsed()))
	}
}

// serviceArg picks the service name from args or the --service flag.
func serviceArg(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if serviceName != "" {
		return serviceName, nil
	}
	return "", fmt.Errorf("no service given; pass one as an argument or with --service")
}

// serviceEndpointArgs splits args into service and endpoint, falling back
// to --service when only the endpoint is given.
func serviceEndpointArgs(args []string) (string, string, error) {
	switch len(args) {
	case 2:
		return args[0], args[1], nil
	case 1:
		if serviceName != "" {
			return serviceName, args[0], nil
		}
		return "", "", fmt.Errorf("no service given; pass it before the endpoint or with --service")
	default:
		return "", "", fmt.Errorf("expected <service> <endpoint>")
	}
}

// serviceConfig resolves the built-in catalog for name and applies any
// overrides from the config file.
func serviceConfig(name string) (broker.ServiceConfig, error) {
	cfg, ok := broker.BuiltinConfig(name)
	if !ok {
		return broker.ServiceConfig{}, fmt.Errorf("unknown service %q (available: %s)",
			name, strings.Join(broker.DefaultRegistry.Available(), ", "))
	}
	applyOverrides(&cfg)
	return cfg, nil
}

// builtinConfigsWithOverrides returns every built-in catalog with config
// file overrides applied.
func builtinConfigsWithOverrides() []broker.ServiceConfig {
	configs := broker.BuiltinConfigs()
	for i := range configs {
		applyOverrides(&configs[i])
	}
	return configs
}

// applyOverrides merges services.<name>.* settings from the config file
// into cfg.
func applyOverrides(cfg *broker.ServiceConfig) {
	prefix := "services." + cfg.Name + "."

	if v := viper.GetString(prefix + "base_url"); v != "" {
		cfg.BaseURL = v
	}
	if v := viper.GetFloat64(prefix + "rate_per_second"); v > 0 {
		cfg.RatePerSecond = v
	}
	if v := viper.GetDuration(prefix + "timeout"); v > 0 {
		cfg.Timeout = v
	}
	if v := viper.GetInt(prefix + "max_retries"); v > 0 {
		cfg.MaxRetries = v
	}
	if v := viper.GetDuration(prefix + "cache_ttl"); v > 0 {
		cfg.CacheTTL = v
	}
	for k, v := range viper.GetStringMapString(prefix + "headers") {
		if cfg.DefaultHeaders == nil {
			cfg.DefaultHeaders = make(map[string]string)
		}
		cfg.DefaultHeaders[k] = v
	}
}

// buildService constructs the named service with CLI-wide options applied.
func buildService(name string, extra ...httpfactory.Option) (broker.Service, error) {
	cfg, err := serviceConfig(name)
	if err != nil {
		return nil, err
	}

	var opts []httpfactory.Option
	if verbose {
		opts = append(opts,
			httpfactory.WithLogger(httpfactory.NewZapLogger(logger)),
			httpfactory.WithDebug(),
		)
	}
	opts = append(opts, extra...)

	return broker.NewService(cfg, opts...)
}
