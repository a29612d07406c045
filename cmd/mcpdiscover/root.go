package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"mcpdiscover/internal/app"
	"mcpdiscover/internal/domain"
)

type cliOptions struct {
	configPath  string
	server      string
	jsonOutput  bool
	logLevel    string
	logFormat   string
	dumpMetrics bool
}

func newRootCommand() *cobra.Command {
	opts := cliOptions{
		configPath: "mcpdiscover.yaml",
		logLevel:   "warn",
		logFormat:  "console",
	}

	root := &cobra.Command{
		Use:           "mcpdiscover",
		Short:         "Discover tools and parameters exposed by remote MCP servers",
		Version:       app.Version + " (" + app.Build + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			applyRootFlagBindings(cmd, &opts)
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", opts.configPath, "path to the YAML config file")
	root.PersistentFlags().StringVar(&opts.server, "server", "", "configured server name (optional with a single server)")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "output JSON")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", opts.logLevel, "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", opts.logFormat, "log format (console or json)")
	root.PersistentFlags().BoolVar(&opts.dumpMetrics, "metrics", false, "print collected metrics to stderr on exit")

	root.AddCommand(
		newToolsCmd(&opts),
		newParamsCmd(&opts),
		newToolParamsCmd(&opts),
		newCatalogCmd(&opts),
		newPingCmd(&opts),
	)
	return root
}

func applyRootFlagBindings(cmd *cobra.Command, opts *cliOptions) {
	flags := cmd.Flags()
	flags.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "config":
			opts.configPath, _ = flags.GetString("config")
		case "server":
			opts.server, _ = flags.GetString("server")
		case "json":
			opts.jsonOutput, _ = flags.GetBool("json")
		case "log-level":
			opts.logLevel, _ = flags.GetString("log-level")
		case "log-format":
			opts.logFormat, _ = flags.GetString("log-format")
		case "metrics":
			opts.dumpMetrics, _ = flags.GetBool("metrics")
		}
	})
}

// withServer builds the application, selects the server and runs fn under
// the server's timeout.
func withServer(cmd *cobra.Command, opts *cliOptions, fn func(context.Context, *app.Application, domain.ServerConfig) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	application, cleanup, err := app.InitializeApplication(ctx, app.ConfigPath(opts.configPath), app.LoggingConfig{
		Level:  opts.logLevel,
		Format: opts.logFormat,
	})
	if err != nil {
		return exitWith(err)
	}
	defer cleanup()
	defer func() { _ = application.Logger().Sync() }()

	server, err := application.Server(opts.server)
	if err != nil {
		return exitWith(err)
	}

	if timeout := server.Timeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	runErr := fn(ctx, application, server)
	if opts.dumpMetrics {
		if err := application.WriteMetrics(cmd.ErrOrStderr()); err != nil {
			application.Logger().Warn("write metrics failed", zap.Error(err))
		}
	}
	return exitWith(runErr)
}
