package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mcpdiscover/internal/app"
	"mcpdiscover/internal/domain"
	"mcpdiscover/internal/infra/hashutil"
)

func newToolsCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the tools exposed by a server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServer(cmd, opts, func(ctx context.Context, application *app.Application, server domain.ServerConfig) error {
				options, err := application.Service().ToolNames(ctx, server)
				if err != nil {
					return err
				}
				return printOptions(cmd.OutOrStdout(), server.Name, options, nil, opts.jsonOutput)
			})
		},
	}
}

func newParamsCmd(opts *cliOptions) *cobra.Command {
	var include string
	var tools []string

	cmd := &cobra.Command{
		Use:   "params",
		Short: "List the parameters of the selected tools as <tool>.<parameter>",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServer(cmd, opts, func(ctx context.Context, application *app.Application, server domain.ServerConfig) error {
				policy, err := policyFromFlags(cmd, server, include, tools)
				if err != nil {
					return err
				}
				listing := application.Service().FilteredToolParameters(ctx, server, policy)
				return printOptions(cmd.OutOrStdout(), server.Name, listing.Options, listing.Err, opts.jsonOutput)
			})
		},
	}
	cmd.Flags().StringVar(&include, "include", "", "tool selection mode (all, selected, except); defaults to the server config")
	cmd.Flags().StringArrayVar(&tools, "tool", nil, "tool name for selected or except mode (repeatable)")
	return cmd
}

func newToolParamsCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tool-params <tool>",
		Short: "List the parameters of a single tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServer(cmd, opts, func(ctx context.Context, application *app.Application, server domain.ServerConfig) error {
				options, err := application.Service().SingleToolParameters(ctx, server, args[0])
				if err != nil {
					return err
				}
				return printOptions(cmd.OutOrStdout(), server.Name, options, nil, opts.jsonOutput)
			})
		},
	}
}

func newCatalogCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the full tool catalog with input schemas and a content hash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServer(cmd, opts, func(ctx context.Context, application *app.Application, server domain.ServerConfig) error {
				tools, err := application.Service().ListTools(ctx, server)
				if err != nil {
					return err
				}
				hash := hashutil.CatalogETag(application.Logger(), tools)
				return printCatalog(cmd.OutOrStdout(), server.Name, hash, tools, opts.jsonOutput)
			})
		},
	}
}

func newPingCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that a server answers MCP ping requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServer(cmd, opts, func(ctx context.Context, application *app.Application, server domain.ServerConfig) error {
				rtt, err := application.Service().Ping(ctx, server)
				if err != nil {
					return err
				}
				return printPing(cmd.OutOrStdout(), server.Name, rtt, opts.jsonOutput)
			})
		},
	}
}

// policyFromFlags lets --include and --tool override the configured policy.
func policyFromFlags(cmd *cobra.Command, server domain.ServerConfig, include string, tools []string) (domain.FilterPolicy, error) {
	if !cmd.Flags().Changed("include") && !cmd.Flags().Changed("tool") {
		return domain.PolicyFromConfig(server), nil
	}
	mode := domain.IncludeMode(strings.ToLower(strings.TrimSpace(include)))
	if mode == "" {
		mode = domain.IncludeSelected
	}
	switch mode {
	case domain.IncludeAll:
		return domain.AllTools(), nil
	case domain.IncludeSelected:
		return domain.SelectedTools(tools...), nil
	case domain.IncludeExcept:
		return domain.ExceptTools(tools...), nil
	default:
		return domain.FilterPolicy{}, domain.E(domain.CodeInvalidArgument, "params", fmt.Sprintf("unknown include mode %q", include), nil)
	}
}
