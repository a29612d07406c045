package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"mcpdiscover/internal/domain"
	"mcpdiscover/internal/infra/mcpcodec"
)

func writeJSON(w io.Writer, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

type optionView struct {
	Name        string `json:"name"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

func optionViews(options []domain.Option) []optionView {
	views := make([]optionView, 0, len(options))
	for _, option := range options {
		views = append(views, optionView(option))
	}
	return views
}

func printOptions(w io.Writer, server string, options []domain.Option, warning error, jsonOutput bool) error {
	if jsonOutput {
		payload := map[string]any{
			"server":  server,
			"options": optionViews(options),
		}
		if warning != nil {
			payload["error"] = warning.Error()
		}
		return writeJSON(w, payload)
	}
	for _, option := range options {
		if option.Value == "" {
			fmt.Fprintf(w, "%s\t%s\n", option.Name, option.Description)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", option.Value, option.Name, option.Description)
	}
	return nil
}

func printCatalog(w io.Writer, server, hash string, tools []domain.Tool, jsonOutput bool) error {
	if jsonOutput {
		entries := make([]*mcp.Tool, 0, len(tools))
		for _, tool := range tools {
			entries = append(entries, mcpcodec.ToolToMCP(tool))
		}
		return writeJSON(w, map[string]any{
			"server": server,
			"hash":   hash,
			"tools":  entries,
		})
	}
	fmt.Fprintf(w, "server=%s hash=%s tools=%d\n", server, hash, len(tools))
	for _, tool := range tools {
		fmt.Fprintln(w, tool.Name)
	}
	return nil
}

func printPing(w io.Writer, server string, rtt time.Duration, jsonOutput bool) error {
	if jsonOutput {
		return writeJSON(w, map[string]any{
			"server": server,
			"ok":     true,
			"rttMs":  rtt.Milliseconds(),
		})
	}
	_, err := fmt.Fprintf(w, "server=%s ok rtt=%s\n", server, rtt.Round(time.Millisecond))
	return err
}
