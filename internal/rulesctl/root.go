// Package rulesctl is the operator CLI for rule tables: validate a file, list
// its options, resolve a query offline and publish a table to the configured store.
package rulesctl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tool-advisor/internal/bootstrap"
	"tool-advisor/internal/rules"
	"tool-advisor/internal/shared/config"
)

type app struct {
	stdout     io.Writer
	stderr     io.Writer
	loadConfig func() config.Config

	rulesPath string
	format    string
}

// NewRootCommand builds the rulesctl command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{stdout: os.Stdout, stderr: os.Stderr, loadConfig: config.Load})
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "rulesctl",
		Short:         "Inspect, test and publish cutting-tool rule tables",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			a.stdout = cmd.OutOrStdout()
			a.stderr = cmd.ErrOrStderr()
		},
	}
	root.PersistentFlags().StringVar(&a.rulesPath, "rules", "", "rule table file (default: the configured RULES_SOURCE)")
	root.PersistentFlags().StringVar(&a.format, "format", "", "rule table format: json, jsonc or yaml (default: from extension)")

	root.AddCommand(newValidateCmd(a))
	root.AddCommand(newOptionsCmd(a))
	root.AddCommand(newResolveCmd(a))
	root.AddCommand(newPublishCmd(a))
	return root
}

func (a *app) parsedFormat() (rules.Format, error) {
	return rules.ParseFormat(a.format)
}

// loadTable reads --rules when given, otherwise the source the service would use.
func (a *app) loadTable(ctx context.Context) (*rules.Table, string, error) {
	format, err := a.parsedFormat()
	if err != nil {
		return nil, "", err
	}
	if strings.TrimSpace(a.rulesPath) != "" {
		src := rules.FileSource{Path: a.rulesPath, Format: format}
		table, err := src.Load(ctx)
		return table, src.Describe(), err
	}

	cfg := a.loadConfig()
	if a.format != "" {
		cfg.RulesFormat = a.format
	}
	src, closeFn, err := configuredSource(ctx, cfg)
	if err != nil {
		return nil, "", err
	}
	defer closeFn()
	table, err := src.Load(ctx)
	return table, src.Describe(), err
}

func configuredSource(ctx context.Context, cfg config.Config) (rules.Source, func(), error) {
	closeFn := func() {}
	switch cfg.RulesSource {
	case "postgres":
		sqlDB, err := bootstrap.OpenDB(ctx, cfg)
		if err != nil {
			return nil, closeFn, err
		}
		src, err := bootstrap.NewRulesSource(cfg, nil, sqlDB)
		return src, func() { _ = sqlDB.Close() }, err
	case "object":
		store, err := bootstrap.OpenStore(ctx, cfg)
		if err != nil {
			return nil, closeFn, err
		}
		src, err := bootstrap.NewRulesSource(cfg, store, nil)
		return src, closeFn, err
	default:
		src, err := bootstrap.NewRulesSource(cfg, nil, nil)
		return src, closeFn, err
	}
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
