package rulesctl

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"tool-advisor/internal/bootstrap"
	"tool-advisor/internal/recommend"
	"tool-advisor/internal/rules"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Parse a rule table and report what it contains",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, source, err := a.loadTable(cmd.Context())
			if err != nil {
				return err
			}
			opts := table.Options()
			fmt.Fprintf(a.stdout, "%s: ok\n", source)
			fmt.Fprintf(a.stdout, "  workpieces:     %d\n", len(opts.Workpieces))
			fmt.Fprintf(a.stdout, "  tool materials: %d\n", len(opts.ToolMaterials))
			fmt.Fprintf(a.stdout, "  operations:     %d\n", len(opts.Operations))
			for _, name := range opts.Workpieces {
				wp, _ := table.Workpiece(name)
				if wp.Recommendations.Len() == 0 {
					fmt.Fprintf(a.stderr, "warning: workpiece %q has no recommendations\n", name)
				}
			}
			return nil
		},
	}
}

func newOptionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "Print the workpieces, tool materials and operations as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, _, err := a.loadTable(cmd.Context())
			if err != nil {
				return err
			}
			return a.printJSON(table.Options())
		},
	}
}

func newResolveCmd(a *app) *cobra.Command {
	var req recommend.Request
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a recommendation offline",
		Long: `Resolve a recommendation against a rule table without running the API.

Examples:
  rulesctl resolve --rules rules.json --workpiece Steel
  rulesctl resolve --rules rules.yaml --workpiece "Hardened Steel" --operation finishing
  rulesctl resolve --workpiece Steel --tool HSS`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table, _, err := a.loadTable(cmd.Context())
			if err != nil {
				return err
			}
			result, err := recommend.Resolve(table, req)
			if err != nil {
				return fmt.Errorf("%s: %w", recommend.ErrorCode(err), err)
			}
			return a.printJSON(map[string]any{"recommendation": result})
		},
	}
	cmd.Flags().StringVar(&req.WorkpieceMaterial, "workpiece", "", "workpiece material (required)")
	cmd.Flags().StringVar(&req.ToolMaterial, "tool", "", "tool material")
	cmd.Flags().StringVar(&req.Operation, "operation", "", "machining operation")
	return cmd
}

func newPublishCmd(a *app) *cobra.Command {
	var description string
	var key string
	cmd := &cobra.Command{
		Use:   "publish FILE",
		Short: "Validate a rule table and publish it to the configured RULES_SOURCE",
		Long: `Validate a rule table and publish it where the service loads rules from.

With RULES_SOURCE=postgres a new version is inserted into rule_tables.
With RULES_SOURCE=object the file is written to the object store under RULES_KEY
(or --key).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := args[0]
			body, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read %s: %w", file, err)
			}
			format, err := a.parsedFormat()
			if err != nil {
				return err
			}
			if format == "" {
				format = rules.FormatFromPath(file)
			}
			table, err := rules.Parse(body, format)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			cfg := a.loadConfig()
			switch cfg.RulesSource {
			case "postgres":
				sqlDB, err := bootstrap.OpenDB(ctx, cfg)
				if err != nil {
					return err
				}
				defer sqlDB.Close()
				repo := &rules.PGRepo{DB: sqlDB}
				doc, err := repo.Publish(ctx, rules.Document{Format: format, Body: body, Description: description})
				if err != nil {
					return err
				}
				fmt.Fprintf(a.stdout, "published version %d (%d workpieces)\n", doc.Version, table.Len())
				return nil
			case "object":
				if key == "" {
					key = cfg.RulesKey
				}
				if key == "" {
					key = filepath.Base(file)
				}
				store, err := bootstrap.OpenStore(ctx, cfg)
				if err != nil {
					return err
				}
				n, err := store.Put(ctx, key, contentType(format), bytes.NewReader(body))
				if err != nil {
					return fmt.Errorf("put %s: %w", key, err)
				}
				fmt.Fprintf(a.stdout, "published %s:%s (%d bytes, %d workpieces)\n", cfg.ObjectStoreType, key, n, table.Len())
				return nil
			default:
				return errors.New("publish requires RULES_SOURCE=postgres or RULES_SOURCE=object")
			}
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "note stored with the published version (postgres)")
	cmd.Flags().StringVar(&key, "key", "", "object key (default: RULES_KEY)")
	return cmd
}

func contentType(format rules.Format) string {
	switch format {
	case rules.FormatYAML:
		return "application/yaml"
	case rules.FormatJSONC:
		return "application/jsonc"
	default:
		return "application/json"
	}
}
