package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/taigrr/nbcheck/internal/pathfilter"
	"github.com/taigrr/nbcheck/internal/patcher"
	"github.com/taigrr/nbcheck/internal/types"
	"go.uber.org/zap"
)

func newPatchCmd() *cobra.Command {
	var rulesPath string

	cmd := &cobra.Command{
		Use:   "patch [directory]",
		Short: "Apply substitution rules to notebooks in place",
		Long: `patch scans a directory tree for notebooks and rewrites code-cell
source text according to the rule table. Rules that match nothing are
silent no-ops. Exits non-zero if any notebook is malformed.`,
		Example: `nbcheck patch ./notebooks --rules ci-rules.yaml`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			defer log.Sync()

			dir, err := targetDir(args)
			if err != nil {
				return err
			}

			rules := types.RuleSet{Version: 1}
			if rulesPath != "" {
				rules, err = patcher.LoadRules(rulesPath)
				if err != nil {
					return err
				}
			}

			paths, err := discoverNotebooks(dir, pathfilter.New(nil))
			if err != nil {
				return err
			}

			svc := patcher.New(rules)
			malformed := 0
			for _, path := range paths {
				result, err := svc.PatchFile(path)
				if err != nil {
					malformed++
					fmt.Fprintf(cmd.OutOrStdout(), "ERROR  %s: %v\n", path, err)
					continue
				}
				log.Debug("patched notebook",
					zap.String("path", path),
					zap.Int("replacements", result.Replacements),
					zap.Bool("changed", result.Changed))
				if result.Changed {
					fmt.Fprintf(cmd.OutOrStdout(), "PATCH  %s (%d replacements)\n", path, result.Replacements)
				}
			}

			if malformed > 0 {
				return fmt.Errorf("%d malformed notebook(s)", malformed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&rulesPath, "rules", "", "YAML substitution-rule table")
	return cmd
}
