package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/taigrr/nbcheck/internal/cache"
	"github.com/taigrr/nbcheck/internal/pathfilter"
	"github.com/taigrr/nbcheck/internal/patcher"
	"github.com/taigrr/nbcheck/internal/report"
	"github.com/taigrr/nbcheck/internal/runner"
	"go.uber.org/zap"
)

type validateFlags struct {
	rulesPath  string
	ignore     []string
	ignoreFile string
	timeout    time.Duration
	jobs       int
	cacheDir   string
}

func newValidateCmd() *cobra.Command {
	var flags validateFlags

	cmd := &cobra.Command{
		Use:   "validate [directory]",
		Short: "Execute every notebook and report pass/fail",
		Long: `validate executes every notebook found under the target directory,
except those whose stem matches an ignore-list entry. Cells run in
order inside a fresh interpreter session per notebook; one notebook's
failure never aborts the batch. Prints one status line per notebook
and exits 0 only if every non-ignored notebook passed; any failure
yields the fixed exit code 1.`,
		Example: `nbcheck validate ./notebooks --rules ci-rules.yaml --ignore heavy-benchmark --timeout 5m --jobs 4`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			defer log.Sync()

			dir, err := targetDir(args)
			if err != nil {
				return err
			}

			ignore, err := loadIgnoreList(flags.ignoreFile, flags.ignore)
			if err != nil {
				return err
			}

			paths, err := discoverNotebooks(dir, pathfilter.New(nil))
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("no notebooks found under %s", dir)
			}

			// Patch before execution so CI runs the shrunk parameters.
			// A notebook that fails to patch is malformed and will be
			// reported as failed by the runner; no need to abort here.
			if flags.rulesPath != "" {
				rules, err := patcher.LoadRules(flags.rulesPath)
				if err != nil {
					return err
				}
				svc := patcher.New(rules)
				for _, path := range paths {
					if _, err := svc.PatchFile(path); err != nil {
						log.Warn("patch failed", zap.String("path", path), zap.Error(err))
					}
				}
			}

			var artifacts *cache.Cache
			if flags.cacheDir != "" {
				artifacts, err = cache.New(flags.cacheDir)
				if err != nil {
					return err
				}
			}

			r := runner.New(runner.Options{
				Timeout:   flags.timeout,
				Jobs:      flags.jobs,
				Artifacts: artifacts,
				Logger:    log,
			})
			results := r.RunBatch(cmd.Context(), paths, ignore)

			summary := report.New(cmd.OutOrStdout()).Write(results)
			if summary.ExitCode != 0 {
				return fmt.Errorf("%d notebook(s) did not pass", summary.Failed+summary.TimedOut)
			}
			return nil
		},
	}

	addValidateFlags(cmd, &flags)
	return cmd
}

func addValidateFlags(cmd *cobra.Command, flags *validateFlags) {
	cmd.Flags().StringVar(&flags.rulesPath, "rules", "", "YAML substitution-rule table applied before execution")
	cmd.Flags().StringArrayVar(&flags.ignore, "ignore", nil, "notebook stem to skip (repeatable)")
	cmd.Flags().StringVar(&flags.ignoreFile, "ignore-file", "", "YAML ignore list with reason codes")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 10*time.Minute, "per-notebook execution budget")
	cmd.Flags().IntVar(&flags.jobs, "jobs", 1, "notebooks to execute concurrently")
	cmd.Flags().StringVar(&flags.cacheDir, "cache-dir", "", "artifact cache directory shared across notebooks")
}
