package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/taigrr/nbcheck/internal/cache"
	"github.com/taigrr/nbcheck/internal/notebook"
	"github.com/taigrr/nbcheck/internal/pathfilter"
	"github.com/taigrr/nbcheck/internal/patcher"
	"github.com/taigrr/nbcheck/internal/report"
	"github.com/taigrr/nbcheck/internal/runner"
	"github.com/taigrr/nbcheck/internal/types"
	"github.com/taigrr/nbcheck/internal/watch"
	"go.uber.org/zap"
)

func newWatchCmd() *cobra.Command {
	var flags validateFlags

	cmd := &cobra.Command{
		Use:   "watch [directory]",
		Short: "Re-validate notebooks as they change",
		Long: `watch monitors a directory tree and re-runs validation for each
notebook that changes on disk, debouncing editor save bursts. Runs
until interrupted.`,
		Example: `nbcheck watch ./notebooks --rules ci-rules.yaml --timeout 2m`,
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

			var svc *patcher.Service
			if flags.rulesPath != "" {
				rules, err := patcher.LoadRules(flags.rulesPath)
				if err != nil {
					return err
				}
				svc = patcher.New(rules)
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
			reporter := report.New(cmd.OutOrStdout())

			w := watch.New(dir, pathfilter.New(nil), watch.DefaultDebounce, log,
				func(ctx context.Context, path string) {
					if entry, ok := ignore.Lookup(notebook.Stem(path)); ok {
						log.Debug("skipping ignored notebook",
							zap.String("path", path),
							zap.String("reason", string(entry.Reason)))
						return
					}
					if svc != nil {
						if _, err := svc.PatchFile(path); err != nil {
							log.Warn("patch failed", zap.String("path", path), zap.Error(err))
						}
					}
					result := r.RunNotebook(ctx, path)
					reporter.Write([]types.Result{result})
				})

			return w.Run(cmd.Context())
		},
	}

	addValidateFlags(cmd, &flags)
	return cmd
}
