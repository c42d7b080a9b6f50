// Package main implements the nbcheck CLI, a CI harness for notebooks.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/taigrr/nbcheck/internal/pathfilter"
	"github.com/taigrr/nbcheck/internal/types"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var flagVerbose bool

func main() {
	root := &cobra.Command{
		Use:   "nbcheck",
		Short: "Patch and validate example notebooks for CI",
		Long: `nbcheck is a CI harness for Jupyter-format notebooks whose code
cells contain Go snippets. It patches cell parameters from a versioned
rule table (so long-running tutorials fit a CI budget), executes every
code cell top-to-bottom in a fresh interpreter session per notebook,
and reports one status line per notebook.`,
		Example: `nbcheck validate ./notebooks --rules ci-rules.yaml --ignore heavy-benchmark`,
	}
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newPatchCmd(), newValidateCmd(), newWatchCmd())

	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(version),
		fang.WithoutCompletions(),
		fang.WithoutManpage(),
	); err != nil {
		os.Exit(1)
	}
}

// newLogger is quiet by default; status lines go to stdout regardless.
func newLogger() *zap.Logger {
	if !flagVerbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// targetDir resolves the positional directory argument, defaulting to
// the current directory. A missing directory is a configuration error
// and fatal to the whole run.
func targetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("target directory does not exist: %s", dir)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", dir)
	}
	return abs, nil
}

// discoverNotebooks walks the directory tree and returns allowed
// notebook paths in stable sorted order.
func discoverNotebooks(root string, pf *pathfilter.PathFilter) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = strings.ReplaceAll(rel, "\\", "/")

		if d.IsDir() {
			if rel != "." && !pf.IsAllowed(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(strings.ToLower(rel), ".ipynb") && pf.IsAllowed(rel) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	sort.Strings(paths)
	return paths, nil
}

// loadIgnoreList merges a reason-coded YAML ignore file with bare
// --ignore stems, which default to the "broken" reason.
func loadIgnoreList(path string, stems []string) (types.IgnoreList, error) {
	var il types.IgnoreList

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return il, fmt.Errorf("failed to read ignore file: %s - %w", path, err)
		}
		if err := yaml.Unmarshal(data, &il); err != nil {
			return il, fmt.Errorf("failed to parse ignore file: %s - %w", path, err)
		}
		for i, e := range il.Entries {
			if e.Name == "" {
				return il, fmt.Errorf("ignore file %s: entry %d has no name", path, i)
			}
			if e.Reason == "" {
				il.Entries[i].Reason = types.ReasonBroken
			}
		}
	}

	for _, stem := range stems {
		il.Add(strings.TrimSpace(stem), types.ReasonBroken)
	}
	return il, nil
}
