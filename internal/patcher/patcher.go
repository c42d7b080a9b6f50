// Package patcher rewrites code-cell source text from a substitution-rule table.
package patcher

import (
	"fmt"
	"os"
	"strings"

	"github.com/taigrr/nbcheck/internal/notebook"
	"github.com/taigrr/nbcheck/internal/types"
	"gopkg.in/yaml.v3"
)

// Service applies a rule set to notebooks in place.
type Service struct {
	rules types.RuleSet
}

// New creates a new patcher Service for the given rule set.
func New(rules types.RuleSet) *Service {
	return &Service{rules: rules}
}

// LoadRules reads and validates a YAML rule table.
func LoadRules(path string) (types.RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.RuleSet{}, fmt.Errorf("failed to read rules: %s - %w", path, err)
	}

	var rs types.RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return types.RuleSet{}, fmt.Errorf("failed to parse rules: %s - %w", path, err)
	}
	if rs.Version == 0 {
		rs.Version = 1
	}

	if err := Validate(rs); err != nil {
		return types.RuleSet{}, fmt.Errorf("invalid rules: %s - %w", path, err)
	}
	return rs, nil
}

// Validate rejects rule sets that cannot be applied idempotently.
// A rule whose replacement still contains its own match text would
// substitute again on every run.
func Validate(rs types.RuleSet) error {
	for _, g := range rs.Groups {
		if g.Notebook == "" {
			return fmt.Errorf("rule group without a notebook stem (use \"*\" for all notebooks)")
		}
		for _, r := range g.Replace {
			if r.From == "" {
				return fmt.Errorf("rule for %q has an empty match string", g.Notebook)
			}
			if strings.Contains(r.To, r.From) {
				return fmt.Errorf("rule for %q is not idempotent: replacement contains %q", g.Notebook, r.From)
			}
		}
	}
	return nil
}

// Patch applies every matching rule to the notebook's code cells.
// Rules that match nothing are silent no-ops.
func (s *Service) Patch(nb *notebook.Notebook) types.PatchResult {
	result := types.PatchResult{Path: nb.Path}
	rules := s.rules.RulesFor(notebook.Stem(nb.Path))
	if len(rules) == 0 {
		return result
	}

	for i := range nb.Cells {
		if nb.Cells[i].Type != notebook.CellCode {
			continue
		}
		source := string(nb.Cells[i].Source)
		for _, r := range rules {
			n := strings.Count(source, r.From)
			if n == 0 {
				continue
			}
			source = strings.ReplaceAll(source, r.From, r.To)
			result.Replacements += n
		}
		if source != string(nb.Cells[i].Source) {
			nb.Cells[i].Source = notebook.SourceText(source)
			result.Changed = true
		}
	}

	return result
}

// PatchFile loads a notebook, applies the rules, and writes it back in
// place when anything changed.
func (s *Service) PatchFile(path string) (types.PatchResult, error) {
	nb, err := notebook.Load(path)
	if err != nil {
		return types.PatchResult{Path: path}, err
	}

	result := s.Patch(nb)
	if !result.Changed {
		return result, nil
	}

	if err := nb.Save(path); err != nil {
		return result, err
	}
	return result, nil
}
