package types

type (
	// Rule is a single exact-literal substitution applied to code cells.
	Rule struct {
		From string `yaml:"from" json:"from"`
		To   string `yaml:"to" json:"to"`
	}

	// RuleGroup scopes a list of rules to a notebook stem, or to every
	// notebook when Notebook is the wildcard "*".
	RuleGroup struct {
		Notebook string `yaml:"notebook" json:"notebook"`
		Replace  []Rule `yaml:"replace" json:"replace"`
	}

	// RuleSet is a versioned substitution-rule table loaded from YAML.
	RuleSet struct {
		Version int         `yaml:"version" json:"version"`
		Groups  []RuleGroup `yaml:"rules" json:"rules"`
	}

	// PatchResult reports what the patcher did to one notebook.
	PatchResult struct {
		Path         string `json:"path"`
		Replacements int    `json:"replacements"`
		Changed      bool   `json:"changed"`
	}
)

// RulesFor returns the rules that apply to a notebook stem, wildcard
// groups first so notebook-specific rules run on already-generalized text.
func (rs RuleSet) RulesFor(stem string) []Rule {
	var rules []Rule
	for _, g := range rs.Groups {
		if g.Notebook == "*" {
			rules = append(rules, g.Replace...)
		}
	}
	for _, g := range rs.Groups {
		if g.Notebook == stem {
			rules = append(rules, g.Replace...)
		}
	}
	return rules
}
