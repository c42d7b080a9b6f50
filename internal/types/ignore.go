package types

// IgnoreReason classifies why a notebook is excluded from execution.
type IgnoreReason string

const (
	ReasonBroken   IgnoreReason = "broken"   // known broken, tracked elsewhere
	ReasonSlow     IgnoreReason = "slow"     // too slow for CI budgets
	ReasonHardware IgnoreReason = "hardware" // needs hardware CI does not have
)

type (
	// IgnoreEntry excludes one notebook (by stem) with a recorded reason.
	IgnoreEntry struct {
		Name   string       `yaml:"name" json:"name"`
		Reason IgnoreReason `yaml:"reason" json:"reason"`
	}

	// IgnoreList is the set of notebooks excluded from execution.
	// Immutable during a run; ignored notebooks are reported as skipped,
	// never silently dropped.
	IgnoreList struct {
		Entries []IgnoreEntry `yaml:"ignore" json:"ignore"`
	}
)

// Lookup returns the entry for a notebook stem, if present.
func (il IgnoreList) Lookup(stem string) (IgnoreEntry, bool) {
	for _, e := range il.Entries {
		if e.Name == stem {
			return e, true
		}
	}
	return IgnoreEntry{}, false
}

// Add appends a stem with the given reason, ignoring duplicates.
func (il *IgnoreList) Add(stem string, reason IgnoreReason) {
	if _, ok := il.Lookup(stem); ok {
		return
	}
	il.Entries = append(il.Entries, IgnoreEntry{Name: stem, Reason: reason})
}
