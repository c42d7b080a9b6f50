// Package notebook parses and serializes Jupyter nbformat-4 documents.
package notebook

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Cell kinds used by the harness. Raw cells are preserved but never executed.
const (
	CellCode     = "code"
	CellMarkdown = "markdown"
	CellRaw      = "raw"
)

type (
	// Notebook is an ordered sequence of cells plus document metadata.
	// Unknown metadata is carried through untouched so a parse/serialize
	// round trip preserves structure.
	Notebook struct {
		Cells         []Cell          `json:"cells"`
		Metadata      json.RawMessage `json:"metadata,omitempty"`
		NBFormat      int             `json:"nbformat"`
		NBFormatMinor int             `json:"nbformat_minor"`

		// Path is where the notebook was loaded from, not serialized.
		Path string `json:"-"`
	}

	// Cell is a single markdown, code, or raw cell.
	Cell struct {
		Type           string          `json:"cell_type"`
		Source         SourceText      `json:"source"`
		Metadata       json.RawMessage `json:"metadata,omitempty"`
		ExecutionCount *int            `json:"execution_count,omitempty"`
		Outputs        json.RawMessage `json:"outputs,omitempty"`
	}
)

// SourceText is a cell source blob. nbformat stores it either as a
// single string or as a list of line strings; both forms decode to the
// joined text and encode back as a line list.
type SourceText string

// UnmarshalJSON accepts both source representations.
func (s *SourceText) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*s = SourceText(text)
		return nil
	}

	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return fmt.Errorf("source must be a string or list of strings: %w", err)
	}
	*s = SourceText(strings.Join(lines, ""))
	return nil
}

// MarshalJSON always encodes the canonical line-list form, so writing
// the same notebook twice yields byte-identical source fields.
func (s SourceText) MarshalJSON() ([]byte, error) {
	text := string(s)
	if text == "" {
		return []byte("[]"), nil
	}

	var lines []string
	for {
		idx := strings.Index(text, "\n")
		if idx == -1 {
			lines = append(lines, text)
			break
		}
		lines = append(lines, text[:idx+1])
		text = text[idx+1:]
		if text == "" {
			break
		}
	}
	return json.Marshal(lines)
}

// FormatError reports a notebook that could not be parsed as a cell sequence.
type FormatError struct {
	Path string
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed notebook %s: %v", e.Path, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Parse decodes notebook JSON. The path is only used for error reporting.
func Parse(data []byte, path string) (*Notebook, error) {
	var nb Notebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return nil, &FormatError{Path: path, Err: err}
	}
	if nb.NBFormat != 0 && nb.NBFormat < 4 {
		return nil, &FormatError{Path: path, Err: fmt.Errorf("unsupported nbformat %d", nb.NBFormat)}
	}
	for i, cell := range nb.Cells {
		switch cell.Type {
		case CellCode, CellMarkdown, CellRaw:
		default:
			return nil, &FormatError{Path: path, Err: fmt.Errorf("cell %d has unknown cell_type %q", i, cell.Type)}
		}
	}
	nb.Path = path
	return &nb, nil
}

// Load reads and parses a notebook file.
func Load(path string) (*Notebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read notebook: %s - %w", path, err)
	}
	return Parse(data, path)
}

// Save writes the notebook back to the given path.
func (nb *Notebook) Save(path string) error {
	data, err := json.MarshalIndent(nb, "", " ")
	if err != nil {
		return fmt.Errorf("failed to encode notebook: %s - %w", path, err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write notebook: %s - %w", path, err)
	}
	return nil
}

// CodeCells returns the indices of executable cells in document order.
func (nb *Notebook) CodeCells() []int {
	var idx []int
	for i, cell := range nb.Cells {
		if cell.Type == CellCode {
			idx = append(idx, i)
		}
	}
	return idx
}

// Stem returns the notebook identifier used by rule tables and ignore
// lists: the base filename without the .ipynb extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, ".ipynb")
}
