package types

// PathFilterConfig customizes notebook discovery filtering.
type PathFilterConfig struct {
	IgnoredPatterns   []string `yaml:"ignoredPatterns" json:"ignoredPatterns,omitempty"`
	AllowedExtensions []string `yaml:"allowedExtensions" json:"allowedExtensions,omitempty"`
}
