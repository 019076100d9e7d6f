package api

// Manifest is the top-level schema of a batch comparison file
// (diagram-diff.yaml) listing diagrams to compare between two revisions.
type Manifest struct {
	// Default refs applied to entries that do not set their own.
	Latest   string            `yaml:"latest"`
	Previous string            `yaml:"previous"`
	Diagrams []ManifestDiagram `yaml:"diagrams"`
}

// ManifestDiagram names one diagram snapshot. PreviousPath covers a
// diagram that was renamed between the two revisions.
type ManifestDiagram struct {
	Name         string `yaml:"name"`
	Path         string `yaml:"path"`
	PreviousPath string `yaml:"previousPath,omitempty"`
	Latest       string `yaml:"latest,omitempty"`
	Previous     string `yaml:"previous,omitempty"`
}
