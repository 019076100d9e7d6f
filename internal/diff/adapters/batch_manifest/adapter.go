// Package batchmanifest loads batch comparison manifests.
package batchmanifest

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nathantilsley/diagram-diff/api"
	"github.com/nathantilsley/diagram-diff/internal/diff/domain"
)

// Load reads a manifest file and returns one request per diagram.
func Load(path string) ([]domain.CompareRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return Parse(data)
}

// Parse decodes manifest YAML. Entry refs fall back to the manifest-level
// defaults; every entry needs a path and both refs after that.
func Parse(data []byte) ([]domain.CompareRequest, error) {
	var manifest api.Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parsing manifest YAML: %w", err)
	}
	if len(manifest.Diagrams) == 0 {
		return nil, errors.New("manifest lists no diagrams")
	}

	reqs := make([]domain.CompareRequest, 0, len(manifest.Diagrams))
	for i, d := range manifest.Diagrams {
		if d.Path == "" {
			return nil, fmt.Errorf("diagram %d: path is required", i)
		}
		latest := firstNonEmpty(d.Latest, manifest.Latest)
		previous := firstNonEmpty(d.Previous, manifest.Previous)
		if latest == "" || previous == "" {
			return nil, fmt.Errorf("diagram %s: latest and previous refs are required", d.Path)
		}

		reqs = append(reqs, domain.CompareRequest{
			Name:     d.Name,
			Latest:   domain.SnapshotRef{Path: d.Path, Ref: latest},
			Previous: domain.SnapshotRef{Path: firstNonEmpty(d.PreviousPath, d.Path), Ref: previous},
		})
	}
	return reqs, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
