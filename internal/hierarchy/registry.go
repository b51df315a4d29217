// Package hierarchy exposes the fixed shape of the decision tree: level
// names, the slot count per parent and the maximum depth. The shape is
// loaded once from an embedded YAML file.
package hierarchy

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Level describes one depth of the hierarchy.
type Level struct {
	Depth int    `yaml:"depth" json:"depth"`
	Name  string `yaml:"name" json:"name"`
	Leaf  bool   `yaml:"leaf" json:"leaf"`
}

type shape struct {
	MaxDepth       int     `yaml:"max_depth"`
	SlotsPerParent int     `yaml:"slots_per_parent"`
	Levels         []Level `yaml:"levels"`
}

// Registry answers questions about the hierarchy shape.
type Registry struct {
	shape  shape
	byName map[int]Level
}

// NewRegistry loads the embedded hierarchy configuration.
func NewRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile("config/levels.yaml")
	if err != nil {
		return nil, fmt.Errorf("read hierarchy config: %w", err)
	}

	var s shape
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal hierarchy config: %w", err)
	}
	if s.MaxDepth <= 0 || s.SlotsPerParent <= 0 || len(s.Levels) != s.MaxDepth+1 {
		return nil, fmt.Errorf("hierarchy config is malformed: %d levels for max depth %d", len(s.Levels), s.MaxDepth)
	}

	byName := make(map[int]Level, len(s.Levels))
	for _, lvl := range s.Levels {
		byName[lvl.Depth] = lvl
	}

	return &Registry{shape: s, byName: byName}, nil
}

// MaxDepth returns the leaf depth of the hierarchy.
func (r *Registry) MaxDepth() int {
	return r.shape.MaxDepth
}

// SlotsPerParent returns how many ordered child slots each parent has.
func (r *Registry) SlotsPerParent() int {
	return r.shape.SlotsPerParent
}

// LevelName returns the display name of a depth, or an error when the depth
// is outside the hierarchy.
func (r *Registry) LevelName(depth int) (string, error) {
	lvl, ok := r.byName[depth]
	if !ok {
		return "", fmt.Errorf("depth %d is outside the hierarchy (max %d)", depth, r.shape.MaxDepth)
	}
	return lvl.Name, nil
}

// IsLeafDepth reports whether nodes at the given depth are leaves.
func (r *Registry) IsLeafDepth(depth int) bool {
	return r.byName[depth].Leaf
}

// ValidDepth reports whether the depth exists in the hierarchy.
func (r *Registry) ValidDepth(depth int) bool {
	_, ok := r.byName[depth]
	return ok
}

// ValidSlot reports whether the slot is a legal child position.
func (r *Registry) ValidSlot(slot int) bool {
	return slot >= 1 && slot <= r.shape.SlotsPerParent
}
