package tags

import (
	"fmt"
	"sort"
	"strings"
)

// DetailConfig specifies, per descriptor group, how many tags to retain when
// rendering. A group absent from the map is suppressed entirely. The zero
// value therefore renders only the primary genre and energy level.
type DetailConfig map[Group]int

// MaxDetail returns the configuration blueprints are generated at: every
// group present at MaxGroupCount.
func MaxDetail() DetailConfig {
	cfg := make(DetailConfig, len(allGroups))
	for _, group := range allGroups {
		cfg[group] = MaxGroupCount
	}
	return cfg
}

// Validate rejects unknown groups and negative counts, and clamps counts
// above the generation maximum down to MaxGroupCount. It is called once at
// submission time so render never has to trust its input.
func (c DetailConfig) Validate() error {
	for group, count := range c {
		if !KnownGroup(group) {
			return fmt.Errorf("unknown descriptor group %q", group)
		}
		if count < 0 {
			return fmt.Errorf("descriptor group %q: count must not be negative", group)
		}
		if count > MaxGroupCount {
			c[group] = MaxGroupCount
		}
	}
	return nil
}

// Count returns the configured count for a group (0 when suppressed).
func (c DetailConfig) Count(group Group) int {
	return c[group]
}

// Clone copies the configuration.
func (c DetailConfig) Clone() DetailConfig {
	if c == nil {
		return nil
	}
	cp := make(DetailConfig, len(c))
	for group, count := range c {
		cp[group] = count
	}
	return cp
}

// String renders the configuration compactly for logs, in canonical group order.
func (c DetailConfig) String() string {
	if len(c) == 0 {
		return "(primary only)"
	}
	parts := make([]string, 0, len(c))
	for _, group := range allGroups {
		if count, ok := c[group]; ok {
			parts = append(parts, fmt.Sprintf("%s=%d", group, count))
		}
	}
	// Unknown groups should never survive Validate, but keep output total.
	if len(parts) < len(c) {
		extras := make([]string, 0, len(c)-len(parts))
		for group, count := range c {
			if !KnownGroup(group) {
				extras = append(extras, fmt.Sprintf("%s=%d", group, count))
			}
		}
		sort.Strings(extras)
		parts = append(parts, extras...)
	}
	return strings.Join(parts, " ")
}
