// Package chunk builds the two-tier parent/child segment hierarchy from raw
// page text and derives deterministic record identifiers for each segment.
package chunk

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/ragdex/internal/domain"
)

// SplitConfig controls one tier of the splitter. Size and Overlap are
// measured in runes.
type SplitConfig struct {
	Size    int
	Overlap int
}

// Validate rejects configurations where windows could not advance.
func (c SplitConfig) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("size must be positive, got %d: %w", c.Size, domain.ErrInvalidSplitConfig)
	}
	if c.Overlap < 0 {
		return fmt.Errorf("overlap must be non-negative, got %d: %w", c.Overlap, domain.ErrInvalidSplitConfig)
	}
	if c.Overlap >= c.Size {
		return fmt.Errorf("overlap %d must be smaller than size %d: %w",
			c.Overlap, c.Size, domain.ErrInvalidSplitConfig)
	}
	return nil
}

// ParentSegment is one parent window with its ordered child windows.
type ParentSegment struct {
	Index    int
	Text     string
	Children []ChildSegment
}

// ChildSegment is one child window inside a parent.
type ChildSegment struct {
	Index int
	Text  string
}

// Splitter produces the parent/child hierarchy under fixed window rules.
// Splitting is pure and deterministic: identical input and configuration
// always yield identical, identically-ordered output.
type Splitter struct {
	parent SplitConfig
	child  SplitConfig
}

// NewSplitter validates both tiers and returns a splitter.
// Invalid configuration is rejected here, at construction time.
func NewSplitter(parent, child SplitConfig) (*Splitter, error) {
	if err := parent.Validate(); err != nil {
		return nil, fmt.Errorf("parent splitter: %w", err)
	}
	if err := child.Validate(); err != nil {
		return nil, fmt.Errorf("child splitter: %w", err)
	}
	return &Splitter{parent: parent, child: child}, nil
}

// Split builds the hierarchy for one page of text. Empty or whitespace-only
// input yields zero parents (a no-op, not an error).
func (s *Splitter) Split(text string) []ParentSegment {
	windows := slide(text, s.parent)
	parents := make([]ParentSegment, 0, len(windows))

	for i, w := range windows {
		p := ParentSegment{Index: i, Text: w}
		for j, cw := range slide(w, s.child) {
			p.Children = append(p.Children, ChildSegment{Index: j, Text: cw})
		}
		parents = append(parents, p)
	}

	return parents
}

// slide cuts text into fixed-stride rune windows of cfg.Size with cfg.Overlap
// runes shared between consecutive windows. The final window may be shorter.
func slide(text string, cfg SplitConfig) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	n := len(runes)
	stride := cfg.Size - cfg.Overlap

	var out []string
	for start := 0; ; start += stride {
		end := min(start+cfg.Size, n)
		out = append(out, string(runes[start:end]))
		if end == n {
			break
		}
	}
	return out
}
