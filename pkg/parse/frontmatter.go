package parse

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/flowpack/pkg/diagram"
)

const frontmatterFence = "---"

// frontmatter is the leading YAML block of a diagram:
//
//	---
//	config:
//	  layout: elk.stress
//	  elk:
//	    elk.stress.desiredEdgeLength: 450
//	---
type frontmatter struct {
	Config struct {
		Layout string         `yaml:"layout"`
		Elk    map[string]any `yaml:"elk"`
	} `yaml:"config"`
}

// algorithm maps the layout directive to an algorithm name.
// "elk" selects layered; "elk.<name>" selects <name>; anything else is ignored.
func (f frontmatter) algorithm() string {
	layout := strings.TrimSpace(f.Config.Layout)
	switch {
	case layout == "elk":
		return "layered"
	case strings.HasPrefix(layout, "elk."):
		return strings.TrimPrefix(layout, "elk.")
	}
	return ""
}

// overrides returns the elk option block with values stringified and the
// fully-qualified "org.eclipse." prefix removed.
func (f frontmatter) overrides() diagram.Options {
	if len(f.Config.Elk) == 0 {
		return nil
	}
	out := make(diagram.Options, len(f.Config.Elk))
	for k, v := range f.Config.Elk {
		if v == nil {
			continue
		}
		out[strings.TrimPrefix(k, "org.eclipse.")] = fmt.Sprint(v)
	}
	return out
}

// splitFrontmatter separates a leading fenced block from the body lines.
// fence is the index of the opening fence.
// It returns the block (without fences), the index of the first body line,
// and whether a complete block was found.
func splitFrontmatter(lines []string) (block string, fence, body int, ok bool) {
	first := -1
	for i, l := range lines {
		if strings.TrimSpace(l) != "" {
			first = i
			break
		}
	}
	if first < 0 || strings.TrimSpace(lines[first]) != frontmatterFence {
		return "", 0, 0, false
	}
	for i := first + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == frontmatterFence {
			return strings.Join(lines[first+1:i], "\n"), first, i + 1, true
		}
	}
	return "", 0, 0, false
}

func decodeFrontmatter(block string) (frontmatter, error) {
	var f frontmatter
	if err := yaml.Unmarshal([]byte(block), &f); err != nil {
		return f, fmt.Errorf("frontmatter: %w", err)
	}
	return f, nil
}
