package calib

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// AxisPolicy configures how axis members and external axis symbols are
// recognized.  The naming conventions vary by project, so the matching
// rule is policy rather than hard-coded.
type AxisPolicy struct {
	// Member names marking internal axis fields, in axis order.  The
	// first name is the x axis, the second the y axis.
	AxisMembers []string `yaml:"axis_members"`

	// Preferred name of the value member inside calibration structs.
	// When empty, the single non-axis array member is used.
	ValueMember string `yaml:"value_member"`

	// Explicit value-symbol to axis-symbol bindings, in axis order.
	// Checked before naming conventions.
	ExternalAxes map[string][]string `yaml:"external_axes"`

	// Naming conventions for external axes, tried in order.  A rule
	// applies when the value symbol's name carries the suffix; each
	// template yields one candidate axis symbol, with "{base}" replaced
	// by the name without the suffix and "{name}" by the full name.
	SuffixRules []SuffixRule `yaml:"suffix_rules"`
}

type SuffixRule struct {
	Suffix string   `yaml:"suffix"`
	Axes   []string `yaml:"axes"`
}

// DefaultPolicy matches the common embedded naming style: axis members
// named x and y, value member named value, external axes found next to
// the value symbol under an _x/_y suffix.
func DefaultPolicy() AxisPolicy {
	return AxisPolicy{
		AxisMembers: []string{"x", "y"},
		ValueMember: "value",
		SuffixRules: []SuffixRule{
			{Suffix: "", Axes: []string{"{name}_x", "{name}_y"}},
			{Suffix: "", Axes: []string{"{name}_axis"}},
		},
	}
}

func ParsePolicy(content []byte) (AxisPolicy, error) {
	policy := DefaultPolicy()
	err := yaml.Unmarshal(content, &policy)
	if err != nil {
		return AxisPolicy{}, fmt.Errorf("failed to parse axis policy: %w", err)
	}

	return policy, nil
}

func LoadPolicy(path string) (AxisPolicy, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return AxisPolicy{}, fmt.Errorf("failed to read axis policy: %w", err)
	}

	return ParsePolicy(content)
}

func (policy AxisPolicy) isAxisMember(name string) bool {
	for _, axisName := range policy.AxisMembers {
		if name == axisName {
			return true
		}
	}
	return false
}

// externalAxisCandidates returns the candidate axis symbol lists for a
// value symbol, most specific first.
func (policy AxisPolicy) externalAxisCandidates(name string) [][]string {
	candidates := [][]string{}

	explicit, ok := policy.ExternalAxes[name]
	if ok {
		candidates = append(candidates, explicit)
	}

	for _, rule := range policy.SuffixRules {
		if !strings.HasSuffix(name, rule.Suffix) {
			continue
		}

		base := strings.TrimSuffix(name, rule.Suffix)
		axes := make([]string, 0, len(rule.Axes))
		for _, template := range rule.Axes {
			axis := strings.ReplaceAll(template, "{base}", base)
			axis = strings.ReplaceAll(axis, "{name}", name)
			axes = append(axes, axis)
		}

		candidates = append(candidates, axes)
	}

	return candidates
}
