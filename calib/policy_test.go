package calib

import (
	"testing"

	"github.com/pattyshack/gt/testing/expect"
	"github.com/pattyshack/gt/testing/suite"
)

type PolicySuite struct{}

func TestPolicy(t *testing.T) {
	suite.RunTests(t, &PolicySuite{})
}

func (PolicySuite) TestParseOverridesDefaults(t *testing.T) {
	policy, err := ParsePolicy([]byte(`
axis_members: [breakpoints, weights]
value_member: table
external_axes:
  EngineMap: [Axis_0, Axis_1]
suffix_rules:
  - suffix: _tbl
    axes: ["{base}_bkpt"]
`))
	expect.Nil(t, err)

	expect.Equal(t, []string{"breakpoints", "weights"}, policy.AxisMembers)
	expect.Equal(t, "table", policy.ValueMember)
	expect.Equal(
		t,
		[]string{"Axis_0", "Axis_1"},
		policy.ExternalAxes["EngineMap"])

	expect.Equal(t, 1, len(policy.SuffixRules))
	expect.Equal(t, "_tbl", policy.SuffixRules[0].Suffix)
}

func (PolicySuite) TestParseEmptyKeepsDefaults(t *testing.T) {
	policy, err := ParsePolicy([]byte(""))
	expect.Nil(t, err)

	expect.Equal(t, []string{"x", "y"}, policy.AxisMembers)
	expect.Equal(t, "value", policy.ValueMember)
}

func (PolicySuite) TestParseInvalidYaml(t *testing.T) {
	_, err := ParsePolicy([]byte("axis_members: ["))
	expect.Error(t, err, "failed to parse axis policy")
}

func (PolicySuite) TestAxisMember(t *testing.T) {
	policy := DefaultPolicy()
	expect.True(t, policy.isAxisMember("x"))
	expect.True(t, policy.isAxisMember("y"))
	expect.False(t, policy.isAxisMember("value"))
	expect.False(t, policy.isAxisMember("X"))
}

func (PolicySuite) TestSuffixRuleSubstitution(t *testing.T) {
	policy := AxisPolicy{
		SuffixRules: []SuffixRule{
			{Suffix: "_tbl", Axes: []string{"{base}_bkpt", "{name}_y"}},
		},
	}

	candidates := policy.externalAxisCandidates("Boost_tbl")
	expect.Equal(t, 1, len(candidates))
	expect.Equal(t, []string{"Boost_bkpt", "Boost_tbl_y"}, candidates[0])

	// rule does not apply without the suffix
	expect.Equal(t, 0, len(policy.externalAxisCandidates("Boost")))
}

func (PolicySuite) TestExplicitBindingFirst(t *testing.T) {
	policy := DefaultPolicy()
	policy.ExternalAxes = map[string][]string{
		"Torque": {"SharedAxis"},
	}

	candidates := policy.externalAxisCandidates("Torque")
	expect.True(t, len(candidates) >= 2)
	expect.Equal(t, []string{"SharedAxis"}, candidates[0])
}
