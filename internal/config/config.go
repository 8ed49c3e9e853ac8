// Package config carries the tunable polynomial constants used by
// flakiness estimation and optimal-stiffness selection. DefaultProfile
// always reproduces the hardcoded constants the core ships with (the zero
// value of Profile does not: all of its constants are zero); loading an override profile from YAML is for offline
// experimentation only and is never on the default code path, so the
// bitwise test vectors stay reproducible.
package config

import (
	goerrors "github.com/adamcrume/robust-binary-search/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Profile holds the curve-fit constants behind flakiness estimation and
// stiffness selection. Field names mirror the formulas they parameterize.
type Profile struct {
	// Flakiness: r = (I + FlakinessPriorI) / (R + FlakinessPriorR);
	// f = clamp(FlakinessA*r^2 + FlakinessB*r, 0, 1).
	FlakinessPriorI float64 `yaml:"flakiness_prior_i"`
	FlakinessPriorR float64 `yaml:"flakiness_prior_r"`
	FlakinessA      float64 `yaml:"flakiness_a"`
	FlakinessB      float64 `yaml:"flakiness_b"`

	// Stiffness: s(f) = min(StiffnessC1*f^StiffnessP1, StiffnessC2*f^StiffnessP2, StiffnessC3*f^StiffnessP3).
	StiffnessC1 float64 `yaml:"stiffness_c1"`
	StiffnessP1 float64 `yaml:"stiffness_p1"`
	StiffnessC2 float64 `yaml:"stiffness_c2"`
	StiffnessP2 float64 `yaml:"stiffness_p2"`
	StiffnessC3 float64 `yaml:"stiffness_c3"`
	StiffnessP3 float64 `yaml:"stiffness_p3"`
}

// DefaultProfile returns the constants the core ships with.
func DefaultProfile() Profile {
	return Profile{
		FlakinessPriorI: 1.0,
		FlakinessPriorR: 7.6143,
		FlakinessA:      0.1698,
		FlakinessB:      3.7844,

		StiffnessC1: 2.6,
		StiffnessP1: -0.37,
		StiffnessC2: 0.58,
		StiffnessP2: -0.97,
		StiffnessC3: 0.19,
		StiffnessP3: -2.4,
	}
}

// Load parses a Profile from YAML bytes, falling back to DefaultProfile
// for any field absent from the document, so callers who want to override
// only one constant can supply a partial document. A field set explicitly,
// even to zero, takes the document's value.
func Load(data []byte) goerrors.Result[Profile] {
	profile := DefaultProfile()
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return goerrors.Err[Profile](goerrors.WrapYAMLError(err))
	}
	if profile.FlakinessPriorR <= 0 {
		return goerrors.Err[Profile](goerrors.NewInvalidProfile("flakiness_prior_r must be positive"))
	}
	return goerrors.Ok(profile)
}
