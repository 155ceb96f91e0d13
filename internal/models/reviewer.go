package models

import (
	"fmt"
	"strings"
)

// BiasStance describes how a reviewer persona is instructed to judge an application.
type BiasStance string

const (
	Biased   BiasStance = "biased"
	Unbiased BiasStance = "unbiased"
)

// Valid reports whether the stance is one of the known values.
func (s BiasStance) Valid() bool {
	return s == Biased || s == Unbiased
}

// ParseBiasStance normalizes the provided value into a BiasStance.
func ParseBiasStance(v string) (BiasStance, error) {
	stance := BiasStance(strings.ToLower(strings.TrimSpace(v)))
	if !stance.Valid() {
		return "", fmt.Errorf("unknown bias stance %q", v)
	}
	return stance, nil
}

// Reviewer is the identity of a single reviewer persona.
type Reviewer struct {
	Name           string     `json:"name" yaml:"name"`
	BiasStance     BiasStance `json:"bias_stance" yaml:"bias_stance"`
	Specialization string     `json:"specialization" yaml:"specialization"`
}

func (r Reviewer) String() string {
	return fmt.Sprintf("%s (%s, %s)", r.Name, r.BiasStance, r.Specialization)
}
